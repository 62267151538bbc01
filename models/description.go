package models

import (
	"encoding/json"
)

// Description keys that are read by the lifecycle rules. Every other key is carried
// through untouched in Extra.
const (
	DescDistrict      = "district"
	DescViolationType = "violationType"
	DescSubViolation  = "subViolation"
	DescNationalID    = "nationalId"
)

// Description is the free-form structured description of a case
type Description struct {
	District      string `json:"-" bson:"district,omitempty"`
	ViolationType string `json:"-" bson:"violationType,omitempty"`
	SubViolation  string `json:"-" bson:"subViolation,omitempty"`
	NationalID    string `json:"-" bson:"nationalId,omitempty"`

	Extra map[string]interface{} `json:"-" bson:",inline"`
}

// MarshalJSON flattens the typed fields and the pass-through bag into one object
func (d Description) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Extra)+4)
	for k, v := range d.Extra {
		out[k] = v
	}
	setIfNotEmpty(out, DescDistrict, d.District)
	setIfNotEmpty(out, DescViolationType, d.ViolationType)
	setIfNotEmpty(out, DescSubViolation, d.SubViolation)
	setIfNotEmpty(out, DescNationalID, d.NationalID)
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat object into the typed fields and the pass-through bag.
// Typed keys holding non-string values are kept in Extra rather than rejected.
func (d *Description) UnmarshalJSON(b []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Description{}
	d.District = takeString(raw, DescDistrict)
	d.ViolationType = takeString(raw, DescViolationType)
	d.SubViolation = takeString(raw, DescSubViolation)
	d.NationalID = takeString(raw, DescNationalID)
	if len(raw) > 0 {
		d.Extra = raw
	}
	return nil
}

func setIfNotEmpty(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func takeString(m map[string]interface{}, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	delete(m, key)
	return v
}
