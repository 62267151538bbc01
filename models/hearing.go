package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// HearingType distinguishes the first hearing from follow ups and adjournments
type HearingType string

// Hearing types
const (
	HearingInitial    HearingType = "initial"
	HearingSubsequent HearingType = "subsequent"
	HearingExtension  HearingType = "extension"
)

// Hearing holds the structure for the hearings collection in mongo
type Hearing struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details HearingDetails     `json:"hearing" bson:"hearing"`
}

// HearingDetails holds the structure for the inner hearing details
type HearingDetails struct {
	CaseID      string             `json:"caseID" bson:"caseID"`
	ScheduledAt primitive.DateTime `json:"scheduledAt" bson:"scheduledAt"`
	Type        HearingType        `json:"type" bson:"type"`
	SequenceNo  int                `json:"sequenceNo" bson:"sequenceNo"` // 1..N per case, gapless
	IsActive    bool               `json:"isActive" bson:"isActive"`

	// hearing order document the hearing was created under, if any
	HearingOrderID string `json:"hearingOrderID,omitempty" bson:"hearingOrderID,omitempty"`

	CreatedBy string             `json:"createdBy" bson:"createdBy"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
