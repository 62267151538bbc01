package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Remark holds the structure for the remarks collection in mongo. Remarks are written
// once and never updated.
type Remark struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details RemarkDetails      `json:"remark" bson:"remark"`
}

// RemarkDetails holds the structure for the inner remark details
type RemarkDetails struct {
	CaseID      string     `json:"caseID" bson:"caseID"`
	Text        string     `json:"text" bson:"text"`
	Proceedings string     `json:"proceedings,omitempty" bson:"proceedings,omitempty"`
	RemarkType  string     `json:"remarkType,omitempty" bson:"remarkType,omitempty"`
	CaseStatus  CaseStatus `json:"caseStatus" bson:"caseStatus"` // status after the transition
	HearingID   string     `json:"hearingID,omitempty" bson:"hearingID,omitempty"`

	CreatedBy string             `json:"createdBy" bson:"createdBy"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
