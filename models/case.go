package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseStatus is the lifecycle status stored on a case
type CaseStatus string

// Case statuses. ApprovedResolved and RejectedClosed are terminal.
const (
	StatusSubmitted        CaseStatus = "submitted"
	StatusComplete         CaseStatus = "complete"
	StatusIncomplete       CaseStatus = "incomplete"
	StatusHearingScheduled CaseStatus = "hearing_scheduled"
	StatusUnderHearing     CaseStatus = "under_hearing"
	StatusApprovedResolved CaseStatus = "approved_resolved"
	StatusRejectedClosed   CaseStatus = "rejected_closed"
)

// IsTerminal reports whether no further transitions are legal from s
func (s CaseStatus) IsTerminal() bool {
	return s == StatusApprovedResolved || s == StatusRejectedClosed
}

// Valid reports whether s is one of the known statuses
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusComplete, StatusIncomplete, StatusHearingScheduled,
		StatusUnderHearing, StatusApprovedResolved, StatusRejectedClosed:
		return true
	}
	return false
}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	// externally visible, never changes after submission
	TrackingCode string `json:"trackingCode" bson:"trackingCode"`

	Applicant    Applicant    `json:"applicant" bson:"applicant"`
	Organization Organization `json:"organization" bson:"organization"`
	CaseType     string       `json:"caseType" bson:"caseType"`
	Description  Description  `json:"description" bson:"description"`

	Status CaseStatus `json:"status" bson:"status"`

	AssignedRegistrar      string `json:"assignedRegistrar" bson:"assignedRegistrar"`
	AssignedHearingOfficer string `json:"assignedHearingOfficer" bson:"assignedHearingOfficer"`

	// set only on a terminal transition
	ClosedAt *primitive.DateTime `json:"closedAt" bson:"closedAt"`
	ClosedBy string              `json:"closedBy" bson:"closedBy"`

	CreatedBy string             `json:"createdBy" bson:"createdBy"`
	UpdatedBy string             `json:"updatedBy" bson:"updatedBy"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Applicant identifies who filed the case
type Applicant struct {
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Phone      string `json:"phone" bson:"phone"`
	NationalID string `json:"nationalId" bson:"nationalId"`
	UserID     string `json:"userID,omitempty" bson:"userID,omitempty"` // linked account, optional
}

// Organization identifies the organization the case is filed against or on behalf of
type Organization struct {
	Name           string `json:"name" bson:"name"`
	RegistrationNo string `json:"registrationNo" bson:"registrationNo"`
	Address        string `json:"address" bson:"address"`
}

// Closed reports whether the case has reached a terminal status
func (c *Case) Closed() bool {
	return c.Details.Status.IsTerminal()
}

// AssignmentSlot names a case field that is set at most once from empty
type AssignmentSlot string

// Assignment slots, valued with their stored document paths
const (
	SlotRegistrar      AssignmentSlot = "case.assignedRegistrar"
	SlotHearingOfficer AssignmentSlot = "case.assignedHearingOfficer"
)
