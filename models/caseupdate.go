package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseUpdate is the set of case fields one transition writes. Zero values are left
// untouched except UpdatedBy and UpdatedAt, which are always written.
type CaseUpdate struct {
	Status    CaseStatus
	ClosedAt  *time.Time
	ClosedBy  string
	Violation *ViolationPatch
	UpdatedBy string
	UpdatedAt time.Time
}

// ViolationPatch replaces the violation classification inside a case description
type ViolationPatch struct {
	ViolationType string `json:"violationType"`
	SubViolation  string `json:"subViolation"`
}

// Apply mirrors the update onto an in-memory case
func (u CaseUpdate) Apply(c *Case) {
	if u.Status != "" {
		c.Details.Status = u.Status
	}
	if u.ClosedAt != nil {
		closedAt := primitive.NewDateTimeFromTime(*u.ClosedAt)
		c.Details.ClosedAt = &closedAt
		c.Details.ClosedBy = u.ClosedBy
	}
	if u.Violation != nil {
		c.Details.Description.ViolationType = u.Violation.ViolationType
		c.Details.Description.SubViolation = u.Violation.SubViolation
	}
	c.Details.UpdatedBy = u.UpdatedBy
	c.Details.UpdatedAt = primitive.NewDateTimeFromTime(u.UpdatedAt)
}

// DocumentRef points at a stored document such as a hearing order
type DocumentRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}
