package workflow

import (
	"context"
	"time"

	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

// CaseStore persists cases. ApplyChanges fails with databases.ErrVersionConflict when
// the stored version moved.
type CaseStore interface {
	FindByID(ctx context.Context, id string) (*models.Case, error)
	FindByTrackingCode(ctx context.Context, code string) (*models.Case, error)
	InsertOne(ctx context.Context, c *models.Case) error
	ApplyChanges(ctx context.Context, id string, version int32, upd models.CaseUpdate) error
	AssignIfUnset(ctx context.Context, id string, slot models.AssignmentSlot, userID string) (bool, error)
	SetAssignment(ctx context.Context, id string, slot models.AssignmentSlot, userID string) error
}

// HearingStore persists hearings
type HearingStore interface {
	FindByCase(ctx context.Context, caseID string) ([]models.Hearing, error)
	LatestByCase(ctx context.Context, caseID string) (*models.Hearing, error)
	CountByCase(ctx context.Context, caseID string) (int64, error)
	Create(ctx context.Context, h *models.Hearing) error
	BulkDeactivate(ctx context.Context, caseID string) (int64, error)
}

// RemarkStore appends remarks
type RemarkStore interface {
	Append(ctx context.Context, r *models.Remark) error
}

// UserStore resolves users referenced by a payload
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier delivers in-app notifications. Both calls are idempotent per dedupe key.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, link, dedupeKey string) error
	NotifyRole(ctx context.Context, role, title, message, link, dedupeKey string) error
}

// Mailer sends one email
type Mailer interface {
	Send(ctx context.Context, email models.Email) error
}

// Auditor writes audit trail entries
type Auditor interface {
	Log(ctx context.Context, action, entityType, entityID string, actor policy.Actor, details map[string]interface{}) error
}

// DocumentStore resolves document references. A missing document is (nil, nil).
type DocumentStore interface {
	Lookup(ctx context.Context, ref string) (*models.DocumentRef, error)
}

// Locker hands out named leases
type Locker interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

// ReauthIssuer stores a one-time re-authentication token for the applicant of a case
// and returns the link that redeems it
type ReauthIssuer interface {
	Issue(ctx context.Context, c *models.Case) (string, error)
}

// CaseService is the case API served by the Orchestrator
type CaseService interface {
	Submit(ctx context.Context, actor policy.Actor, s Submission) (*Result, error)
	Apply(ctx context.Context, caseID string, action lifecycle.Action, actor policy.Actor, payload lifecycle.Payload) (*Result, error)
	View(ctx context.Context, caseID string, actor policy.Actor) (*models.Case, error)
	ViewByTrackingCode(ctx context.Context, code string, actor policy.Actor) (*models.Case, error)
}

var _ CaseService = (*Orchestrator)(nil)
