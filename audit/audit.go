// Package audit writes the append-only audit trail.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

// Logger implements the workflow Auditor over the auditlogs collection
type Logger struct {
	DB  databases.AuditLogDatabase
	Now func() time.Time
}

// New returns a Logger writing to db
func New(db databases.AuditLogDatabase) *Logger {
	return &Logger{DB: db, Now: time.Now}
}

// Log appends one entry
func (l *Logger) Log(ctx context.Context, action, entityType, entityID string, actor policy.Actor, details map[string]interface{}) error {
	entry := &models.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		Details:    details,
		CreatedAt:  primitive.NewDateTimeFromTime(l.Now()),
	}
	if err := l.DB.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
