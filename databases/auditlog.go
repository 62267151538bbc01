package databases

// go generate: mockery --name AuditLogDatabase

import (
	"context"

	"github.com/linesmerrill/violation-case-api/models"
)

const auditLogName = "auditlogs"

// AuditLogDatabase contains the methods to use with the audit log database
type AuditLogDatabase interface {
	InsertOne(ctx context.Context, entry *models.AuditLog) error
}

type auditLogDatabase struct {
	db DatabaseHelper
}

// NewAuditLogDatabase initializes a new instance of audit log database with the provided db connection
func NewAuditLogDatabase(db DatabaseHelper) AuditLogDatabase {
	return &auditLogDatabase{
		db: db,
	}
}

func (a *auditLogDatabase) InsertOne(ctx context.Context, entry *models.AuditLog) error {
	_, err := a.db.Collection(auditLogName).InsertOne(ctx, entry)
	return err
}
