package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

type auditDB struct {
	entries []*models.AuditLog
	err     error
}

func (a *auditDB) InsertOne(_ context.Context, entry *models.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

func TestLog(t *testing.T) {
	db := &auditDB{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &Logger{DB: db, Now: func() time.Time { return now }}

	err := l.Log(context.Background(), "approve", "case", "c1",
		policy.Actor{ID: "o1", Email: "o1@example.org"}, map[string]interface{}{"to": "approved_resolved"})
	require.NoError(t, err)

	require.Len(t, db.entries, 1)
	e := db.entries[0]
	assert.Equal(t, "approve", e.Action)
	assert.Equal(t, "case", e.EntityType)
	assert.Equal(t, "c1", e.EntityID)
	assert.Equal(t, "o1", e.ActorID)
	assert.Equal(t, "o1@example.org", e.ActorEmail)
	assert.Equal(t, now, e.CreatedAt.Time().UTC())
	assert.Equal(t, "approved_resolved", e.Details["to"])
}

func TestLog_WrapsError(t *testing.T) {
	l := New(&auditDB{err: errors.New("write concern")})

	err := l.Log(context.Background(), "submit", "case", "c1", policy.Actor{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write concern")
}
