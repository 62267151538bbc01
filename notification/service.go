// Package notification stores in-app notifications and pushes them to connected users.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/models"
)

// EventNewNotification is the websocket event name for a stored notification
const EventNewNotification = "new_notification"

// Service implements the workflow Notifier on top of the notifications collection
type Service struct {
	DB    databases.NotificationDatabase
	Users databases.UserDatabase
	Hub   *Hub
	Now   func() time.Time
}

// NewService builds a Service; hub may be nil when nothing is pushed live
func NewService(db databases.NotificationDatabase, users databases.UserDatabase, hub *Hub) *Service {
	return &Service{DB: db, Users: users, Hub: hub, Now: time.Now}
}

// Notify stores one notification for userID. A repeated dedupeKey is a no-op.
func (s *Service) Notify(ctx context.Context, userID, title, message, link, dedupeKey string) error {
	if userID == "" {
		return nil
	}
	n := &models.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Link:      link,
		DedupeKey: dedupeKey,
		CreatedAt: primitive.NewDateTimeFromTime(s.Now()),
	}
	if n.DedupeKey == "" {
		n.DedupeKey = primitive.NewObjectID().Hex()
	}
	inserted, err := s.DB.InsertIfAbsent(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	if inserted && s.Hub != nil {
		s.Hub.Send(userID, EventNewNotification, n)
	}
	return nil
}

// NotifyRole notifies every active holder of role. Each user gets their own dedupe key
// derived from dedupeKey, and one failing user does not stop the others.
func (s *Service) NotifyRole(ctx context.Context, role, title, message, link, dedupeKey string) error {
	users, err := s.Users.FindByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to find users with role %s: %w", role, err)
	}
	var errs []error
	for _, u := range users {
		key := ""
		if dedupeKey != "" {
			key = dedupeKey + ":" + u.ID
		}
		if err := s.Notify(ctx, u.ID, title, message, link, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ForUser returns the newest notifications of userID
func (s *Service) ForUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.DB.FindByUser(ctx, userID, limit)
}
