package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/violation-case-api/api"
	"github.com/linesmerrill/violation-case-api/config"
	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/notification"
)

// NotificationLister lists a user's stored notifications
type NotificationLister interface {
	ForUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
}

// Notification exported for testing purposes
type Notification struct {
	Service NotificationLister
	Hub     *notification.Hub
}

// UserNotificationsHandler returns the newest notifications of a user. Users read their
// own, admins anyone's.
func (n Notification) UserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	userID := mux.Vars(r)["user_id"]
	if userID != actor.ID && !actor.AdminGrade() {
		writeError(w, "forbidden", lifecycle.Forbidden("you can only read your own notifications"))
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	notifications, err := n.Service.ForUser(ctx, userID, limit)
	if err != nil {
		config.ErrorStatus("failed to get notifications", http.StatusInternalServerError, w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// WebSocketHandler registers the caller for live notifications
func (n Notification) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	n.Hub.Serve(w, r, actor.ID)
}
