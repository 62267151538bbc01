package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/api"
	"github.com/linesmerrill/violation-case-api/config"
	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/policy"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// writeError answers a rejection with its kind and message, anything else is a 500
func writeError(w http.ResponseWriter, message string, err error) {
	var le *lifecycle.Error
	if errors.As(err, &le) {
		zap.S().Debugw("request rejected", "kind", le.Kind, "message", le.Message)
		writeJSON(w, le.Kind.HTTPStatus(), le)
		return
	}
	config.ErrorStatus(message, http.StatusInternalServerError, w, err)
}

func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (policy.Actor, bool) {
	actor, ok := api.ActorFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "unauthorized"}`))
	}
	return actor, ok
}
