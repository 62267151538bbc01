package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/linesmerrill/violation-case-api/config"
	"github.com/linesmerrill/violation-case-api/reauth"
)

// Redeemer exchanges a re-auth link token for an applicant session
type Redeemer interface {
	Redeem(ctx context.Context, raw string) (*reauth.Grant, error)
}

// Reauth exported for testing purposes
type Reauth struct {
	Service Redeemer
}

type redeemRequest struct {
	Token string `json:"token"`
}

// RedeemHandler burns a re-auth token and returns an applicant bearer token
func (re Reauth) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	grant, err := re.Service.Redeem(r.Context(), req.Token)
	if err != nil {
		writeError(w, "failed to redeem token", err)
		return
	}
	writeJSON(w, http.StatusOK, grant)
}
