package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/violation-case-api/api"
	"github.com/linesmerrill/violation-case-api/config"
	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
	"github.com/linesmerrill/violation-case-api/workflow"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Case exported for testing purposes
type Case struct {
	Service workflow.CaseService
	DB      databases.CaseDatabase
	HDB     databases.HearingDatabase
	RDB     databases.RemarkDatabase
}

// CaseList is one page of the case list
type CaseList struct {
	Cases []models.Case `json:"cases"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// CreateCaseHandler submits a new case
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var s workflow.Submission
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Service.Submit(r.Context(), actor, s)
	if err != nil {
		writeError(w, "failed to submit case", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// CasesHandler returns the page of cases visible to the caller, newest first
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	page := queryInt(r, "page", 1)

	filter := policy.ListFilter(actor)
	if status := models.CaseStatus(r.URL.Query().Get("status")); status != "" {
		if !status.Valid() {
			writeError(w, "invalid status", lifecycle.InvalidInput("unknown status %q", status))
			return
		}
		filter["case.status"] = status
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var cases []models.Case
	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cases, err = c.DB.Find(gctx, filter, databases.PageOptions(limit, page))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = c.DB.CountDocuments(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		config.ErrorStatus("failed to get cases", http.StatusInternalServerError, w, err)
		return
	}

	if cases == nil {
		cases = []models.Case{}
	}
	writeJSON(w, http.StatusOK, CaseList{Cases: cases, Total: total, Page: page, Limit: limit})
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	cs, err := c.Service.View(r.Context(), mux.Vars(r)["case_id"], actor)
	if err != nil {
		writeError(w, "failed to get case", err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// CaseByTrackingCodeHandler returns a case by its public tracking code
func (c Case) CaseByTrackingCodeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	cs, err := c.Service.ViewByTrackingCode(r.Context(), mux.Vars(r)["tracking_code"], actor)
	if err != nil {
		writeError(w, "failed to get case", err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// CaseHearingsHandler returns the hearings of a case in sequence order
func (c Case) CaseHearingsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	caseID := mux.Vars(r)["case_id"]
	if _, err := c.Service.View(r.Context(), caseID, actor); err != nil {
		writeError(w, "failed to get case", err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	hearings, err := c.HDB.FindByCase(ctx, caseID)
	if err != nil {
		config.ErrorStatus("failed to get hearings", http.StatusInternalServerError, w, err)
		return
	}
	if hearings == nil {
		hearings = []models.Hearing{}
	}
	writeJSON(w, http.StatusOK, hearings)
}

// CaseRemarksHandler returns the remarks of a case oldest first
func (c Case) CaseRemarksHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	caseID := mux.Vars(r)["case_id"]
	if _, err := c.Service.View(r.Context(), caseID, actor); err != nil {
		writeError(w, "failed to get case", err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	remarks, err := c.RDB.FindByCase(ctx, caseID)
	if err != nil {
		config.ErrorStatus("failed to get remarks", http.StatusInternalServerError, w, err)
		return
	}
	if remarks == nil {
		remarks = []models.Remark{}
	}
	writeJSON(w, http.StatusOK, remarks)
}

// TransitionHandler applies the action named in the path to a case
func (c Case) TransitionHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	caseID, action := vars["case_id"], lifecycle.Action(vars["action"])

	var payload lifecycle.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "failed to decode request", lifecycle.InvalidInput("malformed request body: %v", err))
		return
	}

	zap.S().Debugw("transition requested", "caseID", caseID, "action", action, "actor", actor.ID)
	res, err := c.Service.Apply(r.Context(), caseID, action, actor, payload)
	if err != nil {
		writeError(w, "failed to apply transition", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}
