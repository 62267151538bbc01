// Package lifecycle validates case transitions and computes what each one writes. It
// never persists anything itself.
package lifecycle

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

// Payload carries the caller supplied input of a transition
type Payload struct {
	Remark           string     `json:"remark"`
	Proceedings      string     `json:"proceedings"`
	RemarkType       string     `json:"remarkType"`
	HearingDate      *time.Time `json:"hearingDate"`
	HearingOfficerID string     `json:"hearingOfficerID"`
	HearingOrderID   string     `json:"hearingOrderID"`
	ViolationType    string     `json:"violationType"`
	SubViolation     string     `json:"subViolation"`
}

// Request is everything Plan needs. Officer and HearingOrder are the entities resolved
// from the payload references, nil when the reference did not resolve.
type Request struct {
	Action       Action
	Case         *models.Case
	Actor        policy.Actor
	Hearings     []models.Hearing
	Payload      Payload
	Officer      *models.User
	HearingOrder *models.DocumentRef
	Now          time.Time
}

// Assignment sets a case slot. Without Reassign it only applies when the slot is empty.
type Assignment struct {
	Slot     models.AssignmentSlot
	UserID   string
	Reassign bool
}

// TransitionPlan describes the writes and side effects of one accepted transition
type TransitionPlan struct {
	Action          Action
	CaseID          string
	From            models.CaseStatus
	To              models.CaseStatus
	ExpectedVersion int32

	Update             models.CaseUpdate
	Assignments        []Assignment
	DeactivateHearings bool
	NewHearing         *models.Hearing
	Remark             *models.Remark

	Intents []Intent
}

// Plan runs the checks for req.Action in a fixed order and returns the first rejection,
// or the plan to persist: unknown action, visibility, capability, source status, hearing
// count, payload, then assignment and timing gates.
func Plan(req Request) (*TransitionPlan, error) {
	t, ok := transitions[req.Action]
	if !ok {
		return nil, InvalidInput("unknown action %q", req.Action)
	}
	cs := req.Case
	if cs == nil {
		return nil, NotFound("case not found")
	}
	if !policy.CanView(req.Actor, cs) {
		return nil, Forbidden("you do not have access to this case")
	}
	if !t.capability.allows(req.Actor, cs) {
		return nil, Forbidden("you are not allowed to %s", humanize(req.Action))
	}

	status := cs.Details.Status
	if status.IsTerminal() {
		return nil, PreconditionFailed("case is closed")
	}
	if !t.legalFrom(status) {
		return nil, PreconditionFailed("%s is not allowed while the case is %s", req.Action, status)
	}

	switch t.hearings {
	case noHearings:
		if len(req.Hearings) > 0 {
			return nil, PreconditionFailed("case already has hearings, schedule a subsequent hearing instead")
		}
	case someHearings:
		if len(req.Hearings) == 0 {
			return nil, PreconditionFailed("case has no hearings yet")
		}
	}

	if err := checkPayload(t, req); err != nil {
		return nil, err
	}
	if err := checkGate(t, req); err != nil {
		return nil, err
	}

	return build(t, req), nil
}

func checkPayload(t transition, req Request) error {
	p := req.Payload
	if t.needsOfficer {
		if strings.TrimSpace(p.HearingOfficerID) == "" {
			return InvalidInput("a hearing officer must be selected")
		}
		if req.Officer == nil {
			return NotFound("hearing officer not found")
		}
		if !req.Officer.HasRole(models.RoleHearingOfficer) {
			return InvalidInput("Selected user is not a hearing officer")
		}
		officerDistrict := strings.TrimSpace(req.Officer.Details.District)
		caseDistrict := strings.TrimSpace(req.Case.Details.Description.District)
		if officerDistrict != "" && caseDistrict != "" && !strings.EqualFold(officerDistrict, caseDistrict) {
			return InvalidInput("Selected hearing officer does not belong to the case district")
		}
	}
	if t.needsHearingDate {
		if p.HearingDate == nil || p.HearingDate.IsZero() {
			return InvalidInput("a hearing date is required")
		}
		if !p.HearingDate.After(req.Now) {
			return InvalidInput("hearing date must be in the future")
		}
	}
	if t.needsHearingOrder {
		if strings.TrimSpace(p.HearingOrderID) == "" {
			return InvalidInput("a hearing order attachment is required")
		}
		if req.HearingOrder == nil {
			return NotFound("hearing order document not found")
		}
	}
	if t.needsRemark && utf8.RuneCountInString(strings.TrimSpace(p.Remark)) < MinRemarkLength {
		return InvalidInput("remark must be at least %d characters", MinRemarkLength)
	}
	if t.needsViolation && strings.TrimSpace(p.ViolationType) == "" {
		return InvalidInput("a violation type is required")
	}
	return nil
}

func checkGate(t transition, req Request) error {
	if t.gate == gateNone {
		return nil
	}
	assigned := req.Case.Details.AssignedHearingOfficer
	// admins skip the identity and timing checks but still need an assigned officer
	// before a subsequent hearing
	if t.gate == gateAssignedOfficer && assigned == "" {
		return Forbidden("no hearing officer is assigned to this case")
	}
	if req.Actor.AdminGrade() {
		return nil
	}
	if assigned == "" {
		return Forbidden("no hearing officer is assigned to this case")
	}
	if assigned != req.Actor.ID {
		return Forbidden("only the assigned hearing officer can %s", humanize(req.Action))
	}
	if t.gate == gateHearingOccurred {
		latest := Latest(req.Hearings)
		if !latest.Details.ScheduledAt.Time().Before(req.Now) {
			return Forbidden("the latest hearing has not taken place yet")
		}
	}
	return nil
}

func build(t transition, req Request) *TransitionPlan {
	cs := req.Case
	caseID := cs.ID.Hex()
	now := req.Now
	actorID := req.Actor.ID

	to := t.to
	if to == "" {
		to = cs.Details.Status
	}

	plan := &TransitionPlan{
		Action:          req.Action,
		CaseID:          caseID,
		From:            cs.Details.Status,
		To:              to,
		ExpectedVersion: cs.Version,
		Update: models.CaseUpdate{
			Status:    t.to,
			UpdatedBy: actorID,
			UpdatedAt: now,
		},
	}

	if to.IsTerminal() {
		closedAt := now
		plan.Update.ClosedAt = &closedAt
		plan.Update.ClosedBy = actorID
		plan.DeactivateHearings = true
	}

	if t.needsViolation {
		plan.Update.Violation = &models.ViolationPatch{
			ViolationType: strings.TrimSpace(req.Payload.ViolationType),
			SubViolation:  strings.TrimSpace(req.Payload.SubViolation),
		}
	}

	if t.assignRegistrar && cs.Details.AssignedRegistrar == "" {
		plan.Assignments = append(plan.Assignments, Assignment{Slot: models.SlotRegistrar, UserID: actorID})
	}
	if t.needsOfficer {
		officerID := req.Officer.ID
		switch cs.Details.AssignedHearingOfficer {
		case "":
			plan.Assignments = append(plan.Assignments, Assignment{Slot: models.SlotHearingOfficer, UserID: officerID})
		case officerID:
		default:
			plan.Assignments = append(plan.Assignments, Assignment{Slot: models.SlotHearingOfficer, UserID: officerID, Reassign: true})
		}
	}

	if t.hearingType != "" {
		plan.DeactivateHearings = true
		h := &models.Hearing{Details: models.HearingDetails{
			CaseID:      caseID,
			ScheduledAt: primitive.NewDateTimeFromTime(*req.Payload.HearingDate),
			Type:        t.hearingType,
			SequenceNo:  NextSequence(req.Hearings),
			IsActive:    true,
			CreatedBy:   actorID,
			CreatedAt:   primitive.NewDateTimeFromTime(now),
		}}
		if req.HearingOrder != nil {
			h.Details.HearingOrderID = req.HearingOrder.ID
		}
		plan.NewHearing = h
	}

	plan.Remark = buildRemark(t, req, to)
	plan.Intents = intentsFor(plan, req)
	return plan
}

func buildRemark(t transition, req Request, to models.CaseStatus) *models.Remark {
	text := strings.TrimSpace(req.Payload.Remark)
	if t.remarkOptional && text == "" {
		return nil
	}
	// mark_complete carries whatever remark type the caller chose, possibly none
	remarkType := t.remarkType
	if remarkType == "" {
		remarkType = strings.TrimSpace(req.Payload.RemarkType)
	}
	r := &models.Remark{Details: models.RemarkDetails{
		CaseID:      req.Case.ID.Hex(),
		Text:        text,
		Proceedings: strings.TrimSpace(req.Payload.Proceedings),
		RemarkType:  remarkType,
		CaseStatus:  to,
		CreatedBy:   req.Actor.ID,
		CreatedAt:   primitive.NewDateTimeFromTime(req.Now),
	}}
	if t.hearingType == "" && t.hearings == someHearings {
		if latest := Latest(req.Hearings); latest != nil {
			r.Details.HearingID = latest.ID.Hex()
		}
	}
	return r
}

func humanize(a Action) string {
	return strings.ReplaceAll(string(a), "_", " ")
}
