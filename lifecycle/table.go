package lifecycle

import (
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

// Action names a requested transition
type Action string

// Actions
const (
	ActionMarkComplete              Action = "mark_complete"
	ActionMarkIncomplete            Action = "mark_incomplete"
	ActionResubmit                  Action = "resubmit"
	ActionScheduleFirstHearing      Action = "schedule_first_hearing"
	ActionScheduleSubsequentHearing Action = "schedule_subsequent_hearing"
	ActionAdjourn                   Action = "adjourn"
	ActionApprove                   Action = "approve"
	ActionReject                    Action = "reject"
	ActionSetViolation              Action = "set_violation"
)

// MinRemarkLength is the shortest remark accepted where a remark is required
const MinRemarkLength = 10

type capability int

const (
	// registrar or admin
	capStaff capability = iota
	// applicant who owns the case, or admin
	capOwner
	// holder of the hearing_officer role, or admin
	capHearingDivision
)

func (c capability) allows(a policy.Actor, cs *models.Case) bool {
	if a.AdminGrade() {
		return true
	}
	switch c {
	case capStaff:
		return a.HasRole(models.RoleRegistrar)
	case capOwner:
		return policy.OwnsCase(a, cs)
	case capHearingDivision:
		return a.HasRole(models.RoleHearingOfficer)
	}
	return false
}

type hearingCount int

const (
	anyHearings hearingCount = iota
	noHearings
	someHearings
)

// gate is a check run after the payload, once the request is known to be well formed
type gate int

const (
	gateNone gate = iota
	// an officer must be assigned, and a non-admin actor must be that officer
	gateAssignedOfficer
	// as gateAssignedOfficer, and for non-admins the latest hearing must be in the past
	gateHearingOccurred
)

type transition struct {
	from        []models.CaseStatus // nil means any open status
	to          models.CaseStatus   // empty leaves the status unchanged
	capability  capability
	hearings    hearingCount
	gate        gate
	hearingType models.HearingType // non-empty creates a hearing of this type

	needsOfficer      bool
	needsHearingDate  bool
	needsHearingOrder bool
	needsRemark       bool
	needsViolation    bool

	assignRegistrar bool
	reauth          bool
	remarkType      string
	remarkOptional  bool // remark written only when text is supplied
}

var (
	activeHearing = []models.CaseStatus{models.StatusHearingScheduled, models.StatusUnderHearing}

	transitions = map[Action]transition{
		ActionMarkComplete: {
			from:            []models.CaseStatus{models.StatusSubmitted},
			to:              models.StatusComplete,
			capability:      capStaff,
			assignRegistrar: true,
		},
		ActionMarkIncomplete: {
			from:       []models.CaseStatus{models.StatusSubmitted, models.StatusComplete},
			to:         models.StatusIncomplete,
			capability: capStaff,
			reauth:     true,
			remarkType: "incomplete",
		},
		ActionResubmit: {
			from:       []models.CaseStatus{models.StatusIncomplete},
			to:         models.StatusSubmitted,
			capability: capOwner,
			remarkType: "resubmitted",
		},
		ActionScheduleFirstHearing: {
			from:             []models.CaseStatus{models.StatusComplete},
			to:               models.StatusHearingScheduled,
			capability:       capStaff,
			hearings:         noHearings,
			hearingType:      models.HearingInitial,
			needsOfficer:     true,
			needsHearingDate: true,
			remarkType:       "hearing_scheduled",
		},
		ActionScheduleSubsequentHearing: {
			from:             activeHearing,
			to:               models.StatusHearingScheduled,
			capability:       capHearingDivision,
			hearings:         someHearings,
			gate:             gateAssignedOfficer,
			hearingType:      models.HearingSubsequent,
			needsHearingDate: true,
			remarkType:       "hearing_scheduled",
		},
		ActionAdjourn: {
			from:              activeHearing,
			to:                models.StatusUnderHearing,
			capability:        capHearingDivision,
			hearings:          someHearings,
			gate:              gateHearingOccurred,
			hearingType:       models.HearingExtension,
			needsHearingDate:  true,
			needsHearingOrder: true,
			needsRemark:       true,
			remarkType:        "adjourned",
		},
		ActionApprove: {
			from:              activeHearing,
			to:                models.StatusApprovedResolved,
			capability:        capHearingDivision,
			hearings:          someHearings,
			gate:              gateHearingOccurred,
			needsHearingOrder: true,
			needsRemark:       true,
			remarkType:        "approved",
		},
		ActionReject: {
			from:              activeHearing,
			to:                models.StatusRejectedClosed,
			capability:        capHearingDivision,
			hearings:          someHearings,
			gate:              gateHearingOccurred,
			needsHearingOrder: true,
			needsRemark:       true,
			remarkType:        "rejected",
		},
		ActionSetViolation: {
			capability:     capHearingDivision,
			needsViolation: true,
			remarkType:     "violation_set",
			remarkOptional: true,
		},
	}
)

// Actions lists every known action
func Actions() []Action {
	return []Action{
		ActionMarkComplete, ActionMarkIncomplete, ActionResubmit,
		ActionScheduleFirstHearing, ActionScheduleSubsequentHearing,
		ActionAdjourn, ActionApprove, ActionReject, ActionSetViolation,
	}
}

// ParseAction validates an action name
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	_, ok := transitions[a]
	return a, ok
}

// NeedsOfficer reports whether the action resolves a selected hearing officer
func (a Action) NeedsOfficer() bool {
	return transitions[a].needsOfficer
}

// NeedsHearingOrder reports whether the action resolves a hearing order document
func (a Action) NeedsHearingOrder() bool {
	return transitions[a].needsHearingOrder
}

func (t transition) legalFrom(s models.CaseStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if t.from == nil {
		return true
	}
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}
