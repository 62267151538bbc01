// Package workflow applies case transitions: it serializes writers per case, persists
// the lifecycle plan as one unit and then fires the plan's side effects best-effort.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/metrics"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

// Orchestrator holds the collaborators of a transition
type Orchestrator struct {
	Cases     CaseStore
	Hearings  HearingStore
	Remarks   RemarkStore
	Users     UserStore
	Notifier  Notifier
	Mailer    Mailer
	Auditor   Auditor
	Documents DocumentStore
	Locks     Locker
	Tx        TxRunner
	Reauth    ReauthIssuer
	Metrics   *metrics.Metrics

	LockTTL      time.Duration
	PublicWebURL string

	// Now and NewOwner are replaced in tests
	Now      func() time.Time
	NewOwner func() string
	// Dispatch runs fire-and-forget work such as email delivery
	Dispatch func(func())
}

// Result is the success envelope of a transition
type Result struct {
	Case        *models.Case    `json:"case"`
	Hearing     *models.Hearing `json:"hearing,omitempty"`
	Remark      *models.Remark  `json:"remark,omitempty"`
	SideEffects SideEffects     `json:"sideEffects"`
}

// SideEffects counts the side effects fired after commit. Failures are never returned
// as errors.
type SideEffects struct {
	Attempted int `json:"attempted"`
	Failed    int `json:"failed"`
}

// NewOrchestrator fills in the defaults for clocks, lease owners and dispatch
func NewOrchestrator(o Orchestrator) *Orchestrator {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewOwner == nil {
		o.NewOwner = func() string { return uuid.New().String() }
	}
	if o.Dispatch == nil {
		o.Dispatch = goDispatch
	}
	if o.LockTTL == 0 {
		o.LockTTL = 30 * time.Second
	}
	if o.Tx == nil {
		o.Tx = NewDirectTx()
	}
	return &o
}

func goDispatch(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("panic in dispatched side effect", "panic", r)
			}
		}()
		f()
	}()
}

type committed struct {
	plan   *lifecycle.TransitionPlan
	before *models.Case
	won    map[models.AssignmentSlot]bool
}

// Apply runs action on the case for actor. A *lifecycle.Error is returned for every
// rejection, including Conflict when another request holds the case; any other error
// is a persistence failure.
func (o *Orchestrator) Apply(ctx context.Context, caseID string, action lifecycle.Action, actor policy.Actor, payload lifecycle.Payload) (*Result, error) {
	if _, ok := lifecycle.ParseAction(string(action)); !ok {
		o.Metrics.IncrementRejection(string(action), string(lifecycle.KindInvalidInput))
		return nil, lifecycle.InvalidInput("unknown action %q", action)
	}

	c, err := o.transition(ctx, caseID, action, actor, payload)
	if err != nil {
		if kind, ok := lifecycle.KindOf(err); ok {
			o.Metrics.IncrementRejection(string(action), string(kind))
		}
		return nil, err
	}
	o.Metrics.IncrementTransition(string(action), string(c.plan.To))

	after := *c.before
	c.plan.Update.Apply(&after)
	for _, a := range c.plan.Assignments {
		if !c.won[a.Slot] {
			continue
		}
		switch a.Slot {
		case models.SlotRegistrar:
			after.Details.AssignedRegistrar = a.UserID
		case models.SlotHearingOfficer:
			after.Details.AssignedHearingOfficer = a.UserID
		}
	}
	after.Version = c.plan.ExpectedVersion + 1

	res := &Result{Case: &after, Hearing: c.plan.NewHearing, Remark: c.plan.Remark}
	res.SideEffects = o.fire(ctx, c, actor)
	return res, nil
}

// transition is the locked read-validate-write part of Apply
func (o *Orchestrator) transition(ctx context.Context, caseID string, action lifecycle.Action, actor policy.Actor, payload lifecycle.Payload) (*committed, error) {
	owner := o.NewOwner()
	lockName := "case:" + caseID
	acquired, err := o.Locks.TryAcquireLock(ctx, lockName, owner, o.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire case lock: %w", err)
	}
	if !acquired {
		return nil, lifecycle.Conflict("case is being updated by another request, try again")
	}
	defer func() {
		if err := o.Locks.ReleaseLock(context.WithoutCancel(ctx), lockName, owner); err != nil {
			zap.S().Errorw("failed to release case lock", "caseID", caseID, "error", err)
		}
	}()
	defer o.Metrics.ObserveTransition(time.Now())

	cs, err := o.Cases.FindByID(ctx, caseID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, lifecycle.NotFound("case not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	hearings, err := o.Hearings.FindByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hearings: %w", err)
	}

	req := lifecycle.Request{
		Action:   action,
		Case:     cs,
		Actor:    actor,
		Hearings: hearings,
		Payload:  payload,
		Now:      o.Now(),
	}
	if action.NeedsOfficer() && payload.HearingOfficerID != "" {
		officer, err := o.Users.FindByID(ctx, payload.HearingOfficerID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to load hearing officer: %w", err)
		}
		req.Officer = officer
	}
	if action.NeedsHearingOrder() && payload.HearingOrderID != "" {
		doc, err := o.Documents.Lookup(ctx, payload.HearingOrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up hearing order: %w", err)
		}
		req.HearingOrder = doc
	}

	plan, err := lifecycle.Plan(req)
	if err != nil {
		return nil, err
	}

	won, err := o.commit(ctx, plan)
	if errors.Is(err, databases.ErrVersionConflict) {
		return nil, lifecycle.Conflict("case was modified by another request, reload and try again")
	}
	if err != nil {
		return nil, err
	}
	return &committed{plan: plan, before: cs, won: won}, nil
}

// commit writes the case, assignments, hearing mutation and remark as one unit
func (o *Orchestrator) commit(ctx context.Context, plan *lifecycle.TransitionPlan) (map[models.AssignmentSlot]bool, error) {
	var won map[models.AssignmentSlot]bool
	err := o.Tx.RunInTx(ctx, func(ctx context.Context) error {
		won = map[models.AssignmentSlot]bool{}

		if err := o.Cases.ApplyChanges(ctx, plan.CaseID, plan.ExpectedVersion, plan.Update); err != nil {
			return err
		}
		for _, a := range plan.Assignments {
			if a.Reassign {
				if err := o.Cases.SetAssignment(ctx, plan.CaseID, a.Slot, a.UserID); err != nil {
					return err
				}
				won[a.Slot] = true
				continue
			}
			ok, err := o.Cases.AssignIfUnset(ctx, plan.CaseID, a.Slot, a.UserID)
			if err != nil {
				return err
			}
			won[a.Slot] = ok
		}
		if plan.DeactivateHearings {
			if _, err := o.Hearings.BulkDeactivate(ctx, plan.CaseID); err != nil {
				return fmt.Errorf("failed to deactivate hearings: %w", err)
			}
		}
		if plan.NewHearing != nil {
			if err := o.Hearings.Create(ctx, plan.NewHearing); err != nil {
				return fmt.Errorf("failed to create hearing: %w", err)
			}
			if plan.Remark != nil {
				plan.Remark.Details.HearingID = plan.NewHearing.ID.Hex()
			}
		}
		if plan.Remark != nil {
			if err := o.Remarks.Append(ctx, plan.Remark); err != nil {
				return fmt.Errorf("failed to append remark: %w", err)
			}
		}
		return nil
	})
	return won, err
}
