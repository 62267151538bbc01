package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

// Submission is the body of a new case
type Submission struct {
	Applicant    models.Applicant    `json:"applicant"`
	Organization models.Organization `json:"organization"`
	CaseType     string              `json:"caseType"`
	Description  models.Description  `json:"description"`
}

// Submit files a new case in status submitted and tells the registrars about it
func (o *Orchestrator) Submit(ctx context.Context, actor policy.Actor, s Submission) (*Result, error) {
	if actor.Scoped() {
		o.Metrics.IncrementRejection("submit", string(lifecycle.KindForbidden))
		return nil, lifecycle.Forbidden("this session is limited to case %s", actor.CaseID)
	}
	if err := validateSubmission(&s); err != nil {
		o.Metrics.IncrementRejection("submit", string(lifecycle.KindInvalidInput))
		return nil, err
	}
	if actor.Category() == policy.ApplicantOnly && !actor.AdminGrade() {
		// applicants always file for themselves
		s.Applicant.UserID = actor.ID
		if s.Applicant.NationalID == "" {
			s.Applicant.NationalID = actor.NationalID
		}
	}

	now := o.Now()
	cs := &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			TrackingCode: NewTrackingCode(now.Year()),
			Applicant:    s.Applicant,
			Organization: s.Organization,
			CaseType:     strings.TrimSpace(s.CaseType),
			Description:  s.Description,
			Status:       models.StatusSubmitted,
			CreatedBy:    actor.ID,
			UpdatedBy:    actor.ID,
			CreatedAt:    primitive.NewDateTimeFromTime(now),
			UpdatedAt:    primitive.NewDateTimeFromTime(now),
		},
	}
	if err := o.Cases.InsertOne(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to insert case: %w", err)
	}
	o.Metrics.IncrementTransition("submit", string(models.StatusSubmitted))

	var fx SideEffects
	link := "/cases/" + cs.ID.Hex()
	fx.Attempted++
	err := o.Notifier.NotifyRole(ctx, models.RoleRegistrar, "New case submitted",
		fmt.Sprintf("Case %s (%s) was submitted by %s.", cs.Details.TrackingCode, cs.Details.CaseType, cs.Details.Applicant.Name),
		link, "case:"+cs.ID.Hex()+":submitted")
	if err != nil {
		fx.Failed++
		o.Metrics.IncrementSideEffectFailure("notification")
		zap.S().Errorw("failed to notify registrars", "caseID", cs.ID.Hex(), "error", err)
	}
	fx.Attempted++
	o.sendEmail(ctx, models.Email{
		To:         cs.Details.Applicant.Email,
		ToName:     cs.Details.Applicant.Name,
		Subject:    "Case received",
		Body:       fmt.Sprintf("Your case has been received. Your tracking code is %s.", cs.Details.TrackingCode),
		ActionURL:  o.absolute(link),
		ActionText: "View your case",
	})
	fx.Attempted++
	if err := o.Auditor.Log(ctx, "submit", "case", cs.ID.Hex(), actor, map[string]interface{}{
		"trackingCode": cs.Details.TrackingCode,
		"to":           models.StatusSubmitted,
	}); err != nil {
		fx.Failed++
		o.Metrics.IncrementSideEffectFailure("audit")
		zap.S().Errorw("failed to write audit log", "caseID", cs.ID.Hex(), "error", err)
	}

	return &Result{Case: cs, SideEffects: fx}, nil
}

// NewTrackingCode returns a short random public reference such as VC-2026-3F2A9C1B
func NewTrackingCode(year int) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("VC-%d-%s", year, strings.ToUpper(id[:8]))
}

func validateSubmission(s *Submission) error {
	s.Applicant.Name = strings.TrimSpace(s.Applicant.Name)
	s.Applicant.Email = strings.TrimSpace(s.Applicant.Email)
	if s.Applicant.Name == "" {
		return lifecycle.InvalidInput("applicant name is required")
	}
	if _, err := mail.ParseAddress(s.Applicant.Email); err != nil {
		return lifecycle.InvalidInput("applicant email is invalid")
	}
	if strings.TrimSpace(s.CaseType) == "" {
		return lifecycle.InvalidInput("case type is required")
	}
	return nil
}

// View loads a case the actor is allowed to see
func (o *Orchestrator) View(ctx context.Context, caseID string, actor policy.Actor) (*models.Case, error) {
	cs, err := o.Cases.FindByID(ctx, caseID)
	return checkVisible(actor, cs, err)
}

// ViewByTrackingCode loads a case by its public reference if the actor may see it
func (o *Orchestrator) ViewByTrackingCode(ctx context.Context, code string, actor policy.Actor) (*models.Case, error) {
	cs, err := o.Cases.FindByTrackingCode(ctx, strings.TrimSpace(code))
	return checkVisible(actor, cs, err)
}

func checkVisible(actor policy.Actor, cs *models.Case, err error) (*models.Case, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, lifecycle.NotFound("case not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	if !policy.CanView(actor, cs) {
		return nil, lifecycle.Forbidden("you do not have access to this case")
	}
	return cs, nil
}
