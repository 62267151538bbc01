package workflow

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

const emailTimeout = 30 * time.Second

// fire runs the plan's intents and the audit entry. Each failure is logged and counted
// and never undoes the committed transition.
func (o *Orchestrator) fire(ctx context.Context, c *committed, actor policy.Actor) SideEffects {
	var fx SideEffects
	plan := c.plan
	cs := c.before

	failed := func(effect string, err error) {
		fx.Failed++
		o.Metrics.IncrementSideEffectFailure(effect)
		zap.S().Errorw("side effect failed",
			"effect", effect,
			"caseID", plan.CaseID,
			"action", plan.Action,
			"error", err)
	}

	for _, in := range plan.Intents {
		if in.RequiresSlot != "" && !c.won[in.RequiresSlot] {
			continue
		}
		fx.Attempted++
		switch in.Kind {
		case lifecycle.IntentNotifyUser:
			if err := o.Notifier.Notify(ctx, in.UserID, in.Title, in.Message, in.Link, in.DedupeKey); err != nil {
				failed("notification", err)
			}
		case lifecycle.IntentNotifyRole:
			if err := o.Notifier.NotifyRole(ctx, in.Role, in.Title, in.Message, in.Link, in.DedupeKey); err != nil {
				failed("notification", err)
			}
		case lifecycle.IntentEmailApplicant:
			o.sendEmail(ctx, models.Email{
				To:         cs.Details.Applicant.Email,
				ToName:     cs.Details.Applicant.Name,
				Subject:    in.Title,
				Body:       in.Message,
				ActionURL:  o.absolute(in.Link),
				ActionText: "View your case",
			})
		case lifecycle.IntentReauthLink:
			link, err := o.Reauth.Issue(ctx, cs)
			if err != nil {
				failed("reauth", err)
				continue
			}
			o.sendEmail(ctx, models.Email{
				To:         cs.Details.Applicant.Email,
				ToName:     cs.Details.Applicant.Name,
				Subject:    in.Title,
				Body:       in.Message,
				ActionURL:  link,
				ActionText: "Update your case",
			})
		}
	}

	fx.Attempted++
	details := map[string]interface{}{
		"from":    plan.From,
		"to":      plan.To,
		"version": plan.ExpectedVersion + 1,
	}
	if plan.NewHearing != nil {
		details["hearingID"] = plan.NewHearing.ID.Hex()
		details["sequenceNo"] = plan.NewHearing.Details.SequenceNo
	}
	if plan.Remark != nil {
		details["remarkID"] = plan.Remark.ID.Hex()
	}
	for _, a := range plan.Assignments {
		details[string(a.Slot)] = a.UserID
	}
	if err := o.Auditor.Log(ctx, string(plan.Action), "case", plan.CaseID, actor, details); err != nil {
		failed("audit", err)
	}
	return fx
}

// sendEmail hands the message to Dispatch; delivery failures are logged there
func (o *Orchestrator) sendEmail(ctx context.Context, email models.Email) {
	if email.To == "" {
		return
	}
	base := context.WithoutCancel(ctx)
	o.Dispatch(func() {
		ctx, cancel := context.WithTimeout(base, emailTimeout)
		defer cancel()
		if err := o.Mailer.Send(ctx, email); err != nil {
			o.Metrics.IncrementSideEffectFailure("email")
			zap.S().Errorw("failed to send email", "to", email.To, "subject", email.Subject, "error", err)
		}
	})
}

func (o *Orchestrator) absolute(link string) string {
	if strings.HasPrefix(link, "http") {
		return link
	}
	return strings.TrimRight(o.PublicWebURL, "/") + link
}
