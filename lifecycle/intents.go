package lifecycle

import (
	"fmt"

	"github.com/linesmerrill/violation-case-api/models"
)

// IntentKind is the kind of side effect a plan asks for
type IntentKind string

// Intent kinds
const (
	IntentNotifyUser     IntentKind = "notify_user"
	IntentNotifyRole     IntentKind = "notify_role"
	IntentEmailApplicant IntentKind = "email_applicant"
	IntentReauthLink     IntentKind = "reauth_link"
)

// Intent is one best-effort side effect fired after the transition commits
type Intent struct {
	Kind      IntentKind
	UserID    string
	Role      string
	Title     string
	Message   string
	Link      string
	DedupeKey string

	// when set, the intent fires only if this plan's assignment to the slot was won
	RequiresSlot models.AssignmentSlot
}

func intentsFor(plan *TransitionPlan, req Request) []Intent {
	cs := req.Case
	d := cs.Details
	link := "/cases/" + plan.CaseID
	version := plan.ExpectedVersion + 1
	key := func(kind IntentKind, target string) string {
		return fmt.Sprintf("case:%s:v%d:%s:%s:%s", plan.CaseID, version, plan.Action, kind, target)
	}

	var intents []Intent
	notifyUser := func(userID, title, message string, slot models.AssignmentSlot) {
		if userID == "" || userID == req.Actor.ID {
			return
		}
		intents = append(intents, Intent{
			Kind: IntentNotifyUser, UserID: userID, Title: title, Message: message,
			Link: link, DedupeKey: key(IntentNotifyUser, userID), RequiresSlot: slot,
		})
	}
	notifyApplicant := func(title, message string) {
		notifyUser(d.Applicant.UserID, title, message, "")
		if d.Applicant.Email != "" {
			intents = append(intents, Intent{
				Kind: IntentEmailApplicant, Title: title, Message: message,
				Link: link, DedupeKey: key(IntentEmailApplicant, d.Applicant.Email),
			})
		}
	}
	hearingDate := func() string {
		if plan.NewHearing == nil {
			return ""
		}
		return plan.NewHearing.Details.ScheduledAt.Time().UTC().Format("02 Jan 2006 15:04 MST")
	}

	tc := d.TrackingCode
	switch plan.Action {
	case ActionMarkComplete:
		notifyApplicant("Case accepted",
			fmt.Sprintf("Your case %s has been reviewed and marked complete.", tc))
	case ActionMarkIncomplete:
		notifyUser(d.Applicant.UserID, "Case incomplete",
			fmt.Sprintf("Your case %s is incomplete. Check your email for a link to update it.", tc), "")
		intents = append(intents, Intent{
			Kind: IntentReauthLink, Title: "Action required on your case",
			Message: fmt.Sprintf("Your case %s was marked incomplete. %s", tc, req.Payload.Remark),
			Link:    link, DedupeKey: key(IntentReauthLink, d.Applicant.Email),
		})
	case ActionResubmit:
		msg := fmt.Sprintf("Case %s was resubmitted by the applicant.", tc)
		intents = append(intents, Intent{
			Kind: IntentNotifyRole, Role: models.RoleRegistrar, Title: "Case resubmitted",
			Message: msg, Link: link, DedupeKey: key(IntentNotifyRole, models.RoleRegistrar),
		})
	case ActionScheduleFirstHearing:
		officerID := req.Officer.ID
		var slot models.AssignmentSlot
		for _, a := range plan.Assignments {
			if a.Slot == models.SlotHearingOfficer && !a.Reassign {
				slot = a.Slot
			}
		}
		notifyUser(officerID, "Case assigned",
			fmt.Sprintf("Case %s has been assigned to you. First hearing on %s.", tc, hearingDate()), slot)
		notifyApplicant("Hearing scheduled",
			fmt.Sprintf("A hearing for your case %s is scheduled on %s.", tc, hearingDate()))
	case ActionScheduleSubsequentHearing:
		notifyUser(d.AssignedHearingOfficer, "Hearing scheduled",
			fmt.Sprintf("Hearing #%d for case %s is scheduled on %s.", plan.NewHearing.Details.SequenceNo, tc, hearingDate()), "")
		notifyApplicant("Hearing scheduled",
			fmt.Sprintf("A further hearing for your case %s is scheduled on %s.", tc, hearingDate()))
	case ActionAdjourn:
		notifyUser(d.AssignedRegistrar, "Hearing adjourned",
			fmt.Sprintf("The hearing for case %s was adjourned to %s.", tc, hearingDate()), "")
		notifyApplicant("Hearing adjourned",
			fmt.Sprintf("The hearing for your case %s was adjourned to %s.", tc, hearingDate()))
	case ActionApprove, ActionReject:
		outcome := "approved"
		if plan.Action == ActionReject {
			outcome = "rejected"
		}
		notifyUser(d.AssignedRegistrar, "Case closed",
			fmt.Sprintf("Case %s was %s.", tc, outcome), "")
		notifyApplicant("Case decided",
			fmt.Sprintf("Your case %s has been %s.", tc, outcome))
	}
	return intents
}
