package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/metrics"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/workflow"
)

const (
	jobHearingReminders = "hearing_reminders"
	jobTokenCleanup     = "reauth_token_cleanup"

	// reminders run once a day, the lease outlives any cron skew between instances
	reminderLease = 12 * time.Hour
)

// CaseFinder loads a case by id
type CaseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Case, error)
}

// HearingFinder lists active hearings in a time window
type HearingFinder interface {
	FindActiveBetween(ctx context.Context, from, to time.Time) ([]models.Hearing, error)
}

// TokenCleaner removes expired re-auth tokens
type TokenCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic background jobs. Every job takes a lease first so only
// one instance runs it.
type Scheduler struct {
	cron         *cron.Cron
	Cases        CaseFinder
	Hearings     HearingFinder
	Notifier     workflow.Notifier
	Mailer       workflow.Mailer
	Tokens       TokenCleaner
	LockDB       databases.LockDatabase
	Metrics      *metrics.Metrics
	PublicWebURL string

	instanceID string
	now        func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	cases CaseFinder,
	hearings HearingFinder,
	notifier workflow.Notifier,
	mailer workflow.Mailer,
	tokens TokenCleaner,
	lockDB databases.LockDatabase,
	m *metrics.Metrics,
	publicWebURL string,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		Cases:        cases,
		Hearings:     hearings,
		Notifier:     notifier,
		Mailer:       mailer,
		Tokens:       tokens,
		LockDB:       lockDB,
		Metrics:      m,
		PublicWebURL: publicWebURL,
		instanceID:   instanceID,
		now:          time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Remind officers and applicants of tomorrow's hearings daily at 7 AM UTC
	_, err := s.cron.AddFunc("0 7 * * *", func() {
		s.guarded(jobHearingReminders, 30*time.Minute, reminderLease, s.RunHearingReminders)
	})
	if err != nil {
		zap.S().Errorw("failed to register hearing reminder job", "error", err)
	}

	_, err = s.cron.AddFunc("@hourly", func() {
		s.guarded(jobTokenCleanup, 10*time.Minute, 0, s.RunTokenCleanup)
	})
	if err != nil {
		zap.S().Errorw("failed to register token cleanup job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// guarded runs job under the job's lease and records the outcome. With hold zero the
// lease lasts timeout and is released when the job returns. Otherwise the lease is kept
// for hold so an instance whose cron fires late skips the run.
func (s *Scheduler) guarded(name string, timeout, hold time.Duration, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	lease := timeout
	if hold > 0 {
		lease = hold
	}
	acquired, err := s.LockDB.TryAcquireLock(ctx, "job:"+name, s.instanceID, lease)
	if err != nil {
		zap.S().Errorw("failed to acquire job lock", "job", name, "error", err)
		s.Metrics.IncrementJobRun(name, "error")
		return
	}
	if !acquired {
		zap.S().Debugw("job already running on another instance, skipping", "job", name)
		s.Metrics.IncrementJobRun(name, "skipped")
		return
	}
	if hold == 0 {
		defer func() {
			if err := s.LockDB.ReleaseLock(context.WithoutCancel(ctx), "job:"+name, s.instanceID); err != nil {
				zap.S().Errorw("failed to release job lock", "job", name, "error", err)
			}
		}()
	}

	zap.S().Infow("running job", "job", name, "instance", s.instanceID)
	if err := job(ctx); err != nil {
		zap.S().Errorw("job failed", "job", name, "error", err)
		s.Metrics.IncrementJobRun(name, "error")
		return
	}
	s.Metrics.IncrementJobRun(name, "ok")
}

// RunHearingReminders notifies the assigned officer and the applicant of every active
// hearing scheduled for the next UTC day. Windows of consecutive daily runs do not
// overlap, and in-app notifications are keyed per hearing.
func (s *Scheduler) RunHearingReminders(ctx context.Context) error {
	today := s.now().UTC().Truncate(24 * time.Hour)
	from, to := today.Add(24*time.Hour), today.Add(48*time.Hour)

	hearings, err := s.Hearings.FindActiveBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to find upcoming hearings: %w", err)
	}

	var failed int
	for _, h := range hearings {
		if err := s.remind(ctx, h); err != nil {
			failed++
			s.Metrics.IncrementSideEffectFailure("reminder")
			zap.S().Errorw("failed to send hearing reminder", "hearingID", h.ID.Hex(), "caseID", h.Details.CaseID, "error", err)
		}
	}
	zap.S().Infow("hearing reminders sent", "hearings", len(hearings), "failed", failed)
	return nil
}

func (s *Scheduler) remind(ctx context.Context, h models.Hearing) error {
	cs, err := s.Cases.FindByID(ctx, h.Details.CaseID)
	if err != nil {
		return fmt.Errorf("failed to load case: %w", err)
	}
	if cs.Details.Status.IsTerminal() {
		return nil
	}

	when := h.Details.ScheduledAt.Time().UTC().Format("02 Jan 2006 15:04 MST")
	link := "/cases/" + h.Details.CaseID
	key := "hearing:" + h.ID.Hex() + ":reminder:"
	title := "Hearing tomorrow"

	if officer := cs.Details.AssignedHearingOfficer; officer != "" {
		msg := fmt.Sprintf("Hearing #%d for case %s is on %s.", h.Details.SequenceNo, cs.Details.TrackingCode, when)
		if err := s.Notifier.Notify(ctx, officer, title, msg, link, key+officer); err != nil {
			return err
		}
	}

	msg := fmt.Sprintf("Reminder: the hearing for your case %s is on %s.", cs.Details.TrackingCode, when)
	if applicant := cs.Details.Applicant.UserID; applicant != "" {
		if err := s.Notifier.Notify(ctx, applicant, title, msg, link, key+applicant); err != nil {
			return err
		}
	}
	if cs.Details.Applicant.Email != "" {
		return s.Mailer.Send(ctx, models.Email{
			To:         cs.Details.Applicant.Email,
			ToName:     cs.Details.Applicant.Name,
			Subject:    title,
			Body:       msg,
			ActionURL:  strings.TrimRight(s.PublicWebURL, "/") + link,
			ActionText: "View your case",
		})
	}
	return nil
}

// RunTokenCleanup deletes expired re-auth tokens
func (s *Scheduler) RunTokenCleanup(ctx context.Context) error {
	n, err := s.Tokens.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired reauth tokens: %w", err)
	}
	zap.S().Infow("expired reauth tokens deleted", "count", n)
	return nil
}
