package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/lifecycle"
	"github.com/linesmerrill/violation-case-api/metrics"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
	"github.com/linesmerrill/violation-case-api/workflow"
)

var (
	registrar = policy.Actor{ID: "registrar-1", Name: "Rita", Roles: []string{models.RoleRegistrar}}
	officer   = policy.Actor{ID: "officer-1", Name: "Omar", District: "North", Roles: []string{models.RoleHearingOfficer}}
	admin     = policy.Actor{ID: "admin-1", Roles: []string{models.RoleSuperAdmin}}
	applicant = policy.Actor{ID: "applicant-1", Email: "owner@example.org", Roles: []string{models.RoleApplicant}}
)

type fixture struct {
	store    *memStore
	locks    *memLocker
	notifier *recordingNotifier
	mailer   *recordingMailer
	auditor  *recordingAuditor
	reauth   *stubReauth
	clock    *clock
	metrics  *metrics.Metrics
	orch     *workflow.Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemStore(),
		locks:    newMemLocker(),
		notifier: &recordingNotifier{},
		mailer:   &recordingMailer{},
		auditor:  &recordingAuditor{},
		reauth:   &stubReauth{},
		clock:    &clock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	users := memUsers{users: map[string]models.User{
		"officer-1": {ID: "officer-1", Details: models.UserDetails{Roles: []string{models.RoleHearingOfficer}, District: "North"}},
		"clerk-1":   {ID: "clerk-1", Details: models.UserDetails{Roles: []string{models.RoleRegistrar}}},
	}}
	f.orch = workflow.NewOrchestrator(workflow.Orchestrator{
		Cases:        f.store,
		Hearings:     f.store,
		Remarks:      f.store,
		Users:        users,
		Notifier:     f.notifier,
		Mailer:       f.mailer,
		Auditor:      f.auditor,
		Documents:    memDocuments{"orders/1": {ID: "orders/1"}, "orders/2": {ID: "orders/2"}},
		Locks:        f.locks,
		Reauth:       f.reauth,
		Metrics:      f.metrics,
		PublicWebURL: "https://cases.example.org",
		Now:          f.clock.Now,
		Dispatch:     func(fn func()) { fn() },
	})
	return f
}

func (f *fixture) seed(status models.CaseStatus) string {
	c := models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			TrackingCode: "VC-2026-TEST0001",
			Status:       status,
			Applicant:    models.Applicant{Name: "Owner", Email: "owner@example.org", UserID: "applicant-1"},
			CaseType:     "emission",
			Description:  models.Description{District: "North"},
		},
	}
	f.store.put(c)
	return c.ID.Hex()
}

func (f *fixture) seedHearing(caseID string, seq int, at time.Time, active bool) {
	_ = f.store.Create(context.Background(), &models.Hearing{Details: models.HearingDetails{
		CaseID:      caseID,
		SequenceNo:  seq,
		ScheduledAt: primitive.NewDateTimeFromTime(at),
		IsActive:    active,
		Type:        models.HearingInitial,
	}})
}

func at(t time.Time) *time.Time { return &t }

func requireKind(t *testing.T, err error, kind lifecycle.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := lifecycle.KindOf(err)
	require.True(t, ok, "expected a lifecycle error, got %v", err)
	assert.Equal(t, kind, got, err.Error())
}

func TestApply_MarkComplete(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusSubmitted)

	res, err := f.orch.Apply(context.Background(), id, lifecycle.ActionMarkComplete, registrar, lifecycle.Payload{})
	require.NoError(t, err)

	stored := f.store.get(id)
	assert.Equal(t, models.StatusComplete, stored.Details.Status)
	assert.Equal(t, "registrar-1", stored.Details.AssignedRegistrar)
	assert.Equal(t, int32(1), stored.Version)
	assert.Nil(t, stored.Details.ClosedAt)
	assert.Empty(t, f.store.hearingsFor(id))

	remarks := f.store.remarksOf(id)
	require.Len(t, remarks, 1)
	assert.Empty(t, remarks[0].Details.RemarkType)

	assert.Equal(t, stored.Details.Status, res.Case.Details.Status)
	assert.Equal(t, "registrar-1", res.Case.Details.AssignedRegistrar)
	assert.Equal(t, int32(1), res.Case.Version)
	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, "mark_complete", f.auditor.entries[0].Action)
	assert.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "https://cases.example.org/cases/"+id, f.mailer.sent[0].ActionURL)
}

func TestApply_ScheduleFirstHearingWithNonOfficerWritesNothing(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusComplete)
	before := f.store.get(id)

	_, err := f.orch.Apply(context.Background(), id, lifecycle.ActionScheduleFirstHearing, registrar, lifecycle.Payload{
		HearingOfficerID: "clerk-1",
		HearingDate:      at(f.clock.Now().Add(48 * time.Hour)),
	})
	requireKind(t, err, lifecycle.KindInvalidInput)
	assert.Contains(t, err.Error(), "Selected user is not a hearing officer")

	assert.Equal(t, before, f.store.get(id))
	assert.Empty(t, f.store.hearingsFor(id))
	assert.Empty(t, f.store.remarksOf(id))
	assert.Empty(t, f.auditor.entries)
	assert.Empty(t, f.locks.owners, "lease must be released on rejection")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Rejections.WithLabelValues("schedule_first_hearing", "invalid_input")))
}

func TestApply_ApproveAfterHearing(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusHearingScheduled)
	c := f.store.get(id)
	c.Details.AssignedHearingOfficer = "officer-1"
	f.store.put(c)
	f.seedHearing(id, 1, f.clock.Now().Add(-24*time.Hour), true)

	res, err := f.orch.Apply(context.Background(), id, lifecycle.ActionApprove, officer, lifecycle.Payload{
		Remark:         "Site restored",
		HearingOrderID: "orders/1",
	})
	require.NoError(t, err)

	stored := f.store.get(id)
	assert.Equal(t, models.StatusApprovedResolved, stored.Details.Status)
	require.NotNil(t, stored.Details.ClosedAt)
	assert.Equal(t, "officer-1", stored.Details.ClosedBy)
	assert.Equal(t, 0, lifecycle.ActiveCount(f.store.hearingsFor(id)))

	remarks := f.store.remarksOf(id)
	require.Len(t, remarks, 1)
	assert.Equal(t, "approved", remarks[0].Details.RemarkType)
	assert.Equal(t, models.StatusApprovedResolved, remarks[0].Details.CaseStatus)
	assert.NotNil(t, res.Case.Details.ClosedAt)
}

func TestApply_AdjournShortRemarkWritesNothing(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusHearingScheduled)
	c := f.store.get(id)
	c.Details.AssignedHearingOfficer = "officer-1"
	f.store.put(c)
	f.seedHearing(id, 1, f.clock.Now().Add(-24*time.Hour), true)

	_, err := f.orch.Apply(context.Background(), id, lifecycle.ActionAdjourn, officer, lifecycle.Payload{
		Remark:         "short",
		HearingOrderID: "orders/1",
		HearingDate:    at(f.clock.Now().Add(7 * 24 * time.Hour)),
	})
	requireKind(t, err, lifecycle.KindInvalidInput)

	assert.Equal(t, models.StatusHearingScheduled, f.store.get(id).Details.Status)
	assert.Len(t, f.store.hearingsFor(id), 1)
	assert.Empty(t, f.store.remarksOf(id))
}

func TestApply_FullLifecycleKeepsHearingInvariants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.orch.Submit(ctx, applicant, workflow.Submission{
		Applicant:   models.Applicant{Name: "Owner", Email: "owner@example.org"},
		CaseType:    "emission",
		Description: models.Description{District: "North"},
	})
	require.NoError(t, err)
	id := res.Case.ID.Hex()
	assert.Equal(t, "applicant-1", res.Case.Details.Applicant.UserID)

	steps := []struct {
		actor   policy.Actor
		action  lifecycle.Action
		payload func() lifecycle.Payload
		advance time.Duration
		status  models.CaseStatus
		active  int
		count   int
	}{
		{registrar, lifecycle.ActionMarkComplete, func() lifecycle.Payload { return lifecycle.Payload{} }, 0, models.StatusComplete, 0, 0},
		{registrar, lifecycle.ActionScheduleFirstHearing, func() lifecycle.Payload {
			return lifecycle.Payload{HearingOfficerID: "officer-1", HearingDate: at(f.clock.Now().Add(48 * time.Hour))}
		}, 0, models.StatusHearingScheduled, 1, 1},
		{officer, lifecycle.ActionAdjourn, func() lifecycle.Payload {
			return lifecycle.Payload{Remark: "Parties asked for time", HearingOrderID: "orders/1", HearingDate: at(f.clock.Now().Add(72 * time.Hour))}
		}, 72 * time.Hour, models.StatusUnderHearing, 1, 2},
		{officer, lifecycle.ActionScheduleSubsequentHearing, func() lifecycle.Payload {
			return lifecycle.Payload{HearingDate: at(f.clock.Now().Add(24 * time.Hour))}
		}, 0, models.StatusHearingScheduled, 1, 3},
		{officer, lifecycle.ActionSetViolation, func() lifecycle.Payload {
			return lifecycle.Payload{ViolationType: "emission", SubViolation: "dust"}
		}, 0, models.StatusHearingScheduled, 1, 3},
		{officer, lifecycle.ActionReject, func() lifecycle.Payload {
			return lifecycle.Payload{Remark: "Violation confirmed at hearing", HearingOrderID: "orders/2"}
		}, 48 * time.Hour, models.StatusRejectedClosed, 0, 3},
	}

	for _, step := range steps {
		f.clock.Advance(step.advance)
		_, err := f.orch.Apply(ctx, id, step.action, step.actor, step.payload())
		require.NoError(t, err, step.action)

		stored := f.store.get(id)
		hearings := f.store.hearingsFor(id)
		assert.Equal(t, step.status, stored.Details.Status, step.action)
		assert.Equal(t, step.status.IsTerminal(), stored.Details.ClosedAt != nil, step.action)
		assert.Equal(t, step.active, lifecycle.ActiveCount(hearings), step.action)
		require.Len(t, hearings, step.count, step.action)
		for i, h := range hearings {
			assert.Equal(t, i+1, h.Details.SequenceNo, "sequence numbers must be gapless")
		}
	}

	hearings := f.store.hearingsFor(id)
	assert.Equal(t, models.HearingInitial, hearings[0].Details.Type)
	assert.Equal(t, models.HearingExtension, hearings[1].Details.Type)
	assert.Equal(t, models.HearingSubsequent, hearings[2].Details.Type)
	assert.Equal(t, "officer-1", f.store.get(id).Details.AssignedHearingOfficer)
	assert.Equal(t, "emission", f.store.get(id).Details.Description.ViolationType)

	_, err = f.orch.Apply(ctx, id, lifecycle.ActionApprove, admin, lifecycle.Payload{Remark: "Reopen attempt", HearingOrderID: "orders/1"})
	requireKind(t, err, lifecycle.KindPreconditionFailed)
}

func TestApply_LeaseHeldIsConflict(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusSubmitted)
	ok, _ := f.locks.TryAcquireLock(context.Background(), "case:"+id, "someone-else", time.Minute)
	require.True(t, ok)

	_, err := f.orch.Apply(context.Background(), id, lifecycle.ActionMarkComplete, registrar, lifecycle.Payload{})
	requireKind(t, err, lifecycle.KindConflict)
	assert.Equal(t, models.StatusSubmitted, f.store.get(id).Details.Status)
}

func TestApply_VersionMovedIsConflict(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusSubmitted)
	f.orch.Cases = &versionBumpingStore{memStore: f.store}

	_, err := f.orch.Apply(context.Background(), id, lifecycle.ActionMarkComplete, registrar, lifecycle.Payload{})
	requireKind(t, err, lifecycle.KindConflict)
	assert.Empty(t, f.store.remarksOf(id))
}

// versionBumpingStore simulates a writer that slips in between load and update
type versionBumpingStore struct {
	*memStore
}

func (s *versionBumpingStore) FindByID(ctx context.Context, id string) (*models.Case, error) {
	c, err := s.memStore.FindByID(ctx, id)
	if err == nil {
		stored := s.get(id)
		stored.Version++
		s.put(stored)
	}
	return c, err
}

func TestApply_UnknownCaseAndAction(t *testing.T) {
	f := newFixture()

	_, err := f.orch.Apply(context.Background(), primitive.NewObjectID().Hex(), lifecycle.ActionMarkComplete, registrar, lifecycle.Payload{})
	requireKind(t, err, lifecycle.KindNotFound)

	_, err = f.orch.Apply(context.Background(), primitive.NewObjectID().Hex(), lifecycle.Action("archive"), registrar, lifecycle.Payload{})
	requireKind(t, err, lifecycle.KindInvalidInput)
}

func TestApply_SideEffectFailuresAreSwallowed(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("notification store down")
	f.mailer.err = errors.New("sendgrid down")
	f.auditor.err = errors.New("audit store down")
	id := f.seed(models.StatusSubmitted)

	res, err := f.orch.Apply(context.Background(), id, lifecycle.ActionMarkIncomplete, registrar, lifecycle.Payload{Remark: "Missing site map"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusIncomplete, f.store.get(id).Details.Status)
	assert.Equal(t, 2, res.SideEffects.Failed) // in-app notification and audit
	assert.Equal(t, 3, res.SideEffects.Attempted)
	assert.Equal(t, []string{id}, f.reauth.issued)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SideEffectFailures.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SideEffectFailures.WithLabelValues("audit")))
}

func TestApply_AssignmentNotificationOnlyForWinner(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusComplete)

	_, err := f.orch.Apply(context.Background(), id, lifecycle.ActionScheduleFirstHearing, registrar, lifecycle.Payload{
		HearingOfficerID: "officer-1",
		HearingDate:      at(f.clock.Now().Add(24 * time.Hour)),
	})
	require.NoError(t, err)

	var toOfficer int
	for _, n := range f.notifier.sent {
		if n.UserID == "officer-1" {
			toOfficer++
		}
	}
	assert.Equal(t, 1, toOfficer)
	assert.Equal(t, "officer-1", f.store.get(id).Details.AssignedHearingOfficer)
}

func TestApply_ConcurrentAdjournsCreateOneHearing(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusHearingScheduled)
	c := f.store.get(id)
	c.Details.AssignedHearingOfficer = "officer-1"
	f.store.put(c)
	f.seedHearing(id, 1, f.clock.Now().Add(-time.Hour), true)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orch.Apply(context.Background(), id, lifecycle.ActionAdjourn, officer, lifecycle.Payload{
				Remark:         "Adjourned for site visit",
				HearingOrderID: "orders/1",
				HearingDate:    at(f.clock.Now().Add(48 * time.Hour)),
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		kind, _ := lifecycle.KindOf(err)
		assert.Contains(t, []lifecycle.Kind{lifecycle.KindConflict, lifecycle.KindForbidden}, kind)
	}
	assert.Equal(t, 1, ok)

	hearings := f.store.hearingsFor(id)
	assert.Equal(t, 1, lifecycle.ActiveCount(hearings))
	for i, h := range hearings {
		assert.Equal(t, i+1, h.Details.SequenceNo)
	}
	assert.Len(t, f.store.remarksOf(id), len(hearings)-1)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.orch.Submit(context.Background(), applicant, workflow.Submission{
		Applicant: models.Applicant{Name: "Owner", Email: "not-an-email"},
		CaseType:  "emission",
	})
	requireKind(t, err, lifecycle.KindInvalidInput)

	res, err := f.orch.Submit(context.Background(), registrar, workflow.Submission{
		Applicant: models.Applicant{Name: "Walk In", Email: "walkin@example.org"},
		CaseType:  "noise",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Case.Details.Applicant.UserID)
	assert.Regexp(t, `^VC-2026-[0-9A-F]{8}$`, res.Case.Details.TrackingCode)
	assert.Equal(t, models.StatusSubmitted, res.Case.Details.Status)

	require.NotEmpty(t, f.notifier.sent)
	assert.Equal(t, models.RoleRegistrar, f.notifier.sent[0].Role)
}

func TestView_Visibility(t *testing.T) {
	f := newFixture()
	id := f.seed(models.StatusSubmitted)

	_, err := f.orch.View(context.Background(), id, officer)
	assert.NoError(t, err)

	south := policy.Actor{ID: "officer-9", District: "South", Roles: []string{models.RoleHearingOfficer}}
	_, err = f.orch.View(context.Background(), id, south)
	requireKind(t, err, lifecycle.KindForbidden)

	_, err = f.orch.ViewByTrackingCode(context.Background(), "VC-2026-TEST0001", south)
	requireKind(t, err, lifecycle.KindForbidden)

	_, err = f.orch.ViewByTrackingCode(context.Background(), "VC-NOPE", registrar)
	requireKind(t, err, lifecycle.KindNotFound)
}

func TestReauthSessionIsConfinedToItsCase(t *testing.T) {
	f := newFixture()
	linked := f.seed(models.StatusIncomplete)
	other := f.seed(models.StatusIncomplete)

	scoped := policy.Actor{ID: "reauth:1", Email: "owner@example.org", Roles: []string{models.RoleApplicant}, CaseID: linked}

	_, err := f.orch.View(context.Background(), linked, scoped)
	assert.NoError(t, err)

	_, err = f.orch.View(context.Background(), other, scoped)
	requireKind(t, err, lifecycle.KindForbidden)

	_, err = f.orch.Apply(context.Background(), other, lifecycle.ActionResubmit, scoped, lifecycle.Payload{})
	requireKind(t, err, lifecycle.KindForbidden)

	_, err = f.orch.Submit(context.Background(), scoped, workflow.Submission{
		Applicant: models.Applicant{Name: "Owner", Email: "owner@example.org"},
		CaseType:  "emission",
	})
	requireKind(t, err, lifecycle.KindForbidden)
	assert.Empty(t, f.notifier.sent)
}
