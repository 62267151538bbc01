package workflow_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

// memStore keeps cases, hearings, remarks and users in memory with the same
// conditional-write semantics as the mongo stores.
type memStore struct {
	mu       sync.Mutex
	cases    map[string]models.Case
	hearings []models.Hearing
	remarks  []models.Remark
	users    map[string]models.User
}

func newMemStore() *memStore {
	return &memStore{
		cases: map[string]models.Case{},
		users: map[string]models.User{},
	}
}

func (s *memStore) put(c models.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID.Hex()] = c
}

func (s *memStore) get(id string) models.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cases[id]
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &c, nil
}

func (s *memStore) FindByTrackingCode(_ context.Context, code string) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.Details.TrackingCode == code {
			c := c
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *memStore) InsertOne(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID.Hex()] = *c
	return nil
}

func (s *memStore) ApplyChanges(_ context.Context, id string, version int32, upd models.CaseUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok || c.Version != version {
		return databases.ErrVersionConflict
	}
	upd.Apply(&c)
	c.Version++
	s.cases[id] = c
	return nil
}

func (s *memStore) AssignIfUnset(_ context.Context, id string, slot models.AssignmentSlot, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cases[id]
	field := slotField(&c, slot)
	if *field != "" {
		return false, nil
	}
	*field = userID
	s.cases[id] = c
	return true, nil
}

func (s *memStore) SetAssignment(_ context.Context, id string, slot models.AssignmentSlot, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cases[id]
	*slotField(&c, slot) = userID
	s.cases[id] = c
	return nil
}

func slotField(c *models.Case, slot models.AssignmentSlot) *string {
	if slot == models.SlotRegistrar {
		return &c.Details.AssignedRegistrar
	}
	return &c.Details.AssignedHearingOfficer
}

func (s *memStore) FindByCase(_ context.Context, caseID string) ([]models.Hearing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hearingsOf(caseID), nil
}

func (s *memStore) hearingsOf(caseID string) []models.Hearing {
	var out []models.Hearing
	for _, h := range s.hearings {
		if h.Details.CaseID == caseID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Details.SequenceNo < out[j].Details.SequenceNo })
	return out
}

func (s *memStore) LatestByCase(ctx context.Context, caseID string) (*models.Hearing, error) {
	hs, _ := s.FindByCase(ctx, caseID)
	if len(hs) == 0 {
		return nil, nil
	}
	return &hs[len(hs)-1], nil
}

func (s *memStore) CountByCase(ctx context.Context, caseID string) (int64, error) {
	hs, _ := s.FindByCase(ctx, caseID)
	return int64(len(hs)), nil
}

func (s *memStore) Create(_ context.Context, h *models.Hearing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.hearings {
		if existing.Details.CaseID == h.Details.CaseID && existing.Details.SequenceNo == h.Details.SequenceNo {
			return errors.New("duplicate hearing sequence")
		}
	}
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	s.hearings = append(s.hearings, *h)
	return nil
}

func (s *memStore) BulkDeactivate(_ context.Context, caseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.hearings {
		if s.hearings[i].Details.CaseID == caseID && s.hearings[i].Details.IsActive {
			s.hearings[i].Details.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *memStore) Append(_ context.Context, r *models.Remark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.remarks = append(s.remarks, *r)
	return nil
}

func (s *memStore) remarksOf(caseID string) []models.Remark {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Remark
	for _, r := range s.remarks {
		if r.Details.CaseID == caseID {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) hearingsFor(caseID string) []models.Hearing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hearingsOf(caseID)
}

type memUsers struct {
	users map[string]models.User
}

func (u memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := u.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

// memLocker is a process-local lease table
type memLocker struct {
	mu     sync.Mutex
	owners map[string]string
}

func newMemLocker() *memLocker {
	return &memLocker{owners: map[string]string{}}
}

func (l *memLocker) TryAcquireLock(_ context.Context, name, owner string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := l.owners[name]; ok && current != owner {
		return false, nil
	}
	l.owners[name] = owner
	return true, nil
}

func (l *memLocker) ReleaseLock(_ context.Context, name, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[name] == owner {
		delete(l.owners, name)
	}
	return nil
}

type notification struct {
	UserID, Role, Title, DedupeKey string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, _, _, dedupeKey string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{UserID: userID, Title: title, DedupeKey: dedupeKey})
	return nil
}

func (n *recordingNotifier) NotifyRole(_ context.Context, role, title, _, _, dedupeKey string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{Role: role, Title: title, DedupeKey: dedupeKey})
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []models.Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, email models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type auditEntry struct {
	Action, EntityID, ActorID string
	Details                   map[string]interface{}
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
	err     error
}

func (a *recordingAuditor) Log(_ context.Context, action, _, entityID string, actor policy.Actor, details map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, auditEntry{Action: action, EntityID: entityID, ActorID: actor.ID, Details: details})
	return nil
}

type memDocuments map[string]models.DocumentRef

func (d memDocuments) Lookup(_ context.Context, ref string) (*models.DocumentRef, error) {
	doc, ok := d[ref]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

type stubReauth struct {
	issued []string
	err    error
}

func (r *stubReauth) Issue(_ context.Context, c *models.Case) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.issued = append(r.issued, c.ID.Hex())
	return "https://cases.example.org/reauth?token=abc", nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
