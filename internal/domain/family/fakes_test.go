package family

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeStore struct {
	mu       sync.Mutex
	families []Family
	writes   int
	loadErr  error
}

func newFakeStore(families ...Family) *fakeStore {
	return &fakeStore{families: cloneAll(families)}
}

func (s *fakeStore) LoadAll(ctx context.Context) ([]Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return cloneAll(s.families), nil
}

func (s *fakeStore) SaveAll(ctx context.Context, families []Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families = cloneAll(families)
	s.writes++
	return nil
}

func (s *fakeStore) family(id string) Family {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.families {
		if f.ID == id {
			return f.Clone()
		}
	}
	return Family{}
}

func cloneAll(families []Family) []Family {
	result := make([]Family, 0, len(families))
	for _, f := range families {
		result = append(result, f.Clone())
	}
	return result
}

type fakeSessionCache struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttls     map[string]time.Duration
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		sessions: make(map[string]*Session),
		ttls:     make(map[string]time.Duration),
	}
}

func (c *fakeSessionCache) Get(id string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[id]
	return session, ok
}

func (c *fakeSessionCache) Set(id string, session *Session, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[id] = session
	c.ttls[id] = ttl
}

func (c *fakeSessionCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	delete(c.ttls, id)
}

func (c *fakeSessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[string]*Session)
	c.ttls = make(map[string]time.Duration)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(ctx context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) levels() []NoticeLevel {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]NoticeLevel, 0, len(n.notices))
	for _, notice := range n.notices {
		result = append(result, notice.Level)
	}
	return result
}

type recordingMetrics struct {
	matches     []MatchRule
	transfers   []bool
	reactivated []bool
	reassigned  int
	storeWrites int
}

func (m *recordingMetrics) MatchDetected(rule MatchRule) {
	m.matches = append(m.matches, rule)
}

func (m *recordingMetrics) TransferCompleted(sourceDeactivated bool) {
	m.transfers = append(m.transfers, sourceDeactivated)
}

func (m *recordingMetrics) MemberReactivated(pulledFromOther bool) {
	m.reactivated = append(m.reactivated, pulledFromOther)
}

func (m *recordingMetrics) ResponsibilityReassigned() {
	m.reassigned++
}

func (m *recordingMetrics) ObserveStoreWrite(time.Time) {
	m.storeWrites++
}

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store    *fakeStore
	notifier *recordingNotifier
	metrics  *recordingMetrics
	cache    *fakeSessionCache
	svc      *Service
}

func newTestEnv(families ...Family) *testEnv {
	env := &testEnv{
		store:    newFakeStore(families...),
		notifier: &recordingNotifier{},
		metrics:  &recordingMetrics{},
		cache:    newFakeSessionCache(),
	}
	counter := 0
	env.svc = NewService(
		NewRecords(env.store, env.metrics),
		WithNotifier(env.notifier),
		WithMetrics(env.metrics),
		WithSessionCache(env.cache, time.Hour),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("gen-%d", counter)
		}),
	)
	return env
}

func responsible(id, name, dob string) Member {
	return Member{ID: id, Name: name, DateOfBirth: dob, Active: true, IsResponsible: true, Relationship: RelationshipResponsible}
}

func active(id, name, dob string) Member {
	return Member{ID: id, Name: name, DateOfBirth: dob, Active: true, Relationship: "Filho(a)"}
}

func household(id, prontuario, cras string, members ...Member) Family {
	return Family{ID: id, Prontuario: prontuario, CrasID: cras, Members: members}
}

var tech = Technician{ID: "tec-1", CrasID: CrasCentral}
