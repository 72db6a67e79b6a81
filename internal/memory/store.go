package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kingdomapps/concierge/internal/observability"
)

// StoreOptions tunes a Store. Zero values fall back to defaults.
type StoreOptions struct {
	// Namespace prefixes persisted keys: "<namespace>-<sessionID>".
	Namespace string
	// TTL bounds how long an idle session survives, both in the backend
	// and in the in-process cache. Zero means no expiry.
	TTL time.Duration
	// HistoryLimit caps conversation history length per session.
	HistoryLimit int
}

const defaultHistoryLimit = 20

// Store is the conversation memory store: a write-through in-process cache
// in front of a pluggable persistence backend.
//
// Storage failures never propagate to callers; they are logged, counted,
// and the operation degrades to "not persisted". Mutations against a
// session that does not exist are silent no-ops by contract, so callers
// never need to guard against absent sessions.
//
// All read-modify-write sequences hold a per-session lock, so concurrent
// requests for the same session serialize while distinct sessions proceed
// in parallel.
type Store struct {
	backend Backend
	opts    StoreOptions
	log     zerolog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	cache map[string]*SessionMemory
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewStore(backend Backend, opts StoreOptions, log zerolog.Logger, metrics *observability.Metrics) *Store {
	if opts.Namespace == "" {
		opts.Namespace = "kingdom-chat"
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	return &Store{
		backend: backend,
		opts:    opts,
		log:     log,
		metrics: metrics,
		cache:   make(map[string]*SessionMemory),
		locks:   make(map[string]*sessionLock),
	}
}

func (s *Store) key(sessionID string) string {
	return s.opts.Namespace + "-" + sessionID
}

func (s *Store) lockSession(sessionID string) *sessionLock {
	s.mu.Lock()
	l := s.locks[sessionID]
	if l == nil {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Store) unlockSession(sessionID string, l *sessionLock) {
	l.mu.Unlock()

	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, sessionID)
	}
	s.mu.Unlock()
}

// Create initializes a fresh record for the session and persists it. An
// existing record for the same id is overwritten without merging; callers
// must treat session ids as primary keys.
func (s *Store) Create(ctx context.Context, sessionID, currentPage string) SessionMemory {
	l := s.lockSession(sessionID)
	defer s.unlockSession(sessionID, l)

	now := time.Now().UTC()
	m := &SessionMemory{
		SessionID:       sessionID,
		CurrentPage:     currentPage,
		UserPersona:     PersonaGeneral,
		BudgetRange:     BudgetUnknown,
		CreatedAt:       now,
		LastInteraction: now,
	}

	s.mu.Lock()
	s.cache[sessionID] = m
	s.mu.Unlock()

	s.persist(ctx, m)
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("created").Inc()
		s.metrics.ActiveSessions.Set(float64(s.CachedCount()))
	}
	return cloneMemory(m)
}

// Get returns the session record and whether it exists. A cache miss falls
// through to the backend and rehydrates the cache. Backend failures are
// swallowed and reported as "absent".
func (s *Store) Get(ctx context.Context, sessionID string) (SessionMemory, bool) {
	l := s.lockSession(sessionID)
	defer s.unlockSession(sessionID, l)

	m := s.loadLocked(ctx, sessionID)
	if m == nil {
		return SessionMemory{}, false
	}
	return cloneMemory(m), true
}

// loadLocked resolves a session from cache or backend. Callers must hold
// the session lock.
func (s *Store) loadLocked(ctx context.Context, sessionID string) *SessionMemory {
	s.mu.Lock()
	m, ok := s.cache[sessionID]
	s.mu.Unlock()
	if ok {
		return m
	}

	raw, err := s.backend.Load(ctx, s.key(sessionID))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.storageError(ctx, "load", sessionID, err)
		}
		return nil
	}

	var rec SessionMemory
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.storageError(ctx, "decode", sessionID, err)
		return nil
	}

	s.mu.Lock()
	s.cache[sessionID] = &rec
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("rehydrated").Inc()
	}
	return &rec
}

// mutate is the single update path: every mutation helper funnels through
// it so lastInteraction and persistence stay consistent. fn reports whether
// it changed the record; an unchanged record is not re-persisted and keeps
// its lastInteraction. mutate reports false when the session does not
// exist, which is the documented silent no-op.
func (s *Store) mutate(ctx context.Context, sessionID string, fn func(*SessionMemory) bool) bool {
	l := s.lockSession(sessionID)
	defer s.unlockSession(sessionID, l)

	m := s.loadLocked(ctx, sessionID)
	if m == nil {
		return false
	}
	if !fn(m) {
		return true
	}
	m.LastInteraction = time.Now().UTC()
	s.persist(ctx, m)
	return true
}

// Update applies fn to an existing session under its lock, bumps
// lastInteraction, and persists. It reports false without applying
// anything when the session does not exist; creating sessions is
// exclusively Create's job.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(*SessionMemory)) bool {
	return s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		fn(m)
		return true
	})
}

func (s *Store) persist(ctx context.Context, m *SessionMemory) {
	raw, err := json.Marshal(m)
	if err != nil {
		s.storageError(ctx, "encode", m.SessionID, err)
		return
	}
	if err := s.backend.Save(ctx, s.key(m.SessionID), raw, s.opts.TTL); err != nil {
		s.storageError(ctx, "save", m.SessionID, err)
	}
}

func (s *Store) storageError(_ context.Context, op, sessionID string, err error) {
	s.log.Warn().Err(err).Str("op", op).Str("session_id", sessionID).Msg("session storage degraded")
	if s.metrics != nil {
		s.metrics.StorageErrors.WithLabelValues(op).Inc()
	}
}

// AddInterest records a user interest once; repeats are ignored.
func (s *Store) AddInterest(ctx context.Context, sessionID, interest string) {
	s.appendUniqueField(ctx, sessionID, interest, func(m *SessionMemory) *[]string { return &m.UserInterests })
}

// AddMentionedApp records an app reference once, preserving first-mention order.
func (s *Store) AddMentionedApp(ctx context.Context, sessionID, appID string) {
	s.appendUniqueField(ctx, sessionID, appID, func(m *SessionMemory) *[]string { return &m.MentionedApps })
}

func (s *Store) AddTopic(ctx context.Context, sessionID, topic string) {
	s.appendUniqueField(ctx, sessionID, topic, func(m *SessionMemory) *[]string { return &m.ConversationTopics })
}

func (s *Store) AddFollowUpQuestion(ctx context.Context, sessionID, question string) {
	s.appendUniqueField(ctx, sessionID, question, func(m *SessionMemory) *[]string { return &m.FollowUpQuestions })
}

func (s *Store) AddGoal(ctx context.Context, sessionID, goal string) {
	s.appendUniqueField(ctx, sessionID, goal, func(m *SessionMemory) *[]string { return &m.UserGoals })
}

func (s *Store) appendUniqueField(ctx context.Context, sessionID, value string, field func(*SessionMemory) *[]string) {
	if value == "" {
		return
	}
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		list := field(m)
		for _, existing := range *list {
			if existing == value {
				return false
			}
		}
		*list = append(*list, value)
		return true
	})
}

// AddMessage appends to history and evicts the oldest entries beyond the
// history limit. Missing message ids and timestamps are filled in.
func (s *Store) AddMessage(ctx context.Context, sessionID string, msg Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		history := append(m.ConversationHistory, msg)
		if over := len(history) - s.opts.HistoryLimit; over > 0 {
			trimmed := make([]Message, s.opts.HistoryLimit)
			copy(trimmed, history[over:])
			history = trimmed
		}
		m.ConversationHistory = history
		return true
	})
}

// SetPersona overwrites the inferred persona; earlier signals are not kept.
func (s *Store) SetPersona(ctx context.Context, sessionID string, persona Persona) {
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		m.UserPersona = persona
		return true
	})
}

// SetBudget overwrites the inferred budget range.
func (s *Store) SetBudget(ctx context.Context, sessionID string, budget BudgetRange) {
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		m.BudgetRange = budget
		return true
	})
}

func (s *Store) SetCurrentPage(ctx context.Context, sessionID, page string) {
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		m.CurrentPage = page
		return true
	})
}

// QualifyLead marks the session as a qualified lead. The flag is monotone.
func (s *Store) QualifyLead(ctx context.Context, sessionID string) {
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		s.markQualified(m)
		return true
	})
}

// RecordPricingInquiry sets the pricing flag; a session that has also asked
// for a demo crosses the lead qualification rule.
func (s *Store) RecordPricingInquiry(ctx context.Context, sessionID string) {
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		m.PricingInquiries = true
		if m.DemoRequests {
			s.markQualified(m)
		}
		return true
	})
}

// RecordDemoRequest sets the demo flag, with the same qualification rule.
func (s *Store) RecordDemoRequest(ctx context.Context, sessionID string) {
	s.mutate(ctx, sessionID, func(m *SessionMemory) bool {
		m.DemoRequests = true
		if m.PricingInquiries {
			s.markQualified(m)
		}
		return true
	})
}

func (s *Store) markQualified(m *SessionMemory) {
	if m.LeadQualified {
		return
	}
	m.LeadQualified = true
	if s.metrics != nil {
		s.metrics.LeadsQualified.Inc()
	}
}

const recentMessageCount = 5

// Context returns the generator-facing projection. An absent session gets
// safe defaults rather than an error.
func (s *Store) Context(ctx context.Context, sessionID string) Context {
	m, ok := s.Get(ctx, sessionID)
	if !ok {
		return Context{
			SessionID:   sessionID,
			UserPersona: PersonaGeneral,
			BudgetRange: BudgetUnknown,
		}
	}

	recent := m.ConversationHistory
	if len(recent) > recentMessageCount {
		recent = recent[len(recent)-recentMessageCount:]
	}
	texts := make([]string, 0, len(recent))
	for _, msg := range recent {
		texts = append(texts, msg.Text)
	}

	return Context{
		SessionID:          m.SessionID,
		CurrentPage:        m.CurrentPage,
		UserPersona:        m.UserPersona,
		BudgetRange:        m.BudgetRange,
		UserInterests:      m.UserInterests,
		MentionedApps:      m.MentionedApps,
		ConversationTopics: m.ConversationTopics,
		UserGoals:          m.UserGoals,
		RecentMessages:     texts,
		PricingInquiries:   m.PricingInquiries,
		DemoRequests:       m.DemoRequests,
		LeadQualified:      m.LeadQualified,
	}
}

// Summary returns analytics counts for the session, all zero when absent.
func (s *Store) Summary(ctx context.Context, sessionID string) Summary {
	m, ok := s.Get(ctx, sessionID)
	if !ok {
		return Summary{SessionID: sessionID}
	}

	sum := Summary{
		SessionID:     m.SessionID,
		TotalMessages: len(m.ConversationHistory),
		Topics:        m.ConversationTopics,
		MentionedApps: m.MentionedApps,
		Interests:     m.UserInterests,
		LeadQualified: m.LeadQualified,
	}
	for _, msg := range m.ConversationHistory {
		if msg.IsUser {
			sum.UserMessages++
		} else {
			sum.BotMessages++
		}
	}
	if !m.CreatedAt.IsZero() {
		sum.Duration = time.Since(m.CreatedAt)
		sum.DurationMS = sum.Duration.Milliseconds()
	}
	return sum
}

// Clear removes the session from cache and backend. Clearing an absent
// session is a no-op.
func (s *Store) Clear(ctx context.Context, sessionID string) {
	l := s.lockSession(sessionID)
	defer s.unlockSession(sessionID, l)

	s.mu.Lock()
	delete(s.cache, sessionID)
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.key(sessionID)); err != nil {
		s.storageError(ctx, "delete", sessionID, err)
	}
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("cleared").Inc()
		s.metrics.ActiveSessions.Set(float64(s.CachedCount()))
	}
}

// DropCached evicts a session from the in-process cache without touching
// the backend. It exists for restart simulation in tests and for the
// janitor's idle eviction.
func (s *Store) DropCached(sessionID string) {
	s.mu.Lock()
	delete(s.cache, sessionID)
	s.mu.Unlock()
}

// CachedCount reports how many sessions are resident in the cache.
func (s *Store) CachedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Ping reports backend health for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// StartJanitor periodically evicts idle sessions from the cache and, for
// backends without native TTL, sweeps expired persisted rows. Without it
// the cache and a TTL-less backend would grow without bound.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Store) sweep(ctx context.Context) {
	if s.opts.TTL > 0 {
		cutoff := time.Now().UTC().Add(-s.opts.TTL)

		s.mu.Lock()
		ids := make([]string, 0, len(s.cache))
		for id := range s.cache {
			ids = append(ids, id)
		}
		s.mu.Unlock()

		// Record fields are only stable under the session lock, so each
		// candidate is re-checked there before it is evicted.
		for _, id := range ids {
			s.evictIfIdle(id, cutoff)
		}
	}

	if sweeper, ok := s.backend.(Sweeper); ok {
		removed, err := sweeper.SweepExpired(ctx)
		if err != nil {
			s.storageError(ctx, "sweep", "", err)
		} else if removed > 0 {
			s.log.Debug().Int64("removed", removed).Msg("swept expired sessions")
		}
	}

	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.CachedCount()))
	}
}

// evictIfIdle drops one cached session that has passed the idle cutoff.
// Taking the session lock first keeps the lastInteraction read ordered
// against in-flight mutations of the same session.
func (s *Store) evictIfIdle(sessionID string, cutoff time.Time) {
	l := s.lockSession(sessionID)
	defer s.unlockSession(sessionID, l)

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.cache[sessionID]; ok && m.LastInteraction.Before(cutoff) {
		delete(s.cache, sessionID)
	}
}

func cloneMemory(m *SessionMemory) SessionMemory {
	c := *m
	c.UserInterests = append([]string(nil), m.UserInterests...)
	c.MentionedApps = append([]string(nil), m.MentionedApps...)
	c.ConversationTopics = append([]string(nil), m.ConversationTopics...)
	c.FollowUpQuestions = append([]string(nil), m.FollowUpQuestions...)
	c.UserGoals = append([]string(nil), m.UserGoals...)
	c.ConversationHistory = append([]Message(nil), m.ConversationHistory...)
	return c
}
