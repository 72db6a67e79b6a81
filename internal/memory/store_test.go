package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T, backend Backend) *Store {
	t.Helper()
	if backend == nil {
		backend = NewInMemoryBackend()
	}
	return NewStore(backend, StoreOptions{Namespace: "test-chat"}, zerolog.Nop(), nil)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	created := s.Create(ctx, "s1", "/kingdom-voice")
	if created.UserPersona != PersonaGeneral {
		t.Fatalf("UserPersona = %q, want %q", created.UserPersona, PersonaGeneral)
	}
	if created.BudgetRange != BudgetUnknown {
		t.Fatalf("BudgetRange = %q, want %q", created.BudgetRange, BudgetUnknown)
	}

	got, ok := s.Get(ctx, "s1")
	if !ok {
		t.Fatalf("Get() after Create() should find the session")
	}
	if got.CurrentPage != "/kingdom-voice" {
		t.Fatalf("CurrentPage = %q, want %q", got.CurrentPage, "/kingdom-voice")
	}

	if _, ok := s.Get(ctx, "nope"); ok {
		t.Fatalf("Get() for unknown session should report absent")
	}
}

func TestAddInterestDeduplicates(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	s.AddInterest(ctx, "s1", "faith")
	s.AddInterest(ctx, "s1", "faith")
	s.AddInterest(ctx, "s1", "journaling")

	got, _ := s.Get(ctx, "s1")
	if len(got.UserInterests) != 2 {
		t.Fatalf("UserInterests = %v, want two entries", got.UserInterests)
	}
	if got.UserInterests[0] != "faith" || got.UserInterests[1] != "journaling" {
		t.Fatalf("UserInterests order = %v, want insertion order", got.UserInterests)
	}
}

func TestHistoryBound(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	for i := 0; i < 25; i++ {
		s.AddMessage(ctx, "s1", Message{Text: fmt.Sprintf("msg-%d", i), IsUser: true})
	}

	got, _ := s.Get(ctx, "s1")
	if len(got.ConversationHistory) != 20 {
		t.Fatalf("history length = %d, want 20", len(got.ConversationHistory))
	}
	if got.ConversationHistory[0].Text != "msg-5" {
		t.Fatalf("oldest retained = %q, want %q", got.ConversationHistory[0].Text, "msg-5")
	}
	if got.ConversationHistory[19].Text != "msg-24" {
		t.Fatalf("newest retained = %q, want %q", got.ConversationHistory[19].Text, "msg-24")
	}
}

func TestPersonaLastWriteWins(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	s.SetPersona(ctx, "s1", PersonaTechnical)
	s.SetPersona(ctx, "s1", PersonaBusiness)

	got, _ := s.Get(ctx, "s1")
	if got.UserPersona != PersonaBusiness {
		t.Fatalf("UserPersona = %q, want %q", got.UserPersona, PersonaBusiness)
	}
}

func TestAbsentSessionSafety(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if applied := s.Update(ctx, "never-created", func(m *SessionMemory) { m.CurrentPage = "/x" }); applied {
		t.Fatalf("Update() on absent session should be a no-op")
	}
	if _, ok := s.Get(ctx, "never-created"); ok {
		t.Fatalf("Update() must not create a session")
	}

	mctx := s.Context(ctx, "never-created")
	if mctx.UserPersona != PersonaGeneral {
		t.Fatalf("Context persona = %q, want %q", mctx.UserPersona, PersonaGeneral)
	}
	if mctx.BudgetRange != BudgetUnknown {
		t.Fatalf("Context budget = %q, want %q", mctx.BudgetRange, BudgetUnknown)
	}
	if len(mctx.UserInterests) != 0 || len(mctx.RecentMessages) != 0 {
		t.Fatalf("Context for absent session should be empty: %+v", mctx)
	}

	sum := s.Summary(ctx, "never-created")
	if sum.TotalMessages != 0 || sum.Duration != 0 {
		t.Fatalf("Summary for absent session should be zero: %+v", sum)
	}

	// Appenders on an absent session are silent no-ops too.
	s.AddInterest(ctx, "never-created", "faith")
	if _, ok := s.Get(ctx, "never-created"); ok {
		t.Fatalf("appender must not create a session")
	}
}

func TestRoundTripThroughBackend(t *testing.T) {
	backend := NewInMemoryBackend()
	s := newTestStore(t, backend)
	ctx := context.Background()

	s.Create(ctx, "s1", "/kingdom-dreams")
	s.AddInterest(ctx, "s1", "dreams")
	s.AddMessage(ctx, "s1", Message{Text: "hello", IsUser: true})
	before, _ := s.Get(ctx, "s1")

	// Simulate a process restart: the cache is gone, the backend is not.
	s.DropCached("s1")
	if s.CachedCount() != 0 {
		t.Fatalf("CachedCount = %d, want 0 after drop", s.CachedCount())
	}

	after, ok := s.Get(ctx, "s1")
	if !ok {
		t.Fatalf("Get() after restart should rehydrate from backend")
	}
	if after.SessionID != before.SessionID ||
		after.CurrentPage != before.CurrentPage ||
		len(after.UserInterests) != 1 || after.UserInterests[0] != "dreams" ||
		len(after.ConversationHistory) != 1 || after.ConversationHistory[0].Text != "hello" {
		t.Fatalf("rehydrated record diverged:\nbefore %+v\nafter  %+v", before, after)
	}
	if !after.LastInteraction.Equal(before.LastInteraction) {
		t.Fatalf("LastInteraction changed on rehydrate: %v vs %v", after.LastInteraction, before.LastInteraction)
	}
}

func TestLeadQualificationRule(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	s.RecordPricingInquiry(ctx, "s1")
	got, _ := s.Get(ctx, "s1")
	if got.LeadQualified {
		t.Fatalf("pricing alone should not qualify the lead")
	}

	s.RecordDemoRequest(ctx, "s1")
	got, _ = s.Get(ctx, "s1")
	if !got.PricingInquiries || !got.DemoRequests || !got.LeadQualified {
		t.Fatalf("flags = pricing:%v demo:%v lead:%v, want all true",
			got.PricingInquiries, got.DemoRequests, got.LeadQualified)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	s.Clear(ctx, "s1")
	if _, ok := s.Get(ctx, "s1"); ok {
		t.Fatalf("Get() after Clear() should report absent")
	}
	s.Clear(ctx, "s1")
}

func TestContextKeepsLastFiveMessages(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	for i := 0; i < 8; i++ {
		s.AddMessage(ctx, "s1", Message{Text: fmt.Sprintf("m%d", i), IsUser: i%2 == 0})
	}

	mctx := s.Context(ctx, "s1")
	if len(mctx.RecentMessages) != 5 {
		t.Fatalf("RecentMessages length = %d, want 5", len(mctx.RecentMessages))
	}
	if mctx.RecentMessages[0] != "m3" || mctx.RecentMessages[4] != "m7" {
		t.Fatalf("RecentMessages = %v, want m3..m7", mctx.RecentMessages)
	}
}

func TestSummaryCounts(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	s.AddMessage(ctx, "s1", Message{Text: "hi", IsUser: true})
	s.AddMessage(ctx, "s1", Message{Text: "hello!", IsUser: false})
	s.AddMessage(ctx, "s1", Message{Text: "pricing?", IsUser: true})
	s.AddTopic(ctx, "s1", "pricing")

	sum := s.Summary(ctx, "s1")
	if sum.TotalMessages != 3 || sum.UserMessages != 2 || sum.BotMessages != 1 {
		t.Fatalf("counts = total:%d user:%d bot:%d", sum.TotalMessages, sum.UserMessages, sum.BotMessages)
	}
	if len(sum.Topics) != 1 || sum.Topics[0] != "pricing" {
		t.Fatalf("Topics = %v, want [pricing]", sum.Topics)
	}
	if sum.Duration <= 0 {
		t.Fatalf("Duration = %v, want positive", sum.Duration)
	}
}

// failingBackend errors on every operation so swallow-and-degrade paths
// can be exercised.
type failingBackend struct{}

var errBackendDown = errors.New("backend down")

func (failingBackend) Save(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}
func (failingBackend) Load(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (failingBackend) Delete(context.Context, string) error         { return errBackendDown }
func (failingBackend) Ping(context.Context) error                   { return errBackendDown }
func (failingBackend) Close() error                                 { return nil }

func TestStorageFailuresAreSwallowed(t *testing.T) {
	s := newTestStore(t, failingBackend{})
	ctx := context.Background()

	// Create persists best-effort; the record still lives in the cache.
	s.Create(ctx, "s1", "/")
	s.AddInterest(ctx, "s1", "faith")
	got, ok := s.Get(ctx, "s1")
	if !ok || len(got.UserInterests) != 1 {
		t.Fatalf("store should keep serving from cache when the backend is down: %+v", got)
	}

	// After eviction the record is unrecoverable, which reads as absent.
	s.DropCached("s1")
	if _, ok := s.Get(ctx, "s1"); ok {
		t.Fatalf("Get() should report absent when the backend load fails")
	}

	s.Clear(ctx, "s1")
}

// countingBackend wraps another backend and counts save calls.
type countingBackend struct {
	Backend
	saves int
}

func (b *countingBackend) Save(ctx context.Context, key string, record []byte, ttl time.Duration) error {
	b.saves++
	return b.Backend.Save(ctx, key, record, ttl)
}

func TestDuplicateAppendIsNotRePersisted(t *testing.T) {
	backend := &countingBackend{Backend: NewInMemoryBackend()}
	s := newTestStore(t, backend)
	ctx := context.Background()

	s.Create(ctx, "s1", "/")
	s.AddInterest(ctx, "s1", "faith")
	before, _ := s.Get(ctx, "s1")
	saves := backend.saves

	s.AddInterest(ctx, "s1", "faith")
	if backend.saves != saves {
		t.Fatalf("saves = %d, want %d; a duplicate value should not re-persist", backend.saves, saves)
	}
	after, _ := s.Get(ctx, "s1")
	if !after.LastInteraction.Equal(before.LastInteraction) {
		t.Fatalf("LastInteraction bumped by a duplicate value: %v vs %v", after.LastInteraction, before.LastInteraction)
	}
}

func TestJanitorEvictsIdleSessions(t *testing.T) {
	backend := NewInMemoryBackend()
	s := NewStore(backend, StoreOptions{Namespace: "test-chat", TTL: 20 * time.Millisecond}, zerolog.Nop(), nil)
	ctx := context.Background()

	s.Create(ctx, "s1", "/")
	time.Sleep(40 * time.Millisecond)
	s.sweep(ctx)

	if s.CachedCount() != 0 {
		t.Fatalf("CachedCount = %d, want 0 after sweep", s.CachedCount())
	}
}

func TestSweepConcurrentWithMutations(t *testing.T) {
	s := NewStore(NewInMemoryBackend(), StoreOptions{Namespace: "test-chat", TTL: time.Hour}, zerolog.Nop(), nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	// Mutations and the janitor sweep must serialize on the session lock;
	// the race detector flags this test if they stop doing so.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.AddMessage(ctx, "s1", Message{Text: "x", IsUser: true})
		}
	}()
	for i := 0; i < 200; i++ {
		s.sweep(ctx)
	}
	<-done

	if _, ok := s.Get(ctx, "s1"); !ok {
		t.Fatalf("sweep evicted a session that is still active")
	}
}

func TestConcurrentMutationsSameSession(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	s.Create(ctx, "s1", "/")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.AddInterest(ctx, "s1", fmt.Sprintf("interest-%d", n%10))
			s.AddMessage(ctx, "s1", Message{Text: "x", IsUser: true})
		}(i)
	}
	wg.Wait()

	got, _ := s.Get(ctx, "s1")
	if len(got.UserInterests) != 10 {
		t.Fatalf("UserInterests length = %d, want 10 distinct", len(got.UserInterests))
	}
	if len(got.ConversationHistory) != 20 {
		t.Fatalf("history length = %d, want capped at 20", len(got.ConversationHistory))
	}
}
