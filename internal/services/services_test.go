package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mondaychat/monday/internal/chat"
	"github.com/mondaychat/monday/internal/config"
	"github.com/mondaychat/monday/internal/llm"
	"github.com/mondaychat/monday/internal/store"
)

// memStore is an in-memory SessionStore with the gateway's semantics:
// validity filtering, trim-to-max, purge of hidden non-summary entries.
type memStore struct {
	mu       sync.Mutex
	maxItems int
	pingErr  error
	facts    map[string][]string
	entries  map[string][]chat.Entry
	nextID   int
}

func newMemStore(maxItems int) *memStore {
	return &memStore{
		maxItems: maxItems,
		facts:    make(map[string][]string),
		entries:  make(map[string][]chat.Entry),
	}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) Start(_ context.Context, facts []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	sid := fmt.Sprintf("sid-%d", m.nextID)
	m.facts[sid] = facts
	return sid, nil
}

func (m *memStore) Facts(_ context.Context, sid string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	facts, ok := m.facts[sid]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return facts, nil
}

func (m *memStore) AppendBatch(_ context.Context, sid string, entries []chat.Entry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := 0
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		m.entries[sid] = append(m.entries[sid], e)
		saved++
	}
	if n := len(m.entries[sid]); n > m.maxItems {
		m.entries[sid] = m.entries[sid][n-m.maxItems:]
	}
	return saved, nil
}

func (m *memStore) List(_ context.Context, sid string) ([]chat.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Entry, len(m.entries[sid]))
	copy(out, m.entries[sid])
	return out, nil
}

func (m *memStore) PurgeHidden(_ context.Context, sid string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []chat.Entry
	for _, e := range m.entries[sid] {
		if e.Hidden && !e.IsSummary() {
			continue
		}
		kept = append(kept, e)
	}
	removed := len(m.entries[sid]) - len(kept)
	m.entries[sid] = kept
	return removed, len(kept), nil
}

func (m *memStore) End(_ context.Context, sid string) ([]chat.Entry, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	facts, ok := m.facts[sid]
	if !ok {
		return nil, nil, store.ErrSessionNotFound
	}
	entries := m.entries[sid]
	delete(m.facts, sid)
	delete(m.entries, sid)
	return entries, facts, nil
}

// factSourceFunc adapts a function to FactSource.
type factSourceFunc func(context.Context) ([]string, error)

func (f factSourceFunc) ListFacts(ctx context.Context) ([]string, error) { return f(ctx) }

// sinkSpy records flushed batches.
type sinkSpy struct {
	mu      sync.Mutex
	flushed map[string][]chat.Entry
}

func newSinkSpy() *sinkSpy { return &sinkSpy{flushed: make(map[string][]chat.Entry)} }

func (s *sinkSpy) InsertBatch(_ context.Context, sid string, entries []chat.Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed[sid] = append(s.flushed[sid], entries...)
	return len(entries), nil
}

// providerSpy wraps a provider and counts Complete calls.
type providerSpy struct {
	llm.Provider
	mu    sync.Mutex
	calls int
}

func (p *providerSpy) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.Provider.Complete(ctx, req)
}

func (p *providerSpy) completeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// cannedProvider always answers with a fixed string.
type cannedProvider struct {
	llm.EchoProvider
	reply string
}

func (p cannedProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: p.reply, Model: "canned"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Timeout: 5 * time.Second},
		Chat: config.ChatConfig{
			MaxItems:        1000,
			TTL:             time.Hour,
			TokenCeiling:    8000,
			TokenReserve:    1000,
			SummaryMaxChars: 1200,
			PersonaLabel:    "monday",
			Language:        "ko",
		},
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}
