package services

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// SessionService manages the session lifecycle: start with a fact set,
// end with an optional durable flush. It keeps a small in-process fact
// cache in front of the store; the store stays the source of truth.
type SessionService struct {
	store SessionStore
	facts FactSource
	sink  MessageSink
	log   *logrus.Logger

	mu    sync.RWMutex
	cache map[string][]string
}

func NewSessionService(store SessionStore, facts FactSource, sink MessageSink, log *logrus.Logger) *SessionService {
	return &SessionService{
		store: store,
		facts: facts,
		sink:  sink,
		log:   log,
		cache: make(map[string][]string),
	}
}

// EndResult reports what happened when a session was torn down.
type EndResult struct {
	Messages int
	Saved    int
	Facts    int
}

// Start creates a session. The fact set is the persistent facts (empty
// when the fact source is missing or unreachable) plus any client
// extras, and is immutable for the session's lifetime.
func (s *SessionService) Start(ctx context.Context, extra []string) (string, int, error) {
	var base []string
	if s.facts != nil {
		loaded, err := s.facts.ListFacts(ctx)
		if err != nil {
			s.log.WithError(err).Warn("fact source unreachable, starting with empty fact set")
		} else {
			base = loaded
		}
	}

	facts := make([]string, 0, len(base)+len(extra))
	facts = append(facts, base...)
	for _, f := range extra {
		if strings.TrimSpace(f) == "" {
			continue
		}
		facts = append(facts, f)
	}

	sid, err := s.store.Start(ctx, facts)
	if err != nil {
		return "", 0, err
	}

	s.mu.Lock()
	s.cache[sid] = facts
	s.mu.Unlock()

	return sid, len(facts), nil
}

// Facts returns the session's fact set, from cache when warm.
func (s *SessionService) Facts(ctx context.Context, sid string) ([]string, error) {
	s.mu.RLock()
	cached, ok := s.cache[sid]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	facts, err := s.store.Facts(ctx, sid)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[sid] = facts
	s.mu.Unlock()
	return facts, nil
}

// End flushes the session's transcript to the durable sink when one is
// configured, then discards the session.
func (s *SessionService) End(ctx context.Context, sid string) (*EndResult, error) {
	entries, facts, err := s.store.End(ctx, sid)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.cache, sid)
	s.mu.Unlock()

	saved := 0
	if s.sink != nil && len(entries) > 0 {
		saved, err = s.sink.InsertBatch(ctx, sid, entries)
		if err != nil {
			// The session is already gone from the store; report the
			// flush failure instead of pretending the rows landed.
			return nil, err
		}
	}

	return &EndResult{Messages: len(entries), Saved: saved, Facts: len(facts)}, nil
}
