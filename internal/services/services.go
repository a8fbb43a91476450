package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mondaychat/monday/internal/chat"
	"github.com/mondaychat/monday/internal/config"
	"github.com/mondaychat/monday/internal/llm"
)

// SessionStore is the session/message gateway contract. The Redis
// gateway in internal/store is the production implementation.
type SessionStore interface {
	Ping(ctx context.Context) error
	Start(ctx context.Context, facts []string) (string, error)
	Facts(ctx context.Context, sid string) ([]string, error)
	AppendBatch(ctx context.Context, sid string, entries []chat.Entry) (int, error)
	List(ctx context.Context, sid string) ([]chat.Entry, error)
	PurgeHidden(ctx context.Context, sid string) (removed, kept int, err error)
	End(ctx context.Context, sid string) ([]chat.Entry, []string, error)
}

// FactSource supplies the persistent fact set at session start. May be
// nil when no database is configured.
type FactSource interface {
	ListFacts(ctx context.Context) ([]string, error)
}

// MessageSink receives the transcript flush on session end. May be nil
// when no database is configured.
type MessageSink interface {
	InsertBatch(ctx context.Context, sessionID string, entries []chat.Entry) (int, error)
}

// Services wires the service layer together.
type Services struct {
	Store   SessionStore
	Session *SessionService
	Chat    *ChatService
	Summary *SummaryService
}

// NewServices creates all services. facts and sink may be nil; the
// session service then degrades to empty fact sets and skips the
// durable flush.
func NewServices(cfg *config.Config, store SessionStore, provider llm.Provider, facts FactSource, sink MessageSink, log *logrus.Logger) *Services {
	session := NewSessionService(store, facts, sink, log)
	return &Services{
		Store:   store,
		Session: session,
		Chat:    NewChatService(store, session, provider, cfg, log),
		Summary: NewSummaryService(store, provider, cfg, log),
	}
}
