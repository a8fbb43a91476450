package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mondaychat/monday/internal/chat"
	"github.com/mondaychat/monday/internal/config"
	"github.com/mondaychat/monday/internal/llm"
	"github.com/mondaychat/monday/internal/store"
)

// Sent to the model when the user submits nothing at all.
const defaultPrompt = "안녕하세요, 가볍게 인사해 주세요."

// How many recent user/assistant pairs ride along with the rolling
// summary when history comes from the store.
const storedRecentTurns = 6

// ChatRequest is one conversation turn from the client.
type ChatRequest struct {
	SID     string
	Message string
	History []json.RawMessage
}

// ChatService runs a conversation turn: normalize history, assemble the
// context window, call the provider, return the reply.
type ChatService struct {
	store    SessionStore
	sessions *SessionService
	provider llm.Provider
	cfg      config.ChatConfig
	timeout  time.Duration
	log      *logrus.Logger
}

func NewChatService(st SessionStore, sessions *SessionService, provider llm.Provider, cfg *config.Config, log *logrus.Logger) *ChatService {
	return &ChatService{
		store:    st,
		sessions: sessions,
		provider: provider,
		cfg:      cfg.Chat,
		timeout:  cfg.LLM.Timeout,
		log:      log,
	}
}

// Respond produces the assistant reply for one turn.
func (s *ChatService) Respond(ctx context.Context, req ChatRequest) (string, error) {
	win, err := s.buildWindow(ctx, req)
	if err != nil {
		return "", err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Complete(cctx, llm.CompletionRequest{Messages: win.Messages})
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	return resp.Content, nil
}

// RespondStream is the streaming variant; chunks arrive as the model
// produces them.
func (s *ChatService) RespondStream(ctx context.Context, req ChatRequest) (<-chan llm.StreamChunk, error) {
	win, err := s.buildWindow(ctx, req)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	upstream, err := s.provider.StreamComplete(cctx, llm.CompletionRequest{Messages: win.Messages, Stream: true})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("llm call: %w", err)
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer cancel()
		defer close(out)
		for chunk := range upstream {
			select {
			case out <- chunk:
			case <-cctx.Done():
				// Consumer gone (or deadline hit): cancel upstream
				// instead of blocking on an abandoned channel.
				return
			}
		}
	}()
	return out, nil
}

func (s *ChatService) buildWindow(ctx context.Context, req ChatRequest) (*chat.Window, error) {
	now := time.Now()
	history := chat.Normalize(req.History, now)

	opts := chat.WindowOptions{
		TokenCeiling: s.cfg.TokenCeiling,
		TokenReserve: s.cfg.TokenReserve,
	}

	// No client-held history: fall back to the stored transcript, which
	// includes hidden and summary entries, so switch the builder to
	// rolling-summary selection. The incoming message joins the loaded
	// transcript as its newest user turn; otherwise the model would
	// answer the previous question instead of this one.
	if len(history) == 0 && req.SID != "" {
		stored, err := s.store.List(ctx, req.SID)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		history = stored
		if len(stored) > 0 {
			opts.RecentTurns = storedRecentTurns
			if msg := strings.TrimSpace(req.Message); msg != "" {
				history = append(history, chat.Entry{
					Role:      chat.RoleUser,
					Text:      msg,
					Timestamp: now.UnixMilli(),
				})
			}
		}
	}

	var facts []string
	if req.SID != "" {
		loaded, err := s.sessions.Facts(ctx, req.SID)
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			// Unknown sid on the conversational path is not fatal; the
			// turn just runs without session facts.
		case err != nil:
			return nil, fmt.Errorf("load facts: %w", err)
		default:
			facts = loaded
		}
	}

	persona := chat.Persona{
		Label:    s.cfg.PersonaLabel,
		Language: s.cfg.Language,
		Facts:    facts,
	}

	win, err := chat.BuildWindow(strings.TrimSpace(req.Message), history, persona, opts)
	if errors.Is(err, chat.ErrEmptyInput) {
		win, err = chat.BuildWindow(defaultPrompt, nil, persona, opts)
	}
	if err != nil {
		return nil, err
	}
	return win, nil
}
