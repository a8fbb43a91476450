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
)

// ErrNothingToSummarize means both the prior summary and the new batch
// were empty; no LLM call is made in that case.
var ErrNothingToSummarize = errors.New("nothing to summarize")

// SummarizeRequest carries one compaction round.
type SummarizeRequest struct {
	SID         string
	Items       []json.RawMessage
	PrevSummary string
	Lang        string
	MaxChars    int
}

// SummaryService folds hidden history plus the prior rolling summary
// into a new fact-only summary via one LLM call.
type SummaryService struct {
	store    SessionStore
	provider llm.Provider
	maxChars int
	lang     string
	timeout  time.Duration
	log      *logrus.Logger
}

func NewSummaryService(st SessionStore, provider llm.Provider, cfg *config.Config, log *logrus.Logger) *SummaryService {
	return &SummaryService{
		store:    st,
		provider: provider,
		maxChars: cfg.Chat.SummaryMaxChars,
		lang:     cfg.Chat.Language,
		timeout:  cfg.LLM.Timeout,
		log:      log,
	}
}

// Summarize produces the new summary text. When a session id is given,
// the result is also stored back as a summary-kind entry (hidden, role
// system). The returned text is hard-truncated to the character budget
// regardless of what the model produced.
func (s *SummaryService) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = s.maxChars
	}
	lang := req.Lang
	if lang == "" {
		lang = s.lang
	}

	now := time.Now()
	entries := chat.Normalize(req.Items, now)

	var transcript strings.Builder
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		fmt.Fprintf(&transcript, "%s: %s\n", e.Role, e.Text)
	}

	prev := strings.TrimSpace(req.PrevSummary)
	if prev == "" && transcript.Len() == 0 {
		return "", ErrNothingToSummarize
	}

	var input strings.Builder
	if prev != "" {
		input.WriteString("Previous summary:\n")
		input.WriteString(prev)
		input.WriteString("\n\n")
	}
	if transcript.Len() > 0 {
		input.WriteString("New conversation:\n")
		input.WriteString(transcript.String())
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Complete(cctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: string(chat.RoleSystem), Content: chat.SummaryDirective(lang, maxChars)},
			{Role: string(chat.RoleUser), Content: input.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}

	summary := truncateRunes(strings.TrimSpace(resp.Content), maxChars)

	if req.SID != "" {
		entry := chat.Entry{
			Role:      chat.RoleSystem,
			Text:      summary,
			Timestamp: now.UnixMilli(),
			Hidden:    true,
			Kind:      chat.KindSummary,
		}
		if _, err := s.store.AppendBatch(ctx, req.SID, []chat.Entry{entry}); err != nil {
			return "", fmt.Errorf("store summary: %w", err)
		}
	}

	return summary, nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
