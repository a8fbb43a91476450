package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mondaychat/monday/internal/llm"
)

// ErrEmptyInput means there is nothing to send: no prompt, no usable
// history, no default to fall back on.
var ErrEmptyInput = errors.New("empty prompt and no usable history")

const (
	DefaultTokenCeiling = 8000
	DefaultTokenReserve = 1000
)

// WindowOptions tunes context-window assembly.
type WindowOptions struct {
	// TokenCeiling minus TokenReserve is the history budget.
	TokenCeiling int
	TokenReserve int
	// RecentTurns switches selection from "all visible entries" to
	// "latest rolling summary plus the last N completed turns, hidden
	// or not". A turn ends at a user entry and carries the assistant
	// replies after it. Zero keeps the visible-set mode.
	RecentTurns int
}

// Window is the assembled message sequence for one LLM call.
type Window struct {
	Messages    []llm.Message
	CurrentTime string
}

// BuildWindow selects, orders and trims history, then assembles the
// final sequence: persona directive, optional prior-summary note,
// optional current-time note, then the retained turns oldest first. An
// empty selected set falls back to a single user turn holding the
// timestamp-stripped prompt.
func BuildWindow(prompt string, history []Entry, persona Persona, opts WindowOptions) (*Window, error) {
	if opts.TokenCeiling <= 0 {
		opts.TokenCeiling = DefaultTokenCeiling
	}
	if opts.TokenReserve <= 0 {
		opts.TokenReserve = DefaultTokenReserve
	}

	selected, summaryText := selectEntries(history, opts.RecentTurns)

	// Current time comes from a trailing clock token on the newest user
	// entry, falling back to the raw prompt. The prompt fallback never
	// rewrites history, only the single-turn assembly below.
	currentTime := ""
	for i := len(selected) - 1; i >= 0; i-- {
		if selected[i].Role != RoleUser {
			continue
		}
		clean, stamp, ok := ExtractTrailingTimestamp(selected[i].Text)
		selected[i].Text = clean
		if ok {
			currentTime = stamp
		}
		break
	}
	cleanPrompt := prompt
	if currentTime == "" {
		if clean, stamp, ok := ExtractTrailingTimestamp(prompt); ok {
			cleanPrompt = clean
			currentTime = stamp
		}
	}

	selected = trimToBudget(selected, opts.TokenCeiling-opts.TokenReserve)

	if len(selected) == 0 && strings.TrimSpace(cleanPrompt) == "" {
		return nil, ErrEmptyInput
	}

	msgs := make([]llm.Message, 0, len(selected)+3)
	msgs = append(msgs, llm.Message{Role: string(RoleSystem), Content: persona.Directive()})
	if summaryText != "" {
		msgs = append(msgs, llm.Message{
			Role:    string(RoleSystem),
			Content: "Summary of the conversation so far: " + summaryText,
		})
	}
	if currentTime != "" {
		msgs = append(msgs, llm.Message{
			Role:    string(RoleSystem),
			Content: fmt.Sprintf("Current datetime: %s. Interpret relative dates against this.", currentTime),
		})
	}
	if len(selected) > 0 {
		for _, e := range selected {
			msgs = append(msgs, llm.Message{Role: string(e.Role), Content: e.Text})
		}
	} else {
		msgs = append(msgs, llm.Message{Role: string(RoleUser), Content: cleanPrompt})
	}

	return &Window{Messages: msgs, CurrentTime: currentTime}, nil
}

// selectEntries copies the working set so callers' history is never
// mutated by the timestamp rewrite above.
func selectEntries(history []Entry, recentTurns int) (selected []Entry, summaryText string) {
	if recentTurns > 0 {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].IsSummary() && strings.TrimSpace(history[i].Text) != "" {
				summaryText = history[i].Text
				break
			}
		}
		// Walk backward counting turns at their user entry, so an
		// unpaired tail of user entries cannot crowd out real pairs.
		turns := 0
		for i := len(history) - 1; i >= 0 && turns < recentTurns; i-- {
			if history[i].IsSummary() {
				continue
			}
			selected = append(selected, history[i])
			if history[i].Role == RoleUser {
				turns++
			}
		}
		for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
			selected[i], selected[j] = selected[j], selected[i]
		}
		return selected, summaryText
	}

	for _, e := range history {
		if e.Hidden || e.IsSummary() {
			continue
		}
		selected = append(selected, e)
	}
	return selected, ""
}

// trimToBudget keeps the newest suffix whose estimated token cost fits,
// dropping from the oldest end. Order is preserved.
func trimToBudget(entries []Entry, budget int) []Entry {
	if len(entries) == 0 || budget <= 0 {
		return entries
	}
	used := 0
	start := 0
	for i := len(entries) - 1; i >= 0; i-- {
		cost := EstimateTokens(entries[i].Text)
		if used+cost > budget {
			start = i + 1
			break
		}
		used += cost
	}
	return entries[start:]
}
