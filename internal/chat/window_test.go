package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(role Role, text string) Entry {
	return Entry{Role: role, Text: text, Timestamp: 1710460200000}
}

func TestBuildWindowDirectiveFirst(t *testing.T) {
	win, err := BuildWindow("안녕", nil, Persona{Label: "monday"}, WindowOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, win.Messages)

	assert.Equal(t, "system", win.Messages[0].Role)
	assert.Contains(t, win.Messages[0].Content, "Monday")
	// Empty history: the prompt becomes the single user turn.
	assert.Equal(t, "user", win.Messages[len(win.Messages)-1].Role)
	assert.Equal(t, "안녕", win.Messages[len(win.Messages)-1].Content)
}

func TestBuildWindowEmptyInput(t *testing.T) {
	_, err := BuildWindow("   ", nil, Persona{Label: "monday"}, WindowOptions{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestBuildWindowHiddenAndSummaryExcluded(t *testing.T) {
	history := []Entry{
		turn(RoleUser, "보이는 질문"),
		{Role: RoleUser, Text: "숨긴 질문", Hidden: true},
		{Role: RoleSystem, Text: "요약", Hidden: true, Kind: KindSummary},
		turn(RoleAssistant, "보이는 답변"),
	}

	win, err := BuildWindow("", history, Persona{Label: "monday"}, WindowOptions{})
	require.NoError(t, err)

	var contents []string
	for _, m := range win.Messages[1:] {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"보이는 질문", "보이는 답변"}, contents)
}

func TestBuildWindowCurrentTimeFromLastUserEntry(t *testing.T) {
	history := []Entry{
		turn(RoleUser, "먼저 물어본 것"),
		turn(RoleAssistant, "답"),
		turn(RoleUser, "회의 일정 알려줘 2024 03 15 09 30"),
	}

	win, err := BuildWindow("", history, Persona{Label: "monday"}, WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15 09:30 KST", win.CurrentTime)

	// The time note sits between the directive and the turns.
	assert.Equal(t, "system", win.Messages[1].Role)
	assert.Contains(t, win.Messages[1].Content, "2024-03-15 09:30 KST")

	// The trailing token is stripped from the history turn itself.
	last := win.Messages[len(win.Messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "회의 일정 알려줘", last.Content)
}

func TestBuildWindowCurrentTimeFallbackToPrompt(t *testing.T) {
	// No user entry in history carries a clock token; the prompt does.
	history := []Entry{
		turn(RoleAssistant, "답변만 있음"),
	}

	win, err := BuildWindow("내일 일정 2024 03 15 09 30", history, Persona{Label: "monday"}, WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15 09:30 KST", win.CurrentTime)

	// History is non-empty, so the prompt itself is not in the window;
	// the fallback only feeds the time note.
	for _, m := range win.Messages {
		assert.NotContains(t, m.Content, "내일 일정")
	}
}

func TestBuildWindowHistoryNotMutated(t *testing.T) {
	history := []Entry{
		turn(RoleUser, "회의 일정 알려줘 2024 03 15 09 30"),
	}

	_, err := BuildWindow("", history, Persona{Label: "monday"}, WindowOptions{})
	require.NoError(t, err)
	assert.Equal(t, "회의 일정 알려줘 2024 03 15 09 30", history[0].Text)
}

func TestBuildWindowBudgetTruncation(t *testing.T) {
	// Each entry estimates to 100 tokens; ceiling 300 with reserve 50
	// leaves room for two entries.
	long := strings.Repeat("가", 200)
	history := []Entry{
		turn(RoleUser, long+"1"),
		turn(RoleAssistant, long+"2"),
		turn(RoleUser, long+"3"),
	}

	win, err := BuildWindow("", history, Persona{Label: "monday"}, WindowOptions{
		TokenCeiling: 300,
		TokenReserve: 50,
	})
	require.NoError(t, err)

	turns := win.Messages[1:]
	require.Len(t, turns, 2)
	// Oldest dropped, chronological order preserved.
	assert.True(t, strings.HasSuffix(turns[0].Content, "2"))
	assert.True(t, strings.HasSuffix(turns[1].Content, "3"))

	total := 0
	for _, m := range turns {
		total += EstimateTokens(m.Content)
	}
	assert.LessOrEqual(t, total, 250)
}

func TestBuildWindowRecentTurnsWithSummary(t *testing.T) {
	history := []Entry{
		turn(RoleUser, "옛날 질문"),
		turn(RoleAssistant, "옛날 답변"),
		{Role: RoleSystem, Text: "핵심 사실 요약", Hidden: true, Kind: KindSummary},
		{Role: RoleUser, Text: "숨겨진 최근 질문", Hidden: true},
		turn(RoleAssistant, "최근 답변"),
	}

	win, err := BuildWindow("", history, Persona{Label: "monday"}, WindowOptions{RecentTurns: 1})
	require.NoError(t, err)

	// Summary note right after the directive.
	assert.Equal(t, "system", win.Messages[1].Role)
	assert.Contains(t, win.Messages[1].Content, "핵심 사실 요약")

	// Last pair rides along, hidden flag or not; summary entry itself
	// is not a turn.
	turns := win.Messages[2:]
	require.Len(t, turns, 2)
	assert.Equal(t, "숨겨진 최근 질문", turns[0].Content)
	assert.Equal(t, "최근 답변", turns[1].Content)
}

func TestBuildWindowRecentTurnsUnpairedTail(t *testing.T) {
	history := []Entry{
		turn(RoleUser, "첫 질문"),
		turn(RoleAssistant, "첫 답변"),
		turn(RoleUser, "둘째 질문"),
		turn(RoleAssistant, "둘째 답변"),
		turn(RoleUser, "연속 질문 하나"),
		turn(RoleUser, "연속 질문 둘"),
	}

	win, err := BuildWindow("", history, Persona{Label: "monday"}, WindowOptions{RecentTurns: 2})
	require.NoError(t, err)

	// A turn ends at a user entry, so the two unanswered questions use
	// up the whole allowance and nothing older rides along.
	turns := win.Messages[1:]
	require.Len(t, turns, 2)
	assert.Equal(t, "연속 질문 하나", turns[0].Content)
	assert.Equal(t, "연속 질문 둘", turns[1].Content)
}

func TestPersonaDirectiveFacts(t *testing.T) {
	p := Persona{Label: "monday", Facts: []string{"name=민수", "tone=반말"}}
	d := p.Directive()
	assert.Contains(t, d, "name=민수")
	assert.Contains(t, d, "tone=반말")

	unknown := Persona{Label: "nope"}
	assert.Contains(t, unknown.Directive(), "helpful assistant")
}
