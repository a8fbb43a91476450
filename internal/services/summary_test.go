package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mondaychat/monday/internal/chat"
	"github.com/mondaychat/monday/internal/llm"
)

func TestSummarizeRejectsEmptyInput(t *testing.T) {
	spy := &providerSpy{Provider: llm.EchoProvider{}}
	svc := NewSummaryService(newMemStore(100), spy, testConfig(), testLogger())

	_, err := svc.Summarize(context.Background(), SummarizeRequest{})
	assert.ErrorIs(t, err, ErrNothingToSummarize)
	// No LLM call was made for the empty input.
	assert.Equal(t, 0, spy.completeCalls())
}

func TestSummarizeEmptyTextItemsStillEmpty(t *testing.T) {
	spy := &providerSpy{Provider: llm.EchoProvider{}}
	svc := NewSummaryService(newMemStore(100), spy, testConfig(), testLogger())

	_, err := svc.Summarize(context.Background(), SummarizeRequest{
		Items: []json.RawMessage{
			json.RawMessage(`{"kind":"summary","text":""}`),
			json.RawMessage(`"not an object"`),
		},
	})
	assert.ErrorIs(t, err, ErrNothingToSummarize)
	assert.Equal(t, 0, spy.completeCalls())
}

func TestSummarizePrevSummaryAloneIsEnough(t *testing.T) {
	svc := NewSummaryService(newMemStore(100), cannedProvider{reply: "압축된 사실"}, testConfig(), testLogger())

	summary, err := svc.Summarize(context.Background(), SummarizeRequest{PrevSummary: "지난 요약"})
	require.NoError(t, err)
	assert.Equal(t, "압축된 사실", summary)
}

func TestSummarizeHardTruncation(t *testing.T) {
	long := strings.Repeat("가", 2000)
	svc := NewSummaryService(newMemStore(100), cannedProvider{reply: long}, testConfig(), testLogger())

	summary, err := svc.Summarize(context.Background(), SummarizeRequest{
		PrevSummary: "요약",
		MaxChars:    100,
	})
	require.NoError(t, err)
	// Truncated in runes regardless of what the model returned.
	assert.Equal(t, 100, len([]rune(summary)))
}

func TestSummarizeStoresSummaryEntry(t *testing.T) {
	st := newMemStore(100)
	svc := NewSummaryService(st, cannedProvider{reply: "핵심 사실만"}, testConfig(), testLogger())

	sid, err := st.Start(context.Background(), nil)
	require.NoError(t, err)

	summary, err := svc.Summarize(context.Background(), SummarizeRequest{
		SID: sid,
		Items: []json.RawMessage{
			json.RawMessage(`{"role":"user","text":"숨긴 대화","hidden":true}`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "핵심 사실만", summary)

	entries, err := st.List(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, chat.KindSummary, entries[0].Kind)
	assert.Equal(t, chat.RoleSystem, entries[0].Role)
	assert.True(t, entries[0].Hidden)
	assert.Equal(t, "핵심 사실만", entries[0].Text)
}
