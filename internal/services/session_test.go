package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mondaychat/monday/internal/chat"
	"github.com/mondaychat/monday/internal/store"
)

func TestSessionStartCombinesFacts(t *testing.T) {
	st := newMemStore(100)
	source := factSourceFunc(func(context.Context) ([]string, error) {
		return []string{"name=민수", "tone=반말"}, nil
	})
	svc := NewSessionService(st, source, nil, testLogger())

	sid, count, err := svc.Start(context.Background(), []string{"city=서울", "", "  "})
	require.NoError(t, err)
	assert.NotEmpty(t, sid)
	assert.Equal(t, 3, count)

	facts, err := svc.Facts(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, []string{"name=민수", "tone=반말", "city=서울"}, facts)
}

func TestSessionStartDegradesWhenFactSourceFails(t *testing.T) {
	st := newMemStore(100)
	source := factSourceFunc(func(context.Context) ([]string, error) {
		return nil, errors.New("db down")
	})
	svc := NewSessionService(st, source, nil, testLogger())

	sid, count, err := svc.Start(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sid)
	assert.Equal(t, 0, count)
}

func TestSessionStartWithoutFactSource(t *testing.T) {
	svc := NewSessionService(newMemStore(100), nil, nil, testLogger())

	_, count, err := svc.Start(context.Background(), []string{"a=1"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionEndFlushesToSink(t *testing.T) {
	st := newMemStore(100)
	sink := newSinkSpy()
	svc := NewSessionService(st, nil, sink, testLogger())

	sid, _, err := svc.Start(context.Background(), []string{"a=1", "b=2"})
	require.NoError(t, err)

	_, err = st.AppendBatch(context.Background(), sid, []chat.Entry{
		{Role: chat.RoleUser, Text: "안녕", Timestamp: 1710460200000},
		{Role: chat.RoleAssistant, Text: "반가워요", Timestamp: 1710460201000},
	})
	require.NoError(t, err)

	result, err := svc.End(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Messages)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 2, result.Facts)
	assert.Len(t, sink.flushed[sid], 2)

	// The session is gone afterwards.
	_, err = svc.End(context.Background(), sid)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionEndWithoutSink(t *testing.T) {
	st := newMemStore(100)
	svc := NewSessionService(st, nil, nil, testLogger())

	sid, _, err := svc.Start(context.Background(), nil)
	require.NoError(t, err)

	result, err := svc.End(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Saved)
}

func TestSessionEndUnknown(t *testing.T) {
	svc := NewSessionService(newMemStore(100), nil, nil, testLogger())

	_, err := svc.End(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}
