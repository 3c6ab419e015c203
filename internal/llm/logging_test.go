package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumeet/edumeet/internal/store"
)

type recordingRepo struct {
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func (r *recordingRepo) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMRequestEvent, error) {
	return nil, nil
}

func TestLogging_Generate(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`), Usage: Usage{InputTokens: 7, OutputTokens: 3}},
		MockResponse{Err: errors.New("boom")},
	)
	p := WithLogging(mock, ProviderMock, repo, nil)
	ctx := WithPurpose(context.Background(), PurposeQuizDraft)

	_, err := p.Generate(ctx, Request{})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 2)
	assert.Equal(t, "mock", repo.events[0].Provider)
	assert.Equal(t, PurposeQuizDraft, repo.events[0].Purpose)
	assert.Equal(t, 7, repo.events[0].InputTokens)
	assert.True(t, repo.events[0].Success)
	assert.False(t, repo.events[1].Success)
	assert.Equal(t, "boom", repo.events[1].ErrorMessage)
}

func TestLogging_StreamRecordsOnce(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{Chunks: []string{"a", "b", "c"}})
	p := WithLogging(mock, ProviderMock, repo, nil)

	for range p.Stream(WithPurpose(context.Background(), PurposeTutor), Request{}) {
		break
	}
	require.Len(t, repo.events, 1)
	assert.True(t, repo.events[0].Success)
	assert.Equal(t, PurposeTutor, repo.events[0].Purpose)
}

func TestLogging_RepoFailureIsNotFatal(t *testing.T) {
	repo := &recordingRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Chunks: []string{"ok"}})
	p := WithLogging(mock, ProviderMock, repo, nil)

	text, err := Collect(p.Stream(context.Background(), Request{}))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}
