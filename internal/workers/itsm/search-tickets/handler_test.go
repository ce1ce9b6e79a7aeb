package searchtickets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snow-search/internal/common/config"
	"snow-search/internal/common/logger"
	"snow-search/internal/search"
)

type fakeSearcher struct {
	got    *search.Request
	result *search.Result
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) *search.Result {
	f.got = &req
	return f.result
}

func TestExecute_PassesRequestThrough(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{Success: true, Data: []map[string]interface{}{{"number": "PRB0000007"}}}}
	h := NewHandler(LoadConfig(config.WorkerConfig{}), s, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{SearchQuery: "problems from 3/1/2025", MaxResults: 20})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Len(t, out.Data, 1)
	require.NotNil(t, s.got)
	assert.Equal(t, search.Request{Query: "problems from 3/1/2025", MaxResults: 20}, *s.got)
}

func TestExecute_SearchFailureIsAResult(t *testing.T) {
	s := &fakeSearcher{result: &search.Result{Success: false, Error: "internal error"}}
	h := NewHandler(LoadConfig(config.WorkerConfig{}), s, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{SearchQuery: "incidents"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "internal error", out.Error)
}

func TestExecute_NilInput(t *testing.T) {
	h := NewHandler(LoadConfig(config.WorkerConfig{}), &fakeSearcher{}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrParse)
}

func TestDecodeInput(t *testing.T) {
	in, err := decodeInput(`{"searchQuery":"show me CHG0012345","maxResults":5,"processVar":"ignored"}`)
	require.NoError(t, err)
	assert.Equal(t, &Input{SearchQuery: "show me CHG0012345", MaxResults: 5}, in)

	in, err = decodeInput(`{"searchQuery":"incidents"}`)
	require.NoError(t, err)
	assert.Equal(t, 0, in.MaxResults)

	for _, bad := range []string{
		`not json`,
		`{"maxResults":5}`,
		`{"searchQuery":42}`,
		`{"searchQuery":"x","maxResults":"five"}`,
	} {
		_, err := decodeInput(bad)
		assert.ErrorIs(t, err, ErrParse, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 2*time.Second, LoadConfig(config.WorkerConfig{Timeout: 2000}).Timeout)
}
