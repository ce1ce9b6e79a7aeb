package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snow-search/internal/common/config"
	"snow-search/internal/common/logger"
	"snow-search/internal/common/servicenow"
	"snow-search/internal/snowquery"
	"snow-search/pkg/registry"
)

type storeCall struct {
	table  string
	params url.Values
}

type fakeStore struct {
	calls   []storeCall
	records []servicenow.Record
	err     error
	panics  bool
}

func (f *fakeStore) Query(_ context.Context, table string, params url.Values) ([]servicenow.Record, error) {
	f.calls = append(f.calls, storeCall{table: table, params: params})
	if f.panics {
		panic("store exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestService(t *testing.T, store Store, opts Options) *Service {
	t.Helper()
	return NewService(registry.Default(), store, opts, logger.NewTestLogger(t), nil)
}

func TestSearch_IdentifierWithoutTypeWord(t *testing.T) {
	store := &fakeStore{records: []servicenow.Record{{"number": "CHG0012345"}}}
	svc := newTestService(t, store, Options{})

	result := svc.Search(context.Background(), Request{Query: "show me CHG0012345"})

	require.True(t, result.Success, result.Error)
	require.Len(t, store.calls, 1)
	assert.Equal(t, "change_request", store.calls[0].table)
	assert.Equal(t, "number=CHG0012345", store.calls[0].params.Get("sysparm_query"))
	assert.Equal(t, "100", store.calls[0].params.Get("sysparm_limit"))
	assert.Equal(t, []map[string]interface{}{{"number": "CHG0012345"}}, result.Data)
}

func TestSearch_DateMode(t *testing.T) {
	store := &fakeStore{records: []servicenow.Record{}}
	svc := newTestService(t, store, Options{})

	result := svc.Search(context.Background(), Request{Query: "incidents on 2025-03-01", MaxResults: 25})

	require.True(t, result.Success, result.Error)
	require.Len(t, store.calls, 1)
	assert.Equal(t, "incident", store.calls[0].table)
	assert.Equal(t,
		"state=1^ORstate=2^ORstate=3^sys_created_onBETWEENjavascript:gs.dateGenerate('2025-03-01','00:00:00')@javascript:gs.dateGenerate('2025-03-02','00:00:00')",
		store.calls[0].params.Get("sysparm_query"))
	assert.Equal(t, "25", store.calls[0].params.Get("sysparm_limit"))
}

func TestSearch_SlashDateProblems(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, Options{})

	result := svc.Search(context.Background(), Request{Query: "problems from 3/1/2025"})

	require.True(t, result.Success, result.Error)
	require.Len(t, store.calls, 1)
	assert.Equal(t, "problem", store.calls[0].table)
	assert.Contains(t, store.calls[0].params.Get("sysparm_query"), "gs.dateGenerate('2025-03-01','00:00:00')@javascript:gs.dateGenerate('2025-03-02','00:00:00')")
}

func TestSearch_DefaultMode(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, Options{DefaultMaxResults: 50})

	result := svc.Search(context.Background(), Request{Query: "open problems"})
	require.True(t, result.Success, result.Error)
	require.Len(t, store.calls, 1)
	assert.Equal(t, "problem", store.calls[0].table)
	assert.Equal(t, "", store.calls[0].params.Get("sysparm_query"))
	assert.Equal(t, "sys_created_on", store.calls[0].params.Get("sysparm_sortby_desc"))
	assert.Equal(t, "50", store.calls[0].params.Get("sysparm_limit"))

	result = svc.Search(context.Background(), Request{Query: "recent change requests"})
	require.True(t, result.Success, result.Error)
	require.Len(t, store.calls, 2)
	assert.Equal(t, "change_request", store.calls[1].table)
	assert.Equal(t, "ORDERBYDESCopened_at", store.calls[1].params.Get("sysparm_query"))
}

func TestSearch_UnresolvedType(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, Options{})

	result := svc.Search(context.Background(), Request{Query: "tickets"})

	assert.False(t, result.Success)
	assert.Equal(t, "Please specify ticket type (incident, problem, or change)", result.Error)
	assert.Empty(t, store.calls)
}

func TestSearch_RemoteErrorBodyVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	client, err := servicenow.NewClient(config.ServiceNowConfig{
		BaseURL:  srv.URL,
		Username: "u",
		Password: "p",
	}, logger.NewTestLogger(t), nil)
	require.NoError(t, err)

	svc := newTestService(t, client, Options{})
	result := svc.Search(context.Background(), Request{Query: "incidents"})

	assert.False(t, result.Success)
	assert.Equal(t, "internal error", result.Error)
}

func TestSearch_TransportFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("dial tcp: connection refused")}
	svc := newTestService(t, store, Options{})

	result := svc.Search(context.Background(), Request{Query: "incidents"})

	assert.False(t, result.Success)
	assert.Equal(t, "dial tcp: connection refused", result.Error)
}

func TestSearch_PanicIsContained(t *testing.T) {
	store := &fakeStore{panics: true}
	svc := newTestService(t, store, Options{})

	var result *Result
	require.NotPanics(t, func() {
		result = svc.Search(context.Background(), Request{Query: "incidents"})
	})
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "store exploded")
}

func TestSearch_NegativeMaxResults(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, Options{})

	result := svc.Search(context.Background(), Request{Query: "incidents", MaxResults: -1})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "max_results")
	assert.Empty(t, store.calls)
}

func TestSearch_InvalidDatePolicies(t *testing.T) {
	t.Run("fallback searches without the date", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(t, store, Options{InvalidDatePolicy: config.InvalidDateFallback})

		result := svc.Search(context.Background(), Request{Query: "incidents on 2025-02-30"})
		require.True(t, result.Success, result.Error)
		require.Len(t, store.calls, 1)
		assert.Equal(t, "", store.calls[0].params.Get("sysparm_query"))
	})

	t.Run("reject fails without a remote call", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(t, store, Options{InvalidDatePolicy: config.InvalidDateReject})

		result := svc.Search(context.Background(), Request{Query: "incidents on 2025-02-30"})
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid calendar date")
		assert.Empty(t, store.calls)
	})
}

func TestSearch_IdentifierBeatsDate(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, Options{})

	result := svc.Search(context.Background(), Request{Query: "change CHG0000001 from 2025-03-01"})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "number=CHG0000001", store.calls[0].params.Get("sysparm_query"))
}

func TestExplain(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, Options{})

	plan, err := svc.Explain(Request{Query: "incidents on 1 August 2025", MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, "incident", plan.RecordType)
	assert.Equal(t, snowquery.ModeDate, plan.Mode)
	assert.Equal(t, "2025-08-01", plan.Date)
	assert.Equal(t, "5", plan.Params.Get("sysparm_limit"))

	plan, err = svc.Explain(Request{Query: "incidents on 2025-13-01"})
	require.NoError(t, err)
	assert.Equal(t, snowquery.ModeDefault, plan.Mode)
	assert.NotEmpty(t, plan.DateWarning)

	_, err = svc.Explain(Request{Query: "tickets"})
	assert.EqualError(t, err, "StandardError[TYPE_UNRESOLVED]: Please specify ticket type (incident, problem, or change)")
}

func TestResult_JSON(t *testing.T) {
	out, err := json.Marshal(&Result{Success: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[]}`, string(out))

	out, err = json.Marshal(&Result{Success: false, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(out))
}
