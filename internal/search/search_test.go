package search

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshell/internal/api"
	"lexshell/internal/httpclient"
	"lexshell/internal/store"
	"lexshell/internal/testutils"
	"lexshell/pkg/lextypes"
)

// fakeBackend records search params and answers every call successfully.
type fakeBackend struct {
	mu      sync.Mutex
	params  []lextypes.SearchParams
	gates   map[string]chan struct{}
	started chan string
}

func (f *fakeBackend) RunSearch(ctx context.Context, params lextypes.SearchParams) lextypes.Result[lextypes.SearchResults] {
	f.mu.Lock()
	f.params = append(f.params, params)
	gate := f.gates[params.Query]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- params.Query
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	return lextypes.Result[lextypes.SearchResults]{
		Data:   lextypes.SearchResults{Results: []lextypes.SearchResultItem{{ID: lextypes.FlexString("q-" + params.Query), Text: params.Query}}},
		Status: http.StatusOK,
		Count:  1,
	}
}

func (f *fakeBackend) FetchItemDetail(_ context.Context, id string) lextypes.Result[*lextypes.PastQuestionDetail] {
	detail := &lextypes.PastQuestionDetail{AIOverview: "overview of " + id}
	detail.ID = lextypes.FlexString(id)
	return lextypes.Result[*lextypes.PastQuestionDetail]{Data: detail, Status: http.StatusOK}
}

func (f *fakeBackend) FetchFilterMap(context.Context) lextypes.Result[*lextypes.SearchFilterMap] {
	return lextypes.Result[*lextypes.SearchFilterMap]{
		Data: &lextypes.SearchFilterMap{Filters: lextypes.FilterCatalog{
			Courses: []lextypes.FilterOption{
				{ID: "c1", Name: "Law of Contract", Code: "LAW201"},
				{ID: "c2", Name: "Law of Torts", Code: "LAW203"},
			},
			Tags: []lextypes.FilterOption{{ID: "t1", Name: "Torts", Count: 5}},
		}},
		Status: http.StatusOK,
	}
}

func (f *fakeBackend) Params() []lextypes.SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lextypes.SearchParams(nil), f.params...)
}

func TestToggleFilter_ScenarioRemovesKey(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)

	_, err := s.Submit(context.Background(), "contract")
	require.NoError(t, err)
	_, err = s.ToggleFilter(context.Background(), lextypes.FilterYear, "2021")
	require.NoError(t, err)
	_, err = s.ToggleFilter(context.Background(), lextypes.FilterYear, "2021")
	require.NoError(t, err)

	params := backend.Params()
	require.Len(t, params, 3)
	assert.Equal(t, lextypes.SearchParams{Query: "contract", Year: "2021"}, params[1])
	assert.Equal(t, lextypes.SearchParams{Query: "contract"}, params[2])
	assert.NotContains(t, params[2].Values(), "year")
}

func TestToggleFilter_SelfInverseAndReplace(t *testing.T) {
	tests := []struct {
		name    string
		toggles []string
		want    string
	}{
		{name: "set", toggles: []string{"mcq"}, want: "mcq"},
		{name: "same value unsets", toggles: []string{"mcq", "mcq"}, want: ""},
		{name: "different value replaces", toggles: []string{"mcq", "essay"}, want: "essay"},
		{name: "set unset set", toggles: []string{"essay", "essay", "essay"}, want: "essay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeBackend{}, nil)
			for _, v := range tt.toggles {
				_, err := s.ToggleFilter(context.Background(), lextypes.FilterType, v)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, s.Params().Type)
		})
	}
}

func TestToggleFilter_UnknownKey(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)

	_, err := s.ToggleFilter(context.Background(), lextypes.FilterKey("color"), "red")

	assert.ErrorIs(t, err, ErrUnknownFilter)
	assert.Empty(t, backend.Params())
}

func TestToggleTag_MultiSelect(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)

	_, err := s.ToggleTag(context.Background(), "t1")
	require.NoError(t, err)
	_, err = s.ToggleFilter(context.Background(), lextypes.FilterTags, "t2")
	require.NoError(t, err)

	assert.Equal(t, "t1,t2", s.Params().Tags)
	assert.Equal(t, []string{"t1", "t2"}, s.Tags())

	_, err = s.ToggleTag(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t2", s.Params().Tags)

	_, err = s.ToggleTag(context.Background(), "t2")
	require.NoError(t, err)
	assert.NotContains(t, s.Params().Values(), "tags")
	assert.Len(t, backend.Params(), 4)
}

func TestClearFilters_KeepsQuery(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)

	_, _ = s.Submit(context.Background(), "negligence")
	_, _ = s.ToggleFilter(context.Background(), lextypes.FilterCourse, "c1")
	_, _ = s.ToggleTag(context.Background(), "t1")
	_, err := s.ClearFilters(context.Background())
	require.NoError(t, err)

	params := backend.Params()
	assert.Equal(t, lextypes.SearchParams{Query: "negligence"}, params[len(params)-1])
	assert.Empty(t, s.Tags())
}

func TestRetry_ReissuesCurrentParams(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, nil)

	_, _ = s.Submit(context.Background(), "equity")
	_, _ = s.ToggleFilter(context.Background(), lextypes.FilterSemester, "1")
	_, err := s.Retry(context.Background())
	require.NoError(t, err)

	params := backend.Params()
	require.Len(t, params, 3)
	assert.Equal(t, params[1], params[2])
}

func TestSetParams(t *testing.T) {
	st := store.New()
	backend := &fakeBackend{}
	s := New(backend, st)

	s.SetParams(lextypes.SearchParams{Query: " tort ", Year: "2020", Type: "mcq", Tags: "t1, t2,t1"})

	assert.Empty(t, backend.Params())
	assert.Equal(t, "tort", st.SearchQuery())
	assert.Equal(t, []string{"t1", "t2"}, s.Tags())
	assert.Equal(t, lextypes.SearchParams{Query: "tort", Year: "2020", Type: "mcq", Tags: "t1,t2"}, s.Params())

	_, err := s.ToggleFilter(context.Background(), lextypes.FilterYear, "2020")
	require.NoError(t, err)
	assert.Equal(t, lextypes.SearchParams{Query: "tort", Type: "mcq", Tags: "t1,t2"}, backend.Params()[0])
}

func TestSubmit_UpdatesStore(t *testing.T) {
	st := store.New()
	gate := make(chan struct{})
	backend := &fakeBackend{gates: map[string]chan struct{}{"contract": gate}, started: make(chan string, 1)}
	s := New(backend, st)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Submit(context.Background(), "  contract ")
	}()

	<-backend.started
	assert.True(t, st.IsLoading())
	assert.Equal(t, "contract", st.SearchQuery())

	close(gate)
	<-done
	assert.False(t, st.IsLoading())
	assert.Equal(t, 1, s.Results().Count)
}

func TestSearch_LastRequestWins(t *testing.T) {
	slow := make(chan struct{})
	backend := &fakeBackend{gates: map[string]chan struct{}{"slow": slow}, started: make(chan string, 2)}
	st := store.New()
	s := New(backend, st)

	slowDone := make(chan lextypes.SearchResults)
	go func() {
		res, _ := s.Submit(context.Background(), "slow")
		slowDone <- res
	}()
	<-backend.started

	fast, err := s.Submit(context.Background(), "fast")
	<-backend.started
	require.NoError(t, err)
	assert.Equal(t, "fast", fast.Results[0].Text)

	close(slow)
	own := <-slowDone
	assert.Equal(t, "slow", own.Results[0].Text)

	state := s.Results()
	require.Len(t, state.Data.Results, 1)
	assert.Equal(t, "fast", state.Data.Results[0].Text)
	assert.False(t, st.IsLoading())
}

func TestSubmit_ConcurrentLoadingSettles(t *testing.T) {
	for i := 0; i < 200; i++ {
		st := store.New()
		s := New(&fakeBackend{}, st)

		var wg sync.WaitGroup
		for n := 0; n < 16; n++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, _ = s.Submit(context.Background(), fmt.Sprintf("q%d", n))
			}(n)
		}
		wg.Wait()

		require.False(t, s.Results().IsPending())
		require.False(t, st.IsLoading(), "iteration %d left the loading flag set", i)
	}
}

func TestDetail_OpenAndClose(t *testing.T) {
	s := New(&fakeBackend{}, nil)

	detail, err := s.OpenDetail(context.Background(), " 42 ")
	require.NoError(t, err)
	assert.Equal(t, "overview of 42", detail.AIOverview)
	assert.Equal(t, "42", s.Detail().Data.ID.String())

	s.CloseDetail()
	assert.Nil(t, s.Detail().Data)
}

func TestFacetOptions(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	assert.Nil(t, s.FacetOptions(lextypes.FilterCourse, ""))

	_, err := s.LoadFilters(context.Background())
	require.NoError(t, err)

	assert.Len(t, s.FacetOptions(lextypes.FilterCourse, ""), 2)
	narrowed := s.FacetOptions(lextypes.FilterCourse, "torts")
	require.Len(t, narrowed, 1)
	assert.Equal(t, "c2", narrowed[0].Key())
	assert.Len(t, s.FacetOptions(lextypes.FilterCourse, "law2"), 2)
	assert.Empty(t, s.FacetOptions(lextypes.FilterCourse, "criminal"))
}

func TestNarrowOptions(t *testing.T) {
	options := []lextypes.FilterOption{
		{Value: "2021", Label: "2021", Count: 3},
		{Value: "first", Label: "First Semester"},
		{ID: "i1", Name: "University of Lagos"},
	}

	assert.Equal(t, options, NarrowOptions(options, "  "))
	assert.Len(t, NarrowOptions(options, "SEMESTER"), 1)
	assert.Len(t, NarrowOptions(options, "lagos"), 1)
	assert.Len(t, NarrowOptions(options, "202"), 1)
	assert.Empty(t, NarrowOptions(options, "zzz"))
}

func TestSearch_AgainstBackend(t *testing.T) {
	backend := testutils.NewFakeBackend(t)
	backend.RespondJSON(http.MethodGet, api.PathPastQuestions, http.StatusOK, testutils.PagedEnvelope(map[string]any{
		"results": []map[string]any{{"id": 7, "text": "Discuss the rule in Rylands v Fletcher.", "year": 2021}},
	}, 1))
	backend.RespondJSON(http.MethodGet, api.PathFilterMap, http.StatusOK, testutils.Envelope(map[string]any{
		"filters": map[string]any{"tags": []map[string]any{{"id": "t1", "name": "Torts", "count": 5}}},
	}))
	s := New(api.New(httpclient.New(backend.URL())), store.New())

	_, err := s.LoadFilters(context.Background())
	require.NoError(t, err)
	tags := s.FacetOptions(lextypes.FilterTags, "")
	require.Len(t, tags, 1)

	_, err = s.ToggleTag(context.Background(), tags[0].Key())
	require.NoError(t, err)
	results, err := s.ToggleTag(context.Background(), "t2")
	require.NoError(t, err)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "7", results.Results[0].ID.String())
	assert.Equal(t, "2021", results.Results[0].Year.String())

	requests := backend.Requests()
	require.Len(t, requests, 3)
	assert.Equal(t, "t1,t2", requests[2].Query.Get("tags"))
	assert.False(t, requests[2].Query.Has("q"))
	assert.Equal(t, 1, s.Results().Count)
}
