// Package search holds the past-question search state: the free-text query,
// the active facet filters, the selected tags, and the remote results.
//
// Every change to the query or the filters re-issues the search at once with
// the merged parameters. Results, detail and facet fetches each run through a
// mutation, so a slow stale response never replaces a newer one.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"lexshell/internal/logger"
	"lexshell/internal/mutation"
	"lexshell/internal/store"
	"lexshell/pkg/lextypes"
)

// ErrUnknownFilter is returned for filter keys the backend does not accept.
var ErrUnknownFilter = errors.New("unknown filter")

// Backend is the set of remote operations search depends on.
// *api.Client satisfies it.
type Backend interface {
	RunSearch(ctx context.Context, params lextypes.SearchParams) lextypes.Result[lextypes.SearchResults]
	FetchItemDetail(ctx context.Context, id string) lextypes.Result[*lextypes.PastQuestionDetail]
	FetchFilterMap(ctx context.Context) lextypes.Result[*lextypes.SearchFilterMap]
}

// Search is the search page state.
type Search struct {
	results *mutation.Mutation[lextypes.SearchParams, lextypes.SearchResults]
	detail  *mutation.Mutation[string, *lextypes.PastQuestionDetail]
	facets  *mutation.Mutation[struct{}, *lextypes.SearchFilterMap]
	store   *store.Store
	log     *log.Logger

	mu      sync.Mutex
	query   string
	filters map[lextypes.FilterKey]string
	tags    []string
}

// New creates a Search. When st is non-nil the query and loading flag are
// mirrored into it.
func New(backend Backend, st *store.Store) *Search {
	s := &Search{
		results: mutation.New("searchPastQuestions", backend.RunSearch),
		detail:  mutation.New("pastQuestionDetail", backend.FetchItemDetail),
		facets: mutation.New("searchFilterMap", func(ctx context.Context, _ struct{}) lextypes.Result[*lextypes.SearchFilterMap] {
			return backend.FetchFilterMap(ctx)
		}),
		store:   st,
		log:     logger.NewStyledLogger("search"),
		filters: make(map[lextypes.FilterKey]string),
	}
	if st != nil {
		s.results.Subscribe(func(state mutation.State[lextypes.SearchResults]) {
			st.SetIsLoading(state.IsPending())
		})
	}
	return s
}

// Submit sets the free-text query and runs the search.
func (s *Search) Submit(ctx context.Context, query string) (lextypes.SearchResults, error) {
	s.mu.Lock()
	s.query = strings.TrimSpace(query)
	q := s.query
	s.mu.Unlock()

	if s.store != nil {
		s.store.SetSearchQuery(q)
	}
	return s.run(ctx)
}

// ToggleFilter selects value for a single-select facet and re-runs the search.
// Selecting the active value clears the facet; any other value replaces it.
// The tags facet is delegated to ToggleTag.
func (s *Search) ToggleFilter(ctx context.Context, key lextypes.FilterKey, value string) (lextypes.SearchResults, error) {
	if key == lextypes.FilterTags {
		return s.ToggleTag(ctx, value)
	}
	if !slices.Contains(lextypes.FilterKeys, key) {
		return lextypes.SearchResults{}, fmt.Errorf("%w: %q", ErrUnknownFilter, key)
	}

	value = strings.TrimSpace(value)
	s.mu.Lock()
	if current, ok := s.filters[key]; (ok && current == value) || value == "" {
		delete(s.filters, key)
	} else {
		s.filters[key] = value
	}
	s.mu.Unlock()

	return s.run(ctx)
}

// ToggleTag adds or removes a tag id and re-runs the search.
// Tags keep their selection order.
func (s *Search) ToggleTag(ctx context.Context, id string) (lextypes.SearchResults, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	if id != "" {
		if i := slices.Index(s.tags, id); i >= 0 {
			s.tags = slices.Delete(s.tags, i, i+1)
		} else {
			s.tags = append(s.tags, id)
		}
	}
	s.mu.Unlock()

	return s.run(ctx)
}

// ClearFilters drops every facet and tag, keeping the query, and re-runs the search.
func (s *Search) ClearFilters(ctx context.Context) (lextypes.SearchResults, error) {
	s.mu.Lock()
	s.filters = make(map[lextypes.FilterKey]string)
	s.tags = nil
	s.mu.Unlock()

	return s.run(ctx)
}

// SetParams replaces the query, filters and tags without running the search.
// A comma-separated Tags value is split into individual tag ids.
func (s *Search) SetParams(params lextypes.SearchParams) {
	s.mu.Lock()
	s.query = strings.TrimSpace(params.Query)
	s.filters = make(map[lextypes.FilterKey]string)
	for key, value := range params.Filters() {
		if key != lextypes.FilterTags {
			s.filters[key] = value
		}
	}
	s.tags = nil
	for _, id := range strings.Split(params.Tags, ",") {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(s.tags, id) {
			s.tags = append(s.tags, id)
		}
	}
	q := s.query
	s.mu.Unlock()

	if s.store != nil {
		s.store.SetSearchQuery(q)
	}
}

// Retry re-issues the search with the current parameters.
func (s *Search) Retry(ctx context.Context) (lextypes.SearchResults, error) {
	return s.run(ctx)
}

// Params returns the merged query and filters as they would be sent.
func (s *Search) Params() lextypes.SearchParams {
	s.mu.Lock()
	defer s.mu.Unlock()

	params := lextypes.SearchParams{Query: s.query}
	for key, value := range s.filters {
		params.Set(key, value)
	}
	if len(s.tags) > 0 {
		params.Set(lextypes.FilterTags, strings.Join(s.tags, ","))
	}
	return params
}

// Query returns the current free-text query.
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Tags returns the selected tag ids in selection order.
func (s *Search) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tags...)
}

// Results returns the state of the latest search.
func (s *Search) Results() mutation.State[lextypes.SearchResults] {
	return s.results.Snapshot()
}

// LoadFilters fetches the facet catalog.
func (s *Search) LoadFilters(ctx context.Context) (*lextypes.SearchFilterMap, error) {
	return s.facets.MutateAsync(ctx, struct{}{})
}

// FilterMap returns the state of the latest facet fetch.
func (s *Search) FilterMap() mutation.State[*lextypes.SearchFilterMap] {
	return s.facets.Snapshot()
}

// FacetOptions returns the loaded options for key narrowed by query.
// It returns nil until LoadFilters has succeeded.
func (s *Search) FacetOptions(key lextypes.FilterKey, query string) []lextypes.FilterOption {
	fm := s.facets.Snapshot().Data
	if fm == nil {
		return nil
	}
	return NarrowOptions(fm.Filters.Options(key), query)
}

// OpenDetail fetches a single past question.
func (s *Search) OpenDetail(ctx context.Context, id string) (*lextypes.PastQuestionDetail, error) {
	return s.detail.MutateAsync(ctx, strings.TrimSpace(id))
}

// CloseDetail discards the open detail, including any fetch still in flight.
func (s *Search) CloseDetail() {
	s.detail.Reset()
}

// Detail returns the state of the detail view.
func (s *Search) Detail() mutation.State[*lextypes.PastQuestionDetail] {
	return s.detail.Snapshot()
}

func (s *Search) run(ctx context.Context) (lextypes.SearchResults, error) {
	params := s.Params()
	s.log.Debug("Running search", "query", params.Query, "filters", params.Filters())
	return s.results.MutateAsync(ctx, params)
}

// NarrowOptions keeps the options whose label, name, code or value contains
// query, ignoring case. A blank query keeps everything.
func NarrowOptions(options []lextypes.FilterOption, query string) []lextypes.FilterOption {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return options
	}
	var out []lextypes.FilterOption
	for _, o := range options {
		for _, field := range []string{o.Label, o.Name, o.Code, o.Key()} {
			if field != "" && strings.Contains(strings.ToLower(field), query) {
				out = append(out, o)
				break
			}
		}
	}
	return out
}
