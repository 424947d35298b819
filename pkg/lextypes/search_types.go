// Package lextypes defines search contracts for lexshell.
// This file contains search parameters, result items, the detail view and the facet catalog.
package lextypes

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// FilterKey names an equality filter accepted by the search endpoint.
type FilterKey string

// Filter keys in the order they are rendered and encoded.
const (
	FilterCourse      FilterKey = "course_id"
	FilterInstitution FilterKey = "institution_id"
	FilterYear        FilterKey = "year"
	FilterSemester    FilterKey = "semester"
	FilterSession     FilterKey = "session"
	FilterExamType    FilterKey = "exam_type"
	FilterType        FilterKey = "type"
	FilterTags        FilterKey = "tags"
)

// FilterKeys lists every filter key. Tags are multi-select; the rest are single-select.
var FilterKeys = []FilterKey{
	FilterCourse,
	FilterInstitution,
	FilterYear,
	FilterSemester,
	FilterSession,
	FilterExamType,
	FilterType,
	FilterTags,
}

// ParseFilterKey resolves a user supplied key, accepting a few short aliases.
func ParseFilterKey(s string) (FilterKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "course", "course_id":
		return FilterCourse, true
	case "institution", "institution_id":
		return FilterInstitution, true
	case "year":
		return FilterYear, true
	case "semester":
		return FilterSemester, true
	case "session":
		return FilterSession, true
	case "exam_type", "exam":
		return FilterExamType, true
	case "type":
		return FilterType, true
	case "tags", "tag":
		return FilterTags, true
	}
	return "", false
}

// Question types accepted by the type filter.
const (
	QuestionTypeMCQ   = "mcq"
	QuestionTypeEssay = "essay"
)

// SearchParams is the query sent to GET /open/past-questions/.
// Empty fields are omitted from the encoded query rather than sent blank.
type SearchParams struct {
	Query         string `json:"q,omitempty"`
	CourseID      string `json:"course_id,omitempty"`
	InstitutionID string `json:"institution_id,omitempty"`
	Year          string `json:"year,omitempty"`
	Semester      string `json:"semester,omitempty"`
	Session       string `json:"session,omitempty"`
	ExamType      string `json:"exam_type,omitempty"`
	Type          string `json:"type,omitempty"`
	Tags          string `json:"tags,omitempty"`
}

func (p *SearchParams) field(key FilterKey) *string {
	switch key {
	case FilterCourse:
		return &p.CourseID
	case FilterInstitution:
		return &p.InstitutionID
	case FilterYear:
		return &p.Year
	case FilterSemester:
		return &p.Semester
	case FilterSession:
		return &p.Session
	case FilterExamType:
		return &p.ExamType
	case FilterType:
		return &p.Type
	case FilterTags:
		return &p.Tags
	}
	return nil
}

// Get returns the value of a filter, or "" when unset or unknown.
func (p SearchParams) Get(key FilterKey) string {
	if f := p.field(key); f != nil {
		return *f
	}
	return ""
}

// Set assigns a filter value. Setting "" removes the filter.
func (p *SearchParams) Set(key FilterKey, value string) {
	if f := p.field(key); f != nil {
		*f = value
	}
}

// Filters returns the set filters keyed by name, without the free-text query.
func (p SearchParams) Filters() map[FilterKey]string {
	out := make(map[FilterKey]string)
	for _, key := range FilterKeys {
		if v := p.Get(key); v != "" {
			out[key] = v
		}
	}
	return out
}

// Values encodes the parameters as a URL query, skipping empty keys.
func (p SearchParams) Values() url.Values {
	values := url.Values{}
	if p.Query != "" {
		values.Set("q", p.Query)
	}
	for _, key := range FilterKeys {
		if v := p.Get(key); v != "" {
			values.Set(string(key), v)
		}
	}
	return values
}

// FlexString decodes a JSON string or number into a string.
// The backend is inconsistent about numeric facet values such as years.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying string.
func (f FlexString) String() string { return string(f) }

// CourseRef is the course summary embedded in search items.
type CourseRef struct {
	ID   FlexString `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
	Code string     `json:"code" yaml:"code"`
}

// InstitutionRef is the institution summary embedded in search items.
type InstitutionRef struct {
	ID   FlexString `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
}

// TagRef is a tag attached to a past question.
type TagRef struct {
	ID   FlexString `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
}

// SearchResultItem is a single past question in a search result list.
type SearchResultItem struct {
	ID          FlexString      `json:"id"`
	Text        string          `json:"text"`
	Type        string          `json:"type"`
	Year        FlexString      `json:"year"`
	Semester    FlexString      `json:"semester"`
	Session     FlexString      `json:"session"`
	ExamType    string          `json:"exam_type"`
	ViewsCount  int             `json:"views_count"`
	Course      *CourseRef      `json:"course,omitempty"`
	Institution *InstitutionRef `json:"institution,omitempty"`
	Tags        []TagRef        `json:"tags"`
}

// SearchResults is the data payload of the search endpoint.
type SearchResults struct {
	Results []SearchResultItem `json:"results"`
}

// PastQuestionDetail is the data payload of the detail endpoint.
type PastQuestionDetail struct {
	SearchResultItem
	AIOverview string `json:"ai_overview"`
}

// FilterOption is one selectable facet value with its hit count.
// Scalar facets use Value/Label; entity facets (courses, institutions, tags) use ID/Name/Code.
type FilterOption struct {
	Value FlexString `json:"value,omitempty"`
	ID    FlexString `json:"id,omitempty"`
	Label string     `json:"label,omitempty"`
	Name  string     `json:"name,omitempty"`
	Code  string     `json:"code,omitempty"`
	Count int        `json:"count"`
}

// Key returns the value sent to the backend when this option is selected.
func (o FilterOption) Key() string {
	if o.ID != "" {
		return o.ID.String()
	}
	return o.Value.String()
}

// Display returns the human readable label for the option.
func (o FilterOption) Display() string {
	switch {
	case o.Label != "":
		return o.Label
	case o.Name != "" && o.Code != "":
		return o.Code + " - " + o.Name
	case o.Name != "":
		return o.Name
	}
	return o.Key()
}

// FilterCatalog groups facet options by filter.
type FilterCatalog struct {
	Courses      []FilterOption `json:"courses"`
	Institutions []FilterOption `json:"institutions"`
	Years        []FilterOption `json:"years"`
	Semesters    []FilterOption `json:"semesters"`
	Sessions     []FilterOption `json:"sessions"`
	ExamTypes    []FilterOption `json:"exam_types"`
	Types        []FilterOption `json:"types"`
	Tags         []FilterOption `json:"tags"`
}

// Options returns the facet options that feed a filter key.
func (c FilterCatalog) Options(key FilterKey) []FilterOption {
	switch key {
	case FilterCourse:
		return c.Courses
	case FilterInstitution:
		return c.Institutions
	case FilterYear:
		return c.Years
	case FilterSemester:
		return c.Semesters
	case FilterSession:
		return c.Sessions
	case FilterExamType:
		return c.ExamTypes
	case FilterType:
		return c.Types
	case FilterTags:
		return c.Tags
	}
	return nil
}

// SearchFilterMap is the data payload of the filter-map endpoint. Read-only.
type SearchFilterMap struct {
	Filters  FilterCatalog   `json:"filters"`
	Applied  map[string]any  `json:"applied,omitempty"`
	Ordering json.RawMessage `json:"ordering,omitempty"`
}
