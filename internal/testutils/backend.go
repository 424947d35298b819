package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// BasePath is the API prefix the fake backend serves under, matching the default base URL.
const BasePath = "/api/v1"

// RecordedRequest is a request captured by FakeBackend.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// DecodeBody unmarshals the recorded JSON body into v.
func (r RecordedRequest) DecodeBody(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("failed to decode recorded body %q: %v", string(r.Body), err)
	}
}

// FakeBackend is an httptest server that routes by method and path and records every request.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewFakeBackend starts a fake backend that is closed when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	b := &FakeBackend{routes: make(map[string]http.HandlerFunc)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base API URL clients should be configured with.
func (b *FakeBackend) URL() string {
	return b.Server.URL + BasePath
}

// Handle registers a handler for a method and a path relative to BasePath.
func (b *FakeBackend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

// RespondJSON registers a handler that always answers with status and a JSON body.
func (b *FakeBackend) RespondJSON(method, path string, status int, body any) {
	b.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Requests returns a copy of every recorded request.
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	path := strings.TrimPrefix(r.URL.Path, BasePath)

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.Query(),
		Body:   body,
	})
	h, ok := b.routes[r.Method+" "+path]
	b.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	h(w, r)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Envelope wraps data the way the backend does on success.
func Envelope(data any) map[string]any {
	return map[string]any{"data": data, "error": nil, "status": http.StatusOK}
}

// PagedEnvelope wraps list data with a total count.
func PagedEnvelope(data any, count int) map[string]any {
	env := Envelope(data)
	env["count"] = count
	return env
}
