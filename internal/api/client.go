// Package api implements one remote operation per backend endpoint.
//
// Operations never return Go errors. Every outcome, including transport and
// decoding failures, is normalized into a lextypes.Result so callers only
// have to inspect Result.Error.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"lexshell/internal/httpclient"
	"lexshell/internal/logger"
	"lexshell/pkg/lextypes"
)

// Backend endpoint paths, relative to the base URL.
const (
	PathChatMessage   = "/open/chat/message/"
	PathPastQuestions = "/open/past-questions/"
	PathFilterMap     = "/open/past-questions/filter-map/"
)

// Doer is the HTTP adapter contract the operations depend on.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body any) (*httpclient.Response, error)
}

// Client exposes the backend operations.
type Client struct {
	http Doer
	log  *log.Logger
}

// New creates a Client on top of an HTTP adapter.
func New(doer Doer) *Client {
	return &Client{
		http: doer,
		log:  logger.NewStyledLogger("api"),
	}
}

// envelope is the backend's success wrapper.
type envelope[T any] struct {
	Data   T               `json:"data"`
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
	Count  int             `json:"count"`
}

func hasError(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "false"
}

// call issues one request and normalizes the outcome.
// For paginated calls, empty is what Data holds on failure.
func call[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any, paginated bool, empty T) lextypes.Result[T] {
	fail := func(apiErr *lextypes.APIError, count int) lextypes.Result[T] {
		c.log.Debug("Remote call failed", "operation", op, "status", apiErr.Status, "error", apiErr.Message)
		res := lextypes.Result[T]{Data: empty, Error: apiErr, Status: apiErr.Status}
		if paginated {
			res.Count = count
		}
		return res
	}

	resp, err := c.http.Do(ctx, method, path, query, body)
	if err != nil {
		return fail(errorFromFailure(err), 0)
	}
	if !resp.OK() {
		return fail(errorFromResponse(resp), countFromBody(resp.Body))
	}

	var env envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return fail(unexpected(fmt.Errorf("failed to decode %s response: %w", op, err)), 0)
	}
	status := env.Status
	if status == 0 {
		status = resp.StatusCode
	}
	if hasError(env.Error) {
		return fail(errorFromEnvelope(status, env.Error, MsgServerError), env.Count)
	}

	logger.RemoteCall(op, status)
	return lextypes.Result[T]{Data: env.Data, Status: status, Count: env.Count}
}

// SendChatMessage posts a chat turn.
func (c *Client) SendChatMessage(ctx context.Context, req lextypes.AIRequest) lextypes.Result[*lextypes.AIResponse] {
	if req.Messages == nil {
		req.Messages = []lextypes.RequestMessage{}
	}
	if err := ValidateChatRequest(req); err != nil {
		c.log.Warn("Rejected chat request", "error", err)
		return lextypes.Result[*lextypes.AIResponse]{Error: unexpected(err), Status: StatusUnexpected}
	}

	res := call[*lextypes.AIResponse](ctx, c, "send_chat_message", http.MethodPost, PathChatMessage, nil, req, false, nil)
	if res.OK() && res.Data == nil {
		return lextypes.Result[*lextypes.AIResponse]{Error: unexpected(errors.New("chat response carried no data")), Status: StatusUnexpected}
	}
	return res
}

// RunSearch lists past questions. On failure Data is an empty result set and Count is 0.
func (c *Client) RunSearch(ctx context.Context, params lextypes.SearchParams) lextypes.Result[lextypes.SearchResults] {
	empty := lextypes.SearchResults{Results: []lextypes.SearchResultItem{}}
	if err := ValidateSearchParams(params); err != nil {
		c.log.Warn("Rejected search params", "error", err)
		return lextypes.Result[lextypes.SearchResults]{Data: empty, Error: unexpected(err), Status: StatusUnexpected}
	}

	res := call(ctx, c, "run_search", http.MethodGet, PathPastQuestions, params.Values(), nil, true, empty)
	if res.Data.Results == nil {
		res.Data.Results = []lextypes.SearchResultItem{}
	}
	return res
}

// FetchItemDetail loads one past question.
func (c *Client) FetchItemDetail(ctx context.Context, id string) lextypes.Result[*lextypes.PastQuestionDetail] {
	if err := ValidateItemID(id); err != nil {
		return lextypes.Result[*lextypes.PastQuestionDetail]{Error: unexpected(err), Status: StatusUnexpected}
	}

	path := PathPastQuestions + url.PathEscape(strings.TrimSpace(id)) + "/"
	res := call[*lextypes.PastQuestionDetail](ctx, c, "fetch_item_detail", http.MethodGet, path, nil, nil, false, nil)
	if res.OK() && res.Data == nil {
		return lextypes.Result[*lextypes.PastQuestionDetail]{Error: unexpected(errors.New("detail response carried no data")), Status: StatusUnexpected}
	}
	return res
}

// FetchFilterMap loads the facet catalog.
func (c *Client) FetchFilterMap(ctx context.Context) lextypes.Result[*lextypes.SearchFilterMap] {
	res := call[*lextypes.SearchFilterMap](ctx, c, "fetch_filter_map", http.MethodGet, PathFilterMap, nil, nil, false, nil)
	if res.OK() && res.Data == nil {
		return lextypes.Result[*lextypes.SearchFilterMap]{Error: unexpected(errors.New("filter map response carried no data")), Status: StatusUnexpected}
	}
	return res
}
