package api

import (
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"

	"lexshell/internal/httpclient"
	"lexshell/pkg/lextypes"
)

// User-facing messages for the three failure classes.
const (
	MsgServerError     = "Server error occurred."
	MsgNetworkError    = "Network error - no response received."
	MsgUnexpectedError = "An unexpected error occurred."
	StatusNoResponse   = 0
	StatusUnexpected   = http.StatusInternalServerError
)

// errorFromResponse builds an APIError from a non-2xx response.
// The message is the body's "message", else its "detail", else a generic server message.
func errorFromResponse(resp *httpclient.Response) *lextypes.APIError {
	return &lextypes.APIError{
		Status:  resp.StatusCode,
		Message: messageFromBody(resp.Body, MsgServerError),
		Detail:  decodeDetail(resp.Body),
	}
}

// errorFromEnvelope builds an APIError from a 2xx envelope whose error field is set.
func errorFromEnvelope(status int, raw json.RawMessage, fallback string) *lextypes.APIError {
	msg := fallback
	switch res := gjson.ParseBytes(raw); {
	case res.Type == gjson.String && res.Str != "":
		msg = res.Str
	case res.IsObject():
		msg = messageFromBody(raw, fallback)
	}
	return &lextypes.APIError{
		Status:  status,
		Message: msg,
		Detail:  decodeDetail(raw),
	}
}

// errorFromFailure classifies a failure where no usable response exists.
func errorFromFailure(err error) *lextypes.APIError {
	if httpclient.IsTransport(err) {
		return &lextypes.APIError{
			Status:  StatusNoResponse,
			Message: MsgNetworkError,
			Detail:  map[string]any{"message": err.Error()},
		}
	}
	return unexpected(err)
}

func unexpected(err error) *lextypes.APIError {
	detail := "Unknown error"
	if err != nil && err.Error() != "" {
		detail = err.Error()
	}
	return &lextypes.APIError{
		Status:  StatusUnexpected,
		Message: MsgUnexpectedError,
		Detail:  map[string]any{"message": detail},
	}
}

func messageFromBody(body []byte, fallback string) string {
	if !gjson.ValidBytes(body) {
		return fallback
	}
	for _, field := range []string{"message", "detail"} {
		if res := gjson.GetBytes(body, field); res.Type == gjson.String && res.Str != "" {
			return res.Str
		}
	}
	return fallback
}

// countFromBody reads a list total from an error body, defaulting to 0.
func countFromBody(body []byte) int {
	if !gjson.ValidBytes(body) {
		return 0
	}
	return int(gjson.GetBytes(body, "count").Int())
}

func decodeDetail(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}
