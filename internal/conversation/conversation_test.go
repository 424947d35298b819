package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"lexshell/internal/api"
	"lexshell/internal/httpclient"
	"lexshell/internal/mutation"
	"lexshell/internal/testutils"
	"lexshell/pkg/lextypes"
)

// fakeSender records requests and answers them with reply.
type fakeSender struct {
	mu       sync.Mutex
	requests []lextypes.AIRequest
	reply    func(ctx context.Context, req lextypes.AIRequest) (*lextypes.AIResponse, error)
}

func (f *fakeSender) MutateAsync(ctx context.Context, req lextypes.AIRequest) (*lextypes.AIResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.reply(ctx, req)
}

func (f *fakeSender) Requests() []lextypes.AIRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lextypes.AIRequest(nil), f.requests...)
}

func strPtr(s string) *string { return &s }

func replyWith(message, conversationID string) func(context.Context, lextypes.AIRequest) (*lextypes.AIResponse, error) {
	return func(context.Context, lextypes.AIRequest) (*lextypes.AIResponse, error) {
		resp := &lextypes.AIResponse{Message: message}
		if conversationID != "" {
			resp.ConversationID = strPtr(conversationID)
		}
		return resp, nil
	}
}

// gatedReplies blocks each request until the gate named by its message is closed.
func gatedReplies(gates map[string]chan struct{}) func(context.Context, lextypes.AIRequest) (*lextypes.AIResponse, error) {
	return func(ctx context.Context, req lextypes.AIRequest) (*lextypes.AIResponse, error) {
		select {
		case <-gates[req.Message]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &lextypes.AIResponse{Message: "re: " + req.Message, ConversationID: strPtr("conv-1")}, nil
	}
}

func newConversation(sender Sender) *Conversation {
	return New(sender, testutils.NewGenerator(true))
}

func waitForLen(t *testing.T, c *Conversation, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Len() == n }, time.Second, 5*time.Millisecond)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "sent", StatusSent.String())
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "fulfilled", StatusFulfilled.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(9).String())
}

func TestSend_BlankIsNoOp(t *testing.T) {
	sender := &fakeSender{reply: replyWith("unused", "")}
	c := newConversation(sender)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := c.Send(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, sender.Requests())
}

func TestSend_AppendsUserAndPlaceholderBeforeReply(t *testing.T) {
	gates := map[string]chan struct{}{"What is tort?": make(chan struct{})}
	c := newConversation(&fakeSender{reply: gatedReplies(gates)})

	done := make(chan Message)
	go func() {
		msg, _ := c.Send(context.Background(), "What is tort?")
		done <- msg
	}()

	waitForLen(t, c, 2)
	messages := c.Messages()
	assert.Equal(t, lextypes.RoleUser, messages[0].Role)
	assert.Equal(t, "What is tort?", messages[0].Content)
	assert.Equal(t, StatusSent, messages[0].Status)
	assert.Equal(t, lextypes.RoleAssistant, messages[1].Role)
	assert.Equal(t, "", messages[1].Content)
	assert.True(t, messages[1].IsLoading())
	assert.Equal(t, messages[0].Timestamp, messages[1].Timestamp)
	assert.NotEqual(t, messages[0].ID, messages[1].ID)
	assert.Equal(t, 1, c.PendingCount())

	close(gates["What is tort?"])
	settled := <-done

	assert.Equal(t, messages[1].ID, settled.ID)
	assert.Equal(t, StatusFulfilled, settled.Status)
	assert.Equal(t, "re: What is tort?", settled.Content)
	assert.Equal(t, 0, c.PendingCount())
	assert.Equal(t, 2, c.Len())
}

func TestSend_FailureBecomesTranscriptEntry(t *testing.T) {
	sender := &fakeSender{reply: func(context.Context, lextypes.AIRequest) (*lextypes.AIResponse, error) {
		return nil, &lextypes.APIError{Status: 0, Message: "Network error - no response received."}
	}}
	c := newConversation(sender)

	msg, err := c.Send(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, msg.Status)
	assert.Equal(t, FailureMessage, msg.Content)
	assert.Nil(t, msg.Response)
	assert.True(t, c.Session().IsZero())

	messages := c.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, StatusSent, messages[0].Status)
	assert.Equal(t, StatusFailed, messages[1].Status)
}

func TestSend_ConversationIDRoundTrip(t *testing.T) {
	sender := &fakeSender{reply: replyWith("Hi", "abc123")}
	c := newConversation(sender)

	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "abc123", c.Session().ConversationID)

	_, err = c.Send(context.Background(), "more")
	require.NoError(t, err)

	requests := sender.Requests()
	require.Len(t, requests, 2)
	assert.Nil(t, requests[0].Context)
	require.NotNil(t, requests[1].Context)
	assert.Equal(t, lextypes.ChatTypeGeneral, requests[1].Context.ChatType)
	assert.Equal(t, "abc123", requests[1].Context.ConversationID)
}

func TestSend_NullConversationIDKeepsSession(t *testing.T) {
	replies := []string{"abc123", ""}
	var calls int
	sender := &fakeSender{reply: func(context.Context, lextypes.AIRequest) (*lextypes.AIResponse, error) {
		id := replies[calls]
		calls++
		return replyWith("ok", id)(context.Background(), lextypes.AIRequest{})
	}}
	c := newConversation(sender)

	_, _ = c.Send(context.Background(), "one")
	_, _ = c.Send(context.Background(), "two")

	assert.Equal(t, "abc123", c.Session().ConversationID)
}

func TestSend_HistoryScenario(t *testing.T) {
	sender := &fakeSender{reply: func(_ context.Context, req lextypes.AIRequest) (*lextypes.AIResponse, error) {
		if req.Message == "hello" {
			return &lextypes.AIResponse{Message: "Hi"}, nil
		}
		return &lextypes.AIResponse{Message: "Sure"}, nil
	}}
	c := newConversation(sender)

	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "more")
	require.NoError(t, err)

	requests := sender.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, []lextypes.RequestMessage{}, requests[0].Messages)
	assert.Equal(t, []lextypes.RequestMessage{
		{Role: lextypes.RoleUser, Content: "hello"},
		{Role: lextypes.RoleAssistant, Content: "Hi"},
	}, requests[1].Messages)
	assert.Equal(t, "more", requests[1].Message)

	messages := c.Messages()
	require.Len(t, messages, 4)
	contents := []string{messages[0].Content, messages[1].Content, messages[2].Content, messages[3].Content}
	assert.Equal(t, []string{"hello", "Hi", "more", "Sure"}, contents)
}

func TestSend_RequestCarriesDefaultConfig(t *testing.T) {
	sender := &fakeSender{reply: replyWith("ok", "")}
	c := newConversation(sender)

	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)

	cfg := sender.Requests()[0].Config
	require.NotNil(t, cfg)
	assert.True(t, *cfg.EnableTools)
	assert.True(t, *cfg.EnableFollowUp)
	assert.True(t, *cfg.EnableSmartActions)
	assert.True(t, *cfg.EnableFileProcessing)
	assert.InDelta(t, 0.7, *cfg.Temperature, 1e-9)
}

func TestSend_OutOfOrderRepliesPatchByID(t *testing.T) {
	gates := map[string]chan struct{}{"first": make(chan struct{}), "second": make(chan struct{})}
	sender := &fakeSender{reply: gatedReplies(gates)}
	c := newConversation(sender)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.Send(context.Background(), "first")
	}()
	waitForLen(t, c, 2)
	go func() {
		defer wg.Done()
		_, _ = c.Send(context.Background(), "second")
	}()
	waitForLen(t, c, 4)

	close(gates["second"])
	require.Eventually(t, func() bool { return c.PendingCount() == 1 }, time.Second, 5*time.Millisecond)
	close(gates["first"])
	wg.Wait()

	messages := c.Messages()
	require.Len(t, messages, 4)
	assert.Equal(t, "re: first", messages[1].Content)
	assert.Equal(t, "re: second", messages[3].Content)

	// The second request was built while the first reply was still pending.
	requests := sender.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, []lextypes.RequestMessage{{Role: lextypes.RoleUser, Content: "first"}}, requests[1].Messages)
}

func TestClear_DropsStaleReply(t *testing.T) {
	gates := map[string]chan struct{}{"hello": make(chan struct{})}
	c := newConversation(&fakeSender{reply: gatedReplies(gates)})

	errs := make(chan error)
	go func() {
		_, err := c.Send(context.Background(), "hello")
		errs <- err
	}()
	waitForLen(t, c, 2)

	c.Clear()
	close(gates["hello"])

	assert.ErrorIs(t, <-errs, ErrStaleReply)
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Session().IsZero())
}

func TestClear_IsIdempotent(t *testing.T) {
	c := newConversation(&fakeSender{reply: replyWith("Hi", "abc123")})
	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)

	c.Clear()
	c.Clear()
	c.NewChat()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Messages())
	assert.True(t, c.Session().IsZero())
	_, ok := c.LastResponse()
	assert.False(t, ok)
}

func TestSelectFollowUpAndSmartAction(t *testing.T) {
	sender := &fakeSender{reply: replyWith("ok", "")}
	c := newConversation(sender)

	_, err := c.SelectFollowUp(context.Background(), lextypes.FollowUpQuestion{Text: "Give an example", Type: "examples"})
	require.NoError(t, err)
	_, err = c.SelectSmartAction(context.Background(), lextypes.SmartAction{Type: "search", Title: "Find", Action: "contract law"})
	require.NoError(t, err)

	requests := sender.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "Give an example", requests[0].Message)
	assert.Equal(t, "Execute search: contract law", requests[1].Message)
}

func TestLookupAndLastResponse(t *testing.T) {
	c := newConversation(&fakeSender{reply: replyWith("Hi", "")})

	msg, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)

	found, ok := c.Message(msg.ID)
	require.True(t, ok)
	assert.Equal(t, "Hi", found.Content)
	_, ok = c.Message("missing")
	assert.False(t, ok)

	last, ok := c.LastResponse()
	require.True(t, ok)
	assert.Equal(t, "Hi", last.Message)
}

func TestSubscribe(t *testing.T) {
	c := newConversation(&fakeSender{reply: replyWith("Hi", "")})

	var mu sync.Mutex
	var sizes []int
	unsubscribe := c.Subscribe(func(messages []Message) {
		mu.Lock()
		defer mu.Unlock()
		sizes = append(sizes, len(messages))
	})

	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	unsubscribe()
	c.Clear()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 2}, sizes)
}

func TestSubscribe_ConcurrentSendsDeliverLatestTranscript(t *testing.T) {
	for i := 0; i < 100; i++ {
		c := newConversation(&fakeSender{reply: replyWith("Hi", "conv-1")})

		var mu sync.Mutex
		var last []Message
		c.Subscribe(func(messages []Message) {
			mu.Lock()
			defer mu.Unlock()
			last = messages
		})

		var wg sync.WaitGroup
		for n := 0; n < 8; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.Send(context.Background(), "hello")
			}()
		}
		wg.Wait()

		mu.Lock()
		require.Len(t, last, 16)
		assert.Equal(t, c.Messages(), last)
		assert.Equal(t, 0, c.PendingCount())
		mu.Unlock()
	}
}

func TestBuildRequest_SkipsPendingEntries(t *testing.T) {
	prior := []Message{
		{Role: lextypes.RoleUser, Content: "a", Status: StatusSent},
		{Role: lextypes.RoleAssistant, Content: "", Status: StatusPending},
		{Role: lextypes.RoleAssistant, Content: FailureMessage, Status: StatusFailed},
	}

	req := BuildRequest("b", prior, Session{})

	assert.Equal(t, []lextypes.RequestMessage{
		{Role: lextypes.RoleUser, Content: "a"},
		{Role: lextypes.RoleAssistant, Content: FailureMessage},
	}, req.Messages)
	assert.Nil(t, req.Context)
}

func TestExport(t *testing.T) {
	c := newConversation(&fakeSender{reply: replyWith("Hi", "abc123")})
	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)

	var jsonOut bytes.Buffer
	require.NoError(t, c.Export(&jsonOut, FormatJSON))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &decoded))
	assert.Equal(t, "abc123", decoded["conversation_id"])
	messages, ok := decoded["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "fulfilled", messages[1].(map[string]any)["status"])

	var yamlOut bytes.Buffer
	require.NoError(t, c.Export(&yamlOut, FormatYAML))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &fromYAML))
	assert.Equal(t, "abc123", fromYAML["conversation_id"])
	assert.Contains(t, yamlOut.String(), "status: sent")

	assert.Error(t, c.Export(&bytes.Buffer{}, Format("xml")))
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("chat.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("chat.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("chat.json"))
	assert.Equal(t, FormatJSON, FormatForPath("chat"))
}

func TestConversation_AgainstBackend(t *testing.T) {
	backend := testutils.NewFakeBackend(t)
	var calls int
	backend.Handle(http.MethodPost, api.PathChatMessage, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 2 {
			testutils.WriteJSON(w, http.StatusInternalServerError, map[string]any{"message": "model overloaded"})
			return
		}
		testutils.WriteJSON(w, http.StatusOK, testutils.Envelope(map[string]any{
			"message":         "Consideration is something of value.",
			"conversation_id": "abc123",
		}))
	})
	client := api.New(httpclient.New(backend.URL()))
	chat := mutation.New("chatAgent", client.SendChatMessage)
	c := newConversation(chat)

	first, err := c.Send(context.Background(), "What is consideration?")
	require.NoError(t, err)
	assert.Equal(t, StatusFulfilled, first.Status)

	second, err := c.Send(context.Background(), "Give an example")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, second.Status)
	assert.Equal(t, FailureMessage, second.Content)

	var apiErr *lextypes.APIError
	require.True(t, errors.As(chat.Snapshot().Err, &apiErr))
	assert.Equal(t, "model overloaded", apiErr.Message)

	requests := backend.Requests()
	require.Len(t, requests, 2)
	var body map[string]any
	requests[1].DecodeBody(t, &body)
	assert.Equal(t, map[string]any{"chat_type": "general", "conversation_id": "abc123"}, body["context"])
	config, ok := body["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, config["enable_tools"])
	assert.Equal(t, 0.7, config["temperature"])
	assert.Len(t, body["messages"], 2)
}
