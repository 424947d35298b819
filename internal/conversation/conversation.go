// Package conversation maintains the chat transcript and its backend session.
//
// Submitting text appends a user entry and a pending assistant placeholder in
// one step, sends the request, then patches the placeholder by id once the
// reply settles. Resetting the conversation bumps an epoch; replies that
// arrive for an older epoch are dropped instead of resurrecting old entries.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"lexshell/internal/logger"
	"lexshell/pkg/lextypes"
)

// FailureMessage replaces the placeholder content when a reply fails.
const FailureMessage = "Sorry, I encountered an error. Please try again."

// DefaultTemperature is sent with every chat request.
const DefaultTemperature = 0.7

var (
	// ErrEmptyMessage is returned when the submitted text is blank.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrStaleReply is returned when the conversation was reset while the reply was in flight.
	ErrStaleReply = errors.New("conversation was reset before the reply arrived")
)

// Sender sends one chat request and returns the reply.
// *mutation.Mutation[lextypes.AIRequest, *lextypes.AIResponse] satisfies it.
type Sender interface {
	MutateAsync(ctx context.Context, req lextypes.AIRequest) (*lextypes.AIResponse, error)
}

// Generator supplies message ids and timestamps.
type Generator interface {
	NewID() string
	Now() time.Time
}

// Conversation is one chat transcript plus its backend session.
type Conversation struct {
	sender Sender
	gen    Generator
	log    *log.Logger

	mu        sync.Mutex
	notifyMu  sync.Mutex
	messages  []Message
	index     map[string]int
	session   Session
	epoch     uint64
	listeners map[int]func([]Message)
	nextID    int
}

// New creates an empty Conversation.
func New(sender Sender, gen Generator) *Conversation {
	return &Conversation{
		sender:    sender,
		gen:       gen,
		log:       logger.NewStyledLogger("conversation"),
		index:     make(map[string]int),
		listeners: make(map[int]func([]Message)),
	}
}

// Send submits text as a user message and waits for the assistant reply.
//
// Blank text is a no-op returning ErrEmptyMessage. Backend failures do not
// surface as errors: they turn the placeholder into a Failed entry carrying
// FailureMessage. The returned Message is the settled assistant entry.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	prior := append([]Message(nil), c.messages...)
	session := c.session
	epoch := c.epoch
	now := c.gen.Now()
	user := Message{
		ID:        c.gen.NewID(),
		Role:      lextypes.RoleUser,
		Content:   text,
		Timestamp: now,
		Status:    StatusSent,
	}
	placeholder := Message{
		ID:        c.gen.NewID(),
		Role:      lextypes.RoleAssistant,
		Timestamp: now,
		Status:    StatusPending,
	}
	c.appendLocked(user)
	c.appendLocked(placeholder)
	c.mu.Unlock()
	c.publish()

	req := BuildRequest(text, prior, session)
	resp, err := c.sender.MutateAsync(ctx, req)

	c.mu.Lock()
	pos, ok := c.index[placeholder.ID]
	if c.epoch != epoch || !ok {
		c.mu.Unlock()
		c.log.Debug("Dropped reply for reset conversation", "id", placeholder.ID)
		return Message{}, ErrStaleReply
	}

	settled := c.messages[pos]
	if err != nil {
		c.log.Warn("Chat request failed", "id", placeholder.ID, "error", err)
		settled.Status = StatusFailed
		settled.Content = FailureMessage
		settled.Response = nil
	} else {
		if id := resp.ConversationIDValue(); id != "" {
			c.session.ConversationID = id
		}
		settled.Status = StatusFulfilled
		settled.Content = resp.Message
		settled.Response = resp
	}
	c.messages[pos] = settled
	c.mu.Unlock()
	c.publish()

	return settled, nil
}

// SelectFollowUp sends a suggested follow-up question.
func (c *Conversation) SelectFollowUp(ctx context.Context, q lextypes.FollowUpQuestion) (Message, error) {
	return c.Send(ctx, q.Text)
}

// SelectSmartAction sends a suggested action as a message.
func (c *Conversation) SelectSmartAction(ctx context.Context, a lextypes.SmartAction) (Message, error) {
	return c.Send(ctx, SmartActionPrompt(a))
}

// SmartActionPrompt is the message text sent for a smart action.
func SmartActionPrompt(a lextypes.SmartAction) string {
	return fmt.Sprintf("Execute %s: %s", a.Type, a.Action)
}

// NewChat starts a fresh conversation.
func (c *Conversation) NewChat() {
	c.reset()
}

// Clear empties the transcript and forgets the backend session.
func (c *Conversation) Clear() {
	c.reset()
}

func (c *Conversation) reset() {
	c.mu.Lock()
	c.messages = nil
	c.index = make(map[string]int)
	c.session = Session{}
	c.epoch++
	c.mu.Unlock()
	c.publish()
}

// Messages returns a copy of the transcript in submission order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Message looks up a transcript entry by id.
func (c *Conversation) Message(id string) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.index[id]
	if !ok {
		return Message{}, false
	}
	return c.messages[pos], true
}

// Len returns the number of transcript entries.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// PendingCount returns how many assistant entries are awaiting replies.
func (c *Conversation) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.messages {
		if m.IsLoading() {
			n++
		}
	}
	return n
}

// Session returns the current backend session.
func (c *Conversation) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// LastResponse returns the most recent fulfilled reply, if any.
func (c *Conversation) LastResponse() (*lextypes.AIResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Status == StatusFulfilled && c.messages[i].Response != nil {
			return c.messages[i].Response, true
		}
	}
	return nil, false
}

// Subscribe registers a listener called with the transcript after every change.
// Listeners must not send messages on the same conversation.
func (c *Conversation) Subscribe(fn func([]Message)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Conversation) appendLocked(m Message) {
	c.index[m.ID] = len(c.messages)
	c.messages = append(c.messages, m)
}

// publish sends listeners the transcript as it is at delivery time, one
// delivery at a time.
func (c *Conversation) publish() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	snapshot := append([]Message(nil), c.messages...)
	listeners := make([]func([]Message), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
