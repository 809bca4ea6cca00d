// Package agent runs the conversational assistant scoped to one client's
// analysis data.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dashetica/wealthsync/pkg/analysis"
	"github.com/dashetica/wealthsync/pkg/api"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation transcript.
type Message struct {
	Role    Role
	Content string
}

// failureReply is appended in place of an assistant turn when a send fails at
// any layer. Chat failures are never surfaced as errors; the transcript is
// never left truncated.
const failureReply = "System connection interrupted. Please verify the AI Vault status."

// Conversation is one chat session bound to a client's data. The binding is
// fixed at creation: either a persisted profile id, or a snapshot of the
// in-memory analysis taken at that moment. Later edits to the analysis or the
// profile binding do not reach an open conversation; opening a new one is the
// only way to rebind.
type Conversation struct {
	id     string
	client *api.Client

	profileID *int64
	snapshot  json.RawMessage

	mu       sync.Mutex
	model    string
	messages []Message
	busy     bool
}

// New opens a conversation for the given analysis. When the analysis is bound
// to a persisted profile, requests carry the id and no inline data; otherwise
// the document is snapshotted here and travels inline with every turn. The
// transcript is seeded with a greeting referencing the client's name.
func New(client *api.Client, profileID *int64, doc *analysis.Document) *Conversation {
	c := &Conversation{
		id:     uuid.New().String(),
		client: client,
		model:  DefaultModel,
	}

	clientName := "this client"
	if doc != nil {
		if name := doc.ClientName(); name != "" {
			clientName = name
		}
	}

	if profileID != nil {
		id := *profileID
		c.profileID = &id
	} else if doc != nil {
		c.snapshot = append(json.RawMessage(nil), doc.Raw()...)
	}

	c.messages = []Message{{
		Role: RoleAssistant,
		Content: fmt.Sprintf("I've synchronized with %s's financial profile. I have active analysis on their net worth, tax liabilities, and recent meeting transcripts. How can I assist you with this client today?",
			clientName),
	}}

	slog.Info("Opened conversation", "id", c.id, "boundToProfile", profileID != nil)
	return c
}

// ID returns the conversation's identifier.
func (c *Conversation) ID() string {
	return c.id
}

// Model returns the currently selected model identifier.
func (c *Conversation) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel switches the model used by the next Send and all sends after it.
// There is no per-message override.
func (c *Conversation) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// Busy reports whether a send is awaiting its reply.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Send appends the user's turn, sends it with the selected model, and appends
// the assistant's reply. The user turn is appended before the network call
// resolves and stays either way; any transport or backend failure degrades to
// a synthetic assistant message instead of an error. The reply text (real or
// synthetic) is returned.
func (c *Conversation) Send(ctx context.Context, text string) string {
	c.mu.Lock()
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text})
	model := c.model
	c.busy = true
	c.mu.Unlock()

	reply, err := c.client.Chat(ctx, api.ChatRequest{
		ProfileID: c.profileID,
		Context:   c.snapshot,
		Message:   text,
		Model:     model,
	})
	if err != nil {
		slog.Warn("Chat send failed, degrading to synthetic reply", "conversation", c.id, "error", err)
		reply = failureReply
	}

	c.mu.Lock()
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: reply})
	c.busy = false
	c.mu.Unlock()

	return reply
}
