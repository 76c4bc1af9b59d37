// Package chat holds the canonical chat data model: chats, messages and
// the store that owns their lifetime. All mutation goes through declared
// store operations; message content is appended to monotonically and only
// rewritten wholesale by reconciliation on stream completion.
package chat

import (
	"github.com/google/uuid"

	"github.com/draftloom/draftloom/pkg/jsontime"
	"github.com/draftloom/draftloom/pkg/wire"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Mode tags how a chat generates responses.
type Mode string

const (
	ModeStandard   Mode = "standard"
	ModeMultiModel Mode = "multi"
)

// Metadata is the optional per-message metadata mapping.
type Metadata struct {
	Model        string      `json:"model,omitempty"`
	TurnID       string      `json:"turn_id,omitempty"`
	Usage        *wire.Usage `json:"usage,omitempty"`
	Consolidated bool        `json:"consolidated,omitempty"`
	Failed       bool        `json:"failed,omitempty"`
	Suggestion   string      `json:"suggestion,omitempty"`
}

// Message is one chat message.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Thinking  string         `json:"thinking,omitempty"`
	CreatedAt jsontime.Milli `json:"created_at"`
	Meta      Metadata       `json:"meta,omitempty"`
}

// Chat is an ordered collection of messages.
type Chat struct {
	ID        string         `json:"id"`
	Mode      Mode           `json:"mode"`
	Messages  []*Message     `json:"messages"`
	CreatedAt jsontime.Milli `json:"created_at"`
	UpdatedAt jsontime.Milli `json:"updated_at"`
}

// NewMessage creates a message with a fresh identity and timestamp.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: jsontime.Now(),
	}
}

// clone returns a shallow copy with its own Meta value.
func (m *Message) clone() *Message {
	cp := *m
	if m.Meta.Usage != nil {
		u := *m.Meta.Usage
		cp.Meta.Usage = &u
	}
	return &cp
}
