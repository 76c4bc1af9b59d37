package chat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/draftloom/draftloom/pkg/jsontime"
	"github.com/draftloom/draftloom/pkg/wire"
)

// Sentinel errors.
var (
	ErrChatNotFound    = errors.New("chat: chat not found")
	ErrMessageNotFound = errors.New("chat: message not found")
)

// Store is the single shared mutable resource holding all chats. Every
// message mutation replaces the message value in its slice slot, so a
// concurrent reader of a previously returned message never observes a
// partially applied update.
type Store struct {
	mu    sync.RWMutex
	chats map[string]*Chat
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{chats: make(map[string]*Chat)}
}

// CreateChat creates a chat with the given mode and returns its identity.
func (s *Store) CreateChat(mode Mode) string {
	c := &Chat{
		ID:        uuid.NewString(),
		Mode:      mode,
		CreatedAt: jsontime.Now(),
		UpdatedAt: jsontime.Now(),
	}
	s.mu.Lock()
	s.chats[c.ID] = c
	s.mu.Unlock()
	return c.ID
}

// Chat returns a snapshot of the chat: the message slice is copied, the
// message values are shared (and never mutated in place).
func (s *Store) Chat(chatID string) (*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	cp := *c
	cp.Messages = append([]*Message(nil), c.Messages...)
	return &cp, nil
}

// DeleteChat removes a chat. Deleting an absent chat is not an error.
func (s *Store) DeleteChat(chatID string) {
	s.mu.Lock()
	delete(s.chats, chatID)
	s.mu.Unlock()
}

// AppendMessage appends msg to the chat.
func (s *Store) AppendMessage(chatID string, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = jsontime.Now()
	return nil
}

// update applies fn to a copy of the message and swaps the copy into the
// slice slot.
func (s *Store) update(chatID, msgID string, fn func(*Message)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	for i, m := range c.Messages {
		if m.ID == msgID {
			cp := m.clone()
			fn(cp)
			c.Messages[i] = cp
			c.UpdatedAt = jsontime.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMessageNotFound, msgID)
}

// AppendContent appends a text delta to the message content.
func (s *Store) AppendContent(chatID, msgID, delta string) error {
	return s.update(chatID, msgID, func(m *Message) {
		m.Content += delta
	})
}

// SetContent replaces the message content wholesale. Used when the
// authoritative text for a (turn, model) pair arrives and supersedes any
// accumulated deltas.
func (s *Store) SetContent(chatID, msgID, content string) error {
	return s.update(chatID, msgID, func(m *Message) {
		m.Content = content
	})
}

// AppendThinking appends a delta to the message's reasoning trace.
func (s *Store) AppendThinking(chatID, msgID, delta string) error {
	return s.update(chatID, msgID, func(m *Message) {
		m.Thinking += delta
	})
}

// SetThinking replaces the reasoning trace wholesale.
func (s *Store) SetThinking(chatID, msgID, thinking string) error {
	return s.update(chatID, msgID, func(m *Message) {
		m.Thinking = thinking
	})
}

// MergeUsage merges usage counters into the message metadata without
// discarding previously recorded counts.
func (s *Store) MergeUsage(chatID, msgID string, u wire.Usage) error {
	return s.update(chatID, msgID, func(m *Message) {
		if m.Meta.Usage == nil {
			m.Meta.Usage = &wire.Usage{}
		}
		m.Meta.Usage.Add(u)
	})
}

// UpdateMeta applies fn to a copy of the message metadata.
func (s *Store) UpdateMeta(chatID, msgID string, fn func(*Metadata)) error {
	return s.update(chatID, msgID, func(m *Message) {
		fn(&m.Meta)
	})
}

// Message returns the current value of one message.
func (s *Store) Message(chatID, msgID string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}
	for _, m := range c.Messages {
		if m.ID == msgID {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, msgID)
}

// TurnMessages returns the messages tagged with the given turn identity,
// in append order.
func (s *Store) TurnMessages(chatID, turnID string) []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	var out []*Message
	for _, m := range c.Messages {
		if m.Meta.TurnID == turnID {
			out = append(out, m)
		}
	}
	return out
}

// HasConsolidated reports whether a consolidation message already exists
// for the turn. Guards the at-most-one-consolidation-per-turn invariant.
func (s *Store) HasConsolidated(chatID, turnID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return false
	}
	for _, m := range c.Messages {
		if m.Meta.TurnID == turnID && m.Meta.Consolidated {
			return true
		}
	}
	return false
}
