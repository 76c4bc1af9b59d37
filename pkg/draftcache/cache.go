// Package draftcache provides write-through, chat-scoped persistence of
// the last-known generation metadata, so reopening a chat without an
// active job can still show its prior state.
//
// The cache is an optimization, not a source of truth: operations return
// explicit errors and callers are expected to swallow them.
package draftcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/draftloom/draftloom/pkg/kv"
)

// ErrNotFound is returned when no metadata is cached for a chat.
var ErrNotFound = kv.ErrNotFound

// SectionMeta is one ordered section record in the snapshot.
type SectionMeta struct {
	Title            string   `msgpack:"title"`
	Diverged         bool     `msgpack:"diverged"`
	SupportingDrafts []string `msgpack:"supporting_drafts,omitempty"`
	Risks            []string `msgpack:"risks,omitempty"`
}

// DraftMetadata is the chat-scoped snapshot of generation state.
type DraftMetadata struct {
	Sections          []SectionMeta   `msgpack:"sections,omitempty"`
	Diverged          bool            `msgpack:"diverged"`
	DivergenceSummary string          `msgpack:"divergence_summary,omitempty"`
	Preview           string          `msgpack:"preview,omitempty"`
	Models            []string        `msgpack:"models,omitempty"`
	Consolidated      bool            `msgpack:"consolidated"`
	Rationale         string          `msgpack:"rationale,omitempty"`
	Audit             json.RawMessage `msgpack:"audit,omitempty"`
	CommitteeReport   json.RawMessage `msgpack:"committee_report,omitempty"`
}

// MergeSection records section-level progress: a known title is updated
// in place (latest wins), an unknown one is appended in arrival order.
func (d *DraftMetadata) MergeSection(sec SectionMeta) {
	for i, s := range d.Sections {
		if s.Title == sec.Title {
			d.Sections[i] = sec
			return
		}
	}
	d.Sections = append(d.Sections, sec)
}

// Cache persists DraftMetadata snapshots keyed by chat.
type Cache struct {
	store kv.Store
}

// New creates a cache over the given store.
func New(store kv.Store) *Cache {
	return &Cache{store: store}
}

func cacheKey(chatID string) kv.Key {
	return kv.Key{"draft", chatID}
}

// Put stores the snapshot for a chat, overwriting any prior one.
func (c *Cache) Put(ctx context.Context, chatID string, meta *DraftMetadata) error {
	data, err := msgpack.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode draft metadata: %w", err)
	}
	return c.store.Set(ctx, cacheKey(chatID), data)
}

// Get loads the snapshot for a chat. Returns ErrNotFound when the chat has
// no cached state.
func (c *Cache) Get(ctx context.Context, chatID string) (*DraftMetadata, error) {
	data, err := c.store.Get(ctx, cacheKey(chatID))
	if err != nil {
		return nil, err
	}
	var meta DraftMetadata
	if err := msgpack.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode draft metadata: %w", err)
	}
	return &meta, nil
}

// Delete removes the snapshot for a chat. Called when the owning chat is
// deleted; deleting an absent snapshot is not an error.
func (c *Cache) Delete(ctx context.Context, chatID string) error {
	return c.store.Delete(ctx, cacheKey(chatID))
}
