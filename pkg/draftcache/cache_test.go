package draftcache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/draftloom/draftloom/pkg/draftcache"
	"github.com/draftloom/draftloom/pkg/kv"
)

func newCache(t *testing.T) *draftcache.Cache {
	t.Helper()
	store := kv.NewMemory()
	t.Cleanup(func() { store.Close() })
	return draftcache.New(store)
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	if _, err := c.Get(ctx, "chat-1"); !errors.Is(err, draftcache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	meta := &draftcache.DraftMetadata{
		Sections: []draftcache.SectionMeta{
			{Title: "Introdução", Diverged: true, Risks: []string{"unsourced claim"}},
		},
		Preview:           "# Introdução",
		DivergenceSummary: "models disagree on framing",
		Models:            []string{"a", "b"},
		Consolidated:      true,
	}
	if err := c.Put(ctx, "chat-1", meta); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.Get(ctx, "chat-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Sections) != 1 || got.Sections[0].Title != "Introdução" {
		t.Fatalf("Sections = %+v", got.Sections)
	}
	if !got.Sections[0].Diverged || got.Sections[0].Risks[0] != "unsourced claim" {
		t.Fatalf("Sections[0] = %+v", got.Sections[0])
	}
	if got.Preview != meta.Preview || !got.Consolidated || len(got.Models) != 2 {
		t.Fatalf("got = %+v", got)
	}

	if err := c.Delete(ctx, "chat-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "chat-1"); !errors.Is(err, draftcache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is not an error.
	if err := c.Delete(ctx, "chat-1"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	if err := c.Put(ctx, "chat-1", &draftcache.DraftMetadata{Preview: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "chat-1", &draftcache.DraftMetadata{Preview: "v2"}); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "chat-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Preview != "v2" {
		t.Fatalf("Preview = %q, want v2", got.Preview)
	}
}

func TestMergeSectionLatestWins(t *testing.T) {
	var meta draftcache.DraftMetadata

	meta.MergeSection(draftcache.SectionMeta{Title: "Introdução", Diverged: true})
	meta.MergeSection(draftcache.SectionMeta{Title: "Método"})
	// Correction for a known title replaces, never duplicates.
	meta.MergeSection(draftcache.SectionMeta{Title: "Introdução", Diverged: false})

	if len(meta.Sections) != 2 {
		t.Fatalf("Sections = %d, want 2", len(meta.Sections))
	}
	if meta.Sections[0].Title != "Introdução" || meta.Sections[0].Diverged {
		t.Fatalf("Sections[0] = %+v, want latest flag", meta.Sections[0])
	}
	if meta.Sections[1].Title != "Método" {
		t.Fatalf("Sections[1] = %+v", meta.Sections[1])
	}
}

func TestChatScoping(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	if err := c.Put(ctx, "chat-1", &draftcache.DraftMetadata{Preview: "one"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "chat-2", &draftcache.DraftMetadata{Preview: "two"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "chat-1"); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "chat-2")
	if err != nil {
		t.Fatalf("Get chat-2: %v", err)
	}
	if got.Preview != "two" {
		t.Fatalf("Preview = %q", got.Preview)
	}
}
