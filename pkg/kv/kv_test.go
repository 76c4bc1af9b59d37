package kv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/draftloom/draftloom/pkg/kv"
)

// newTestStore returns a Store for testing. Tests run against the Memory
// implementation; the same logic applies to other backends.
func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	s := kv.NewMemory()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := kv.Key{"draft", "chat-1"}
	val := []byte("hello")

	_, err := s.Get(ctx, key)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, key, val); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("Get = %q, want %q", got, val)
	}

	// Overwrite.
	if err := s.Set(ctx, key, []byte("world")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if string(got) != "world" {
		t.Fatalf("Get = %q, want %q", got, "world")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = s.Get(ctx, key)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, kv.Key{"no", "such", "key"}); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entries := map[string]kv.Key{
		"a": {"draft", "chat-1"},
		"b": {"draft", "chat-2"},
		"c": {"other", "chat-1"},
	}
	for v, k := range entries {
		if err := s.Set(ctx, k, []byte(v)); err != nil {
			t.Fatalf("Set %v: %v", k, err)
		}
	}

	var got []string
	for e, err := range s.List(ctx, kv.Key{"draft"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, e.Key.String())
	}
	want := []string{"draft:chat-1", "draft:chat-2"}
	if len(got) != len(want) {
		t.Fatalf("List returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListPrefixNoFalseMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Set(ctx, kv.Key{"draft", "x"}, []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, kv.Key{"draftother", "x"}, []byte("2")); err != nil {
		t.Fatal(err)
	}

	n := 0
	for _, err := range s.List(ctx, kv.Key{"draft"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		n++
	}
	if n != 1 {
		t.Fatalf("List matched %d entries, want 1", n)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := kv.Key{"k"}
	if err := s.Set(ctx, key, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 'z'

	again, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}
