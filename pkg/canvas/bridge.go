// Package canvas projects generation progress into an externally owned
// document surface without racing or duplicating writes.
package canvas

import (
	"strings"
	"sync"

	"github.com/draftloom/draftloom/pkg/wire"
)

// Surface is the externally owned editable document. The bridge only ever
// reads current content for merge decisions and rewrites it when content
// materially changed.
type Surface interface {
	Content() string
	SetContent(content string)
}

// FinalizeMode selects the semantics of the terminal write.
type FinalizeMode int

const (
	// FinalizeReplace replaces the whole document with the final text.
	FinalizeReplace FinalizeMode = iota

	// FinalizeAppend appends the final text after existing content.
	FinalizeAppend
)

// Bridge is a one-directional projector from job/turn progress into a
// Surface. It keeps the known section list and guards the terminal write
// so a duplicate completion signal cannot re-apply it.
type Bridge struct {
	mu        sync.Mutex
	surface   Surface
	sections  []wire.SectionRecord
	finalized map[string]bool
}

// NewBridge creates a bridge over the given surface.
func NewBridge(surface Surface) *Bridge {
	return &Bridge{
		surface:   surface,
		finalized: make(map[string]bool),
	}
}

// MergeSection merges one incoming section record: a record whose title is
// already known updates that section in place, otherwise it is appended at
// the end. The surface is rewritten only when the recomputed preview
// differs from current content after trimming. Reports whether the
// surface was written.
func (b *Bridge) MergeSection(rec wire.SectionRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	merged := false
	for i, s := range b.sections {
		if s.Title == rec.Title {
			b.sections[i] = rec
			merged = true
			break
		}
	}
	if !merged {
		b.sections = append(b.sections, rec)
	}

	preview := b.preview()
	if strings.TrimSpace(preview) == strings.TrimSpace(b.surface.Content()) {
		return false
	}
	b.surface.SetContent(preview)
	return true
}

// Sections returns a copy of the known section records in order.
func (b *Bridge) Sections() []wire.SectionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]wire.SectionRecord(nil), b.sections...)
}

// Preview returns the whole-document preview for the known sections.
func (b *Bridge) Preview() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.preview()
}

func (b *Bridge) preview() string {
	var sb strings.Builder
	for i, s := range b.sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("# ")
		sb.WriteString(s.Title)
		if s.Content != "" {
			sb.WriteString("\n\n")
			sb.WriteString(s.Content)
		}
	}
	return sb.String()
}

// Finalize performs the terminal write for one completion, identified by
// id (the turn or job identity). A second call with the same id is a
// no-op. Reports whether the write was applied.
func (b *Bridge) Finalize(id, text string, mode FinalizeMode) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized[id] {
		return false
	}
	b.finalized[id] = true

	switch mode {
	case FinalizeAppend:
		cur := b.surface.Content()
		if cur != "" {
			b.surface.SetContent(cur + "\n\n" + text)
			return true
		}
		b.surface.SetContent(text)
	default:
		b.surface.SetContent(text)
	}
	return true
}
