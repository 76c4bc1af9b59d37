package canvas_test

import (
	"testing"

	"github.com/draftloom/draftloom/pkg/canvas"
	"github.com/draftloom/draftloom/pkg/wire"
)

// fakeSurface records writes so tests can assert the write gate.
type fakeSurface struct {
	content string
	writes  int
}

func (f *fakeSurface) Content() string { return f.content }
func (f *fakeSurface) SetContent(c string) {
	f.content = c
	f.writes++
}

func TestMergeSectionAppendsAndUpdates(t *testing.T) {
	surf := &fakeSurface{}
	b := canvas.NewBridge(surf)

	b.MergeSection(wire.SectionRecord{Title: "Introdução", Content: "v1"})
	b.MergeSection(wire.SectionRecord{Title: "Método", Content: "m1"})
	if got := len(b.Sections()); got != 2 {
		t.Fatalf("sections = %d, want 2", got)
	}

	// A correction for a known title updates in place, not duplicates.
	b.MergeSection(wire.SectionRecord{Title: "Introdução", Content: "v2", Diverged: true})
	secs := b.Sections()
	if len(secs) != 2 {
		t.Fatalf("sections = %d after correction, want 2", len(secs))
	}
	if secs[0].Content != "v2" || !secs[0].Diverged {
		t.Fatalf("secs[0] = %+v, want updated record", secs[0])
	}
	if secs[0].Title != "Introdução" || secs[1].Title != "Método" {
		t.Fatalf("order changed: %+v", secs)
	}
}

func TestRedundantWriteSuppressed(t *testing.T) {
	surf := &fakeSurface{}
	b := canvas.NewBridge(surf)

	rec := wire.SectionRecord{Title: "A", Content: "body"}
	if wrote := b.MergeSection(rec); !wrote {
		t.Fatal("first merge should write")
	}
	writes := surf.writes

	// Same content again: trimmed comparison suppresses the write.
	if wrote := b.MergeSection(rec); wrote {
		t.Fatal("identical merge should not write")
	}
	if surf.writes != writes {
		t.Fatalf("writes = %d, want %d", surf.writes, writes)
	}
}

func TestFinalizeIdempotentPerID(t *testing.T) {
	surf := &fakeSurface{content: "draft body"}
	b := canvas.NewBridge(surf)

	if !b.Finalize("turn-1", "final text", canvas.FinalizeReplace) {
		t.Fatal("first Finalize should apply")
	}
	if surf.content != "final text" {
		t.Fatalf("content = %q", surf.content)
	}

	// Duplicate completion signal for the same id is a no-op.
	if b.Finalize("turn-1", "final text", canvas.FinalizeReplace) {
		t.Fatal("second Finalize should be a no-op")
	}
	if surf.content != "final text" {
		t.Fatalf("content duplicated: %q", surf.content)
	}

	// A different completion id still applies.
	if !b.Finalize("turn-2", "more", canvas.FinalizeAppend) {
		t.Fatal("Finalize with new id should apply")
	}
	if surf.content != "final text\n\nmore" {
		t.Fatalf("content = %q", surf.content)
	}
}

func TestFinalizeAppendOnEmptySurface(t *testing.T) {
	surf := &fakeSurface{}
	b := canvas.NewBridge(surf)
	b.Finalize("t", "only", canvas.FinalizeAppend)
	if surf.content != "only" {
		t.Fatalf("content = %q", surf.content)
	}
}

func TestExtractSuggestion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain",
			in:   "melhor assim",
			want: "melhor assim",
		},
		{
			name: "boilerplate prefix",
			in:   "Here is the improved excerpt:\nmelhor assim",
			want: "melhor assim",
		},
		{
			name: "fenced block",
			in:   "```markdown\nmelhor assim\n```",
			want: "melhor assim",
		},
		{
			name: "prefix and fence",
			in:   "Sure, here you go:\n```\nmelhor assim\n```",
			want: "melhor assim",
		},
		{
			name: "colon mid-line is content, not boilerplate",
			in:   "nota: este texto usa dois pontos no meio\ne continua",
			want: "nota: este texto usa dois pontos no meio\ne continua",
		},
		{
			name: "surrounding whitespace",
			in:   "\n\n  melhor assim  \n",
			want: "melhor assim",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canvas.ExtractSuggestion(tt.in); got != tt.want {
				t.Fatalf("ExtractSuggestion(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
