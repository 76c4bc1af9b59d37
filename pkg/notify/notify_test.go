package notify_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/draftloom/draftloom/pkg/notify"
)

func TestTruncateShortUnchanged(t *testing.T) {
	if got := notify.Truncate("curto"); got != "curto" {
		t.Fatalf("Truncate = %q", got)
	}
}

func TestTruncateLongIsRuneSafe(t *testing.T) {
	long := strings.Repeat("ação ", 60)
	got := notify.Truncate(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("missing ellipsis: %q", got)
	}
	if utf8.RuneCountInString(got) > 141 {
		t.Fatalf("too long after truncation: %d runes", utf8.RuneCountInString(got))
	}
}

func TestFuncAdapter(t *testing.T) {
	var gotLevel notify.Level
	var gotText string
	n := notify.Func(func(level notify.Level, text string) {
		gotLevel, gotText = level, text
	})
	n.Notify(notify.LevelWarn, "atenção")
	if gotLevel != notify.LevelWarn || gotText != "atenção" {
		t.Fatalf("got %v %q", gotLevel, gotText)
	}
}
