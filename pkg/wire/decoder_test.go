package wire_test

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/draftloom/draftloom/pkg/wire"
)

// chunkReader yields the underlying data in fixed-size chunks to exercise
// frame boundaries falling inside lines.
type chunkReader struct {
	data []byte
	size int
	pos  int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := c.size
	if n > len(p) {
		n = len(p)
	}
	if c.pos+n > len(c.data) {
		n = len(c.data) - c.pos
	}
	copy(p, c.data[c.pos:c.pos+n])
	c.pos += n
	return n, nil
}

func collectTurnEvents(t *testing.T, r io.Reader) []wire.TurnEvent {
	t.Helper()
	var events []wire.TurnEvent
	for ev, err := range wire.TurnEvents(r, slog.Default()) {
		if err != nil {
			t.Fatalf("TurnEvents: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

const turnStream = "data: {\"type\":\"token\",\"model\":\"a\",\"text\":\"Ola\"}\n" +
	"\n" +
	"data: {\"type\":\"token\",\"model\":\"b\",\"text\":\"Ola \"}\n" +
	"\n" +
	"data: {\"type\":\"usage\",\"model\":\"a\",\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":5,\"total_tokens\":8}}\n" +
	"\n" +
	"data: {\"type\":\"done\",\"model\":\"a\",\"turn_id\":\"t1\",\"full_text\":\"Olá mundo\"}\n" +
	"\n"

func TestChunkBoundaryInvariance(t *testing.T) {
	want := collectTurnEvents(t, strings.NewReader(turnStream))
	if len(want) != 4 {
		t.Fatalf("baseline decoded %d events, want 4", len(want))
	}

	for size := 1; size <= len(turnStream); size++ {
		r := &chunkReader{data: []byte(turnStream), size: size}
		got := collectTurnEvents(t, r)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("chunk size %d: decoded %v, want %v", size, got, want)
		}
	}
}

func TestCRLFAndLFInterchangeable(t *testing.T) {
	lf := collectTurnEvents(t, strings.NewReader(turnStream))
	crlf := strings.ReplaceAll(turnStream, "\n", "\r\n")
	got := collectTurnEvents(t, strings.NewReader(crlf))
	if !reflect.DeepEqual(got, lf) {
		t.Fatalf("CRLF decode = %v, want %v", got, lf)
	}

	// Mixed endings within one stream.
	mixed := "data: {\"type\":\"token\",\"model\":\"a\",\"text\":\"x\"}\r\n\n" +
		"data: {\"type\":\"token\",\"model\":\"a\",\"text\":\"y\"}\n\r\n"
	events := collectTurnEvents(t, strings.NewReader(mixed))
	if len(events) != 2 {
		t.Fatalf("mixed endings decoded %d events, want 2", len(events))
	}
}

func TestResidualFrameFlushedAtEOF(t *testing.T) {
	// No trailing blank line, no trailing newline at all.
	stream := "data: {\"type\":\"token\",\"model\":\"a\",\"text\":\"tail\"}"
	events := collectTurnEvents(t, strings.NewReader(stream))
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	tok, ok := events[0].(*wire.Token)
	if !ok {
		t.Fatalf("event = %T, want *wire.Token", events[0])
	}
	if tok.Text != "tail" {
		t.Fatalf("Text = %q, want %q", tok.Text, "tail")
	}
}

func TestMalformedPayloadDropped(t *testing.T) {
	// Repairs to a bare string, which still cannot populate a frame.
	stream := "data: \"not a frame\n\n" +
		"data: {\"type\":\"token\",\"model\":\"a\",\"text\":\"ok\"}\n\n"
	events := collectTurnEvents(t, strings.NewReader(stream))
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1 (malformed frame dropped)", len(events))
	}
	if tok, ok := events[0].(*wire.Token); !ok || tok.Text != "ok" {
		t.Fatalf("surviving event = %#v", events[0])
	}
}

func TestRepairableFrameRecovered(t *testing.T) {
	// Trailing comma: invalid JSON, but mechanically repairable.
	stream := "data: {\"type\":\"token\",\"model\":\"a\",\"text\":\"fix\",}\n\n"
	events := collectTurnEvents(t, strings.NewReader(stream))
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	tok, ok := events[0].(*wire.Token)
	if !ok || tok.Text != "fix" {
		t.Fatalf("event = %#v, want repaired token", events[0])
	}
}

func TestNonDataLinesIgnored(t *testing.T) {
	stream := "event: token\nid: 7\ndata: {\"type\":\"token\",\"model\":\"a\",\"text\":\"v\"}\nretry: 100\n\n"
	events := collectTurnEvents(t, strings.NewReader(stream))
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
}

func TestUnknownKindPassedThrough(t *testing.T) {
	stream := "data: {\"type\":\"sparkle\"}\n\n"
	events := collectTurnEvents(t, strings.NewReader(stream))
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	u, ok := events[0].(*wire.UnknownTurnEvent)
	if !ok {
		t.Fatalf("event = %T, want *wire.UnknownTurnEvent", events[0])
	}
	if u.Type != "sparkle" {
		t.Fatalf("Type = %q, want %q", u.Type, "sparkle")
	}
}

// failingReader returns some data then a read error.
type failingReader struct {
	data []byte
	done bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.done {
		f.done = true
		return copy(p, f.data), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestTransportErrorSurfaces(t *testing.T) {
	r := &failingReader{data: []byte("data: {\"type\":\"token\",\"model\":\"a\",\"text\":\"x\"}\n\n")}
	var got error
	n := 0
	for ev, err := range wire.TurnEvents(r, slog.Default()) {
		if err != nil {
			got = err
			break
		}
		_ = ev
		n++
	}
	if n != 1 {
		t.Fatalf("decoded %d events before failure, want 1", n)
	}
	if got != io.ErrUnexpectedEOF {
		t.Fatalf("error = %v, want %v", got, io.ErrUnexpectedEOF)
	}
}
