package wire_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/draftloom/draftloom/pkg/wire"
)

func collectJobEvents(t *testing.T, r io.Reader) []wire.JobEvent {
	t.Helper()
	var events []wire.JobEvent
	for ev, err := range wire.JobEvents(r, slog.Default()) {
		if err != nil {
			t.Fatalf("JobEvents: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func TestJobEventKinds(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"type":"outline","sections":["Introdução","Método"]}`,
		``,
		`data: {"type":"section","section":{"title":"Introdução","content":"...","diverged":true}}`,
		``,
		`data: {"type":"section_processed","section":{"title":"Introdução","diverged":false}}`,
		``,
		`data: {"type":"debate_done","detail":"2 rounds"}`,
		``,
		`data: {"type":"fact_check","payload":{"claims":3}}`,
		``,
		`data: {"type":"status","message":"drafting"}`,
		``,
		`data: {"type":"human_review_required","checkpoint":"outline_gate","payload":{"question":"ok?"}}`,
		``,
		`data: {"type":"done","final_text":"full document","rationale":"committee agreed"}`,
		``,
	}, "\n")

	events := collectJobEvents(t, strings.NewReader(stream))
	if len(events) != 8 {
		t.Fatalf("decoded %d events, want 8", len(events))
	}

	outline, ok := events[0].(*wire.Outline)
	if !ok || len(outline.Sections) != 2 || outline.Final {
		t.Fatalf("events[0] = %#v, want non-final outline with 2 sections", events[0])
	}

	sec, ok := events[1].(*wire.Section)
	if !ok || sec.Processed || sec.Record.Title != "Introdução" || !sec.Record.Diverged {
		t.Fatalf("events[1] = %#v", events[1])
	}

	corr, ok := events[2].(*wire.Section)
	if !ok || !corr.Processed || corr.Record.Diverged {
		t.Fatalf("events[2] = %#v, want processed correction", events[2])
	}

	if sp, ok := events[3].(*wire.StagePass); !ok || sp.Stage != "debate_done" || sp.Detail != "2 rounds" {
		t.Fatalf("events[3] = %#v", events[3])
	}
	if sp, ok := events[4].(*wire.StagePass); !ok || sp.Stage != "fact_check" || len(sp.Payload) == 0 {
		t.Fatalf("events[4] = %#v", events[4])
	}
	if st, ok := events[5].(*wire.Status); !ok || st.Message != "drafting" {
		t.Fatalf("events[5] = %#v", events[5])
	}

	rr, ok := events[6].(*wire.ReviewRequired)
	if !ok || rr.Checkpoint != "outline_gate" || len(rr.Payload) == 0 {
		t.Fatalf("events[6] = %#v", events[6])
	}

	done, ok := events[7].(*wire.JobDone)
	if !ok || done.FinalText != "full document" || done.Rationale != "committee agreed" {
		t.Fatalf("events[7] = %#v", events[7])
	}
}

func TestJobErrorAndUnknown(t *testing.T) {
	stream := "data: {\"type\":\"error\",\"error\":\"backend exploded\"}\n\n" +
		"data: {\"type\":\"telemetry\",\"message\":\"x\"}\n\n"
	events := collectJobEvents(t, strings.NewReader(stream))
	if len(events) != 2 {
		t.Fatalf("decoded %d events, want 2", len(events))
	}
	if je, ok := events[0].(*wire.JobError); !ok || je.Message != "backend exploded" {
		t.Fatalf("events[0] = %#v", events[0])
	}
	if u, ok := events[1].(*wire.UnknownJobEvent); !ok || u.Type != "telemetry" {
		t.Fatalf("events[1] = %#v", events[1])
	}
}

func TestUsageAdd(t *testing.T) {
	u := wire.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	u.Add(wire.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})
	if u.PromptTokens != 11 || u.CompletionTokens != 22 || u.TotalTokens != 33 {
		t.Fatalf("Add = %+v", u)
	}
}
