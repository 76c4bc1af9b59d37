package wire

import (
	"encoding/json"
	"log/slog"
)

// JobEvent is a closed variant type over job-stream event kinds.
type JobEvent interface {
	isJobEvent()
}

var (
	_ JobEvent = (*Outline)(nil)
	_ JobEvent = (*Section)(nil)
	_ JobEvent = (*StagePass)(nil)
	_ JobEvent = (*Status)(nil)
	_ JobEvent = (*ReviewRequired)(nil)
	_ JobEvent = (*JobDone)(nil)
	_ JobEvent = (*JobError)(nil)
	_ JobEvent = (*UnknownJobEvent)(nil)
)

// SectionRecord is the per-section payload carried by section progress
// events.
type SectionRecord struct {
	Title            string   `json:"title"`
	Content          string   `json:"content,omitempty"`
	Diverged         bool     `json:"diverged,omitempty"`
	Risks            []string `json:"risks,omitempty"`
	SupportingDrafts []string `json:"supporting_drafts,omitempty"`
}

// Outline carries the ordered list of section titles. Final marks the
// outline_done form.
type Outline struct {
	Sections []string
	Final    bool
}

func (*Outline) isJobEvent() {}

// Section carries per-section generation progress. Processed marks the
// section_processed form (a later correction pass over the same title).
type Section struct {
	Record    SectionRecord
	Processed bool
}

func (*Section) isJobEvent() {}

// StagePass reports completion of a named workflow pass (debate, research,
// granular, audit, fact_check, quality, hil_decision, corrections, review,
// document_gate). Payload preserves the stage-specific body verbatim.
type StagePass struct {
	Stage   string
	Detail  string
	Payload json.RawMessage
}

func (*StagePass) isJobEvent() {}

// Status is a generic progress message.
type Status struct {
	Message string
}

func (*Status) isJobEvent() {}

// ReviewRequired signals that the backend paused and needs a human
// decision at the named checkpoint.
type ReviewRequired struct {
	Checkpoint string
	Payload    json.RawMessage
}

func (*ReviewRequired) isJobEvent() {}

// JobDone is the terminal completion event.
type JobDone struct {
	FinalText string
	Rationale string
}

func (*JobDone) isJobEvent() {}

// JobError is a backend-reported job failure.
type JobError struct {
	Message string
}

func (*JobError) isJobEvent() {}

// UnknownJobEvent preserves frames of an unrecognized kind.
type UnknownJobEvent struct {
	Type string
	Raw  json.RawMessage
}

func (*UnknownJobEvent) isJobEvent() {}

// stagePassKinds are the named pass events folded into StagePass.
var stagePassKinds = map[string]bool{
	"debate":        true,
	"debate_done":   true,
	"research":      true,
	"granular":      true,
	"audit":         true,
	"fact_check":    true,
	"quality":       true,
	"hil_decision":  true,
	"corrections":   true,
	"review":        true,
	"document_gate": true,
}

// jobFrame is the raw JSON shape of a job-stream frame payload.
type jobFrame struct {
	Type       string          `json:"type"`
	Sections   []string        `json:"sections,omitempty"`
	Section    *SectionRecord  `json:"section,omitempty"`
	Detail     string          `json:"detail,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Message    string          `json:"message,omitempty"`
	Checkpoint string          `json:"checkpoint,omitempty"`
	FinalText  string          `json:"final_text,omitempty"`
	Rationale  string          `json:"rationale,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// parseJobEvent decodes one job frame payload. Malformed payloads are
// dropped with a diagnostic; ok is false.
func parseJobEvent(payload []byte, log *slog.Logger) (JobEvent, bool) {
	var f jobFrame
	if err := unmarshalFrame(payload, &f); err != nil {
		log.Warn("wire: dropping malformed job frame", "err", err, "payload", string(payload))
		return nil, false
	}

	switch {
	case f.Type == "outline" || f.Type == "outline_done":
		return &Outline{Sections: f.Sections, Final: f.Type == "outline_done"}, true
	case f.Type == "section" || f.Type == "section_processed":
		var rec SectionRecord
		if f.Section != nil {
			rec = *f.Section
		}
		return &Section{Record: rec, Processed: f.Type == "section_processed"}, true
	case stagePassKinds[f.Type]:
		return &StagePass{Stage: f.Type, Detail: f.Detail, Payload: f.Payload}, true
	case f.Type == "message" || f.Type == "status":
		return &Status{Message: f.Message}, true
	case f.Type == "human_review_required":
		return &ReviewRequired{Checkpoint: f.Checkpoint, Payload: f.Payload}, true
	case f.Type == "done":
		return &JobDone{FinalText: f.FinalText, Rationale: f.Rationale}, true
	case f.Type == "error":
		return &JobError{Message: f.Error}, true
	default:
		return &UnknownJobEvent{Type: f.Type, Raw: json.RawMessage(payload)}, true
	}
}
