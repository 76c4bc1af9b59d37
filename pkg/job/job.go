package job

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/draftloom/draftloom/pkg/jsontime"
	"github.com/draftloom/draftloom/pkg/wire"
)

// ReviewRecord is the pending human-review checkpoint of a paused job. It
// exists only while the job is awaiting review; a later review signal
// replaces it, and a decision submission clears it.
type ReviewRecord struct {
	Checkpoint string          `json:"checkpoint"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  jsontime.Milli  `json:"created_at"`
}

// LogEntry is one recorded progress event.
type LogEntry struct {
	Kind   string         `json:"kind"`
	Detail string         `json:"detail,omitempty"`
	At     jsontime.Milli `json:"at"`
}

// Effects describes what one applied event asks the surrounding loop to
// do. The transition itself performs no I/O.
type Effects struct {
	// Section carries section-level content to merge into the canvas.
	Section *wire.SectionRecord

	// ReviewRequired is set when the job just paused for a decision.
	ReviewRequired bool

	// Finalize is set on the terminal completion event: one finalizing
	// canvas write plus one summary chat message.
	Finalize bool

	// Terminal is set when the job reached Done or Failed.
	Terminal bool

	// Notice is an ephemeral progress notification, empty when none.
	Notice string
}

// Job is the client-side record of one backend generation job. All fields
// advance only through Apply, Resume and Fail; the event loop and the
// decision surface may run on different goroutines.
type Job struct {
	id     string
	chatID string

	mu        sync.Mutex
	state     State
	log       []LogEntry
	outline   []string
	review    *ReviewRecord
	finalText string
	rationale string
	audit     json.RawMessage
	committee json.RawMessage
}

// New creates a job in the Created state. The backend registration and the
// event connection are the Runner's concern.
func New(id, chatID string) *Job {
	return &Job{id: id, chatID: chatID, state: StateCreated}
}

func (j *Job) ID() string     { return j.id }
func (j *Job) ChatID() string { return j.chatID }

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Outline returns a copy of the latest outline.
func (j *Job) Outline() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.outline...)
}

// Review returns a copy of the pending review record, or nil when the job
// is not awaiting review.
func (j *Job) Review() *ReviewRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.review == nil {
		return nil
	}
	r := *j.review
	return &r
}

// Log returns a copy of the recorded progress entries.
func (j *Job) Log() []LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]LogEntry(nil), j.log...)
}

// FinalText returns the final document text once the job is done.
func (j *Job) FinalText() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finalText
}

// Rationale returns the decision rationale once the job is done.
func (j *Job) Rationale() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rationale
}

// Audit returns the last audit pass payload, nil when none was received.
func (j *Job) Audit() json.RawMessage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.audit
}

// CommitteeReport returns the last review pass payload.
func (j *Job) CommitteeReport() json.RawMessage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.committee
}

func (j *Job) record(kind, detail string) {
	j.log = append(j.log, LogEntry{Kind: kind, Detail: detail, At: jsontime.Now()})
}

// Apply advances the job by one decoded event and reports the effects the
// caller must carry out. Events arriving after a terminal state are
// ignored. Apply performs no I/O.
func (j *Job) Apply(ev wire.JobEvent) Effects {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.Terminal() {
		return Effects{Terminal: true}
	}
	if j.state == StateCreated {
		j.state = StateRunning
	}

	switch e := ev.(type) {
	case *wire.Outline:
		j.outline = append([]string(nil), e.Sections...)
		j.record("outline", fmt.Sprintf("%d sections", len(e.Sections)))
		return Effects{Notice: "outline ready"}

	case *wire.Section:
		rec := e.Record
		j.record("section", rec.Title)
		return Effects{Section: &rec}

	case *wire.StagePass:
		switch e.Stage {
		case "audit":
			j.audit = e.Payload
		case "review":
			j.committee = e.Payload
		}
		j.record(e.Stage, e.Detail)
		if e.Detail != "" {
			return Effects{Notice: e.Stage + ": " + e.Detail}
		}
		return Effects{Notice: e.Stage}

	case *wire.Status:
		j.record("status", e.Message)
		return Effects{Notice: e.Message}

	case *wire.ReviewRequired:
		// A later review signal replaces the pending record, it is never
		// queued behind it.
		j.state = StateAwaitingReview
		j.review = &ReviewRecord{
			Checkpoint: e.Checkpoint,
			Payload:    e.Payload,
			CreatedAt:  jsontime.Now(),
		}
		j.record("human_review_required", e.Checkpoint)
		return Effects{ReviewRequired: true}

	case *wire.JobDone:
		j.state = StateDone
		j.review = nil
		j.finalText = e.FinalText
		j.rationale = e.Rationale
		j.record("done", "")
		return Effects{Finalize: true, Terminal: true}

	case *wire.JobError:
		j.state = StateFailed
		j.review = nil
		j.record("error", e.Message)
		return Effects{Terminal: true, Notice: e.Message}

	case *wire.UnknownJobEvent:
		j.record(e.Type, "")
		return Effects{}
	}
	return Effects{}
}

// Resume validates and applies a decision submission: only a job awaiting
// review can resume. The pending record is cleared and the job returns to
// Running, expecting the backend to continue emitting progress events.
func (j *Job) Resume() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != StateAwaitingReview {
		return fmt.Errorf("job %s: resume in state %s", j.id, j.state)
	}
	j.review = nil
	j.state = StateRunning
	j.record("resume", "")
	return nil
}

// Fail moves the job to the absorbing Failed state on a transport error.
// No reconnection is attempted; the only recovery is a new job. Failing a
// job that already finished is a no-op.
func (j *Job) Fail(reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.Terminal() {
		return
	}
	j.state = StateFailed
	j.review = nil
	j.record("transport_error", reason)
}
