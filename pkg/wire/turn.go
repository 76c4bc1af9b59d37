package wire

import (
	"encoding/json"
	"log/slog"
)

// TurnEvent is a closed variant type over turn-stream event kinds.
// Adding a kind is a compile-time-visible change at every dispatch site.
type TurnEvent interface {
	isTurnEvent()
}

var (
	_ TurnEvent = (*Thinking)(nil)
	_ TurnEvent = (*Token)(nil)
	_ TurnEvent = (*UsageUpdate)(nil)
	_ TurnEvent = (*Done)(nil)
	_ TurnEvent = (*SearchStarted)(nil)
	_ TurnEvent = (*SearchDone)(nil)
	_ TurnEvent = (*StreamError)(nil)
	_ TurnEvent = (*UnknownTurnEvent)(nil)
)

// Usage holds token accounting for one model.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Add merges counters from other into u without discarding existing
// counts.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Thinking is a delta of a model's reasoning trace.
type Thinking struct {
	Model string
	Text  string
}

func (*Thinking) isTurnEvent() {}

// Token is an incremental text delta for one model.
type Token struct {
	Model string
	Text  string
}

func (*Token) isTurnEvent() {}

// UsageUpdate carries token accounting for one model.
type UsageUpdate struct {
	Model string
	Usage Usage
}

func (*UsageUpdate) isTurnEvent() {}

// Done carries the authoritative full text for a (turn, model) pair.
// It supersedes any previously accumulated deltas.
type Done struct {
	Model    string
	TurnID   string
	Text     string
	Thinking string
	Usage    *Usage
}

func (*Done) isTurnEvent() {}

// SearchStarted signals that an external lookup began. Informational only.
type SearchStarted struct {
	Query string
}

func (*SearchStarted) isTurnEvent() {}

// SearchDone signals that an external lookup finished. Informational only.
type SearchDone struct {
	Results int
}

func (*SearchDone) isTurnEvent() {}

// StreamError is a model-level failure reported mid-stream. It does not
// invalidate partial content already received.
type StreamError struct {
	Model   string
	Message string
}

func (*StreamError) isTurnEvent() {}

// UnknownTurnEvent preserves frames of an unrecognized kind so newer
// backends do not break older clients.
type UnknownTurnEvent struct {
	Type string
	Raw  json.RawMessage
}

func (*UnknownTurnEvent) isTurnEvent() {}

// turnFrame is the raw JSON shape of a turn-stream frame payload.
type turnFrame struct {
	Type     string `json:"type"`
	Model    string `json:"model,omitempty"`
	TurnID   string `json:"turn_id,omitempty"`
	Text     string `json:"text,omitempty"`
	FullText string `json:"full_text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
	Usage    *Usage `json:"usage,omitempty"`
	Error    string `json:"error,omitempty"`
	Query    string `json:"query,omitempty"`
	Results  int    `json:"results,omitempty"`
}

// parseTurnEvent decodes one frame payload. A payload that cannot be
// decoded is dropped with a diagnostic; ok is false.
func parseTurnEvent(payload []byte, log *slog.Logger) (TurnEvent, bool) {
	var f turnFrame
	if err := unmarshalFrame(payload, &f); err != nil {
		log.Warn("wire: dropping malformed turn frame", "err", err, "payload", string(payload))
		return nil, false
	}

	switch f.Type {
	case "thinking":
		return &Thinking{Model: f.Model, Text: f.Text}, true
	case "token":
		return &Token{Model: f.Model, Text: f.Text}, true
	case "usage":
		var u Usage
		if f.Usage != nil {
			u = *f.Usage
		}
		return &UsageUpdate{Model: f.Model, Usage: u}, true
	case "done":
		return &Done{
			Model:    f.Model,
			TurnID:   f.TurnID,
			Text:     f.FullText,
			Thinking: f.Thinking,
			Usage:    f.Usage,
		}, true
	case "error":
		return &StreamError{Model: f.Model, Message: f.Error}, true
	case "search_started":
		return &SearchStarted{Query: f.Query}, true
	case "search_done":
		return &SearchDone{Results: f.Results}, true
	default:
		return &UnknownTurnEvent{Type: f.Type, Raw: json.RawMessage(payload)}, true
	}
}
