// Package wire implements the streaming wire protocol shared by the turn
// and job event connections: newline-delimited, blank-line-terminated
// frames whose payload line carries a "data:" field marker followed by a
// JSON document.
package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"log/slog"

	"github.com/kaptinlin/jsonrepair"
)

// dataMarker prefixes the payload-bearing line within a frame.
var dataMarker = []byte("data:")

// Decoder turns a raw incremental byte stream into a sequence of frame
// payloads. It tolerates chunk boundaries falling anywhere inside a frame
// and accepts LF and CRLF line endings interchangeably.
//
// A Decoder is tied to one transport read cycle and is not restartable.
type Decoder struct {
	r   *bufio.Reader
	log *slog.Logger
	eof bool
}

// NewDecoder creates a Decoder reading from r. A nil logger defaults to
// slog.Default().
func NewDecoder(r io.Reader, log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{r: bufio.NewReader(r), log: log}
}

// next returns the raw JSON payload of the next frame. It returns
// (nil, io.EOF) when the stream is exhausted. At end-of-stream any
// residual buffered frame is flushed and returned once.
func (d *Decoder) next() ([]byte, error) {
	if d.eof {
		return nil, io.EOF
	}

	var payload []byte
	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				d.eof = true
				// Flush a residual undelimited frame.
				if p := extractPayload(line, payload); p != nil {
					return p, nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			// Blank line terminates the frame.
			if payload != nil {
				return payload, nil
			}
			continue
		}
		if bytes.HasPrefix(line, dataMarker) {
			payload = bytes.TrimSpace(bytes.TrimPrefix(line, dataMarker))
		}
	}
}

// extractPayload resolves the payload of a frame cut off by EOF: the last
// partial line wins if it carries the marker, otherwise any payload seen
// earlier in the frame.
func extractPayload(lastLine, payload []byte) []byte {
	lastLine = bytes.TrimRight(lastLine, "\r\n")
	if bytes.HasPrefix(lastLine, dataMarker) {
		return bytes.TrimSpace(bytes.TrimPrefix(lastLine, dataMarker))
	}
	return payload
}

// unmarshalFrame decodes a frame payload into v, repairing malformed JSON
// before giving up.
func unmarshalFrame(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// TurnEvents decodes turn-stream events from r as a lazy sequence.
// Malformed frame payloads are dropped with a diagnostic and never
// surface as errors; only transport read failures are yielded.
func TurnEvents(r io.Reader, log *slog.Logger) iter.Seq2[TurnEvent, error] {
	d := NewDecoder(r, log)
	return func(yield func(TurnEvent, error) bool) {
		for {
			payload, err := d.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			ev, ok := parseTurnEvent(payload, d.log)
			if !ok {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// JobEvents decodes job-stream events from r as a lazy sequence, with the
// same error policy as TurnEvents.
func JobEvents(r io.Reader, log *slog.Logger) iter.Seq2[JobEvent, error] {
	d := NewDecoder(r, log)
	return func(yield func(JobEvent, error) bool) {
		for {
			payload, err := d.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			ev, ok := parseJobEvent(payload, d.log)
			if !ok {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}
