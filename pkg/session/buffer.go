package session

import "github.com/draftloom/draftloom/pkg/wire"

// StreamBuffer accumulates one model's output within a turn. Once the
// authoritative "done" value for the (turn, model) pair arrives the buffer
// is replaced wholesale and further deltas are ignored.
type StreamBuffer struct {
	Text          string
	Authoritative bool
	Usage         wire.Usage
}

// AppendDelta appends incremental text. Reports false when the buffer is
// already authoritative and the delta was ignored.
func (b *StreamBuffer) AppendDelta(text string) bool {
	if b.Authoritative {
		return false
	}
	b.Text += text
	return true
}

// SetAuthoritative replaces the buffer content with the backend-confirmed
// final text.
func (b *StreamBuffer) SetAuthoritative(text string) {
	b.Text = text
	b.Authoritative = true
}
