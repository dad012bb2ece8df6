package domtest

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// TraceEntry is one recorded line of the runtime's activity trace: events,
// timer lifecycle, and script/console activity, in the order they
// actually ran.
type TraceEntry struct {
	Tag    string // "event", "timer", "script", "advance", "flush"
	Detail string // the rest of the line, already formatted by the caller
	NowMs  int64
}

// Trace accumulates TraceEntry values for later inspection (take_trace_logs
// in the harness vocabulary); byte-sized payloads (inline script sources)
// are rendered through go-humanize so oversized entries read as "4.1 kB"
// rather than a raw byte count, the same formatting the teacher's own
// log-truncation path favors.
type Trace struct {
	entries []TraceEntry
}

func newTrace() *Trace { return &Trace{} }

func (t *Trace) record(nowMs int64, tag, detail string) {
	t.entries = append(t.entries, TraceEntry{Tag: tag, Detail: detail, NowMs: nowMs})
}

// Entries returns a snapshot of every recorded trace line.
func (t *Trace) Entries() []TraceEntry {
	return append([]TraceEntry(nil), t.entries...)
}

// take renders every entry recorded so far as a §6.3-formatted line and
// empties the buffer, matching the harness's take_trace_logs consume-once
// semantics.
func (t *Trace) take() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.line()
	}
	t.entries = nil
	return out
}

func (e TraceEntry) line() string {
	switch e.Tag {
	case "event", "timer":
		return fmt.Sprintf("[%s] %s", e.Tag, e.Detail)
	default:
		return fmt.Sprintf("[%s] now_ms=%d %s", e.Tag, e.NowMs, e.Detail)
	}
}

// String renders the trace as "[tag] detail" lines, the exact line shape
// event and timer entries are built in (event/timer detail strings already
// carry their own now_ms/due_at/delay_ms fields); advance/flush/script
// entries fall back to a "[tag] now_ms=<n> detail" line since they have no
// reserved line grammar of their own.
func (t *Trace) String() string {
	var sb strings.Builder
	for _, e := range t.entries {
		sb.WriteString(e.line())
		sb.WriteString("\n")
	}
	return sb.String()
}

// sizeNote renders a byte count using go-humanize, for trace lines that
// describe a payload (used for the inline script length RunScript traces).
func sizeNote(n int) string {
	return humanize.Bytes(uint64(n))
}
