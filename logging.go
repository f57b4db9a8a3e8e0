package forme

import (
	"encoding/json"
	"io"
	"sync"
)

// EvidenceEvent is one structured diagnostic record: config clamping
// diagnostics, the resize coalescer's regime changes and applied sizes, and
// the terminal writer's grapheme-pool GC passes all flow through this shape
// so a single sink implementation can persist any of them. The diff engine
// records no events.
type EvidenceEvent struct {
	Component string         `json:"component"`
	Kind      string         `json:"kind"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// EvidenceSink receives diagnostic events from components that want to
// leave a decision trail (why the resize coalescer entered Burst, which
// size it applied) without coupling them to any particular logging
// library. Passing a nil sink to NewTerminalWriter or NewResizeCoalescer is
// valid: DiscardSink is used and events are simply dropped.
type EvidenceSink interface {
	Record(EvidenceEvent)
}

// NDJSONSink writes one JSON object per line to w. This is the one ambient
// concern in the kernel built directly on the standard library instead of
// a third-party logger: no ecosystem newline-delimited-JSON event writer
// appears anywhere in the retrieval pack, and the format itself is simple
// enough that hand-rolling it doesn't forgo any real library value (unlike,
// say, hand-rolling ANSI cursor movement, where the corpus's ansi package
// earns its keep through a shared, tested escape table).
type NDJSONSink struct {
	mu sync.Mutex
	w  io.Writer
	enc *json.Encoder
}

// NewNDJSONSink wraps w as an EvidenceSink.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{w: w, enc: json.NewEncoder(w)}
}

// Record writes ev as one JSON line. Encoding errors are swallowed: a
// broken evidence sink must never interrupt rendering.
func (s *NDJSONSink) Record(ev EvidenceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(ev)
}

// discardSink is the default no-op sink used when the host supplies none.
type discardSink struct{}

func (discardSink) Record(EvidenceEvent) {}

// DiscardSink is a shared no-op EvidenceSink.
var DiscardSink EvidenceSink = discardSink{}
