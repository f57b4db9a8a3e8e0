package forme

import (
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// graphemeEntry is one interned cluster: its text, display width, and the
// mark bit used by Sweep's mark-and-sweep GC.
type graphemeEntry struct {
	text   string
	width  uint8
	marked bool
}

// GraphemePool interns grapheme clusters (anything wider than a single
// printable ASCII byte) to small stable uint32 ids so a Cell has a fixed size
// regardless of how wide the underlying text is. IDs 0 and 1 are reserved
// (see cell.go); ids 2..96 are pre-interned printable ASCII for the
// single-codepoint fast path, and everything beyond that is allocated on
// first use and can be reclaimed by Sweep.
type GraphemePool struct {
	mu      sync.Mutex
	entries []graphemeEntry        // index i holds id i
	byText  map[string]uint32      // text -> id, for dedup on Intern
	free    []uint32               // ids reclaimed by Sweep, reused before growing
}

const asciiFastPathBase = 2
const asciiFastPathCount = 0x7E - 0x20 + 1 // space..tilde, 95 printable chars

// NewGraphemePool creates a pool with the ASCII fast path pre-interned.
func NewGraphemePool() *GraphemePool {
	p := &GraphemePool{
		entries: make([]graphemeEntry, asciiFastPathBase, asciiFastPathBase+asciiFastPathCount+64),
		byText:  make(map[string]uint32, 256),
	}
	for r := rune(0x20); r <= 0x7E; r++ {
		s := string(r)
		p.entries = append(p.entries, graphemeEntry{text: s, width: 1, marked: true})
		p.byText[s] = uint32(len(p.entries) - 1)
	}
	return p
}

// Intern maps a grapheme cluster's text to a stable id and its display
// width. Repeated interning of identical text returns the same id. The
// returned width is 1 or 2 (0-width combining sequences are folded into
// their base cluster by the caller's segmentation, never interned alone).
func (p *GraphemePool) Intern(text string) (id uint32, width uint8) {
	if len(text) == 1 {
		c := text[0]
		if c >= 0x20 && c <= 0x7E {
			return asciiFastPathBase + uint32(c-0x20), 1
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.byText[text]; ok {
		p.entries[existing].marked = true
		return existing, p.entries[existing].width
	}

	w := clusterWidth(text)

	var newID uint32
	if n := len(p.free); n > 0 {
		newID = p.free[n-1]
		p.free = p.free[:n-1]
		p.entries[newID] = graphemeEntry{text: text, width: w, marked: true}
	} else {
		newID = uint32(len(p.entries))
		p.entries = append(p.entries, graphemeEntry{text: text, width: w, marked: true})
	}
	p.byText[text] = newID
	return newID, w
}

// Lookup returns the text and width for a previously interned id. ok is
// false for an id that was never allocated or has since been swept.
func (p *GraphemePool) Lookup(id uint32) (text string, width uint8, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int(id) >= len(p.entries) {
		return "", 0, false
	}
	e := p.entries[id]
	if e.text == "" {
		return "", 0, false
	}
	return e.text, e.width, true
}

// Mark flags id as in-use for the next Sweep. Intern already marks on
// every call; Mark exists for callers walking a Buffer directly (e.g.
// TerminalWriter re-marking the ids in the current and previous buffers
// before a Sweep).
func (p *GraphemePool) Mark(id uint32) {
	if id < asciiFastPathBase {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(id) < len(p.entries) {
		p.entries[id].marked = true
	}
}

// Sweep reclaims every non-ASCII entry that was not marked since the last
// Sweep, and clears all marks for the next cycle. Call this periodically
// (TerminalWriter does this on its GC interval) rather than after every
// frame, since most graphemes survive from one frame to the next.
func (p *GraphemePool) Sweep() (reclaimed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id := asciiFastPathBase + asciiFastPathCount; id < len(p.entries); id++ {
		e := &p.entries[id]
		if e.text == "" {
			continue
		}
		if !e.marked {
			delete(p.byText, e.text)
			*e = graphemeEntry{}
			p.free = append(p.free, uint32(id))
			reclaimed++
			continue
		}
		e.marked = false
	}
	return reclaimed
}

// Len reports the number of live (non-reclaimed) non-ASCII entries.
func (p *GraphemePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byText) - asciiFastPathCount
}

// clusterWidth computes the display width (1 or 2) of a single grapheme
// cluster. uniseg.StringWidth drives the common case; East-Asian ambiguous
// width runes that uniseg treats as narrow fall back to go-runewidth's
// locale-agnostic table, matching the rest of the corpus's width handling.
func clusterWidth(cluster string) uint8 {
	w := uniseg.StringWidth(cluster)
	if w <= 0 {
		return 1 // zero/negative width (combining-only) still occupies its cell
	}
	if w == 1 {
		for _, r := range cluster {
			if rw := runewidth.RuneWidth(r); rw == 2 {
				return 2
			}
		}
	}
	if w >= 2 {
		return 2
	}
	return 1
}

// NextGraphemeCluster splits the first grapheme cluster off text, returning
// it and the remainder. state is opaque uniseg boundary state threaded
// across calls for a single logical string (pass -1 to start fresh).
func NextGraphemeCluster(text string, state int) (cluster, rest string, width int, newState int) {
	cluster, rest, width, newState = uniseg.FirstGraphemeClusterInString(text, state)
	return
}
