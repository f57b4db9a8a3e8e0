package forme

// SpanConfig tunes how Buffer tracks partial-row dirty spans.
type SpanConfig struct {
	Enabled        bool
	MaxSpansPerRow int
	MergeGap       int // spans closer than this are merged into one
	GuardBand      int // extra columns added on each side of a grown span
}

// DefaultSpanConfig mirrors the values the diff engine's selector assumes
// when a caller does not override them.
func DefaultSpanConfig() SpanConfig {
	return SpanConfig{Enabled: true, MaxSpansPerRow: 1, MergeGap: 4, GuardBand: 1}
}

// sanitize clamps a SpanConfig to valid ranges, matching the diff engine's
// "config is sanitized on construction" contract.
func (c SpanConfig) sanitize() SpanConfig {
	if c.MaxSpansPerRow < 1 {
		c.MaxSpansPerRow = 1
	}
	if c.MergeGap < 0 {
		c.MergeGap = 0
	}
	if c.GuardBand < 0 {
		c.GuardBand = 0
	}
	return c
}

const (
	tileWidth  = 32
	tileHeight = 4
)

// rowSpan is a half-open [start, end) column range, or the zero value when
// no span has been recorded for the row yet.
type rowSpan struct {
	start, end int32
	valid      bool
}

// Buffer is a rows x cols grid of Cell plus the dirty-tracking metadata the
// diff engine's strategies consume: per-row dirty flags, per-row merged
// dirty spans, and a coarse per-tile "something here changed" bitset.
type Buffer struct {
	cols, rows int
	cells      []Cell

	rowDirty []bool
	rowSpan  []rowSpan
	allDirty bool

	tilesX, tilesY int
	tileDirty      []bool

	spans SpanConfig
}

// NewBuffer creates a cols x rows buffer, every cell blank, every row dirty.
func NewBuffer(cols, rows int) *Buffer {
	b := &Buffer{spans: DefaultSpanConfig()}
	b.reset(cols, rows)
	return b
}

// reset (re)allocates storage for the given dimensions and marks everything
// dirty; used by both NewBuffer and Resize.
func (b *Buffer) reset(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	b.cols, b.rows = cols, rows
	b.cells = make([]Cell, cols*rows)
	blank := BlankCell()
	for i := range b.cells {
		b.cells[i] = blank
	}
	b.rowDirty = make([]bool, rows)
	b.rowSpan = make([]rowSpan, rows)
	b.tilesX = (cols + tileWidth - 1) / tileWidth
	b.tilesY = (rows + tileHeight - 1) / tileHeight
	b.tileDirty = make([]bool, b.tilesX*b.tilesY)
	b.allDirty = true
}

// SetSpanConfig installs a new span tracking configuration, sanitized.
func (b *Buffer) SetSpanConfig(cfg SpanConfig) { b.spans = cfg.sanitize() }

// Cols and Rows report the buffer's dimensions.
func (b *Buffer) Cols() int { return b.cols }
func (b *Buffer) Rows() int { return b.rows }

// InBounds reports whether (x,y) addresses a real cell.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.cols && y >= 0 && y < b.rows
}

func (b *Buffer) index(x, y int) int { return y*b.cols + x }

// Get returns the cell at (x,y), or a blank cell if out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return BlankCell()
	}
	return b.cells[b.index(x, y)]
}

func (b *Buffer) tileIndex(x, y int) int {
	return (y/tileHeight)*b.tilesX + (x / tileWidth)
}

// markDirtyCell updates row/tile bookkeeping for a single-cell write at (x,y).
func (b *Buffer) markDirtyCell(x, y int) {
	b.rowDirty[y] = true
	b.tileDirty[b.tileIndex(x, y)] = true
	b.MarkDirtySpan(y, x, x+1)
}

// clearPartner blanks the other half of a wide pair when x is overwritten,
// per the invariant that a write to either half resets its partner.
func (b *Buffer) clearPartner(x, y int) {
	idx := b.index(x, y)
	c := b.cells[idx]
	switch c.Width {
	case WidthWide:
		if x+1 < b.cols {
			pi := b.index(x+1, y)
			if b.cells[pi].Width == WidthContinuation {
				b.cells[pi] = BlankCell()
				b.markDirtyCell(x+1, y)
			}
		}
	case WidthContinuation:
		if x-1 >= 0 {
			pi := b.index(x-1, y)
			if b.cells[pi].Width == WidthWide {
				b.cells[pi] = BlankCell()
				b.markDirtyCell(x-1, y)
			}
		}
	}
}

// Set writes a single cell at (x,y). Out-of-bounds writes are silently
// dropped. If the target overwrote half of a wide pair, the partner cell
// is reset to blank in the same call.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	b.clearPartner(x, y)
	b.cells[b.index(x, y)] = c
	b.markDirtyCell(x, y)
}

// SetWide writes a Wide+Continuation pair at (x,y)/(x+1,y) sharing
// graphemeID. If x+1 is out of bounds the call falls back to a blank
// Narrow cell at x, since a half-written wide glyph would violate the
// pairing invariant.
func (b *Buffer) SetWide(x, y int, graphemeID uint32, attrs Attribute, fg, bg PackedColor, linkID uint16) {
	if !b.InBounds(x, y) {
		return
	}
	if x+1 >= b.cols {
		b.Set(x, y, BlankCell())
		return
	}
	b.clearPartner(x, y)
	b.clearPartner(x+1, y)
	left := Cell{GraphemeID: graphemeID, Width: WidthWide, Attrs: attrs, FG: fg, BG: bg, LinkID: linkID}
	right := Cell{GraphemeID: graphemeID, Width: WidthContinuation, Attrs: attrs, FG: fg, BG: bg, LinkID: linkID}
	b.cells[b.index(x, y)] = left
	b.cells[b.index(x+1, y)] = right
	b.markDirtyCell(x, y)
	b.markDirtyCell(x+1, y)
}

// ClearRegion blanks every cell in [x,x+w) x [y,y+h), clipped to bounds, and
// marks affected rows/spans/tiles dirty.
func (b *Buffer) ClearRegion(x, y, w, h int) {
	blank := BlankCell()
	for dy := 0; dy < h; dy++ {
		row := y + dy
		if row < 0 || row >= b.rows {
			continue
		}
		x0, x1 := x, x+w
		if x0 < 0 {
			x0 = 0
		}
		if x1 > b.cols {
			x1 = b.cols
		}
		if x0 >= x1 {
			continue
		}
		base := row * b.cols
		for col := x0; col < x1; col++ {
			b.cells[base+col] = blank
		}
		b.rowDirty[row] = true
		b.MarkDirtySpan(row, x0, x1)
		for tx := x0 / tileWidth; tx <= (x1-1)/tileWidth; tx++ {
			b.tileDirty[(row/tileHeight)*b.tilesX+tx] = true
		}
	}
}

// Clear blanks the entire buffer and marks it fully dirty.
func (b *Buffer) Clear() {
	blank := BlankCell()
	for i := range b.cells {
		b.cells[i] = blank
	}
	b.allDirty = true
	for i := range b.rowDirty {
		b.rowDirty[i] = true
		b.rowSpan[i] = rowSpan{}
	}
	for i := range b.tileDirty {
		b.tileDirty[i] = true
	}
}

// CopyFrom fast-paths a full-buffer copy when dimensions match exactly,
// preserving wide/continuation pairing since cells are copied verbatim.
// Returns false (no-op) when dimensions differ.
func (b *Buffer) CopyFrom(src *Buffer) bool {
	if b.cols != src.cols || b.rows != src.rows {
		return false
	}
	copy(b.cells, src.cells)
	b.allDirty = true
	for i := range b.rowDirty {
		b.rowDirty[i] = true
		b.rowSpan[i] = rowSpan{}
	}
	for i := range b.tileDirty {
		b.tileDirty[i] = true
	}
	return true
}

// MarkDirtySpan grows row y's merged dirty span to cover [start,end),
// honoring MergeGap (spans closer than this merge instead of creating a
// second tracked span) and GuardBand (extra slack added around the grown
// span). If span tracking is disabled, or the implied span count would
// exceed MaxSpansPerRow, the whole row falls back to full-row dirty
// (dirty_span_row then reports None for that row).
func (b *Buffer) MarkDirtySpan(y, start, end int) {
	if y < 0 || y >= b.rows {
		return
	}
	b.rowDirty[y] = true
	if !b.spans.Enabled {
		b.rowSpan[y] = rowSpan{}
		return
	}
	if start < 0 {
		start = 0
	}
	if end > b.cols {
		end = b.cols
	}
	if start >= end {
		return
	}

	cur := b.rowSpan[y]
	if !cur.valid {
		b.rowSpan[y] = rowSpan{start: int32(start), end: int32(end), valid: true}
		return
	}

	gap := b.spans.MergeGap
	if start > int(cur.end)+gap || end < int(cur.start)-gap {
		// Disjoint beyond merge distance: with MaxSpansPerRow == 1 (the
		// only multiplicity this implementation tracks per row) we must
		// fall back to whole-row dirty rather than silently drop one span.
		if b.spans.MaxSpansPerRow <= 1 {
			b.rowSpan[y] = rowSpan{}
			return
		}
	}

	ns, ne := cur.start, cur.end
	if int32(start) < ns {
		ns = int32(start)
	}
	if int32(end) > ne {
		ne = int32(end)
	}
	gb := int32(b.spans.GuardBand)
	ns -= gb
	ne += gb
	if ns < 0 {
		ns = 0
	}
	if ne > int32(b.cols) {
		ne = int32(b.cols)
	}
	b.rowSpan[y] = rowSpan{start: ns, end: ne, valid: true}
}

// DirtySpanRow returns row y's merged dirty span, or ok=false when span
// tracking is disabled or the row fell back to whole-row dirty.
func (b *Buffer) DirtySpanRow(y int) (start, end int, ok bool) {
	if y < 0 || y >= b.rows || !b.spans.Enabled {
		return 0, 0, false
	}
	s := b.rowSpan[y]
	if !s.valid {
		return 0, 0, false
	}
	return int(s.start), int(s.end), true
}

// RowDirty reports whether row y has changed since the last ClearDirtyFlags.
func (b *Buffer) RowDirty(y int) bool {
	if b.allDirty {
		return true
	}
	if y < 0 || y >= b.rows {
		return false
	}
	return b.rowDirty[y]
}

// TileDirty reports whether the tile containing (x,y) has changed since the
// last ClearDirtyFlags.
func (b *Buffer) TileDirty(x, y int) bool {
	if b.allDirty {
		return true
	}
	if !b.InBounds(x, y) {
		return false
	}
	return b.tileDirty[b.tileIndex(x, y)]
}

// ClearDirtyFlags resets all dirty tracking without touching cell content,
// for a caller that has already consumed what changed (the DiffEngine) and
// just needs a fresh tracking epoch over content it knows is still valid.
func (b *Buffer) ClearDirtyFlags() {
	b.allDirty = false
	for i := range b.rowDirty {
		b.rowDirty[i] = false
		b.rowSpan[i] = rowSpan{}
	}
	for i := range b.tileDirty {
		b.tileDirty[i] = false
	}
}

// ClearDirty blanks the content of every row currently tracked dirty (or,
// if allDirty, every row), then marks those rows dirty again since their
// content just changed. BufferPool.Swap relies on this: a recycled buffer
// must come back with blank content, not merely "tracked as clean" while
// still holding stale cells from two frames ago — a diff strategy that
// trusts RowDirty would otherwise skip rows whose content silently reverted
// to blank, violating diff soundness.
func (b *Buffer) ClearDirty() {
	blank := BlankCell()
	for y := 0; y < b.rows; y++ {
		if !b.allDirty && !b.rowDirty[y] {
			continue
		}
		rowStart := b.index(0, y)
		for x := 0; x < b.cols; x++ {
			b.cells[rowStart+x] = blank
		}
		b.rowDirty[y] = true
		b.rowSpan[y] = rowSpan{start: 0, end: int32(b.cols), valid: b.cols > 0}
	}
	if b.allDirty {
		for i := range b.tileDirty {
			b.tileDirty[i] = true
		}
	} else {
		for y := 0; y < b.rows; y++ {
			if b.rowDirty[y] {
				for x := 0; x < b.cols; x += tileWidth {
					b.tileDirty[b.tileIndex(x, y)] = true
				}
			}
		}
	}
	b.allDirty = false
}

// MarkAllDirty forces every row and tile dirty, e.g. after an external
// mutation the caller doesn't want to track cell-by-cell.
func (b *Buffer) MarkAllDirty() { b.allDirty = true }

// Resize grows or shrinks the buffer in place, retaining the overlapping
// region and blanking newly exposed cells. Dirty tracking resets to fully
// dirty, matching the diff engine's documented fallback on resize.
func (b *Buffer) Resize(cols, rows int) {
	if cols == b.cols && rows == b.rows {
		return
	}
	old := b.cells
	oldCols, oldRows := b.cols, b.rows
	b.reset(cols, rows)

	minCols, minRows := min(oldCols, cols), min(oldRows, rows)
	for y := 0; y < minRows; y++ {
		srcBase := y * oldCols
		dstBase := y * cols
		copy(b.cells[dstBase:dstBase+minCols], old[srcBase:srcBase+minCols])
	}
}

// Blit copies a w x h region from src at (srcX,srcY) to this buffer at
// (dstX,dstY), clipping to both buffers' bounds.
func (b *Buffer) Blit(src *Buffer, srcX, srcY, dstX, dstY, w, h int) {
	if srcX < 0 {
		w += srcX
		dstX -= srcX
		srcX = 0
	}
	if srcY < 0 {
		h += srcY
		dstY -= srcY
		srcY = 0
	}
	if srcX+w > src.cols {
		w = src.cols - srcX
	}
	if srcY+h > src.rows {
		h = src.rows - srcY
	}
	if dstX < 0 {
		w += dstX
		srcX -= dstX
		dstX = 0
	}
	if dstY < 0 {
		h += dstY
		srcY -= dstY
		dstY = 0
	}
	if dstX+w > b.cols {
		w = b.cols - dstX
	}
	if dstY+h > b.rows {
		h = b.rows - dstY
	}
	if w <= 0 || h <= 0 {
		return
	}
	for y := 0; y < h; y++ {
		srcBase := (srcY + y) * src.cols
		dstBase := (dstY + y) * b.cols
		copy(b.cells[dstBase+dstX:dstBase+dstX+w], src.cells[srcBase+srcX:srcBase+srcX+w])
		b.rowDirty[dstY+y] = true
		b.rowSpan[dstY+y] = rowSpan{}
		for tx := dstX / tileWidth; tx <= (dstX+w-1)/tileWidth; tx++ {
			b.tileDirty[((dstY+y)/tileHeight)*b.tilesX+tx] = true
		}
	}
}
