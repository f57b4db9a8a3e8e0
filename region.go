package forme

// Region is a rectangular view into a Buffer; coordinates passed to its
// methods are region-relative and translated to the parent buffer.
type Region struct {
	buf        *Buffer
	x, y       int
	w, h       int
}

// Region creates a view into a w x h rectangle of b starting at (x,y).
func (b *Buffer) Region(x, y, w, h int) *Region {
	return &Region{buf: b, x: x, y: y, w: w, h: h}
}

// Cols and Rows report the region's dimensions.
func (r *Region) Cols() int { return r.w }
func (r *Region) Rows() int { return r.h }

// InBounds reports whether (x,y) is within the region.
func (r *Region) InBounds(x, y int) bool {
	return x >= 0 && x < r.w && y >= 0 && y < r.h
}

// Get returns the cell at region-relative (x,y).
func (r *Region) Get(x, y int) Cell {
	if !r.InBounds(x, y) {
		return BlankCell()
	}
	return r.buf.Get(r.x+x, r.y+y)
}

// Set writes the cell at region-relative (x,y).
func (r *Region) Set(x, y int, c Cell) {
	if !r.InBounds(x, y) {
		return
	}
	r.buf.Set(r.x+x, r.y+y, c)
}

// SetWide writes a wide pair at region-relative (x,y).
func (r *Region) SetWide(x, y int, graphemeID uint32, attrs Attribute, fg, bg PackedColor, linkID uint16) {
	if !r.InBounds(x, y) {
		return
	}
	r.buf.SetWide(r.x+x, r.y+y, graphemeID, attrs, fg, bg, linkID)
}

// Clear blanks the entire region.
func (r *Region) Clear() {
	r.buf.ClearRegion(r.x, r.y, r.w, r.h)
}

// Sub returns a nested region clipped to this region's bounds.
func (r *Region) Sub(x, y, w, h int) *Region {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > r.w {
		w = r.w - x
	}
	if y+h > r.h {
		h = r.h - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Region{buf: r.buf, x: r.x + x, y: r.y + y, w: w, h: h}
}

// AbsOrigin returns the region's top-left corner in parent-buffer
// coordinates.
func (r *Region) AbsOrigin() (x, y int) { return r.x, r.y }
