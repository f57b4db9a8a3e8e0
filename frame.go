package forme

// Rect is an axis-aligned rectangle in buffer coordinates.
type Rect struct {
	X, Y, W, H int
}

// Intersect returns the overlap of r and o; the result has W or H == 0 if
// they don't overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Contains reports whether (x,y) falls within r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// linkRegistry is a frame-local link_id -> URL map with stable monotonic
// ids, reset at the start of every frame.
type linkRegistry struct {
	urls []string // index 0 unused (0 = no link)
}

func newLinkRegistry() *linkRegistry {
	return &linkRegistry{urls: make([]string, 1, 16)}
}

func (l *linkRegistry) register(url string) uint16 {
	if url == "" {
		return 0
	}
	id := uint16(len(l.urls))
	l.urls = append(l.urls, url)
	return id
}

func (l *linkRegistry) lookup(id uint16) string {
	if int(id) >= len(l.urls) {
		return ""
	}
	return l.urls[id]
}

// Frame is a transient handle over a Buffer used by the rendering side of a
// present cycle: a scissor stack, an opacity stack, a cursor, and the
// currently open hyperlink. Every write funnels through Buffer mutators so
// dirty tracking stays consistent — there is deliberately no way to reach
// the Buffer's cells without going through Frame.
type Frame struct {
	buf    *Buffer
	pool   *GraphemePool
	links  *linkRegistry

	scissor []Rect
	opacity []float64

	cursor       Cursor
	openLinkURL  string
	openLinkID   uint16
}

// NewFrame constructs a Frame over buf for one present cycle. pool is the
// GraphemePool used to intern any text drawn through DrawTextSpan.
func NewFrame(buf *Buffer, pool *GraphemePool) *Frame {
	f := &Frame{buf: buf, pool: pool, links: newLinkRegistry()}
	f.scissor = append(f.scissor, Rect{X: 0, Y: 0, W: buf.Cols(), H: buf.Rows()})
	f.opacity = append(f.opacity, 1.0)
	return f
}

// Bounds, Width, Height report the frame's full extent.
func (f *Frame) Bounds() Rect  { return Rect{X: 0, Y: 0, W: f.buf.Cols(), H: f.buf.Rows()} }
func (f *Frame) Width() int    { return f.buf.Cols() }
func (f *Frame) Height() int   { return f.buf.Rows() }

// effectiveScissor is the intersection of the whole scissor stack.
func (f *Frame) effectiveScissor() Rect {
	r := f.scissor[0]
	for _, s := range f.scissor[1:] {
		r = r.Intersect(s)
	}
	return r
}

// PushScissor intersects a new clip rectangle onto the stack.
func (f *Frame) PushScissor(r Rect) { f.scissor = append(f.scissor, r) }

// PopScissor removes the most recently pushed scissor rectangle. Popping
// the base rectangle is a no-op: the frame's own bounds can never be
// clipped away.
func (f *Frame) PopScissor() {
	if len(f.scissor) > 1 {
		f.scissor = f.scissor[:len(f.scissor)-1]
	}
}

// effectiveOpacity is the product of the whole opacity stack, clamped to
// [0,1].
func (f *Frame) effectiveOpacity() float64 {
	p := 1.0
	for _, o := range f.opacity {
		p *= o
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// PushOpacity multiplies the effective opacity by factor, clamped to [0,1].
func (f *Frame) PushOpacity(factor float64) {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	f.opacity = append(f.opacity, factor)
}

// PopOpacity removes the most recently pushed opacity factor.
func (f *Frame) PopOpacity() {
	if len(f.opacity) > 1 {
		f.opacity = f.opacity[:len(f.opacity)-1]
	}
}

// SetCursor positions the cursor in buffer coordinates.
func (f *Frame) SetCursor(x, y int) { f.cursor.X, f.cursor.Y = x, y }

// SetCursorVisible toggles cursor visibility.
func (f *Frame) SetCursorVisible(v bool) { f.cursor.Visible = v }

// SetCursorShape sets the cursor's visual style.
func (f *Frame) SetCursorShape(s CursorShape) { f.cursor.Style = s }

// Cursor returns the frame's current cursor state.
func (f *Frame) Cursor() Cursor { return f.cursor }

// OpenLink marks every subsequent DrawTextSpan call as part of url, until
// CloseLink. A nil/empty url closes any currently open link.
func (f *Frame) OpenLink(url string) {
	if url == "" {
		f.CloseLink()
		return
	}
	f.openLinkURL = url
	f.openLinkID = f.links.register(url)
}

// CloseLink retires the currently open link, if any.
func (f *Frame) CloseLink() {
	f.openLinkURL = ""
	f.openLinkID = 0
}

// InternWithWidth interns text into the frame's grapheme pool, returning a
// stable id and its display width. Widgets that draw the same glyph every
// frame should cache the result instead of re-interning.
func (f *Frame) InternWithWidth(text string) (id uint32, width uint8) {
	return f.pool.Intern(text)
}

// applyOpacity scales a color's alpha by the frame's effective opacity. It
// does not composite against the cell being replaced; the only compositing
// is the presenter's PackedColor.Over against black when it downgrades a
// color for output.
func applyOpacity(c PackedColor, opacity float64) PackedColor {
	if opacity >= 1 || c.A == 0 {
		return c
	}
	c.A = uint8(float64(c.A) * opacity)
	return c
}

// DrawTextSpan iterates the grapheme clusters of text, interning each one,
// computing width via the pool, clipping to the effective scissor, and
// writing Narrow/Wide cells (respecting the continuation invariant) into
// the buffer. Colors are composited against the frame's effective opacity
// before being packed into cells. Returns the number of columns advanced.
func (f *Frame) DrawTextSpan(x, y int, text string, style Style) int {
	clip := f.effectiveScissor()
	opacity := f.effectiveOpacity()
	fg := applyOpacity(style.FG, opacity)
	bg := applyOpacity(style.BG, opacity)

	linkID := f.openLinkID
	if style.Link != "" {
		linkID = f.links.register(style.Link)
	}
	attrs := style.Attrs
	if linkID != 0 {
		attrs = attrs.With(AttrLinkPresent)
	}

	col := x
	state := -1
	rest := text
	advanced := 0
	for rest != "" {
		var cluster string
		var width int
		cluster, rest, width, state = NextGraphemeCluster(rest, state)
		if width <= 0 {
			width = 1
		}
		if col >= clip.X+clip.W {
			break
		}
		if col+width <= clip.X || col < 0 {
			col += width
			advanced += width
			continue
		}
		id, w := f.pool.Intern(cluster)
		if int(w) != width {
			width = int(w)
		}
		if y >= clip.Y && y < clip.Y+clip.H {
			if width == 2 {
				if col >= clip.X && col+1 < clip.X+clip.W {
					f.buf.SetWide(col, y, id, attrs, fg, bg, linkID)
				} else if col >= clip.X && col < clip.X+clip.W {
					f.buf.Set(col, y, BlankCell())
				}
			} else {
				if col >= clip.X {
					f.buf.Set(col, y, Cell{GraphemeID: id, Width: WidthNarrow, Attrs: attrs, FG: fg, BG: bg, LinkID: linkID})
				}
			}
		}
		col += width
		advanced += width
	}
	return advanced
}
