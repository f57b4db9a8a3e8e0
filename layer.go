package forme

// ScrollBuffer is a pre-rendered Buffer with scroll management: content is
// drawn into it once (via a Frame, same as any other Buffer) and then
// blitted into the current frame's Buffer every present cycle, so an
// expensive re-layout (e.g. of a long scrollback) only happens when the
// content or viewport actually changes rather than once per frame.
type ScrollBuffer struct {
	buffer    *Buffer
	scrollY   int
	maxScroll int

	viewWidth  int
	viewHeight int

	lastRenderWidth int

	cursor Cursor

	// screenX/screenY are the destination's top-left when this buffer was
	// last blitted, kept so ScreenCursor can translate buffer-relative
	// cursor coordinates into destination coordinates.
	screenX, screenY int

	// Render populates the buffer (via Frame draws). Called automatically
	// by Prepare when the viewport width changes, since text wrapping
	// depends on width; a caller that also depends on height should set
	// AlwaysRender.
	Render func(buf *Buffer)

	// AlwaysRender forces Render on every Prepare call instead of only on
	// width changes, for content that tracks external mutable state.
	AlwaysRender bool
}

// NewScrollBuffer creates an empty scroll buffer.
func NewScrollBuffer() *ScrollBuffer {
	return &ScrollBuffer{}
}

// SetBuffer installs buf directly as the scroll buffer's content, for a
// caller managing the buffer itself rather than going through Render.
func (l *ScrollBuffer) SetBuffer(buf *Buffer) {
	l.buffer = buf
	l.scrollY = 0
	l.updateMaxScroll()
}

// Buffer returns the underlying buffer for direct drawing (e.g. via
// NewFrame(sb.Buffer(), pool)).
func (l *ScrollBuffer) Buffer() *Buffer { return l.buffer }

func (l *ScrollBuffer) updateMaxScroll() {
	if l.buffer == nil || l.viewHeight <= 0 {
		l.maxScroll = 0
		return
	}
	l.maxScroll = l.buffer.Rows() - l.viewHeight
	if l.maxScroll < 0 {
		l.maxScroll = 0
	}
	if l.scrollY > l.maxScroll {
		l.scrollY = l.maxScroll
	}
}

// SetViewport sets the visible viewport dimensions.
func (l *ScrollBuffer) SetViewport(width, height int) {
	l.viewWidth = width
	l.viewHeight = height
	l.updateMaxScroll()
}

// NeedsRender reports whether Prepare would call Render right now.
func (l *ScrollBuffer) NeedsRender() bool {
	if l.Render == nil {
		return false
	}
	return l.AlwaysRender || l.lastRenderWidth == 0 || l.lastRenderWidth != l.viewWidth
}

// Prepare calls Render (if set and needed) before a blit, ensuring the
// buffer exists and matches the current viewport width.
func (l *ScrollBuffer) Prepare() {
	if l.buffer == nil {
		l.buffer = NewBuffer(max(l.viewWidth, 1), max(l.viewHeight, 1))
	}
	if !l.NeedsRender() {
		return
	}
	l.lastRenderWidth = l.viewWidth
	l.Render(l.buffer)
	l.updateMaxScroll()
}

func (l *ScrollBuffer) ScrollY() int    { return l.scrollY }
func (l *ScrollBuffer) MaxScroll() int  { return l.maxScroll }
func (l *ScrollBuffer) ViewportHeight() int { return l.viewHeight }
func (l *ScrollBuffer) ViewportWidth() int  { return l.viewWidth }

// ContentHeight reports the total rendered content height.
func (l *ScrollBuffer) ContentHeight() int {
	if l.buffer == nil {
		return 0
	}
	return l.buffer.Rows()
}

// ScrollTo sets the scroll position, clamped to [0, MaxScroll].
func (l *ScrollBuffer) ScrollTo(y int) {
	if y < 0 {
		y = 0
	}
	if y > l.maxScroll {
		y = l.maxScroll
	}
	l.scrollY = y
}

func (l *ScrollBuffer) ScrollDown(n int)     { l.ScrollTo(l.scrollY + n) }
func (l *ScrollBuffer) ScrollUp(n int)       { l.ScrollTo(l.scrollY - n) }
func (l *ScrollBuffer) ScrollToTop()         { l.scrollY = 0 }
func (l *ScrollBuffer) ScrollToEnd()         { l.scrollY = l.maxScroll }
func (l *ScrollBuffer) PageDown()            { l.ScrollDown(l.viewHeight) }
func (l *ScrollBuffer) PageUp()              { l.ScrollUp(l.viewHeight) }
func (l *ScrollBuffer) HalfPageDown()        { l.ScrollDown(l.viewHeight / 2) }
func (l *ScrollBuffer) HalfPageUp()          { l.ScrollUp(l.viewHeight / 2) }

// BlitTo copies the visible scrolled portion of the buffer into dst at
// (dstX, dstY), clamped to (width, height), and remembers dst's origin so
// ScreenCursor can translate coordinates on the next call.
func (l *ScrollBuffer) BlitTo(dst *Buffer, dstX, dstY, width, height int) {
	if l.buffer == nil {
		return
	}
	l.screenX, l.screenY = dstX, dstY
	dst.Blit(l.buffer, 0, l.scrollY, dstX, dstY, width, height)
}

// EnsureSize grows the buffer to at least (width, height), preserving
// existing content, without disturbing scroll position beyond re-clamping.
func (l *ScrollBuffer) EnsureSize(width, height int) {
	if l.buffer == nil {
		l.buffer = NewBuffer(width, height)
		return
	}
	if l.buffer.Cols() >= width && l.buffer.Rows() >= height {
		return
	}
	newWidth := max(l.buffer.Cols(), width)
	newHeight := max(l.buffer.Rows(), height)
	newBuf := NewBuffer(newWidth, newHeight)
	newBuf.Blit(l.buffer, 0, 0, 0, 0, l.buffer.Cols(), l.buffer.Rows())
	l.buffer = newBuf
	l.updateMaxScroll()
}

// Clear empties the content buffer.
func (l *ScrollBuffer) Clear() {
	if l.buffer != nil {
		l.buffer.Clear()
	}
}

// SetCursor sets the cursor position in buffer-relative coordinates.
func (l *ScrollBuffer) SetCursor(x, y int)        { l.cursor.X, l.cursor.Y = x, y }
func (l *ScrollBuffer) SetCursorShape(s CursorShape) { l.cursor.Style = s }
func (l *ScrollBuffer) ShowCursor()                { l.cursor.Visible = true }
func (l *ScrollBuffer) HideCursor()                { l.cursor.Visible = false }
func (l *ScrollBuffer) Cursor() Cursor             { return l.cursor }

// ScreenCursor translates the buffer-relative cursor into the destination
// coordinates from the most recent BlitTo call, returning visible=false if
// the cursor is currently scrolled out of view.
func (l *ScrollBuffer) ScreenCursor() (x, y int, visible bool) {
	if !l.cursor.Visible {
		return 0, 0, false
	}
	viewY := l.cursor.Y - l.scrollY
	if viewY < 0 || viewY >= l.viewHeight {
		return 0, 0, false
	}
	return l.screenX + l.cursor.X, l.screenY + viewY, true
}
