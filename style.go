package forme

// TextTransform alters how a span's text is interpreted before it is
// interned into the grapheme pool.
type TextTransform uint8

const (
	TransformNone TextTransform = iota
	TransformUppercase
	TransformLowercase
)

// Align controls how a bounded DrawTextSpan call pads or clips its text.
type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Style is the drawing style carried alongside text in a Frame call. It is
// richer than a Cell's packed style bits: a Frame turns a Style + text span
// into Cells, scaling the alpha of FG/BG by the current opacity stack
// before they are packed.
type Style struct {
	FG, BG PackedColor
	Attrs  Attribute
	Link   string // non-empty registers an OSC 8 hyperlink for the span
}

// DefaultStyle is the zero style: default colors, no attributes, no link.
func DefaultStyle() Style {
	return Style{}
}

// Equal reports whether two styles are identical.
func (s Style) Equal(o Style) bool {
	return s.FG == o.FG && s.BG == o.BG && s.Attrs == o.Attrs && s.Link == o.Link
}

// With returns a copy of s with attr added.
func (s Style) With(attr Attribute) Style {
	s.Attrs = s.Attrs.With(attr)
	return s
}

// WithFG returns a copy of s with the foreground color replaced.
func (s Style) WithFG(c PackedColor) Style {
	s.FG = c
	return s
}

// WithBG returns a copy of s with the background color replaced.
func (s Style) WithBG(c PackedColor) Style {
	s.BG = c
	return s
}

// WithLink returns a copy of s carrying a hyperlink target.
func (s Style) WithLink(url string) Style {
	s.Link = url
	return s
}

// Span is a run of text sharing one style, as accepted by Frame.DrawTextSpan
// and the higher-level multi-span writers.
type Span struct {
	Text  string
	Style Style
}

// Cursor is a component- or frame-local cursor position and visual state.
type Cursor struct {
	X, Y    int
	Visible bool
	Style   CursorShape
}
