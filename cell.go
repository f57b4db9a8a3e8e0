// Package forme is a deterministic, high-performance terminal UI kernel: it
// owns the terminal device, reads input events, composes a cell grid from
// application widgets, and emits a minimal stream of ANSI escapes to update
// the visible screen.
package forme

// Attribute is a bitset of text styling attributes. Unlike the 8-bit set a
// single-width terminal cell historically carried, the kernel tracks the
// fuller SGR surface (curly/double underline, overline) so the presenter can
// encode deltas precisely instead of always falling back to a full reset.
type Attribute uint16

const (
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrUnderlineDouble
	AttrUnderlineCurly
	AttrBlink
	AttrReverse
	AttrStrikethrough
	AttrOverline
	AttrConceal
	// AttrLinkPresent is set internally whenever a cell's LinkID is non-zero;
	// it lets the diff engine and presenter test "has a link" with a single
	// bit test instead of comparing LinkID != 0 everywhere.
	AttrLinkPresent
)

// Has reports whether the attribute set contains attr.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// With returns a new set with attr added.
func (a Attribute) With(attr Attribute) Attribute { return a | attr }

// Without returns a new set with attr removed.
func (a Attribute) Without(attr Attribute) Attribute { return a &^ attr }

// WidthClass is the 2-bit display-width classification of a cell.
type WidthClass uint8

const (
	WidthEmpty WidthClass = iota
	WidthNarrow
	WidthWide
	WidthContinuation
)

// Cell is a single grid position, comparable with `==`.
//
// Layout:
//
//	graphemeID uint32 (24 bits used, top byte reserved/zero)
//	width      WidthClass
//	attrs      Attribute
//	fg, bg     PackedColor (4 bytes each)
//	linkID     uint16
//
// The fields add up to 4+1+2+4+4+2 = 17 bytes. Go's alignment inserts one
// padding byte after width and two after linkID, so a Cell occupies 20
// bytes; it is not packed to 16. Struct comparison (`==`) is defined over
// the fields only, so the padding never affects equality.
type Cell struct {
	GraphemeID uint32
	Width      WidthClass
	Attrs      Attribute
	FG, BG     PackedColor
	LinkID     uint16
}

// reservedGraphemeEmpty is grapheme id 0: an empty/blank cell.
const reservedGraphemeEmpty uint32 = 0

// reservedGraphemeASCIITag is grapheme id 1, reserved per spec as the
// single-codepoint fast-path tag. This port implements the fast path by
// pre-interning printable ASCII (0x20..0x7E) as ids 2..96 at pool
// construction (see grapheme.go) rather than packing a value into id 1
// itself — ids 0 and 1 stay reserved and are never reassigned or swept.
const reservedGraphemeASCIITag uint32 = 1

// BlankCell is the canonical empty cell: narrow, default colors, no
// attributes. NewBuffer and Clear fill with this value.
func BlankCell() Cell {
	return Cell{
		GraphemeID: reservedGraphemeEmpty,
		Width:      WidthNarrow,
		FG:         DefaultPackedColor(),
		BG:         DefaultPackedColor(),
	}
}

// Equal reports field-by-field equality (`==`); padding bytes are not
// compared.
func (c Cell) Equal(o Cell) bool { return c == o }

// IsContinuation reports whether c is the right half of a wide pair.
func (c Cell) IsContinuation() bool { return c.Width == WidthContinuation }

// IsWide reports whether c is the left half of a wide pair.
func (c Cell) IsWide() bool { return c.Width == WidthWide }
