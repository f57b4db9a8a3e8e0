package forme

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"
)

// PresenterState is the previously-emitted cursor position and style,
// tracked so the presenter only emits the SGR/move deltas a frame actually
// needs instead of a full reset every time.
type PresenterState struct {
	cursorX, cursorY int
	haveCursor       bool
	style            Style
	haveStyle        bool
	openLink         string
}

// Presenter turns a list of UpdateRuns into the minimal, deterministic byte
// stream that updates the terminal from one frame to the next: it tracks
// cursor position and the last-emitted style so it only pays for the parts
// that changed, downgrades colors for the active color profile, and
// balances OSC 8 hyperlink open/close across the whole frame.
type Presenter struct {
	profile colorprofile.Profile
	state   PresenterState
	pool    *GraphemePool
	links   *linkRegistry
}

// NewPresenter constructs a presenter targeting profile (the terminal's
// negotiated color capability) and reading grapheme text through pool.
func NewPresenter(profile colorprofile.Profile, pool *GraphemePool) *Presenter {
	return &Presenter{profile: profile, pool: pool}
}

// SetColorProfile updates the color downgrade target, e.g. after capability
// detection changes mid-session.
func (p *Presenter) SetColorProfile(profile colorprofile.Profile) { p.profile = profile }

// downgrade converts a straight-alpha PackedColor against an opaque
// terminal background into the active color profile's representation,
// composited over black first since the profile's Convert operates on
// opaque colors.
func (p *Presenter) downgrade(c PackedColor) color.Color {
	if c.IsDefault() {
		return nil
	}
	opaque := c.Over(PackedColor{A: 255}) // composite over black
	return p.profile.Convert(color.RGBA{R: opaque.R, G: opaque.G, B: opaque.B, A: 255})
}

// sgrFor builds the complete SGR escape (CSI ... 'm') representing the
// attrs/fg/bg of style, or "" when style sets none of them.
func (p *Presenter) sgrFor(style Style) string {
	var codes []string

	if style.Attrs.Has(AttrBold) {
		codes = append(codes, "1")
	}
	if style.Attrs.Has(AttrDim) {
		codes = append(codes, "2")
	}
	if style.Attrs.Has(AttrItalic) {
		codes = append(codes, "3")
	}
	if style.Attrs.Has(AttrUnderline) {
		codes = append(codes, "4")
	}
	if style.Attrs.Has(AttrUnderlineDouble) {
		codes = append(codes, "4:2")
	}
	if style.Attrs.Has(AttrUnderlineCurly) {
		codes = append(codes, "4:3")
	}
	if style.Attrs.Has(AttrBlink) {
		codes = append(codes, "5")
	}
	if style.Attrs.Has(AttrReverse) {
		codes = append(codes, "7")
	}
	if style.Attrs.Has(AttrConceal) {
		codes = append(codes, "8")
	}
	if style.Attrs.Has(AttrStrikethrough) {
		codes = append(codes, "9")
	}
	if style.Attrs.Has(AttrOverline) {
		codes = append(codes, "53")
	}

	if fg := p.downgrade(style.FG); fg != nil {
		codes = append(codes, sgrColorCode(fg, true))
	}
	if bg := p.downgrade(style.BG); bg != nil {
		codes = append(codes, sgrColorCode(bg, false))
	}

	if len(codes) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// sgrColorCode renders a downgraded color.Color (always one of
// color.RGBA/ansi's basic/indexed representations after Convert) as an SGR
// fragment. Convert never returns a type outside image/color's RGBA; the
// profile has already folded it down to whatever the target supports, so
// here we always emit true-color SGR — a TrueColor-capable profile leaves
// channels untouched, a degraded profile has already snapped them to the
// nearest representable value.
func sgrColorCode(c color.Color, fg bool) string {
	r, g, b, _ := c.RGBA()
	base := "38"
	if !fg {
		base = "48"
	}
	return fmt.Sprintf("%s;2;%d;%d;%d", base, r>>8, g>>8, b>>8)
}

// moveCursor emits the cheapest escape sequence that moves the cursor from
// the presenter's last known position to (x,y), choosing between an
// absolute CursorPosition, relative CursorUp/Down/Forward/Backward, HPA
// alone when only the column changes, VPA alone when only the row changes,
// or a carriage return plus line feeds when the target is column 0 of a
// lower row, whichever serializes shortest.
func (p *Presenter) moveCursor(x, y int) string {
	if p.state.haveCursor && p.state.cursorX == x && p.state.cursorY == y {
		return ""
	}

	absolute := ansi.CursorPosition(x+1, y+1)
	best := absolute

	if p.state.haveCursor {
		dx := x - p.state.cursorX
		dy := y - p.state.cursorY

		var relBuilder strings.Builder
		if dy > 0 {
			relBuilder.WriteString(ansi.CursorDown(dy))
		} else if dy < 0 {
			relBuilder.WriteString(ansi.CursorUp(-dy))
		}
		if dx > 0 {
			relBuilder.WriteString(ansi.CursorForward(dx))
		} else if dx < 0 {
			relBuilder.WriteString(ansi.CursorBackward(-dx))
		}
		if rel := relBuilder.String(); rel != "" && len(rel) < len(best) {
			best = rel
		}

		if dy == 0 && dx != 0 {
			if hpa := ansi.HorizontalPositionAbsolute(x + 1); len(hpa) < len(best) {
				best = hpa
			}
		}
		if dx == 0 && dy != 0 {
			if vpa := ansi.VerticalPositionAbsolute(y + 1); len(vpa) < len(best) {
				best = vpa
			}
		}
		if x == 0 && dy > 0 {
			if crlf := "\r" + strings.Repeat("\n", dy); len(crlf) < len(best) {
				best = crlf
			}
		}
	}

	p.state.cursorX, p.state.cursorY = x, y
	p.state.haveCursor = true
	return best
}

// Present renders runs (already produced by a DiffEngine) into the wire
// bytes to write to the terminal this frame. cursor is the frame's final
// cursor position and visibility.
func (p *Presenter) Present(runs []UpdateRun, cursor Cursor, links *linkRegistry) string {
	p.links = links
	var out strings.Builder

	for _, run := range runs {
		out.WriteString(p.moveCursor(run.StartCol, run.Row))
		col := run.StartCol
		for i := 0; i < len(run.Cells); i++ {
			c := run.Cells[i]
			if c.Width == WidthContinuation {
				continue // already emitted as part of its Wide partner
			}

			style := Style{FG: c.FG, BG: c.BG, Attrs: c.Attrs.Without(AttrLinkPresent)}
			if !p.state.haveStyle || !style.Equal(p.state.style) {
				prev := p.state.style
				sgr := p.sgrFor(style)
				// SGR codes here only switch things on, so reset first when
				// the previous style has an attribute or color the new one lacks.
				if p.state.haveStyle && sgr != "" && (prev.Attrs&^style.Attrs != 0 ||
					(!prev.FG.IsDefault() && style.FG.IsDefault()) ||
					(!prev.BG.IsDefault() && style.BG.IsDefault())) {
					out.WriteString(ansi.ResetStyle)
				}
				if sgr != "" {
					out.WriteString(sgr)
				} else if p.state.haveStyle && !prev.Equal(DefaultStyle()) {
					out.WriteString(ansi.ResetStyle)
				}
				p.state.style = style
				p.state.haveStyle = true
			}

			url := ""
			if c.Attrs.Has(AttrLinkPresent) && links != nil {
				url = links.lookup(c.LinkID)
			}
			if url != p.state.openLink {
				if url == "" {
					out.WriteString(ansi.ResetHyperlink())
				} else {
					out.WriteString(ansi.SetHyperlink(url, ""))
				}
				p.state.openLink = url
			}

			text, _, ok := p.pool.Lookup(c.GraphemeID)
			if !ok || c.GraphemeID == 0 {
				text = " "
			}
			out.WriteString(text)
			if c.Width == WidthWide {
				col += 2
			} else {
				col++
			}
			p.state.cursorX = col
		}
	}

	if p.state.openLink != "" {
		out.WriteString(ansi.ResetHyperlink())
		p.state.openLink = ""
	}

	out.WriteString(p.moveCursor(cursor.X, cursor.Y))
	if cursor.Visible {
		out.WriteString(ansi.ShowCursor)
	} else {
		out.WriteString(ansi.HideCursor)
	}

	return out.String()
}

// FullRedraw renders every cell of buf unconditionally. TerminalWriter uses
// it whenever it has no previously presented buffer of the same size: the
// first frame, after Invalidate, and after a resize.
func (p *Presenter) FullRedraw(buf *Buffer, links *linkRegistry) string {
	var out strings.Builder
	out.WriteString(ansi.CursorHomePosition)
	out.WriteString(ansi.EraseEntireScreen)
	p.state = PresenterState{}

	runs := make([]UpdateRun, 0, buf.Rows())
	for y := 0; y < buf.Rows(); y++ {
		cells := make([]Cell, buf.Cols())
		for x := 0; x < buf.Cols(); x++ {
			cells[x] = buf.Get(x, y)
		}
		runs = append(runs, UpdateRun{Row: y, StartCol: 0, Cells: cells})
	}
	out.WriteString(p.Present(runs, Cursor{}, links))
	return out.String()
}
