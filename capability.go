package forme

import (
	"os"

	"github.com/xo/terminfo"
)

// Capability is the terminal feature record the Presenter and
// TerminalWriter consume. Runtime probing (DA1/DA2/XTGETTCAP) is out of
// scope; a host either supplies a Capability it already knows, or asks
// LoadFromTerminfo for a first guess from $TERM.
type Capability struct {
	Hyperlinks         bool
	SynchronizedOutput bool
	KittyKeyboard      bool
	RGB                bool
	BracketedPaste     bool
	FocusEvents        bool
	Mouse              bool
}

// DefaultCapability is a conservative guess safe for an unknown terminal.
func DefaultCapability() Capability {
	return Capability{BracketedPaste: true, Mouse: true}
}

// LoadFromTerminfo populates a Capability guess from the terminfo database
// entry named by $TERM. Capabilities the terminfo database has no terms
// for (hyperlinks, synchronized output, kitty keyboard, truecolor) are
// inferred from well-known environment conventions ($COLORTERM,
// $TERM_PROGRAM, $KITTY_WINDOW_ID) the same way the rest of the terminal
// tooling ecosystem does, since terminfo predates them.
func LoadFromTerminfo() (Capability, error) {
	c := DefaultCapability()

	// terminfo.Load validates that $TERM names a known database entry; a
	// failure here just means we keep the conservative default guess
	// rather than claim capabilities terminfo can't confirm.
	if _, err := terminfo.Load(os.Getenv("TERM")); err != nil {
		return c, newError(KindRecoverable, "capability", err)
	}

	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		c.RGB = true
	}
	if _, ok := os.LookupEnv("KITTY_WINDOW_ID"); ok {
		c.KittyKeyboard = true
		c.Hyperlinks = true
		c.SynchronizedOutput = true
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "vscode":
		c.Hyperlinks = true
	}

	return c, nil
}
