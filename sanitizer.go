package forme

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// maxSanitizerEscapeLen bounds how many bytes an ESC-introduced sequence
// (CSI/OSC/DCS) may accumulate before the sanitizer gives up on it and
// resets to plain-text scanning, mirroring the input parser's bounded
// buffers (input/parser.go) so untrusted text can never force unbounded
// memory growth here either.
const maxSanitizerEscapeLen = 4096

// Sanitize takes a byte slice claimed to be UTF-8 (a log line, a paste
// buffer, subprocess output) and returns a string safe to draw: all C0
// controls except TAB/LF/CR are dropped, ESC-introduced sequences (CSI,
// OSC, DCS, SS2/SS3, both 7-bit and 8-bit forms) are consumed and
// discarded, invalid UTF-8 becomes U+FFFD, and combining marks/variation
// selectors/ZWJ pass through attached to their base cluster so the result
// segments into the same grapheme clusters a well-formed string would.
func Sanitize(input []byte) string {
	out := make([]byte, 0, len(input))
	i := 0
	n := len(input)

	for i < n {
		b := input[i]

		switch {
		case b == 0x1b: // ESC
			consumed := sanitizeEscape(input[i:])
			i += consumed
			continue

		case b < 0x20:
			if b == '\t' || b == '\n' || b == '\r' {
				out = append(out, b)
			}
			i++
			continue

		case b == 0x7f: // DEL
			i++
			continue

		case b < 0x80:
			out = append(out, b)
			i++
			continue

		default:
			r, size := utf8.DecodeRune(input[i:])
			if r == utf8.RuneError && size <= 1 {
				out = append(out, string(utf8.RuneError)...)
				i++
				continue
			}
			if r >= 0x80 && r <= 0x9f {
				// 8-bit C1 form: consume it like its 7-bit ESC equivalent.
				rest := input[i+size:]
				if len(rest) > maxSanitizerEscapeLen {
					rest = rest[:maxSanitizerEscapeLen]
				}
				seq := append([]byte{0x1b, byte(r - 0x40)}, rest...)
				i += size + sanitizeEscape(seq) - 2
				continue
			}
			out = append(out, input[i:i+size]...)
			i += size
		}
	}

	return sanitizeReassembleClusters(string(out))
}

// sanitizeEscape consumes one ESC-introduced sequence starting at s[0]=ESC
// and returns how many bytes to skip. Unrecognized or unterminated
// sequences are bounded by maxSanitizerEscapeLen and then dropped whole.
func sanitizeEscape(s []byte) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case '[': // CSI: ESC [ params... final(0x40-0x7E)
		for i := 2; i < len(s) && i < maxSanitizerEscapeLen; i++ {
			if s[i] >= 0x40 && s[i] <= 0x7e {
				return i + 1
			}
		}
		return min(len(s), maxSanitizerEscapeLen)

	case ']', 'P', 'X', '^', '_': // OSC, DCS, SOS, PM, APC: terminated by ST or BEL
		for i := 2; i < len(s) && i < maxSanitizerEscapeLen; i++ {
			if s[i] == 0x07 {
				return i + 1
			}
			if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
		return min(len(s), maxSanitizerEscapeLen)

	case 'N', 'O': // SS2, SS3: one following byte
		return min(3, len(s))

	default:
		// Other two-byte ESC sequences (e.g. ESC c, ESC =): consume ESC + one byte.
		return 2
	}
}

// sanitizeReassembleClusters walks s with uniseg to confirm every combining
// mark, variation selector, and ZWJ attaches to its preceding base
// character; since nothing upstream has stripped bytes out of a valid
// cluster, this is a structural pass-through, not a rewrite — it exists so
// callers can rely on Sanitize's output being pre-segmented into complete
// clusters (NextGraphemeCluster over it never splits mid-cluster).
func sanitizeReassembleClusters(s string) string {
	if s == "" {
		return s
	}
	state := -1
	var clusters []string
	rest := s
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		clusters = append(clusters, cluster)
	}
	out := make([]byte, 0, len(s))
	for _, c := range clusters {
		out = append(out, c...)
	}
	return string(out)
}
