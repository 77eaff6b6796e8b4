// Package sanitize normalizes extracted document text into a safe, compact
// form before it is embedded in completion payloads. Extracted text travels
// inside JSON request bodies; stray control characters corrupt encoding and
// degenerate whitespace inflates token counts.
package sanitize

import "strings"

// allowed reports whether a rune survives sanitization unchanged.
// The allow-list covers tab, LF, CR (normalized later), printable ASCII,
// Latin-1 supplement, Latin Extended-A/B, Latin Extended Additional,
// General Punctuation, Currency Symbols, and Letterlike Symbols.
func allowed(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0x7E:
		return true
	case r >= 0xA0 && r <= 0xFF:
		return true
	case r >= 0x0100 && r <= 0x024F: // Latin Extended-A/B
		return true
	case r >= 0x1E00 && r <= 0x1EFF: // Latin Extended Additional
		return true
	case r >= 0x2000 && r <= 0x206F: // General Punctuation
		return true
	case r >= 0x20A0 && r <= 0x20CF: // Currency Symbols
		return true
	case r >= 0x2100 && r <= 0x214F: // Letterlike Symbols
		return true
	default:
		return false
	}
}

// Sanitize filters text to the documented allow-list and collapses
// whitespace. Disallowed runes become a single space rather than being
// dropped, so word boundaries survive. The result is idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if allowed(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	s := b.String()

	// Order matters: line endings first, then tabs, then space runs,
	// then blank-line runs, then trim.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	s = collapseRuns(s, ' ', 1)
	s = collapseRuns(s, '\n', 2)
	return strings.TrimSpace(s)
}

// collapseRuns reduces consecutive runs of c longer than max to exactly max.
func collapseRuns(s string, c byte, max int) string {
	var b strings.Builder
	b.Grow(len(s))
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			if run <= max {
				b.WriteByte(c)
			}
			continue
		}
		run = 0
		b.WriteByte(s[i])
	}
	return b.String()
}
