package layout

import (
	"strings"
)

// The average glyph width is approximated as 0.6 of the font size. Rendered
// output depends on this exact value; comparisons are done in tenths so that
// line breaks never depend on floating point rounding.
const (
	charWidthFactor = 0.6
	charWidthTenths = 6
)

// EstimateTextWidth estimates the pixel width of text at fontSize
func EstimateTextWidth(text string, fontSize int) float64 {
	return float64(len([]rune(text))) * float64(fontSize) * charWidthFactor
}

// fits reports whether a line of n characters stays within usableWidth
func fits(n, usableWidth, fontSize int) bool {
	return n*fontSize*charWidthTenths <= usableWidth*10
}

// Wrap breaks text into lines using the fixed-width heuristic: a break is
// inserted whenever the running line length times fontSize*0.6 would exceed
// usableWidth. Words longer than a line are split. Empty text yields no lines.
func Wrap(text string, usableWidth, fontSize int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current []rune
	for _, word := range words {
		w := []rune(word)
		if len(current) > 0 {
			if fits(len(current)+1+len(w), usableWidth, fontSize) {
				current = append(current, ' ')
				current = append(current, w...)
				continue
			}
			lines = append(lines, string(current))
			current = current[:0]
		}

		// Split words that cannot fit on a line of their own
		for !fits(len(w), usableWidth, fontSize) && len(w) > 1 {
			n := maxChars(usableWidth, fontSize)
			lines = append(lines, string(w[:n]))
			w = w[n:]
		}
		current = append(current, w...)
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

// maxChars is the number of characters that fit in usableWidth, never less
// than one so wrapping always makes progress
func maxChars(usableWidth, fontSize int) int {
	if fontSize < 1 {
		fontSize = 1
	}
	n := usableWidth * 10 / (fontSize * charWidthTenths)
	if n < 1 {
		return 1
	}
	return n
}
