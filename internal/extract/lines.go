package extract

import "strings"

// SplitLines turns raw invoice text into the ordered list of non-empty,
// trimmed lines. This list is the sole input of every downstream stage;
// nothing re-reads the raw text.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// runeLen counts characters, not bytes. Length gates in the heuristics are
// character counts so accented text behaves the same as plain ASCII.
func runeLen(s string) int {
	return len([]rune(s))
}

// truncateRunes caps s at max characters.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
