// Package counter counts Devanagari words in plain text.
//
// A "word" is a maximal contiguous run of one or more code points in the
// Devanagari Unicode block (U+0900 through U+097F). Runs are matched
// greedily, left to right, without overlap. Text is scanned as-is: no
// Unicode normalization is applied, so precomposed and decomposed
// renderings of visually identical words may count differently.
package counter

const (
	blockLo = 0x0900
	blockHi = 0x097F
)

// InBlock reports whether r falls inside the Devanagari block.
func InBlock(r rune) bool {
	return r >= blockLo && r <= blockHi
}

// Count returns the number of maximal Devanagari runs in text.
func Count(text string) int {
	n := 0
	inRun := false
	for _, r := range text {
		if !InBlock(r) {
			inRun = false
			continue
		}
		if !inRun {
			n++
			inRun = true
		}
	}
	return n
}

// Runs returns the matched runs in order of appearance. The result slice
// is nil when text contains no Devanagari characters.
func Runs(text string) []string {
	var runs []string
	start := -1
	for i, r := range text {
		if InBlock(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, text[start:])
	}
	return runs
}
