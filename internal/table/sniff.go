package table

import (
	"bytes"
)

// SniffSize is how many bytes of input are inspected to guess the dialect
const SniffSize = 1024

// Candidate delimiters, in order of preference on ties
var candidates = []rune{',', ';', '\t', '|'}

// Sniff guesses the field delimiter from a sample of the input. A
// delimiter that appears the same number of times on every complete line
// wins; otherwise the most frequent one does. Quoted text is ignored.
func Sniff(sample []byte) rune {
	lines := sampleLines(sample)
	if len(lines) == 0 {
		return ','
	}

	best, bestScore := ',', -1
	for _, c := range candidates {
		score := scoreDelimiter(lines, c)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore <= 0 {
		return ','
	}
	return best
}

// scoreDelimiter rates how well c splits the sample lines. Consistent
// counts score above any inconsistent one.
func scoreDelimiter(lines [][]byte, c rune) int {
	first := countUnquoted(lines[0], c)
	total := 0
	consistent := first > 0
	for _, line := range lines {
		n := countUnquoted(line, c)
		total += n
		if n != first {
			consistent = false
		}
	}
	if consistent {
		return total + 1<<20
	}
	return total
}

// sampleLines splits the sample into lines, dropping the last one when the
// sample was cut mid-line
func sampleLines(sample []byte) [][]byte {
	truncated := len(sample) >= SniffSize && !bytes.HasSuffix(sample, []byte("\n"))

	var lines [][]byte
	for _, line := range bytes.Split(sample, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	if truncated && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// countUnquoted counts c outside double-quoted sections
func countUnquoted(line []byte, c rune) int {
	n := 0
	quoted := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == c && !quoted:
			n++
		}
	}
	return n
}
