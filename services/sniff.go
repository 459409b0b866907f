package services

import "strings"

// delimiterCandidates are the separators SniffDelimiter considers, in order
// of preference when counts tie.
var delimiterCandidates = []rune{',', '\t', ';', '|'}

const maxSniffLines = 20

// SniffDelimiter guesses the field separator of a CSV sample. A candidate
// qualifies when it occurs, outside quotes, the same non-zero number of
// times on every sampled line; the most frequent qualifying candidate wins.
// When truncated is set the last, possibly partial, line is ignored. It
// returns ',' and false when nothing qualifies.
func SniffDelimiter(sample string, truncated bool) (rune, bool) {
	lines := sampleLines(sample, truncated)
	if len(lines) == 0 {
		return ',', false
	}

	best, bestCount := ',', 0
	for _, c := range delimiterCandidates {
		n := consistentCount(lines, c)
		if n > bestCount {
			best, bestCount = c, n
		}
	}
	if bestCount == 0 {
		return ',', false
	}
	return best, true
}

// sampleLines splits sample into records, keeping quoted line breaks
// inside their record.
func sampleLines(sample string, truncated bool) []string {
	var raw []string
	var cur strings.Builder
	quoted := false
	for _, r := range sample {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '\n' && !quoted:
			raw = append(raw, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	raw = append(raw, cur.String())
	if truncated && len(raw) > 1 {
		raw = raw[:len(raw)-1]
	}

	var lines []string
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
		if len(lines) == maxSniffLines {
			break
		}
	}
	return lines
}

// consistentCount returns the per-line count of c when it is identical on
// every line, or 0.
func consistentCount(lines []string, c rune) int {
	want := -1
	for _, l := range lines {
		n := countOutsideQuotes(l, c)
		if n == 0 {
			return 0
		}
		if want == -1 {
			want = n
		} else if n != want {
			return 0
		}
	}
	return want
}

func countOutsideQuotes(line string, c rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == c && !quoted:
			n++
		}
	}
	return n
}
