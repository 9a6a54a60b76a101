package rewrite

import (
	"regexp"
	"strings"
)

// match gives replacement callbacks access to a regexp match and its
// submatches, including which groups participated.
type match struct {
	src string
	idx []int
}

// group returns the text of submatch i (0 is the whole match); empty when the
// group did not participate.
func (m match) group(i int) string {
	if !m.has(i) {
		return ""
	}
	return m.src[m.idx[2*i]:m.idx[2*i+1]]
}

// has reports whether submatch i participated in the match.
func (m match) has(i int) bool {
	return 2*i+1 < len(m.idx) && m.idx[2*i] >= 0
}

// groupCount returns the number of submatches (excluding the whole match).
func (m match) groupCount() int {
	return len(m.idx)/2 - 1
}

// replaceSubmatches is the generic scan-and-replace combinator shared by all
// passes: it applies repl to every match of re in s, where repl maps one
// match to its full replacement text.
func replaceSubmatches(re *regexp.Regexp, s string, repl func(m match) string) string {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	last := 0
	for _, idx := range locs {
		b.WriteString(s[last:idx[0]])
		b.WriteString(repl(match{src: s, idx: idx}))
		last = idx[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// quotedValue extracts the value and quote character from a pattern that
// captures a double-quoted alternative in group i and a single-quoted one in
// group i+1.
func quotedValue(m match, i int) (val, quote string) {
	if m.has(i) {
		return m.group(i), `"`
	}
	return m.group(i + 1), `'`
}
