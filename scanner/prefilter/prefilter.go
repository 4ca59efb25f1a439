// Package prefilter gates regex evaluation behind a cheap multi-literal
// search. Every secret rule declares the lowercase literals that must be
// present in a line for its regex to possibly match; lines without any
// literal skip regex evaluation entirely.
package prefilter

import (
	"bytes"

	"github.com/cloudflare/ahocorasick"
)

// AnchorSet maps literal hits back to the rules they belong to.
type AnchorSet struct {
	matcher   *ahocorasick.Matcher
	owners    [][]int // anchor index -> rule indices
	ruleCount int
	always    []int // rules with no anchors, evaluated on every line
}

// Build constructs an AnchorSet from per-rule anchor lists. anchors[i]
// holds the lowercase literals for rule i; an empty list marks rule i as
// always-evaluated.
func Build(anchors [][]string) *AnchorSet {
	s := &AnchorSet{ruleCount: len(anchors)}
	var dict []string
	index := make(map[string]int)
	for ruleIdx, list := range anchors {
		if len(list) == 0 {
			s.always = append(s.always, ruleIdx)
			continue
		}
		for _, a := range list {
			if a == "" {
				continue
			}
			pos, ok := index[a]
			if !ok {
				pos = len(dict)
				index[a] = pos
				dict = append(dict, a)
				s.owners = append(s.owners, nil)
			}
			s.owners[pos] = append(s.owners[pos], ruleIdx)
		}
	}
	if len(dict) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(dict)
	}
	return s
}

// Candidates marks in the provided slice which rules are worth evaluating
// for the given line, and reports whether any rule is a candidate. The
// slice must have length equal to the rule count and is reset here.
func (s *AnchorSet) Candidates(line []byte, marks []bool) bool {
	for i := range marks {
		marks[i] = false
	}
	any := false
	for _, idx := range s.always {
		marks[idx] = true
		any = true
	}
	if s.matcher == nil {
		return any
	}
	lowered := bytes.ToLower(line)
	for _, hit := range s.matcher.MatchThreadSafe(lowered) {
		if hit < 0 || hit >= len(s.owners) {
			continue
		}
		for _, ruleIdx := range s.owners[hit] {
			marks[ruleIdx] = true
			any = true
		}
	}
	return any
}

// RuleCount returns the number of rules this set was built for.
func (s *AnchorSet) RuleCount() int {
	return s.ruleCount
}
