package utils

import (
	"path/filepath"
	"regexp"
)

// PatternMatcher applies user-supplied include/exclude patterns on top of
// the scanner's fixed exclusion rules. Each pattern is tried both as a
// glob against the base name and as a regex against the full path;
// patterns that fail to compile as regexes are used as globs only.
type PatternMatcher struct {
	include matchSet
	exclude matchSet
}

type matchSet struct {
	globs   []string
	regexes []*regexp.Regexp
}

func newMatchSet(patterns []string) matchSet {
	set := matchSet{globs: append([]string(nil), patterns...)}
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			set.regexes = append(set.regexes, re)
		}
	}
	return set
}

func (s matchSet) empty() bool {
	return len(s.globs) == 0 && len(s.regexes) == 0
}

func (s matchSet) matches(path string) bool {
	base := filepath.Base(path)
	for _, g := range s.globs {
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
	}
	for _, re := range s.regexes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func NewPatternMatcher(includePatterns, excludePatterns []string) *PatternMatcher {
	return &PatternMatcher{
		include: newMatchSet(includePatterns),
		exclude: newMatchSet(excludePatterns),
	}
}

// ShouldInclude reports whether a path passes the user filters: it must
// match at least one include pattern when any are set, and no exclude
// pattern.
func (m *PatternMatcher) ShouldInclude(path string) bool {
	if m == nil {
		return true
	}
	if !m.include.empty() && !m.include.matches(path) {
		return false
	}
	if !m.exclude.empty() && m.exclude.matches(path) {
		return false
	}
	return true
}
