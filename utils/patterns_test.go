package utils

import "testing"

func TestShouldIncludeNoPatterns(t *testing.T) {
	m := NewPatternMatcher(nil, nil)
	if !m.ShouldInclude("/any/path/file.txt") {
		t.Fatal("no patterns should include everything")
	}
}

func TestShouldIncludeGlob(t *testing.T) {
	m := NewPatternMatcher([]string{"*.env"}, nil)
	if !m.ShouldInclude("/srv/app/prod.env") {
		t.Fatal("glob should match base name")
	}
	if m.ShouldInclude("/srv/app/main.go") {
		t.Fatal("non-matching file included")
	}
}

func TestShouldIncludeRegexOnFullPath(t *testing.T) {
	m := NewPatternMatcher([]string{`secrets/.*\.yaml$`}, nil)
	if !m.ShouldInclude("/etc/secrets/prod.yaml") {
		t.Fatal("regex should match full path")
	}
	if m.ShouldInclude("/etc/config/prod.yaml") {
		t.Fatal("path outside regex included")
	}
}

func TestExcludeWins(t *testing.T) {
	m := NewPatternMatcher([]string{"*.env"}, []string{"*test*"})
	if m.ShouldInclude("/srv/test.env") {
		t.Fatal("exclude pattern should win over include")
	}
	if !m.ShouldInclude("/srv/prod.env") {
		t.Fatal("unexcluded include rejected")
	}
}

func TestInvalidRegexFallsBackToGlob(t *testing.T) {
	// "[.txt" is an invalid regex but a valid-enough glob; it must not
	// break the matcher.
	m := NewPatternMatcher([]string{"*.txt", "[.bad"}, nil)
	if !m.ShouldInclude("/a/b.txt") {
		t.Fatal("valid glob lost after invalid regex sibling")
	}
}

func TestNilMatcher(t *testing.T) {
	var m *PatternMatcher
	if !m.ShouldInclude("/x") {
		t.Fatal("nil matcher should include everything")
	}
}
