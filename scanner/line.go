package scanner

import (
	"strings"

	"credscan/scanner/prefilter"
)

// maskKeepPrefix is the number of leading characters left in cleartext
// when a matched value is masked.
const maskKeepPrefix = 4

// MaskSecret replaces everything past a small fixed prefix with '*'.
// Values no longer than the prefix are fully masked. The function is
// idempotent: masking an already-masked value changes nothing. The prefix
// is counted in runes so multibyte values never yield a torn snippet.
func MaskSecret(value string) string {
	runes := []rune(value)
	if len(runes) <= maskKeepPrefix {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:maskKeepPrefix]) + strings.Repeat("*", len(runes)-maskKeepPrefix)
}

// lineScanner evaluates registry rules against single lines. One instance
// is owned by one worker; the registry and anchor set behind it are shared
// read-only.
type lineScanner struct {
	reg   *Registry
	gate  *prefilter.AnchorSet
	marks []bool
}

func newLineScanner(reg *Registry) *lineScanner {
	anchors := make([][]string, reg.Len())
	for i, r := range reg.Rules() {
		anchors[i] = r.anchors
	}
	return &lineScanner{
		reg:   reg,
		gate:  prefilter.Build(anchors),
		marks: make([]bool, reg.Len()),
	}
}

// ScanLine returns one Finding per distinct rule match on the line, in
// registry order and left-to-right within a rule. Overlapping matches from
// different rules all emit. Arbitrary byte content never produces an
// error, only zero findings.
func (ls *lineScanner) ScanLine(path, line string, lineNo int) []Finding {
	if line == "" {
		return nil
	}
	if !ls.gate.Candidates([]byte(line), ls.marks) {
		return nil
	}

	var findings []Finding
	for i, rule := range ls.reg.Rules() {
		if !ls.marks[i] {
			continue
		}
		for _, loc := range rule.re.FindAllStringSubmatchIndex(line, -1) {
			value := extractSecret(line, loc)
			if value == "" {
				continue
			}
			findings = append(findings, Finding{
				Path:    path,
				Line:    lineNo,
				Rule:    rule.Name,
				Risk:    rule.Risk,
				Snippet: MaskSecret(value),
			})
		}
	}
	return findings
}

// extractSecret picks the highest-index non-empty capture group so rules
// like `key = "value"` report the value, not the key name. Rules without
// groups report the whole match.
func extractSecret(line string, loc []int) string {
	for g := len(loc)/2 - 1; g >= 1; g-- {
		start, end := loc[2*g], loc[2*g+1]
		if start >= 0 && end > start {
			return line[start:end]
		}
	}
	if loc[0] >= 0 && loc[1] > loc[0] {
		return line[loc[0]:loc[1]]
	}
	return ""
}
