package scanner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// Risk classifies the severity of a matched rule.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskHigh:
		return "HIGH"
	case RiskMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func (r Risk) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Risk) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "HIGH":
		*r = RiskHigh
	case "MEDIUM":
		*r = RiskMedium
	case "LOW":
		*r = RiskLow
	default:
		return fmt.Errorf("unknown risk level %q", s)
	}
	return nil
}

// Rule is one named, risk-tagged line matcher. Anchors are lowercase
// literals that must appear in a line before the regex is worth running;
// a rule without anchors is evaluated on every line.
type Rule struct {
	Name    string
	Risk    Risk
	re      *regexp.Regexp
	anchors []string
}

// Finding is one detected secret occurrence. The snippet is already
// masked when the Finding is created; the raw value is never retained.
type Finding struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Rule    string `json:"rule"`
	Risk    Risk   `json:"risk"`
	Snippet string `json:"snippet"`
}

// defaultRules is ordered by priority: specific high-risk patterns first,
// generic catch-alls last. Evaluation order is part of the contract.
func defaultRules() []Rule {
	return []Rule{
		{
			Name:    "AWS Access Key ID",
			Risk:    RiskHigh,
			re:      regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			anchors: []string{"akia"},
		},
		{
			Name:    "AWS Secret Access Key",
			Risk:    RiskHigh,
			re:      regexp.MustCompile(`(?i)aws_secret_access_key\s*[=:]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
			anchors: []string{"aws_secret_access_key"},
		},
		{
			Name:    "Private Key",
			Risk:    RiskHigh,
			re:      regexp.MustCompile(`-----BEGIN\s+(?:RSA|DSA|EC|OPENSSH)\s+PRIVATE KEY-----`),
			anchors: []string{"private key"},
		},
		{
			Name:    "Database URL with Password",
			Risk:    RiskHigh,
			re:      regexp.MustCompile(`(?i)(?:postgres|mysql|mongodb)://[^:\s]+:[^@\s]+@[^\s]+`),
			anchors: []string{"postgres", "mysql", "mongodb"},
		},
		{
			Name:    "API Token",
			Risk:    RiskMedium,
			re:      regexp.MustCompile(`(?i)(api[_-]?key|access[_-]?token|bearer)\s*[=:]\s*["']?([A-Za-z0-9_\-]{20,})["']?`),
			anchors: []string{"api", "access", "bearer"},
		},
		{
			Name:    "GitHub Personal Access Token",
			Risk:    RiskMedium,
			re:      regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`),
			anchors: []string{"ghp_"},
		},
		{
			Name:    "Slack Webhook URL",
			Risk:    RiskMedium,
			re:      regexp.MustCompile(`https://hooks\.slack\.com/services/[A-Z0-9]+/[A-Z0-9]+/[A-Za-z0-9]+`),
			anchors: []string{"hooks.slack.com"},
		},
		{
			Name:    "Stripe Live Key",
			Risk:    RiskMedium,
			re:      regexp.MustCompile(`sk_live_[A-Za-z0-9]{24,}`),
			anchors: []string{"sk_live_"},
		},
		{
			Name:    "Slack Token",
			Risk:    RiskMedium,
			re:      regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z-]{10,}`),
			anchors: []string{"xox"},
		},
		{
			Name:    "Password Variable",
			Risk:    RiskLow,
			re:      regexp.MustCompile(`(?i)password\s*[=:]\s*["']([^"']+)["']`),
			anchors: []string{"password"},
		},
		{
			Name:    "Secret Variable",
			Risk:    RiskLow,
			re:      regexp.MustCompile(`(?i)secret\s*[=:]\s*["']([^"']+)["']`),
			anchors: []string{"secret"},
		},
		{
			Name:    "API Key Variable",
			Risk:    RiskLow,
			re:      regexp.MustCompile(`(?i)apikey\s*[=:]\s*["']([^"']+)["']`),
			anchors: []string{"apikey"},
		},
	}
}

// Registry is an ordered, read-only rule collection. It is safe to share
// across concurrent scans.
type Registry struct {
	rules []Rule
}

// NewRegistry builds a registry from the given rules, enforcing unique
// names. Rule order is preserved.
func NewRegistry(rules []Rule) (*Registry, error) {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule with empty name")
		}
		if r.re == nil {
			return nil, fmt.Errorf("rule %q has no matcher", r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return &Registry{rules: rules}, nil
}

// DefaultRegistry returns the built-in rule set, optionally extended with
// custom name->regex patterns appended after the built-ins at MEDIUM risk.
// Custom regexes must compile; the caller validates them at config load, so
// a failure here is a construction-time fault.
func DefaultRegistry(custom map[string]string) (*Registry, error) {
	rules := defaultRules()
	for _, name := range sortedKeys(custom) {
		re, err := regexp.Compile(custom[name])
		if err != nil {
			return nil, fmt.Errorf("custom pattern %q: %w", name, err)
		}
		rules = append(rules, Rule{Name: name, Risk: RiskMedium, re: re})
	}
	return NewRegistry(rules)
}

// Rules returns the rules in evaluation order. Callers must not mutate.
func (reg *Registry) Rules() []Rule {
	return reg.rules
}

func (reg *Registry) Len() int {
	return len(reg.rules)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
