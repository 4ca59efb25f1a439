package output

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"credscan/scanner"
)

// Summary is a derived view over a finding collection: total count and
// counts by risk. It is recomputed, never stored alongside the findings.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func Summarize(findings []scanner.Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Risk {
		case scanner.RiskHigh:
			s.High++
		case scanner.RiskMedium:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}

// RenderText writes the human-readable listing and summary. Findings are
// shown highest risk first, then by path and line; the underlying result
// order is left untouched.
func RenderText(w io.Writer, findings []scanner.Finding, sum Summary, m scanner.Metrics) {
	fmt.Fprintf(w, "Secret scan results\n\n")
	fmt.Fprintf(w, "Total secrets found: %d\n", sum.Total)
	fmt.Fprintf(w, "  HIGH risk:   %d\n", sum.High)
	fmt.Fprintf(w, "  MEDIUM risk: %d\n", sum.Medium)
	fmt.Fprintf(w, "  LOW risk:    %d\n", sum.Low)

	skipped := m.FilesSkipped + m.BinariesSkipped
	if skipped > 0 || m.DecodeFaults > 0 || m.ReadFaults > 0 || m.WalkWarnings > 0 {
		fmt.Fprintf(w, "\nSkipped: %d files (%d binary), %d decode faults, %d read faults, %d walk warnings\n",
			skipped, m.BinariesSkipped, m.DecodeFaults, m.ReadFaults, m.WalkWarnings)
	}

	if len(findings) == 0 {
		fmt.Fprintf(w, "\nNo secrets detected.\n")
		return
	}

	ordered := make([]scanner.Finding, len(findings))
	copy(ordered, findings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Risk != ordered[j].Risk {
			return ordered[i].Risk > ordered[j].Risk
		}
		if ordered[i].Path != ordered[j].Path {
			return ordered[i].Path < ordered[j].Path
		}
		return ordered[i].Line < ordered[j].Line
	})

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\nFILE\tLINE\tRULE\tRISK\tSNIPPET\n")
	for _, f := range ordered {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", f.Path, f.Line, f.Rule, f.Risk, f.Snippet)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nSecrets detected. Review and remove them before committing.\n")
}
