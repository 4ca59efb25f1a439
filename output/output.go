package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"credscan/config"
	"credscan/logger"
	"credscan/scanner"
	"credscan/systeminfo"
	"credscan/version"

	"github.com/cespare/xxhash/v2"
)

const SchemaVersion = "1"

// Writer streams scan results to an NDJSON file: a header record, one
// record per file with findings, and a closing metrics record. When no
// output file is configured every write is a no-op, so callers can wire
// it unconditionally.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

type headerRecord struct {
	Record        string                 `json:"record"`
	SchemaVersion string                 `json:"schema_version"`
	Version       string                 `json:"version"`
	GeneratedAt   string                 `json:"generated_at"`
	Host          *systeminfo.SystemInfo `json:"host,omitempty"`
	StartPaths    []string               `json:"start_paths"`
}

type findingRecord struct {
	Rule        string       `json:"rule"`
	Risk        scanner.Risk `json:"risk"`
	Line        int          `json:"line"`
	Snippet     string       `json:"snippet"`
	Fingerprint string       `json:"fingerprint"`
}

type fileRecord struct {
	Record     string          `json:"record"`
	Path       string          `json:"path"`
	ModTime    string          `json:"mod_time,omitempty"`
	AccessTime string          `json:"access_time,omitempty"`
	Findings   []findingRecord `json:"findings"`
}

type metricsRecord struct {
	Record          string  `json:"record"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	TotalFiles      int     `json:"total_files"`
	FilesScanned    int64   `json:"files_scanned"`
	FilesSkipped    int64   `json:"files_skipped"`
	BinariesSkipped int64   `json:"binaries_skipped"`
	DecodeFaults    int64   `json:"decode_faults"`
	ReadFaults      int64   `json:"read_faults"`
	WalkWarnings    int64   `json:"walk_warnings"`
	Summary         Summary `json:"summary"`
}

// New opens the configured results file and writes the header record.
// An empty output file name yields an inert writer.
func New(cfg *config.Config, host *systeminfo.SystemInfo) (*Writer, error) {
	w := &Writer{}
	if cfg == nil || cfg.OutputFileName == "" {
		return w, nil
	}
	f, err := os.OpenFile(cfg.OutputFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	w.file = f
	w.buf = bufio.NewWriterSize(f, 64*1024)

	header := headerRecord{
		Record:        "header",
		SchemaVersion: SchemaVersion,
		Version:       version.Version,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Host:          host,
		StartPaths:    cfg.StartPaths,
	}
	if err := w.writeRecord(header); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// WriteResult implements scanner.Sink.
func (w *Writer) WriteResult(res scanner.FileResult) {
	if w.file == nil || len(res.Findings) == 0 {
		return
	}
	rec := fileRecord{
		Record:   "file",
		Path:     res.Path,
		Findings: make([]findingRecord, 0, len(res.Findings)),
	}
	if !res.ModTime.IsZero() {
		rec.ModTime = res.ModTime.UTC().Format(time.RFC3339)
	}
	if !res.AccessTime.IsZero() {
		rec.AccessTime = res.AccessTime.UTC().Format(time.RFC3339)
	}
	for _, f := range res.Findings {
		rec.Findings = append(rec.Findings, findingRecord{
			Rule:        f.Rule,
			Risk:        f.Risk,
			Line:        f.Line,
			Snippet:     f.Snippet,
			Fingerprint: Fingerprint(f),
		})
	}
	if err := w.writeRecord(rec); err != nil {
		logger.Warnf("Failed to write results record for %s: %v", res.Path, err)
	}
}

// WriteMetrics appends the closing metrics record.
func (w *Writer) WriteMetrics(m scanner.Metrics, sum Summary) error {
	if w.file == nil {
		return nil
	}
	return w.writeRecord(metricsRecord{
		Record:          "metrics",
		StartTime:       m.StartTime.UTC().Format(time.RFC3339),
		EndTime:         m.EndTime.UTC().Format(time.RFC3339),
		TotalFiles:      m.TotalFiles,
		FilesScanned:    m.FilesScanned,
		FilesSkipped:    m.FilesSkipped,
		BinariesSkipped: m.BinariesSkipped,
		DecodeFaults:    m.DecodeFaults,
		ReadFaults:      m.ReadFaults,
		WalkWarnings:    m.WalkWarnings,
		Summary:         sum,
	})
}

func (w *Writer) writeRecord(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Fingerprint derives a stable identifier for a finding, so repeated
// scans of an unchanged tree produce identical identifiers.
func Fingerprint(f scanner.Finding) string {
	h := xxhash.New()
	h.WriteString(f.Path)
	h.WriteString("\x00")
	h.WriteString(f.Rule)
	h.WriteString("\x00")
	fmt.Fprintf(h, "%d", f.Line)
	h.WriteString("\x00")
	h.WriteString(f.Snippet)
	return fmt.Sprintf("%016x", h.Sum64())
}
