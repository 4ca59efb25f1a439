package scanner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"credscan/config"
	"credscan/logger"
	"credscan/utils"

	"github.com/djherbis/times"
	"github.com/h2non/filetype"
	"golang.org/x/time/rate"
)

// maxLineBytes bounds a single line; longer lines stop the file with a
// soft read fault.
const maxLineBytes = 1024 * 1024

type fileScanTask struct {
	path string
	info os.FileInfo
}

// FileResult is the per-file unit handed to a Sink: the findings of one
// file in ascending line order, plus file timestamps.
type FileResult struct {
	Path       string
	ModTime    time.Time
	AccessTime time.Time
	Findings   []Finding
}

// Sink receives per-file results as they complete. Implementations must
// be safe for concurrent use; only files with findings are delivered.
type Sink interface {
	WriteResult(res FileResult)
}

// ProgressFunc is invoked once per processed file from a single goroutine,
// with a monotonically increasing done count. total is -1 when counting
// was skipped.
type ProgressFunc func(done int64, total int)

// Metrics summarizes a finished run. All faults here are soft: the run
// completed despite them.
type Metrics struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	FilesScanned    int64
	FilesSkipped    int64
	BinariesSkipped int64
	DecodeFaults    int64
	ReadFaults      int64
	WalkWarnings    int64
}

type counters struct {
	filesScanned    atomic.Int64
	filesSkipped    atomic.Int64
	binariesSkipped atomic.Int64
	decodeFaults    atomic.Int64
	readFaults      atomic.Int64
	walkWarnings    atomic.Int64
}

// Result owns the findings of one run, concatenated per file with each
// file's findings in ascending line order. Cross-file order follows
// completion order under concurrency.
type Result struct {
	Findings []Finding
	Metrics  Metrics
}

// HasFindings reports whether the run produced any findings, for CI
// gating by the caller.
func (r *Result) HasFindings() bool {
	return len(r.Findings) > 0
}

// Run scans every start path in cfg against the registry. Per-file and
// per-line faults are absorbed as soft warnings; only root-level setup
// faults return an error. On context cancellation the findings collected
// so far are still returned.
func Run(ctx context.Context, cfg *config.Config, reg *Registry, sink Sink, onProgress ProgressFunc) (*Result, error) {
	adjustConcurrency(cfg)

	roots, err := resolveRoots(cfg.StartPaths)
	if err != nil {
		return nil, err
	}

	exclusions := DefaultExclusions(cfg.ExcludeDirs, cfg.ExcludeExts)
	matcher := utils.NewPatternMatcher(cfg.IncludePatterns, cfg.ExcludePatterns)
	w := newWalker()

	result := &Result{}
	result.Metrics.StartTime = time.Now()

	total := -1
	if !cfg.SkipCount {
		logger.Info("Counting files to scan...")
		total = countFiles(ctx, w, roots, cfg, exclusions, matcher)
		logger.Infof("Files to scan: %d", total)
	}
	result.Metrics.TotalFiles = total

	var ioLimiter *rate.Limiter
	if cfg.MaxIOPerSecond > 0 {
		ioLimiter = rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)
	}

	m := &counters{}
	filesChan := make(chan fileScanTask, cfg.ConcurrencyLevel)
	progressCh := make(chan int, max(cfg.ConcurrencyLevel*4, 64))

	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		var done int64
		for delta := range progressCh {
			done += int64(delta)
			if onProgress != nil {
				onProgress(done, total)
			}
		}
	}()

	go func() {
		defer close(filesChan)
		for _, root := range roots {
			err := w.Walk(ctx, root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					m.walkWarnings.Add(1)
					logger.Warnf("Failed to access %s: %v", path, err)
					return nil
				}
				if d == nil {
					return nil
				}
				if d.IsDir() {
					if path != root && !exclusions.ShouldDescend(d.Name()) {
						return fs.SkipDir
					}
					return nil
				}
				if !d.Type().IsRegular() {
					return nil
				}
				if !exclusions.ShouldRead(path) || !matcher.ShouldInclude(path) {
					return nil
				}
				info, ierr := d.Info()
				if ierr == nil && cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
					logger.Debugf("Skipping large file %s", path)
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case filesChan <- fileScanTask{path: path, info: info}:
					if ioLimiter != nil {
						if err := ioLimiter.Wait(ctx); err != nil {
							return err
						}
					}
				}
				return nil
			})
			if err != nil && ctx.Err() == nil {
				logger.Warnf("Error walking path %s: %v", root, err)
			}
		}
	}()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < cfg.ConcurrencyLevel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ls := newLineScanner(reg)
			for task := range filesChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if !utils.IsPathWithin(task.path, roots) {
					logger.Warnf("Skipping file outside scan roots: %s", task.path)
					m.filesSkipped.Add(1)
					progressCh <- 1
					continue
				}
				res, ok := scanOne(task, ls, m)
				if ok {
					m.filesScanned.Add(1)
					if len(res.Findings) > 0 {
						mu.Lock()
						result.Findings = append(result.Findings, res.Findings...)
						mu.Unlock()
						if sink != nil {
							sink.WriteResult(res)
						}
					}
				}
				progressCh <- 1
			}
		}()
	}

	wg.Wait()
	close(progressCh)
	progressWG.Wait()

	if ctx.Err() != nil {
		logger.Warn("Scan interrupted; reporting findings collected so far.")
	}

	result.Metrics.EndTime = time.Now()
	result.Metrics.FilesScanned = m.filesScanned.Load()
	result.Metrics.FilesSkipped = m.filesSkipped.Load()
	result.Metrics.BinariesSkipped = m.binariesSkipped.Load()
	result.Metrics.DecodeFaults = m.decodeFaults.Load()
	result.Metrics.ReadFaults = m.readFaults.Load()
	result.Metrics.WalkWarnings = m.walkWarnings.Load()
	if cfg.SkipCount {
		result.Metrics.TotalFiles = int(result.Metrics.FilesScanned + result.Metrics.FilesSkipped + result.Metrics.BinariesSkipped)
	}
	return result, nil
}

// scanOne reads a single file line by line, returning its findings in
// ascending line order. All failures are soft: the file is skipped or
// truncated and counted, never fatal.
func scanOne(task fileScanTask, ls *lineScanner, m *counters) (FileResult, bool) {
	file, err := os.Open(task.path)
	if err != nil {
		logger.Warnf("Skipping unreadable file %s: %v", task.path, err)
		m.filesSkipped.Add(1)
		return FileResult{}, false
	}
	defer file.Close()

	sniff := make([]byte, 261)
	n, err := file.Read(sniff)
	if err != nil && err != io.EOF {
		logger.Warnf("Skipping file %s: %v", task.path, err)
		m.filesSkipped.Add(1)
		return FileResult{}, false
	}
	if looksBinary(sniff[:n]) {
		m.binariesSkipped.Add(1)
		return FileResult{}, false
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		logger.Warnf("Skipping file %s: %v", task.path, err)
		m.filesSkipped.Add(1)
		return FileResult{}, false
	}

	res := FileResult{Path: task.path}
	if task.info != nil {
		ts := times.Get(task.info)
		res.ModTime = ts.ModTime()
		res.AccessTime = ts.AccessTime()
	}

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if !utf8.ValidString(line) {
			line = strings.ToValidUTF8(line, "")
			m.decodeFaults.Add(1)
		}
		res.Findings = append(res.Findings, ls.ScanLine(task.path, line, lineNo)...)
	}
	if err := sc.Err(); err != nil {
		// Findings up to the fault are kept.
		logger.Warnf("Stopped reading %s after line %d: %v", task.path, lineNo, err)
		m.readFaults.Add(1)
	}
	return res, true
}

// looksBinary decides from a small leading sample whether content-level
// scanning is worthwhile. Known binary container types and NUL-bearing
// content are skipped; invalid UTF-8 alone is not a binary signal, the
// line loop handles that with a drop-and-count decode fallback.
func looksBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	if kind, err := filetype.Match(sample); err == nil && kind != filetype.Unknown {
		return true
	}
	var control int
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			control++
		}
	}
	return control > len(sample)/10
}

func countFiles(ctx context.Context, w walker, roots []string, cfg *config.Config, exclusions ExclusionRules, matcher *utils.PatternMatcher) int {
	var total int
	for _, root := range roots {
		err := w.Walk(ctx, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d == nil {
				return nil
			}
			if d.IsDir() {
				if path != root && !exclusions.ShouldDescend(d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !exclusions.ShouldRead(path) || !matcher.ShouldInclude(path) {
				return nil
			}
			if info, ierr := d.Info(); ierr == nil && cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
				return nil
			}
			total++
			return nil
		})
		if err != nil {
			logger.Warnf("Failed to count files in %s: %v", root, err)
		}
	}
	return total
}

// resolveRoots turns the configured start paths into absolute, verified
// directories. Any failure here is a hard fault.
func resolveRoots(paths []string) ([]string, error) {
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve root path %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("root path %s: %w", p, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root path %s is not a directory", p)
		}
		dir, err := os.Open(abs)
		if err != nil {
			return nil, fmt.Errorf("root path %s is not readable: %w", p, err)
		}
		dir.Close()
		roots = append(roots, abs)
	}
	return roots, nil
}

func adjustConcurrency(cfg *config.Config) {
	if cfg.ConcurrencySet {
		return
	}
	numCPU := runtime.NumCPU()
	switch cfg.NiceLevel {
	case "high":
		cfg.ConcurrencyLevel = numCPU
	case "medium":
		cfg.ConcurrencyLevel = max(numCPU/2, 1)
	case "low":
		cfg.ConcurrencyLevel = 1
	default:
		if cfg.ConcurrencyLevel < 1 {
			cfg.ConcurrencyLevel = max(numCPU/2, 1)
		}
	}
}
