package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink receives log lines. Sessions ignore write errors apart from counting them.
type Sink interface {
	Write(line string) error
}

// FileSink appends "HH:MM:SS : line" entries to a file, reopening it on every
// write so a missing directory or unmounted volume only loses the lines written
// while it is unavailable.
type FileSink struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileSink creates a sink writing to path. Nothing is opened until the first Write.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, now: time.Now}
}

// Path returns the log file location
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%s : %s\n", s.now().Format("15:04:05"), line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return f.Close()
}

// MemorySink keeps lines in memory, for tests and replay inspection
type MemorySink struct {
	mu    sync.Mutex
	lines []string
}

func (s *MemorySink) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	return nil
}

// Lines returns a copy of everything written so far
func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Last returns the most recent line, or "" when nothing was written
func (s *MemorySink) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return ""
	}
	return s.lines[len(s.lines)-1]
}

type discardSink struct{}

func (discardSink) Write(string) error { return nil }

// Discard drops every line
var Discard Sink = discardSink{}

// LogFileName builds a per-run file name such as "Run_Sat_17_Oct_2026__09_30_00.csv" under dir
func LogFileName(dir, extension string, now time.Time) string {
	return filepath.Join(dir, "Run_"+now.Format("Mon_02_Jan_2006__15_04_05")+extension)
}
