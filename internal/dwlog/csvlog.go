package dwlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

// IoError reports an audio/PTT/log I/O failure. It is always recoverable
// by the caller, never a reason to abort the receive pipeline.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string { return fmt.Sprintf("io error during %s: %v", e.Op, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// CSVReceiveLog writes one row per decoded frame: either a single fixed
// file, or a new file per day named from a strftime pattern rooted at a
// directory.
type CSVReceiveLog struct {
	mu      sync.Mutex
	dir     string
	pattern *strftime.Strftime
	fixed   string
	curDay  string
	file    *os.File
	writer  *csv.Writer
}

// NewDailyCSVReceiveLog creates a log that rotates files at local midnight.
// pattern follows strftime conventions, e.g. "%Y/%m/%Y%m%d.log".
func NewDailyCSVReceiveLog(dir, pattern string) (*CSVReceiveLog, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, &IoError{Op: "compile log file pattern", Err: err}
	}
	return &CSVReceiveLog{dir: dir, pattern: f}, nil
}

// NewFixedCSVReceiveLog creates a log that always appends to the same path.
func NewFixedCSVReceiveLog(path string) *CSVReceiveLog {
	return &CSVReceiveLog{fixed: path}
}

// ReceiveRow is one decoded-frame record: channel identity, audio
// quality, and how much retry effort was needed.
type ReceiveRow struct {
	Time         time.Time
	Channel      int
	Subchannel   int
	Slice        int
	Source       string
	Destination  string
	AudioLevel   int
	RetryClass   string
	SanityPassed bool
}

func (l *CSVReceiveLog) Append(row ReceiveRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureOpen(row.Time); err != nil {
		return err
	}
	err := l.writer.Write([]string{
		row.Time.Format(time.RFC3339),
		fmt.Sprintf("%d", row.Channel),
		fmt.Sprintf("%d", row.Subchannel),
		fmt.Sprintf("%d", row.Slice),
		row.Source,
		row.Destination,
		fmt.Sprintf("%d", row.AudioLevel),
		row.RetryClass,
		fmt.Sprintf("%t", row.SanityPassed),
	})
	if err != nil {
		return &IoError{Op: "write receive log row", Err: err}
	}
	l.writer.Flush()
	return l.writer.Error()
}

func (l *CSVReceiveLog) ensureOpen(now time.Time) error {
	if l.fixed != "" {
		if l.file != nil {
			return nil
		}
		return l.open(l.fixed)
	}

	day := now.Format("2006-01-02")
	if l.file != nil && day == l.curDay {
		return nil
	}
	name := l.pattern.FormatString(now)
	path := filepath.Join(l.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IoError{Op: "create log directory", Err: err}
	}
	if l.file != nil {
		l.file.Close()
	}
	if err := l.open(path); err != nil {
		return err
	}
	l.curDay = day
	return nil
}

func (l *CSVReceiveLog) open(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &IoError{Op: "open receive log", Err: err}
	}
	l.file = f
	l.writer = csv.NewWriter(f)
	return nil
}

func (l *CSVReceiveLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer != nil {
		l.writer.Flush()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
