// Package output is the filesystem sink for captured job output and
// the reader/writer for last-execution timestamp files.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/flemzord/jobkit/internal/job"
)

// FileSink writes captured output to files on the local filesystem.
type FileSink struct{}

// Compile-time interface check.
var _ job.SinkWriter = FileSink{}

// Write stores content at path. Overwrite truncates, Append adds to
// the end. Parent directories are created as needed.
func (FileSink) Write(content, path string, mode job.Mode) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("output: create directory %s: %w", dir, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE
	if mode == job.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("output: open %s: %w", path, err)
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("output: write %s: %w", path, err)
	}

	return f.Close()
}

// Timestamps reads and writes last-execution files: a single integer
// Unix timestamp, optionally surrounded by whitespace.
type Timestamps struct{}

// Compile-time interface check.
var _ job.TimestampReader = Timestamps{}

// ReadTimestamp returns the Unix timestamp recorded at path.
func (Timestamps) ReadTimestamp(path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("output: read %s: %w", path, err)
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("output: parse timestamp in %s: %w", path, err)
	}

	return ts, nil
}

// WriteTimestamp records t at path, creating parent directories as
// needed.
func (Timestamps) WriteTimestamp(path string, t time.Time) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("output: create directory %s: %w", dir, err)
		}
	}

	data := strconv.FormatInt(t.Unix(), 10) + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}
