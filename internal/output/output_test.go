package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flemzord/jobkit/internal/job"
)

func TestFileSink_Overwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	sink := FileSink{}

	if err := sink.Write("first", path, job.Overwrite); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Write("second", path, job.Overwrite); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
}

func TestFileSink_Append(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	sink := FileSink{}

	if err := sink.Write("first\n", path, job.Append); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Write("second\n", path, job.Append); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "first\nsecond\n" {
		t.Errorf("content = %q", got)
	}
}

func TestFileSink_CreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "deep", "out.txt")
	if err := (FileSink{}).Write("data", path, job.Overwrite); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
}

func TestTimestamps_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.last")
	ts := Timestamps{}

	when := time.Unix(1756400000, 0)
	if err := ts.WriteTimestamp(path, when); err != nil {
		t.Fatalf("WriteTimestamp: %v", err)
	}

	got, err := ts.ReadTimestamp(path)
	if err != nil {
		t.Fatalf("ReadTimestamp: %v", err)
	}
	if got != when.Unix() {
		t.Errorf("ReadTimestamp = %d, want %d", got, when.Unix())
	}
}

func TestTimestamps_ReadWhitespace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.last")
	if err := os.WriteFile(path, []byte("  1500 \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := Timestamps{}.ReadTimestamp(path)
	if err != nil {
		t.Fatalf("ReadTimestamp: %v", err)
	}
	if got != 1500 {
		t.Errorf("ReadTimestamp = %d, want 1500", got)
	}
}

func TestTimestamps_ReadMissing(t *testing.T) {
	t.Parallel()

	_, err := Timestamps{}.ReadTimestamp(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTimestamps_ReadGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.last")
	if err := os.WriteFile(path, []byte("not a number"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := (Timestamps{}).ReadTimestamp(path); err == nil {
		t.Fatal("expected parse error")
	}
}
