package interaction

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestRecord_AppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	rec := New(dir, zap.NewNop())

	rec.Record("first question", "first answer", []string{"a.pdf [page 1]"})
	rec.Record("second question", "second answer", nil)

	f, err := os.Open(filepath.Join(dir, "interactions.jsonl"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal line %q: %v", scanner.Text(), err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan log: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("log has %d records, want 2", len(records))
	}
	if records[0].Query != "first question" || records[0].Answer != "first answer" {
		t.Errorf("record[0] = %+v", records[0])
	}
	if len(records[0].Sources) != 1 || records[0].Sources[0] != "a.pdf [page 1]" {
		t.Errorf("record[0].Sources = %v", records[0].Sources)
	}
	if records[0].Timestamp.IsZero() {
		t.Error("record[0].Timestamp is zero")
	}
	if records[1].Query != "second question" {
		t.Errorf("record[1].Query = %q", records[1].Query)
	}
}

func TestRecord_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "nested")
	rec := New(dir, zap.NewNop())

	rec.Record("q", "a", nil)

	if _, err := os.Stat(filepath.Join(dir, "interactions.jsonl")); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestRecord_FailureDoesNotPanic(t *testing.T) {
	// A file where the directory should be makes every write fail.
	base := t.TempDir()
	blocker := filepath.Join(base, "logs")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	rec := New(blocker, zap.NewNop())
	rec.Record("q", "a", nil)
}
