package audit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func record(line string) Record {
	return Record{
		Identity: "alice",
		Target:   "#general",
		Line:     line,
		Stages:   []string{"echo", "count"},
		Output:   1,
		Duration: time.Millisecond,
	}
}

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, path
}

func TestLogAndVerify(t *testing.T) {
	logger, path := newTestLogger(t)

	for i := 0; i < 5; i++ {
		rec := record("echo a | count")
		rec.Duration = time.Duration(i) * time.Millisecond
		if err := logger.Log(rec); err != nil {
			t.Fatalf("log entry %d: %v", i, err)
		}
	}

	if err := Verify(path); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestLogFillsIDAndOK(t *testing.T) {
	logger, path := newTestLogger(t)

	_ = logger.Log(record("echo a"))
	failed := record("nosuch")
	failed.ID = "fixed-id"
	failed.Errors = []string{`stage 1: unknown command: "nosuch"`}
	_ = logger.Log(failed)

	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID == "" || !entries[0].OK {
		t.Errorf("first entry: %+v", entries[0])
	}
	if entries[1].ID != "fixed-id" || entries[1].OK || len(entries[1].Errors) != 1 {
		t.Errorf("second entry: %+v", entries[1])
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	logger, path := newTestLogger(t)

	for i := 0; i < 3; i++ {
		_ = logger.Log(record("cat"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Rewrite a line's payload without touching its hash.
	for i := 0; i+5 <= len(data); i++ {
		if string(data[i:i+5]) == "alice" {
			copy(data[i:], "mallo")
			break
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	if err := Verify(path); err == nil {
		t.Fatal("expected verify to detect tampering")
	}
}

func TestVerifyDetectsSequenceGap(t *testing.T) {
	logger, path := newTestLogger(t)

	for i := 0; i < 5; i++ {
		_ = logger.Log(record("cat"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := bytes.SplitAfter(data, []byte("\n"))
	remaining := append(lines[:2], lines[3:]...)
	newData := bytes.Join(remaining, nil)
	if err := os.WriteFile(path, newData, 0600); err != nil {
		t.Fatal(err)
	}

	if err := Verify(path); err == nil {
		t.Fatal("expected verify to detect sequence gap")
	}
}

func TestVerifyEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := os.WriteFile(path, []byte{}, 0600); err != nil {
		t.Fatal(err)
	}
	if err := Verify(path); err != nil {
		t.Fatalf("empty log should be valid: %v", err)
	}
}

func TestLoggerResumesChain(t *testing.T) {
	logger1, path := newTestLogger(t)
	_ = logger1.Log(record("first"))
	_ = logger1.Log(record("second"))

	// Simulate a process restart.
	logger2, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	defer logger2.Close()
	_ = logger2.Log(record("third"))

	if err := Verify(path); err != nil {
		t.Fatalf("chain should be valid after restart: %v", err)
	}

	entries, err := Tail(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Seq != 3 || entries[1].Line != "third" {
		t.Errorf("last entry: %+v", entries[1])
	}
}

func TestLoggerResumesAfterLargeEntry(t *testing.T) {
	logger1, path := newTestLogger(t)
	big := "echo " + strings.Repeat("x", 2<<20)
	if err := logger1.Log(record(big)); err != nil {
		t.Fatal(err)
	}
	logger1.Close()

	logger2, err := NewLogger(path)
	if err != nil {
		t.Fatalf("reopen after large entry: %v", err)
	}
	defer logger2.Close()
	if err := logger2.Log(record("after")); err != nil {
		t.Fatal(err)
	}

	if err := Verify(path); err != nil {
		t.Fatalf("verify: %v", err)
	}
	entries, err := Tail(path, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Line != big || entries[1].Seq != 2 {
		t.Errorf("unexpected entries: seq %d, %d", entries[0].Seq, entries[1].Seq)
	}
}

func TestTailSkipsMalformedLines(t *testing.T) {
	logger, path := newTestLogger(t)
	_ = logger.Log(record("first"))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not json\n")
	f.Close()
	_ = logger.Log(record("second"))

	entries, err := Tail(path, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].Line != "second" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
