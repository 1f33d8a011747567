package audit

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const genesisInput = "pipesh-genesis"

// Logger is an append-only, hash-chained audit log writer. It keeps the
// file open for the life of the process and is safe for concurrent use by
// session workers.
type Logger struct {
	mu       sync.Mutex
	f        *os.File
	seq      uint64
	prevHash string
}

// NewLogger opens or creates an audit log at path and resumes the hash
// chain from its last well-formed entry.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	l := &Logger{f: f, prevHash: genesisHash()}
	err = scanEntries(f, func(e Entry) {
		l.seq, l.prevHash = e.Seq, e.Hash
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return l, nil
}

// scanEntries calls fn for each well-formed JSONL entry in r. Lines have
// no length limit; malformed lines are skipped.
func scanEntries(r io.Reader, fn func(Entry)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var e Entry
			if json.Unmarshal(line, &e) == nil {
				fn(e)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Log appends one entry for rec. A missing rec.ID is filled with a fresh
// UUID. The chain only advances if the write succeeds.
func (l *Logger) Log(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Seq:      l.seq + 1,
		ID:       rec.ID,
		Time:     time.Now().UTC(),
		PrevHash: l.prevHash,
		Identity: rec.Identity,
		Target:   rec.Target,
		Line:     rec.Line,
		Stages:   rec.Stages,
		OK:       len(rec.Errors) == 0,
		Output:   rec.Output,
		Errors:   rec.Errors,
		Duration: float64(rec.Duration.Microseconds()) / 1000.0,
	}
	entry.Hash = computeHash(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := l.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	l.seq, l.prevHash = entry.Seq, entry.Hash
	return nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

func genesisHash() string {
	h := sha256.Sum256([]byte(genesisInput))
	return hex.EncodeToString(h[:])
}

// computeHash hashes e with its Hash field empty.
func computeHash(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
