package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Verify reads the audit log and checks the hash chain integrity.
// Returns nil if the chain is valid, or an error describing the first
// violation.
func Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	expectedPrev := genesisHash()
	var prevSeq uint64

	for n := 1; ; n++ {
		var entry Entry
		if err := dec.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("entry %d: invalid JSON: %w", n, err)
		}
		if entry.Seq != prevSeq+1 {
			return fmt.Errorf("entry %d: sequence gap: expected %d, got %d", n, prevSeq+1, entry.Seq)
		}
		if entry.PrevHash != expectedPrev {
			return fmt.Errorf("entry %d: prev_hash mismatch: expected %s, got %s", n, short(expectedPrev), short(entry.PrevHash))
		}
		if computed := computeHash(entry); entry.Hash != computed {
			return fmt.Errorf("entry %d: hash mismatch: expected %s, got %s", n, short(computed), short(entry.Hash))
		}
		expectedPrev = entry.Hash
		prevSeq = entry.Seq
	}
}

// Tail returns the last n entries from the audit log, oldest first.
// Unparseable lines are skipped.
func Tail(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	if n <= 0 {
		return []Entry{}, nil
	}
	ring := make([]Entry, 0, n)
	err = scanEntries(f, func(e Entry) {
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, e)
	})
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return ring, nil
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16] + "..."
	}
	return hash
}
