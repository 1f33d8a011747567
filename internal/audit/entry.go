package audit

import "time"

// Entry represents a single audit log record: one interpreted line.
type Entry struct {
	Seq      uint64    `json:"seq"`
	ID       string    `json:"id"` // invocation id, shared with the session log
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Identity string    `json:"identity,omitempty"` // originating nick, empty for local runs
	Target   string    `json:"target,omitempty"`   // conversation the reply went to
	Line     string    `json:"line"`               // command line after leader stripping
	Stages   []string  `json:"stages"`             // capability name of each stage
	OK       bool      `json:"ok"`
	Output   int       `json:"output_lines"`     // number of output lines on success
	Errors   []string  `json:"errors,omitempty"` // error lines on failure
	Duration float64   `json:"duration_ms"`
	Hash     string    `json:"hash"` // SHA-256 of this entry (with hash field empty)
}

// Record carries the caller-supplied fields of an Entry.
type Record struct {
	ID       string
	Identity string
	Target   string
	Line     string
	Stages   []string
	Output   int
	Errors   []string
	Duration time.Duration
}
