package tools

import (
	"encoding/json"
	"sync"
	"time"
)

// Execution records one completed tool call. The JavaScript tool exposes
// these to scripts as the tool history.
type Execution struct {
	ToolUseID string
	ToolName  string
	Input     json.RawMessage
	Output    string
	IsError   bool
	Duration  time.Duration
}

// Journal is a bounded in-memory log of tool executions, oldest first.
type Journal struct {
	entries []Execution
	max     int
	mu      sync.Mutex
}

// NewJournal creates a journal retaining at most max entries. max <= 0
// selects the default of 100.
func NewJournal(max int) *Journal {
	if max <= 0 {
		max = 100
	}
	return &Journal{max: max}
}

// Append records an execution, evicting the oldest entry when full.
func (j *Journal) Append(exec Execution) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, exec)
	if len(j.entries) > j.max {
		j.entries = j.entries[len(j.entries)-j.max:]
	}
}

// History returns a snapshot of the recorded executions, oldest first.
func (j *Journal) History() []Execution {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Execution, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of recorded executions.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
