package tools

import (
	"fmt"
	"strings"
)

// OutputLimiter truncates over-budget tool output before it is fed back
// to the model.
type OutputLimiter struct {
	// MaxBytes is the byte budget for tool output.
	MaxBytes int

	// MaxItems is the line budget for tool output.
	MaxItems int
}

// DefaultOutputLimiter returns the standard budgets.
func DefaultOutputLimiter() *OutputLimiter {
	return &OutputLimiter{MaxBytes: 50 * 1024, MaxItems: 500}
}

// Truncate enforces the byte and line budgets on content. When over
// budget it cuts at the tighter of the two limits, preferring a newline
// boundary for the byte cut, and appends a single marker line carrying
// the original size and a hint to narrow the query. The second return
// reports whether truncation occurred.
func (l *OutputLimiter) Truncate(content string) (string, bool) {
	totalBytes := len(content)
	totalLines := strings.Count(content, "\n") + 1
	if content == "" {
		totalLines = 0
	}

	overBytes := l.MaxBytes > 0 && totalBytes > l.MaxBytes
	overItems := l.MaxItems > 0 && totalLines > l.MaxItems
	if !overBytes && !overItems {
		return content, false
	}

	truncated := content
	if overBytes {
		cut := l.MaxBytes
		if idx := strings.LastIndexByte(truncated[:cut], '\n'); idx > 0 {
			cut = idx
		}
		truncated = truncated[:cut]
	}
	if l.MaxItems > 0 {
		lines := strings.SplitAfter(truncated, "\n")
		if len(lines) > l.MaxItems {
			truncated = strings.Join(lines[:l.MaxItems], "")
		}
	}
	truncated = strings.TrimRight(truncated, "\n")

	marker := fmt.Sprintf(
		"[output truncated: full result was %d bytes, %d lines; narrow your query to see more]",
		totalBytes, totalLines)
	return truncated + "\n" + marker, true
}
