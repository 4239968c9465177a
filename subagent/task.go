package subagent

import (
	"time"

	"github.com/harlanhaskins/claude-agent-go/hooks"
)

// Task describes one unit of delegated work. Each task runs on its own
// agent client with isolated history.
type Task struct {
	// ID identifies the task in results and events. Assigned if empty.
	ID string

	// Description is a short human-readable label carried into the result.
	Description string

	// Prompt is the instruction given to the delegated agent.
	Prompt string

	// SystemPrompt, when set, overrides the coordinator default.
	SystemPrompt string

	// Tools, when non-nil, restricts the delegated agent to these tools.
	Tools []string

	// Timeout bounds the task. Nil means the coordinator default; an
	// explicit zero or negative duration fails the task immediately.
	Timeout *time.Duration

	// MaxTurns bounds the delegated agent's exchanges. Zero is unlimited.
	MaxTurns int

	// SummarizeResult condenses long output with a follow-up model call.
	SummarizeResult bool
}

// Result reports one finished task. Error is in-band: a failed task does
// not fail the batch.
type Result struct {
	ID            string        `json:"id"`
	Description   string        `json:"description"`
	Summary       string        `json:"summary"`
	FullOutput    string        `json:"full_output"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
	TurnCount     int           `json:"turn_count"`
	ToolCallCount int           `json:"tool_call_count"`
}

// BatchResult holds every task result in submission order. TotalDuration
// is wall clock for the whole batch, not the sum of task durations.
type BatchResult struct {
	Results       []Result      `json:"results"`
	TotalDuration time.Duration `json:"total_duration"`
}

// Progress events emitted on the coordinator's hook bus. Payloads carry
// task_id and description; failures add error.
const (
	EventTaskStarted   hooks.EventType = "subagent.task.started"
	EventTaskMessage   hooks.EventType = "subagent.task.message"
	EventTaskToolCall  hooks.EventType = "subagent.task.tool_call"
	EventTaskCompleted hooks.EventType = "subagent.task.completed"
	EventTaskFailed    hooks.EventType = "subagent.task.failed"
)
