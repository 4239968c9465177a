package tools

import (
	"context"
	"encoding/json"
)

// Capability classifies what a tool may touch. The permission policy and
// the file tracker key off the declared set.
type Capability string

const (
	CapRead    Capability = "read"
	CapWrite   Capability = "write"
	CapNetwork Capability = "network"
	CapExecute Capability = "execute"
)

// CapabilitySet is the declared capabilities of one tool.
type CapabilitySet map[Capability]bool

// Caps builds a capability set.
func Caps(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool { return s[c] }

// EditOnly reports whether the set is contained in {read, write}. Tools
// passing this check are auto-approved under PermissionAcceptEdits.
func (s CapabilitySet) EditOnly() bool {
	for c := range s {
		if c != CapRead && c != CapWrite {
			return false
		}
	}
	return true
}

// ToolResult is the outcome of one tool execution. Failures are carried
// in-band with IsError set; Execute never surfaces them as Go errors.
type ToolResult struct {
	Content    string
	IsError    bool
	Structured any
}

// Tool is the handler contract. Schema returns a JSON Schema object for
// the tool's input; it is both advertised to the provider and enforced by
// the runtime before Execute is called.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Capabilities() CapabilitySet
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// FileWriter is implemented by write-capability tools that mutate a single
// file. The runtime consults it before Execute to enforce the
// read-before-write interlock. mustExist distinguishes update-style tools
// (the target must already exist) from create-or-overwrite tools.
type FileWriter interface {
	WriteTarget(params json.RawMessage, workingDir string) (path string, mustExist bool, err error)
}

// FileReader is implemented by read-capability tools that read a single
// file. The runtime records the read after a successful execution.
type FileReader interface {
	ReadTarget(params json.RawMessage, workingDir string) (string, error)
}

type scopeKey struct{}

// Scope carries per-invocation context to tool handlers.
type Scope struct {
	WorkingDir string
	ToolUseID  string
}

// WithScope attaches an invocation scope to ctx.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom extracts the invocation scope, or the zero scope if absent.
func ScopeFrom(ctx context.Context) Scope {
	if s, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return s
	}
	return Scope{}
}
