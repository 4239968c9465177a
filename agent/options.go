package agent

import (
	"fmt"
	"log/slog"

	"github.com/harlanhaskins/claude-agent-go/hooks"
	"github.com/harlanhaskins/claude-agent-go/tools"
)

const (
	// DefaultModel is used when Options.Model is empty.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens is used when Options.MaxTokens is zero.
	DefaultMaxTokens = 4096
)

// Options configures a Client. APIKey is required unless a provider is
// injected with NewWithProvider; everything else has a usable default.
type Options struct {
	// APIKey authenticates against the provider. The caller loads it;
	// the client never reads the environment.
	APIKey string

	// Model selects the model identifier.
	Model string

	// SystemPrompt, when set, is sent as the top-level system field.
	SystemPrompt string

	// MaxTurns bounds user-visible exchanges. Zero means unlimited.
	MaxTurns int

	// WorkingDirectory is the default directory for tool execution.
	WorkingDirectory string

	// AllowedTools, when non-nil, restricts dispatch to the named tools.
	AllowedTools []string

	// PermissionMode selects the tool approval policy. Defaults to ask.
	PermissionMode tools.PermissionMode

	// Permissioner answers approval requests in ask mode.
	Permissioner tools.Permissioner

	// MaxTokens and Temperature pass through to the provider.
	MaxTokens   int
	Temperature *float64

	// Thinking enables interleaved thinking.
	Thinking bool

	// BaseURL overrides the provider endpoint, mainly for tests.
	BaseURL string

	Hooks  *hooks.Bus
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.PermissionMode == "" {
		o.PermissionMode = tools.PermissionAsk
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) validate() error {
	if o.MaxTurns < 0 {
		return fmt.Errorf("max_turns must not be negative")
	}
	return nil
}
