package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/harlanhaskins/claude-agent-go/anthropic"
	"github.com/harlanhaskins/claude-agent-go/pkg/models"
	"github.com/harlanhaskins/claude-agent-go/tools"
	"github.com/harlanhaskins/claude-agent-go/tools/builtin"
)

// Client is a stateful agent session: it owns the conversation history,
// the tool runtime, and the provider connection. One Client serves one
// conversation; queries on the same client share history. Methods are
// safe for concurrent use, but only one query should run at a time.
type Client struct {
	opts     Options
	provider Provider
	runtime  *tools.Runtime

	mu      sync.Mutex
	history []models.Message
	turns   int

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New builds a client backed by the Anthropic API. The builtin tools are
// registered; RegisterTool adds custom ones.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	provider, err := anthropic.New(anthropic.Config{
		APIKey:  opts.APIKey,
		BaseURL: opts.BaseURL,
		Hooks:   opts.Hooks,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return NewWithProvider(opts, provider)
}

// NewWithProvider builds a client on an injected provider. Used by tests
// and by callers bringing their own transport.
func NewWithProvider(opts Options, provider Provider) (*Client, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	registry := tools.NewRegistry()
	runtime := tools.NewRuntime(tools.RuntimeConfig{
		Registry:     registry,
		AllowedTools: opts.AllowedTools,
		Mode:         opts.PermissionMode,
		Permissioner: opts.Permissioner,
		Hooks:        opts.Hooks,
		Logger:       opts.Logger,
		WorkingDir:   opts.WorkingDirectory,
	})
	if err := builtin.Register(registry, runtime.Journal()); err != nil {
		return nil, err
	}

	return &Client{opts: opts, provider: provider, runtime: runtime}, nil
}

// RegisterTool makes a custom tool available to subsequent queries.
func (c *Client) RegisterTool(tool tools.Tool) error {
	return c.runtime.Registry().Register(tool)
}

// Runtime exposes the tool runtime, mainly so callers can reach the
// file tracker and journal.
func (c *Client) Runtime() *tools.Runtime { return c.runtime }

// Query sends a text prompt and returns the resulting message stream.
func (c *Client) Query(ctx context.Context, prompt string) (*Stream, error) {
	return c.QueryContent(ctx, models.TextBlock(prompt))
}

// QueryContent sends a prompt of arbitrary content blocks, which may
// include image and document attachments.
func (c *Client) QueryContent(ctx context.Context, blocks ...models.ContentBlock) (*Stream, error) {
	c.mu.Lock()
	limited := c.opts.MaxTurns > 0 && c.turns >= c.opts.MaxTurns
	c.mu.Unlock()
	if limited {
		// Turn budget spent: complete immediately with no messages.
		return closedStream(), nil
	}

	qctx, cancel := context.WithCancel(ctx)
	c.cancelMu.Lock()
	c.cancel = cancel
	c.cancelMu.Unlock()

	stream := newStream()
	go c.run(qctx, cancel, stream, models.NewUserBlocks(blocks...))
	return stream, nil
}

// Cancel aborts the in-flight query, if any. The stream closes without
// an error; history keeps everything appended before the cut.
func (c *Client) Cancel() {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// History returns a deep copy of the conversation so far. The snapshot
// shares nothing with live history, so in-flight attachment resolution
// cannot race a reader.
func (c *Client) History() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMessages(c.history)
}

func cloneMessages(msgs []models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Clone()
	}
	return out
}

// ClearHistory drops the conversation and resets the turn counter and
// file tracker. The next query starts fresh.
func (c *Client) ClearHistory() {
	c.mu.Lock()
	c.history = nil
	c.turns = 0
	c.mu.Unlock()
	c.runtime.Tracker().ClearAll()
}

// TurnCount reports completed user-visible exchanges.
func (c *Client) TurnCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns
}

func (c *Client) appendHistory(msg models.Message) {
	c.mu.Lock()
	c.history = append(c.history, msg)
	c.mu.Unlock()
}

func (c *Client) buildRequest() *anthropic.MessageRequest {
	// The provider rewrites attachment sources in place during upload
	// resolution; give it its own copy so history stays untouched.
	c.mu.Lock()
	msgs := cloneMessages(c.history)
	c.mu.Unlock()

	var allowed map[string]struct{}
	if c.opts.AllowedTools != nil {
		allowed = make(map[string]struct{}, len(c.opts.AllowedTools))
		for _, name := range c.opts.AllowedTools {
			allowed[name] = struct{}{}
		}
	}

	return &anthropic.MessageRequest{
		Model:       c.opts.Model,
		Messages:    msgs,
		System:      c.opts.SystemPrompt,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		Thinking:    c.opts.Thinking,
		Tools:       c.runtime.Registry().Descriptors(allowed),
	}
}
