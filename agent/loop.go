package agent

import (
	"context"

	"github.com/harlanhaskins/claude-agent-go/hooks"
	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

// run drives one exchange: send the conversation, surface the reply,
// execute any requested tools in order, and repeat until the model
// stops asking for tools. Runs on its own goroutine; the stream channel
// closes when it returns.
func (c *Client) run(ctx context.Context, cancel context.CancelFunc, stream *Stream, userMsg models.Message) {
	defer cancel()
	defer close(stream.ch)

	c.appendHistory(userMsg)
	c.opts.Hooks.Emit(ctx, &hooks.Event{Type: hooks.EventAgentStarted, Payload: map[string]any{
		"model": c.opts.Model,
	}})

	for {
		if ctx.Err() != nil {
			return
		}

		reply, err := c.provider.SendMessage(ctx, c.buildRequest())
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation mid-request closes the stream cleanly.
				return
			}
			c.opts.Logger.Error("model request failed", "error", err)
			stream.setErr(err)
			return
		}

		c.appendHistory(*reply)
		if !c.emit(ctx, stream, *reply) {
			return
		}

		uses := reply.ToolUses()
		if len(uses) == 0 {
			break
		}

		for _, use := range uses {
			if ctx.Err() != nil {
				return
			}
			result := c.runtime.Execute(ctx, use.ID, use.Name, use.Input)
			msg := models.NewToolResultMessage(use.ID, result.Content, result.IsError)
			c.appendHistory(msg)
			if !c.emit(ctx, stream, msg) {
				return
			}
		}
	}

	c.mu.Lock()
	c.turns++
	turns := c.turns
	c.mu.Unlock()

	c.opts.Hooks.Emit(ctx, &hooks.Event{Type: hooks.EventAgentCompleted, Payload: map[string]any{
		"turns": turns,
	}})
}

func (c *Client) emit(ctx context.Context, stream *Stream, msg models.Message) bool {
	select {
	case stream.ch <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
