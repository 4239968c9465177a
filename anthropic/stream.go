package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

// MessageStream delivers the terminal message of a streaming request.
// The channel closes when the exchange finishes, fails, or is cancelled;
// after close, Err reports the terminal transport or protocol error.
// Cancellation closes the channel with a nil Err.
type MessageStream struct {
	ch  chan *models.Message
	mu  sync.Mutex
	err error
}

// Messages returns the channel carrying the terminal message.
func (s *MessageStream) Messages() <-chan *models.Message { return s.ch }

// Err returns the terminal error, valid after Messages is closed.
func (s *MessageStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *MessageStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// StreamComplete issues a streaming request and normalizes the event
// stream into exactly one terminal assistant message, preserving the
// one-assistant-message-per-turn contract the agent loop relies on.
// Cancelling ctx before completion discards the in-flight request and
// closes the stream without emitting.
func (c *Client) StreamComplete(ctx context.Context, req *MessageRequest) (*MessageStream, error) {
	if err := c.resolveAttachments(ctx, req.Messages); err != nil {
		return nil, err
	}

	body, err := json.Marshal(encodeRequest(req, true))
	if err != nil {
		return nil, &ProviderError{Kind: ProviderErrProtocol, Message: "encode request", Cause: err}
	}

	streamCtx, cancel := context.WithTimeout(ctx, c.overallTimeout)

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.baseURL+"/messages", strings.NewReader(string(body)))
	if err != nil {
		cancel()
		return nil, &ProviderError{Kind: ProviderErrTransport, Cause: err}
	}
	c.setHeaders(httpReq, usesFiles(req.Messages), req.Thinking)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, &ProviderError{Kind: ProviderErrTransport, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, &ProviderError{
			Kind:    ProviderErrStatus,
			Status:  resp.StatusCode,
			Message: apiErrorMessage(raw),
			Body:    string(raw),
		}
	}

	stream := &MessageStream{ch: make(chan *models.Message, 1)}
	go func() {
		defer close(stream.ch)
		defer cancel()
		defer resp.Body.Close()

		msg, err := assembleStream(resp.Body)
		if err != nil {
			// Caller cancellation closes silently; anything else is a
			// real stream failure the caller must be able to observe.
			if ctx.Err() == nil {
				c.logger.Warn("stream terminated early", "error", err)
				stream.setErr(err)
			}
			return
		}
		select {
		case stream.ch <- msg:
		case <-streamCtx.Done():
		}
	}()
	return stream, nil
}

// streamAccumulator rebuilds content blocks from incremental SSE events.
type streamAccumulator struct {
	model     string
	blocks    map[int]*models.ContentBlock
	inputJSON map[int]*strings.Builder
	order     []int
	done      bool
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{
		blocks:    make(map[int]*models.ContentBlock),
		inputJSON: make(map[int]*strings.Builder),
	}
}

// assembleStream consumes the SSE body and produces the terminal
// assistant message.
func assembleStream(reader io.Reader) (*models.Message, error) {
	acc := newStreamAccumulator()
	if err := parseSSE(reader, acc.handleEvent); err != nil {
		return nil, err
	}
	if !acc.done {
		return nil, &ProviderError{Kind: ProviderErrProtocol, Message: "stream ended without message_stop"}
	}
	return acc.message(), nil
}

func (a *streamAccumulator) handleEvent(eventType, data string) error {
	switch eventType {
	case "message_start":
		var event struct {
			Message struct {
				Model string `json:"model"`
			} `json:"message"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return &ProviderError{Kind: ProviderErrDecode, Message: "decode message_start", Cause: err}
		}
		a.model = event.Message.Model

	case "content_block_start":
		var event struct {
			Index        int                 `json:"index"`
			ContentBlock models.ContentBlock `json:"content_block"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return &ProviderError{Kind: ProviderErrDecode, Message: "decode content_block_start", Cause: err}
		}
		block := event.ContentBlock
		if block.Type == models.BlockToolUse {
			// Input arrives via input_json_delta events.
			block.Input = nil
		}
		a.blocks[event.Index] = &block
		a.order = append(a.order, event.Index)

	case "content_block_delta":
		var event struct {
			Index int `json:"index"`
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				Thinking    string `json:"thinking"`
				PartialJSON string `json:"partial_json"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return &ProviderError{Kind: ProviderErrDecode, Message: "decode content_block_delta", Cause: err}
		}
		block, ok := a.blocks[event.Index]
		if !ok {
			return &ProviderError{Kind: ProviderErrProtocol, Message: fmt.Sprintf("delta for unknown block %d", event.Index)}
		}
		switch event.Delta.Type {
		case "text_delta":
			block.Text += event.Delta.Text
		case "thinking_delta":
			block.Thinking += event.Delta.Thinking
		case "input_json_delta":
			builder, ok := a.inputJSON[event.Index]
			if !ok {
				builder = &strings.Builder{}
				a.inputJSON[event.Index] = builder
			}
			builder.WriteString(event.Delta.PartialJSON)
		}

	case "content_block_stop":
		var event struct {
			Index int `json:"index"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return &ProviderError{Kind: ProviderErrDecode, Message: "decode content_block_stop", Cause: err}
		}
		if block, ok := a.blocks[event.Index]; ok && block.Type == models.BlockToolUse {
			input := "{}"
			if builder, ok := a.inputJSON[event.Index]; ok && builder.Len() > 0 {
				input = builder.String()
			}
			block.Input = json.RawMessage(input)
		}

	case "message_stop":
		a.done = true
	}
	return nil
}

func (a *streamAccumulator) message() *models.Message {
	content := make([]models.ContentBlock, 0, len(a.order))
	for _, idx := range a.order {
		content = append(content, *a.blocks[idx])
	}
	return &models.Message{Role: models.RoleAssistant, Model: a.model, Content: content}
}

// parseSSE reads server-sent events: "event:" selects the type, "data:"
// lines accumulate until a blank line terminates the event.
func parseSSE(reader io.Reader, handler func(eventType, data string) error) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var eventType string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if eventType != "" || len(dataLines) > 0 {
				data := strings.Join(dataLines, "\n")
				if err := handler(eventType, data); err != nil {
					return err
				}
				eventType = ""
				dataLines = nil
			}
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		} else if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// Comments (:), id: and retry: lines are ignored.
	}
	if err := scanner.Err(); err != nil {
		return &ProviderError{Kind: ProviderErrTransport, Message: "read stream", Cause: err}
	}

	// Flush a trailing event not terminated by a blank line.
	if eventType != "" || len(dataLines) > 0 {
		return handler(eventType, strings.Join(dataLines, "\n"))
	}
	return nil
}
