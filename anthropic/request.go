package anthropic

import (
	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

// MessageRequest is one model turn: the full history plus sampling
// parameters and the tools the model may request.
type MessageRequest struct {
	Model       string
	Messages    []models.Message
	System      string
	MaxTokens   int
	Temperature *float64
	Tools       []models.ToolDescriptor
	Thinking    bool
}

type wireThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

type wireMessage struct {
	Role    string                `json:"role"`
	Content []models.ContentBlock `json:"content"`
}

type wireRequest struct {
	Model       string                  `json:"model"`
	Messages    []wireMessage           `json:"messages"`
	MaxTokens   int                     `json:"max_tokens"`
	System      string                  `json:"system,omitempty"`
	Temperature *float64                `json:"temperature,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
	Tools       []models.ToolDescriptor `json:"tools,omitempty"`
	Thinking    *wireThinking           `json:"thinking,omitempty"`
}

type wireResponse struct {
	Role       string                `json:"role"`
	Model      string                `json:"model"`
	Content    []models.ContentBlock `json:"content"`
	StopReason string                `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type wireError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// encodeRequest translates a MessageRequest into the wire body. System
// messages are lifted into the top-level system field (an explicit
// req.System wins), tool messages become user-role tool_result carriers,
// and thinking blocks collapse to text.
func encodeRequest(req *MessageRequest, stream bool) *wireRequest {
	system := req.System
	wire := &wireRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
		Tools:       req.Tools,
	}
	if req.Thinking {
		wire.Thinking = &wireThinking{Type: "enabled"}
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleSystem:
			if system == "" {
				system = msg.Text()
			}
		case models.RoleTool:
			wire.Messages = append(wire.Messages, wireMessage{
				Role:    string(models.RoleUser),
				Content: msg.ToolResults(),
			})
		case models.RoleAssistant:
			wire.Messages = append(wire.Messages, wireMessage{
				Role:    string(models.RoleAssistant),
				Content: collapseThinking(msg.Content),
			})
		default:
			wire.Messages = append(wire.Messages, wireMessage{
				Role:    string(models.RoleUser),
				Content: msg.Content,
			})
		}
	}

	wire.System = system
	return wire
}

func collapseThinking(blocks []models.ContentBlock) []models.ContentBlock {
	collapsed := make([]models.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == models.BlockThinking {
			collapsed = append(collapsed, models.TextBlock(b.Thinking))
			continue
		}
		collapsed = append(collapsed, b)
	}
	return collapsed
}

// usesFiles reports whether any message carries an image/document block,
// which requires the files beta header.
func usesFiles(messages []models.Message) bool {
	for _, msg := range messages {
		for _, b := range msg.Content {
			if b.Type == models.BlockImage || b.Type == models.BlockDocument {
				return true
			}
		}
	}
	return false
}
