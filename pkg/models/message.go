package models

// Role indicates the message author type. RoleTool marks a message that
// carries tool results back to the model; on the wire it maps to a
// user-role message with tool_result blocks.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation history.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
	Model   string         `json:"model,omitempty"`
}

// NewUserMessage creates a user message with a single text block.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// NewUserBlocks creates a user message from explicit content blocks.
func NewUserBlocks(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// NewSystemMessage creates a system message. At most one per request; the
// provider client lifts it into the top-level system field.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: []ContentBlock{TextBlock(text)}}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(model string, blocks ...ContentBlock) Message {
	return Message{Role: RoleAssistant, Model: model, Content: blocks}
}

// NewToolResultMessage creates a tool message carrying a single result
// referencing a prior tool use.
func NewToolResultMessage(toolUseID, content string, isError bool) Message {
	return Message{Role: RoleTool, Content: []ContentBlock{ToolResultBlock(toolUseID, content, isError)}}
}

// Clone returns a deep copy. The content slice and any block sources are
// duplicated, so mutating the copy (or resolving its attachments) never
// touches the original.
func (m Message) Clone() Message {
	if m.Content == nil {
		return m
	}
	content := make([]ContentBlock, len(m.Content))
	copy(content, m.Content)
	for i := range content {
		if content[i].Source != nil {
			source := *content[i].Source
			content[i].Source = &source
		}
	}
	m.Content = content
	return m
}

// Text concatenates the message's text blocks.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns the tool_use blocks in content order.
func (m Message) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range m.Content {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

// ToolResults returns the tool_result blocks in content order.
func (m Message) ToolResults() []ContentBlock {
	var results []ContentBlock
	for _, b := range m.Content {
		if b.Type == BlockToolResult {
			results = append(results, b)
		}
	}
	return results
}
