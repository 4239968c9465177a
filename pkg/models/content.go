package models

import "encoding/json"

// BlockType tags a content block variant.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockThinking   BlockType = "thinking"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockImage      BlockType = "image"
	BlockDocument   BlockType = "document"
)

// SourceType tags how an image/document source is carried.
type SourceType string

const (
	SourceBase64 SourceType = "base64"
	SourceFile   SourceType = "file"
)

// Source describes where an image or document's bytes come from.
// Exactly one of Data (inline base64) or FileID (provider file reference)
// is set on the wire. LocalPath is local bookkeeping for attachments that
// have not been uploaded yet; it never serializes.
type Source struct {
	Type      SourceType `json:"type"`
	MediaType string     `json:"media_type,omitempty"`
	Data      string     `json:"data,omitempty"`
	FileID    string     `json:"file_id,omitempty"`
	LocalPath string     `json:"-"`
}

// ContentBlock is one atom of message content. The struct is wire-shaped:
// it marshals directly to the provider block format, with Type selecting
// which fields are meaningful.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// text / thinking
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`

	// image / document
	Source *Source `json:"source,omitempty"`
}

// TextBlock creates a text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ThinkingBlock creates a thinking block.
func ThinkingBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockThinking, Thinking: text}
}

// ToolUseBlock creates a tool_use block.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock creates a tool_result block referencing a prior tool use.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// ImageBlock creates an inline base64 image block.
func ImageBlock(mediaType, data string) ContentBlock {
	return ContentBlock{Type: BlockImage, Source: &Source{Type: SourceBase64, MediaType: mediaType, Data: data}}
}

// DocumentBlock creates an inline base64 document block.
func DocumentBlock(mediaType, data string) ContentBlock {
	return ContentBlock{Type: BlockDocument, Source: &Source{Type: SourceBase64, MediaType: mediaType, Data: data}}
}

// ImageFile creates an image block backed by a local file, to be uploaded
// and rewritten to a file reference by the provider client.
func ImageFile(path string) ContentBlock {
	return ContentBlock{Type: BlockImage, Source: &Source{Type: SourceFile, LocalPath: path}}
}

// DocumentFile creates a document block backed by a local file.
func DocumentFile(path string) ContentBlock {
	return ContentBlock{Type: BlockDocument, Source: &Source{Type: SourceFile, LocalPath: path}}
}
