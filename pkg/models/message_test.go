package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestContentBlockWireShape(t *testing.T) {
	tests := []struct {
		name  string
		block ContentBlock
		want  map[string]any
	}{
		{
			name:  "text",
			block: TextBlock("hello"),
			want:  map[string]any{"type": "text", "text": "hello"},
		},
		{
			name:  "thinking",
			block: ThinkingBlock("hmm"),
			want:  map[string]any{"type": "thinking", "thinking": "hmm"},
		},
		{
			name:  "tool_use",
			block: ToolUseBlock("u1", "Read", json.RawMessage(`{"file_path":"/tmp/a"}`)),
			want: map[string]any{
				"type": "tool_use", "id": "u1", "name": "Read",
				"input": map[string]any{"file_path": "/tmp/a"},
			},
		},
		{
			name:  "tool_result",
			block: ToolResultBlock("u1", "ok", true),
			want: map[string]any{
				"type": "tool_result", "tool_use_id": "u1",
				"content": "ok", "is_error": true,
			},
		},
		{
			name:  "image base64",
			block: ImageBlock("image/png", "aGk="),
			want: map[string]any{
				"type": "image",
				"source": map[string]any{
					"type": "base64", "media_type": "image/png", "data": "aGk=",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(tt.block)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(payload, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wire shape = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentBlockRoundTrip(t *testing.T) {
	blocks := []ContentBlock{
		TextBlock("hello"),
		ToolUseBlock("u1", "Bash", json.RawMessage(`{"command":"ls"}`)),
		ToolResultBlock("u1", "files", false),
		ImageBlock("image/jpeg", "data"),
		DocumentBlock("application/pdf", "data"),
		{Type: BlockDocument, Source: &Source{Type: SourceFile, FileID: "file_123"}},
	}

	for _, b := range blocks {
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal %s: %v", b.Type, err)
		}
		var decoded ContentBlock
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", b.Type, err)
		}
		if !reflect.DeepEqual(b, decoded) {
			t.Errorf("round trip %s: got %+v, want %+v", b.Type, decoded, b)
		}
	}
}

func TestLocalPathNeverSerializes(t *testing.T) {
	block := DocumentFile("/tmp/report.pdf")
	payload, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	source, ok := raw["source"].(map[string]any)
	if !ok {
		t.Fatalf("missing source: %v", raw)
	}
	if _, found := source["local_path"]; found {
		t.Error("local_path leaked onto the wire")
	}
}

func TestMessageCloneIsIndependent(t *testing.T) {
	original := NewUserBlocks(
		TextBlock("see attachment"),
		DocumentFile("/tmp/report.pdf"),
	)

	clone := original.Clone()
	clone.Content[0].Text = "tampered"
	clone.Content[1].Source.FileID = "file_bogus"
	clone.Content[1].Source.LocalPath = ""

	if original.Content[0].Text != "see attachment" {
		t.Errorf("text mutated through clone: %q", original.Content[0].Text)
	}
	source := original.Content[1].Source
	if source.FileID != "" || source.LocalPath != "/tmp/report.pdf" {
		t.Errorf("source mutated through clone: %+v", source)
	}

	empty := Message{Role: RoleAssistant}
	if got := empty.Clone(); got.Content != nil {
		t.Errorf("clone of empty message grew content: %+v", got)
	}
}

func TestMessageAccessors(t *testing.T) {
	msg := NewAssistantMessage("model-x",
		TextBlock("let me check"),
		ToolUseBlock("u1", "Read", json.RawMessage(`{}`)),
		TextBlock(" now"),
		ToolUseBlock("u2", "Grep", json.RawMessage(`{}`)),
	)

	if got := msg.Text(); got != "let me check now" {
		t.Errorf("Text() = %q", got)
	}
	uses := msg.ToolUses()
	if len(uses) != 2 || uses[0].ID != "u1" || uses[1].ID != "u2" {
		t.Errorf("ToolUses() = %+v", uses)
	}

	result := NewToolResultMessage("u1", "contents", false)
	if result.Role != RoleTool {
		t.Errorf("role = %s", result.Role)
	}
	if rs := result.ToolResults(); len(rs) != 1 || rs[0].ToolUseID != "u1" {
		t.Errorf("ToolResults() = %+v", rs)
	}
}
