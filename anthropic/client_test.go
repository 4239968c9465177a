package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestSendMessageRequestShape(t *testing.T) {
	var captured map[string]any
	var headers http.Header

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"role":"assistant","model":"model-x","content":[{"type":"text","text":"hi"}]}`)
	})

	temp := 0.7
	reply, err := client.SendMessage(context.Background(), &MessageRequest{
		Model:     "model-x",
		MaxTokens: 1024,
		Messages: []models.Message{
			models.NewSystemMessage("be terse"),
			models.NewUserMessage("hello"),
			models.NewAssistantMessage("model-x",
				models.ThinkingBlock("pondering"),
				models.TextBlock("checking"),
				models.ToolUseBlock("u1", "Read", json.RawMessage(`{"file_path":"/tmp/a"}`)),
			),
			models.NewToolResultMessage("u1", "contents", false),
		},
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if headers.Get("x-api-key") != "test-key" {
		t.Error("missing x-api-key header")
	}
	if headers.Get("anthropic-version") != "2023-06-01" {
		t.Errorf("anthropic-version = %q", headers.Get("anthropic-version"))
	}
	if headers.Get("Content-Type") != "application/json" {
		t.Errorf("content-type = %q", headers.Get("Content-Type"))
	}

	if captured["system"] != "be terse" {
		t.Errorf("system = %v, want lifted system prompt", captured["system"])
	}
	if captured["model"] != "model-x" || captured["max_tokens"] != float64(1024) {
		t.Errorf("model/max_tokens = %v/%v", captured["model"], captured["max_tokens"])
	}
	if captured["temperature"] != 0.7 {
		t.Errorf("temperature = %v", captured["temperature"])
	}

	messages := captured["messages"].([]any)
	if len(messages) != 3 {
		t.Fatalf("wire message count = %d, want 3 (system lifted)", len(messages))
	}

	assistant := messages[1].(map[string]any)
	if assistant["role"] != "assistant" {
		t.Errorf("second wire message role = %v", assistant["role"])
	}
	blocks := assistant["content"].([]any)
	first := blocks[0].(map[string]any)
	if first["type"] != "text" || first["text"] != "pondering" {
		t.Errorf("thinking block did not collapse to text: %v", first)
	}

	toolMsg := messages[2].(map[string]any)
	if toolMsg["role"] != "user" {
		t.Errorf("tool message mapped to role %v, want user", toolMsg["role"])
	}
	resultBlock := toolMsg["content"].([]any)[0].(map[string]any)
	if resultBlock["type"] != "tool_result" || resultBlock["tool_use_id"] != "u1" {
		t.Errorf("tool_result block = %v", resultBlock)
	}

	if reply.Role != models.RoleAssistant || reply.Text() != "hi" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestSendMessagePreservesToolUse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"role":"assistant","model":"model-x",
			"content":[
				{"type":"text","text":"let me look"},
				{"type":"tool_use","id":"toolu_01","name":"Grep","input":{"pattern":"func main"}}
			]
		}`)
	})

	reply, err := client.SendMessage(context.Background(), &MessageRequest{
		Model:     "model-x",
		MaxTokens: 256,
		Messages:  []models.Message{models.NewUserMessage("find main")},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	uses := reply.ToolUses()
	if len(uses) != 1 || uses[0].ID != "toolu_01" || uses[0].Name != "Grep" {
		t.Fatalf("tool uses = %+v", uses)
	}
	var input map[string]string
	if err := json.Unmarshal(uses[0].Input, &input); err != nil || input["pattern"] != "func main" {
		t.Errorf("raw input not preserved: %s", uses[0].Input)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"max_tokens is required"}}`)
	})

	_, err := client.SendMessage(context.Background(), &MessageRequest{
		Model:    "model-x",
		Messages: []models.Message{models.NewUserMessage("hi")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsProviderError(err) {
		t.Fatalf("error type = %T", err)
	}
	if !strings.Contains(err.Error(), "max_tokens is required") {
		t.Errorf("error = %v, want API message surfaced", err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Error("error leaked the API key")
	}
}

func TestSendMessageMalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json at all`)
	})

	_, err := client.SendMessage(context.Background(), &MessageRequest{
		Model:     "model-x",
		MaxTokens: 10,
		Messages:  []models.Message{models.NewUserMessage("hi")},
	})
	if !IsProviderError(err) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
}

func TestBetaHeaders(t *testing.T) {
	var beta string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		beta = r.Header.Get("anthropic-beta")
		io.WriteString(w, `{"role":"assistant","model":"m","content":[]}`)
	})

	// Plain text request: no beta header.
	client.SendMessage(context.Background(), &MessageRequest{
		Model: "m", MaxTokens: 10,
		Messages: []models.Message{models.NewUserMessage("hi")},
	})
	if beta != "" {
		t.Errorf("beta = %q for plain request", beta)
	}

	// Thinking enabled: thinking beta only.
	client.SendMessage(context.Background(), &MessageRequest{
		Model: "m", MaxTokens: 10, Thinking: true,
		Messages: []models.Message{models.NewUserMessage("hi")},
	})
	if beta != "interleaved-thinking-2025-05-14" {
		t.Errorf("beta = %q for thinking request", beta)
	}

	// Attachment present: files beta included.
	client.SendMessage(context.Background(), &MessageRequest{
		Model: "m", MaxTokens: 10,
		Messages: []models.Message{
			models.NewUserBlocks(models.TextBlock("see"), models.DocumentBlock("application/pdf", "ZGF0YQ==")),
		},
	})
	if !strings.Contains(beta, "files-api-2025-04-14") {
		t.Errorf("beta = %q for attachment request", beta)
	}
}
