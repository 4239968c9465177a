package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxFetchTimeout     = 120 * time.Second
	maxFetchBody        = 5 << 20
)

// FetchTool performs an HTTP GET against an http/https URL.
type FetchTool struct {
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

func (t *FetchTool) Name() string { return "Fetch" }

func (t *FetchTool) Description() string {
	return "Fetch the contents of an http or https URL."
}

func (t *FetchTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "URL to fetch (http or https).",
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Extra request headers.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Timeout in milliseconds (default 30000, max 120000).",
				"minimum":     1,
			},
		},
		"required": []string{"url"},
	})
}

func (t *FetchTool) Capabilities() tools.CapabilitySet { return tools.Caps(tools.CapNetwork) }

func (t *FetchTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input struct {
		URL     string            `json:"url"`
		Headers map[string]string `json:"headers"`
		Timeout int               `json:"timeout"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	parsed, err := url.Parse(input.URL)
	if err != nil {
		return toolError(fmt.Sprintf("invalid url: %v", err)), nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return toolError(fmt.Sprintf("unsupported scheme: %s", parsed.Scheme)), nil
	}

	timeout := defaultFetchTimeout
	if input.Timeout > 0 {
		timeout = time.Duration(input.Timeout) * time.Millisecond
	}
	if timeout > maxFetchTimeout {
		timeout = maxFetchTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, input.URL, nil)
	if err != nil {
		return toolError(fmt.Sprintf("build request: %v", err)), nil
	}
	for key, value := range input.Headers {
		req.Header.Set(key, value)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return toolError("cancelled"), nil
		}
		return toolError(fmt.Sprintf("fetch %s: %v", input.URL, err)), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
	if err != nil {
		return toolError(fmt.Sprintf("read response: %v", err)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "HTTP %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		fmt.Fprintf(&out, "content-type: %s\n", ct)
	}
	out.WriteString("\n")
	out.Write(body)

	return &tools.ToolResult{Content: out.String(), IsError: resp.StatusCode >= 400}, nil
}
