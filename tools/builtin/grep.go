package builtin

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

const defaultGrepMaxResults = 100

// GrepTool searches file contents with a regular expression, streaming
// each file through a buffered line reader rather than loading it whole.
type GrepTool struct{}

func (t *GrepTool) Name() string { return "Grep" }

func (t *GrepTool) Description() string {
	return "Search file contents with a regular expression. Returns path:line:text matches."
}

func (t *GrepTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Regular expression to search for.",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "File or directory to search (default: working directory).",
			},
			"file_pattern": map[string]any{
				"type":        "string",
				"description": "Glob filter on file names, e.g. *.go.",
			},
			"ignore_case": map[string]any{
				"type":        "boolean",
				"description": "Case-insensitive matching.",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Stop after this many matches (default 100).",
				"minimum":     1,
			},
		},
		"required": []string{"pattern"},
	})
}

func (t *GrepTool) Capabilities() tools.CapabilitySet { return tools.Caps(tools.CapRead) }

func (t *GrepTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input struct {
		Pattern     string `json:"pattern"`
		Path        string `json:"path"`
		FilePattern string `json:"file_pattern"`
		IgnoreCase  bool   `json:"ignore_case"`
		MaxResults  int    `json:"max_results"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if input.Pattern == "" {
		return toolError("pattern is required"), nil
	}

	pattern := input.Pattern
	if input.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return toolError(fmt.Sprintf("invalid pattern: %v", err)), nil
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = defaultGrepMaxResults
	}

	root := resolvePath(ctx, input.Path)
	if input.Path == "" {
		root = resolvePath(ctx, ".")
	}

	var matches []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			if name := entry.Name(); name == ".git" || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if input.FilePattern != "" {
			ok, err := filepath.Match(input.FilePattern, entry.Name())
			if err != nil || !ok {
				return err
			}
		}

		found, err := grepFile(path, re, maxResults-len(matches))
		if err != nil {
			return nil
		}
		matches = append(matches, found...)
		if len(matches) >= maxResults {
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return toolError("cancelled"), nil
		}
		return toolError(fmt.Sprintf("search failed: %v", walkErr)), nil
	}

	if len(matches) == 0 {
		return &tools.ToolResult{Content: "no matches"}, nil
	}
	return &tools.ToolResult{Content: strings.Join(matches, "\n")}, nil
}

// grepFile streams one file line by line, collecting up to limit matches.
func grepFile(path string, re *regexp.Regexp, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var matches []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.ContainsRune(line, 0) {
			// Binary file; skip the rest.
			return matches, nil
		}
		if re.MatchString(line) {
			matches = append(matches, fmt.Sprintf("%s:%d:%s", path, lineNo, line))
			if len(matches) >= limit {
				return matches, nil
			}
		}
	}
	return matches, scanner.Err()
}
