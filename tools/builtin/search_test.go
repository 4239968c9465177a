package builtin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func seedTree(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"main.go":          "package main\n\nfunc main() {}\n",
		"util.go":          "package main\n\nfunc helper() {}\n",
		"docs/readme.md":   "# Title\nfunc is not code here\n",
		"nested/deep/x.go": "package deep\nfunc Deep() {}\n",
		".hidden/h.go":     "package hidden\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGrepMatchesWithLineNumbers(t *testing.T) {
	ctx, dir := scoped(t)
	seedTree(t, dir)

	tool := &GrepTool{}
	result, err := tool.Execute(ctx, mustInput(t, map[string]any{
		"pattern":      `func \w+\(\)`,
		"file_pattern": "*.go",
	}))
	if err != nil || result.IsError {
		t.Fatalf("result = %+v, err = %v", result, err)
	}

	if !strings.Contains(result.Content, "main.go:3:func main() {}") {
		t.Errorf("missing match: %q", result.Content)
	}
	if strings.Contains(result.Content, "readme.md") {
		t.Errorf("file_pattern not applied: %q", result.Content)
	}
}

func TestGrepIgnoreCaseAndMaxResults(t *testing.T) {
	ctx, dir := scoped(t)
	os.WriteFile(filepath.Join(dir, "w.txt"), []byte("Word\nword\nWORD\nnothing\n"), 0o644)

	tool := &GrepTool{}
	result, _ := tool.Execute(ctx, mustInput(t, map[string]any{
		"pattern":     "word",
		"ignore_case": true,
		"max_results": 2,
	}))
	lines := strings.Split(result.Content, "\n")
	if len(lines) != 2 {
		t.Errorf("max_results not honored: %q", result.Content)
	}
}

func TestGrepNoMatches(t *testing.T) {
	ctx, dir := scoped(t)
	seedTree(t, dir)

	tool := &GrepTool{}
	result, _ := tool.Execute(ctx, mustInput(t, map[string]any{"pattern": "zzz_nope"}))
	if result.IsError || result.Content != "no matches" {
		t.Errorf("result = %+v", result)
	}
}

func TestGlobRecursive(t *testing.T) {
	ctx, dir := scoped(t)
	seedTree(t, dir)

	tool := &GlobTool{}
	result, err := tool.Execute(ctx, mustInput(t, map[string]any{"pattern": "**/*.go"}))
	if err != nil || result.IsError {
		t.Fatalf("result = %+v, err = %v", result, err)
	}

	for _, want := range []string{"main.go", "util.go", filepath.Join("nested", "deep", "x.go")} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("missing %s in %q", want, result.Content)
		}
	}
	if strings.Contains(result.Content, "readme.md") {
		t.Errorf("non-matching file listed: %q", result.Content)
	}
}

func TestListFlatAndRecursive(t *testing.T) {
	ctx, dir := scoped(t)
	seedTree(t, dir)

	tool := &ListTool{}
	result, _ := tool.Execute(ctx, mustInput(t, map[string]any{}))
	if strings.Contains(result.Content, ".hidden/") {
		t.Errorf("hidden dir listed by default: %q", result.Content)
	}
	if !strings.Contains(result.Content, "docs/") || !strings.Contains(result.Content, "main.go") {
		t.Errorf("flat listing = %q", result.Content)
	}
	if strings.Contains(result.Content, "readme.md") {
		t.Errorf("flat listing descended: %q", result.Content)
	}

	result, _ = tool.Execute(ctx, mustInput(t, map[string]any{
		"recursive": true, "show_hidden": true,
	}))
	if !strings.Contains(result.Content, filepath.Join("nested", "deep", "x.go")) {
		t.Errorf("recursive listing = %q", result.Content)
	}
	if !strings.Contains(result.Content, ".hidden/") {
		t.Errorf("hidden dir missing with show_hidden: %q", result.Content)
	}
}

func TestGrepBadFilePatternReported(t *testing.T) {
	ctx, dir := scoped(t)
	seedTree(t, dir)

	tool := &GrepTool{}
	result, err := tool.Execute(ctx, mustInput(t, map[string]any{
		"pattern":      "func",
		"file_pattern": "[",
	}))
	if err != nil {
		t.Fatalf("err = %v, want in-band failure", err)
	}
	if !result.IsError || !strings.Contains(result.Content, "search failed") {
		t.Errorf("result = %+v", result)
	}
}
