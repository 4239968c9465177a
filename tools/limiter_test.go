package tools

import (
	"strings"
	"testing"
)

func TestLimiterUnderBudgetUntouched(t *testing.T) {
	limiter := &OutputLimiter{MaxBytes: 100, MaxItems: 10}

	out, truncated := limiter.Truncate("short output\nwith two lines")
	if truncated {
		t.Error("truncated under-budget content")
	}
	if out != "short output\nwith two lines" {
		t.Errorf("content changed: %q", out)
	}
}

func TestLimiterExactBudgetUntouched(t *testing.T) {
	limiter := &OutputLimiter{MaxBytes: 5, MaxItems: 10}
	out, truncated := limiter.Truncate("12345")
	if truncated || out != "12345" {
		t.Errorf("Truncate(%q) = %q, %v", "12345", out, truncated)
	}
}

func TestLimiterByteBudgetSnapsToNewline(t *testing.T) {
	limiter := &OutputLimiter{MaxBytes: 20, MaxItems: 1000}
	content := "line one\nline two\nline three is much longer"

	out, truncated := limiter.Truncate(content)
	if !truncated {
		t.Fatal("expected truncation")
	}

	lines := strings.Split(out, "\n")
	marker := lines[len(lines)-1]
	if !strings.Contains(marker, "output truncated") {
		t.Errorf("missing marker line: %q", out)
	}
	if !strings.Contains(marker, "narrow your query") {
		t.Errorf("marker missing guidance: %q", marker)
	}

	body := strings.Join(lines[:len(lines)-1], "\n")
	if body != "line one\nline two" {
		t.Errorf("body = %q, want newline-snapped prefix", body)
	}
}

func TestLimiterItemBudget(t *testing.T) {
	limiter := &OutputLimiter{MaxBytes: 1 << 20, MaxItems: 3}
	content := "a\nb\nc\nd\ne"

	out, truncated := limiter.Truncate(content)
	if !truncated {
		t.Fatal("expected truncation")
	}
	lines := strings.Split(out, "\n")
	// 3 content lines plus one marker.
	if len(lines) != 4 {
		t.Fatalf("line count = %d, want 4: %q", len(lines), out)
	}
	if lines[0] != "a" || lines[2] != "c" {
		t.Errorf("kept lines = %v", lines[:3])
	}
}

func TestLimiterSingleMarkerLine(t *testing.T) {
	limiter := &OutputLimiter{MaxBytes: 10, MaxItems: 2}
	out, _ := limiter.Truncate(strings.Repeat("x\n", 100))

	if n := strings.Count(out, "output truncated"); n != 1 {
		t.Errorf("marker appears %d times, want 1", n)
	}
}
