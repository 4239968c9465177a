package anthropic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

func TestUploadCaching(t *testing.T) {
	var uploads int32

	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&uploads, 1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			file.Close()
		}
		if header != nil && header.Filename != "doc.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		fmt.Fprintf(w, `{"id":"file_%d"}`, n)
	})
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"role":"assistant","model":"m","content":[{"type":"text","text":"ok"}]}`)
	})

	client, _ := newTestClient(t, mux.ServeHTTP)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Three blocks referencing the same local path across the history.
	history := []models.Message{
		models.NewUserBlocks(models.TextBlock("first"), models.DocumentFile(path)),
		models.NewUserBlocks(models.DocumentFile(path), models.DocumentFile(path)),
	}

	req := &MessageRequest{Model: "m", MaxTokens: 10, Messages: history}
	if _, err := client.SendMessage(context.Background(), req); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if n := atomic.LoadInt32(&uploads); n != 1 {
		t.Errorf("upload count = %d, want 1", n)
	}
	for _, msg := range history {
		for _, block := range msg.Content {
			if block.Type != models.BlockDocument {
				continue
			}
			if block.Source.FileID != "file_1" {
				t.Errorf("block file_id = %q, want file_1", block.Source.FileID)
			}
			if block.Source.LocalPath != "" {
				t.Error("local_path not cleared after resolution")
			}
		}
	}

	// A repeated send must not re-upload.
	if _, err := client.SendMessage(context.Background(), req); err != nil {
		t.Fatalf("second SendMessage: %v", err)
	}
	if n := atomic.LoadInt32(&uploads); n != 1 {
		t.Errorf("upload count after resend = %d, want 1", n)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected for already-resolved blocks")
	})

	history := []models.Message{
		models.NewUserBlocks(models.ContentBlock{
			Type:   models.BlockDocument,
			Source: &models.Source{Type: models.SourceFile, FileID: "file_99"},
		}),
		models.NewUserBlocks(models.ImageBlock("image/png", "aGk=")),
	}

	if err := client.resolveAttachments(context.Background(), history); err != nil {
		t.Fatalf("resolveAttachments: %v", err)
	}
	if history[0].Content[0].Source.FileID != "file_99" {
		t.Error("resolved block changed")
	}
}

func TestAttachmentSizeGate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized file must not be uploaded")
	})

	path := filepath.Join(t.TempDir(), "big.png")
	if err := os.WriteFile(path, make([]byte, maxImageBytes+1), 0o644); err != nil {
		t.Fatal(err)
	}

	history := []models.Message{models.NewUserBlocks(models.ImageFile(path))}
	err := client.resolveAttachments(context.Background(), history)
	if err == nil {
		t.Fatal("expected too_large error")
	}
	var ae *AttachmentError
	if !errors.As(err, &ae) || ae.Kind != AttachmentTooLarge {
		t.Fatalf("error = %v, want AttachmentTooLarge", err)
	}
	if ae.Max != maxImageBytes || ae.Actual != maxImageBytes+1 {
		t.Errorf("limits = max %d actual %d", ae.Max, ae.Actual)
	}
}

func TestAttachmentMissing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	history := []models.Message{models.NewUserBlocks(models.ContentBlock{
		Type:   models.BlockDocument,
		Source: &models.Source{Type: models.SourceFile},
	})}
	err := client.resolveAttachments(context.Background(), history)
	var ae *AttachmentError
	if !errors.As(err, &ae) || ae.Kind != AttachmentMissing {
		t.Fatalf("error = %v, want AttachmentMissing", err)
	}
}

func TestAttachmentNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	history := []models.Message{models.NewUserBlocks(
		models.DocumentFile(filepath.Join(t.TempDir(), "nope.pdf")),
	)}
	err := client.resolveAttachments(context.Background(), history)
	var ae *AttachmentError
	if !errors.As(err, &ae) || ae.Kind != AttachmentNotFound {
		t.Fatalf("error = %v, want AttachmentNotFound", err)
	}
}

func TestUploadMediaType(t *testing.T) {
	got := mediaTypeFor("/tmp/photo.PNG")
	if !strings.HasPrefix(got, "image/png") {
		t.Errorf("mediaTypeFor(png) = %q", got)
	}
	if mediaTypeFor("/tmp/blob.xyzzy") != "application/octet-stream" {
		t.Errorf("unknown extension fallback = %q", mediaTypeFor("/tmp/blob.xyzzy"))
	}
}
