package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/harlanhaskins/claude-agent-go/hooks"
	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

const (
	maxImageBytes    = 5 << 20
	maxDocumentBytes = 32 << 20
)

// resolveAttachments walks user and assistant messages and uploads every
// image/document block that still points at a local path, rewriting the
// block to a provider file reference. Resolution is idempotent: resolved
// blocks pass through, and repeated paths hit the upload cache.
func (c *Client) resolveAttachments(ctx context.Context, messages []models.Message) error {
	for mi := range messages {
		msg := &messages[mi]
		if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
			continue
		}
		for bi := range msg.Content {
			block := &msg.Content[bi]
			if block.Type != models.BlockImage && block.Type != models.BlockDocument {
				continue
			}
			if err := c.resolveBlock(ctx, block); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) resolveBlock(ctx context.Context, block *models.ContentBlock) error {
	src := block.Source
	if src == nil {
		return &AttachmentError{Kind: AttachmentMissing}
	}
	if src.FileID != "" || src.Data != "" {
		return nil
	}
	if src.LocalPath == "" {
		return &AttachmentError{Kind: AttachmentMissing}
	}

	abs, err := filepath.Abs(src.LocalPath)
	if err != nil {
		return &AttachmentError{Kind: AttachmentNotFound, Path: src.LocalPath, Cause: err}
	}

	c.uploadMu.Lock()
	fileID, cached := c.uploads[abs]
	c.uploadMu.Unlock()

	if !cached {
		fileID, err = c.uploadFile(ctx, abs, block.Type)
		if err != nil {
			return err
		}
		c.uploadMu.Lock()
		c.uploads[abs] = fileID
		c.uploadMu.Unlock()
	}

	block.Source = &models.Source{Type: models.SourceFile, FileID: fileID}
	return nil
}

func (c *Client) uploadFile(ctx context.Context, path string, blockType models.BlockType) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &AttachmentError{Kind: AttachmentNotFound, Path: path, Cause: err}
	}

	limit := int64(maxDocumentBytes)
	if blockType == models.BlockImage {
		limit = maxImageBytes
	}
	if info.Size() > limit {
		return "", &AttachmentError{Kind: AttachmentTooLarge, Path: path, Max: limit, Actual: info.Size()}
	}

	c.hooks.Emit(ctx, &hooks.Event{Type: hooks.EventFileBeforeUpload, Payload: map[string]any{
		"path": path,
		"size": info.Size(),
	}})

	file, err := os.Open(path)
	if err != nil {
		return "", &AttachmentError{Kind: AttachmentNotFound, Path: path, Cause: err}
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", mediaTypeFor(path))
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", &ProviderError{Kind: ProviderErrTransport, Message: "build upload body", Cause: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &ProviderError{Kind: ProviderErrTransport, Message: "read attachment", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return "", &ProviderError{Kind: ProviderErrTransport, Message: "build upload body", Cause: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", &ProviderError{Kind: ProviderErrTransport, Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("anthropic-beta", betaFiles)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Kind: ProviderErrTransport, Message: "upload failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Kind: ProviderErrTransport, Message: "upload failed", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Kind:    ProviderErrStatus,
			Status:  resp.StatusCode,
			Message: apiErrorMessage(raw),
			Body:    string(raw),
		}
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.ID == "" {
		return "", &ProviderError{Kind: ProviderErrDecode, Message: "upload response missing id", Cause: err}
	}

	c.logger.Debug("uploaded attachment", "path", path, "file_id", decoded.ID)
	c.hooks.Emit(ctx, &hooks.Event{Type: hooks.EventFileAfterUpload, Payload: map[string]any{
		"path":    path,
		"file_id": decoded.ID,
	}})

	return decoded.ID, nil
}

func mediaTypeFor(path string) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
