package tools

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

type trackerEntry struct {
	mtime   *time.Time
	wasRead bool
}

// FileTracker enforces read-before-write consistency for file-mutating
// tools. The model may ask to edit a file it has not seen in its current
// form; without this interlock a line-range edit corrupts files modified
// out-of-band. The check is exact timestamp equality.
type FileTracker struct {
	entries     map[string]*trackerEntry
	requireRead bool
	mu          sync.Mutex
}

// NewFileTracker creates a tracker. With requireReadBeforeWrite set,
// mutations of existing files are denied unless the file was read this
// session and is unchanged on disk since.
func NewFileTracker(requireReadBeforeWrite bool) *FileTracker {
	return &FileTracker{
		entries:     make(map[string]*trackerEntry),
		requireRead: requireReadBeforeWrite,
	}
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// RecordRead marks path as read at its current modification time.
func (t *FileTracker) RecordRead(path string) error {
	path = canonical(path)
	info, err := os.Stat(path)
	if err != nil {
		return &TrackerError{Kind: TrackerFileNotFound, Path: path}
	}
	mtime := info.ModTime()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[path] = &trackerEntry{mtime: &mtime, wasRead: true}
	return nil
}

// RecordWrite validates a pending mutation of path and, on success,
// resets its entry so the file must be re-read before the next mutation.
// A missing file is allowed only with allowCreate.
func (t *FileTracker) RecordWrite(path string, allowCreate bool) error {
	path = canonical(path)
	info, err := os.Stat(path)
	if err != nil {
		if !allowCreate {
			return &TrackerError{Kind: TrackerFileNotFound, Path: path}
		}
		t.reset(path)
		return nil
	}

	if t.requireRead {
		t.mu.Lock()
		entry := t.entries[path]
		t.mu.Unlock()

		if entry == nil || !entry.wasRead {
			return &TrackerError{Kind: TrackerFileNotRead, Path: path}
		}
		if entry.mtime == nil || !entry.mtime.Equal(info.ModTime()) {
			return &TrackerError{Kind: TrackerFileModified, Path: path}
		}
	}

	t.reset(path)
	return nil
}

// RecordUpdate is RecordWrite for update-style tools: the target must
// already exist.
func (t *FileTracker) RecordUpdate(path string) error {
	return t.RecordWrite(path, false)
}

func (t *FileTracker) reset(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[path] = &trackerEntry{wasRead: false, mtime: nil}
}

// WasRead reports whether path is currently marked as read.
func (t *FileTracker) WasRead(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.entries[canonical(path)]
	return entry != nil && entry.wasRead
}

// Clear forgets the entry for path.
func (t *FileTracker) Clear(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, canonical(path))
}

// ClearAll forgets all entries.
func (t *FileTracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]*trackerEntry)
}
