// Package attach materializes uploaded files under the per-paste
// attachment tree: <data-dir>/attachments/<slug>/<name>.
package attach

import (
	"os"
	"path/filepath"

	"macrobin/svc/util"

	"github.com/pkg/errors"
)

type Writer struct {
	root string
}

func NewWriter(dataDir string) *Writer {
	return &Writer{root: filepath.Join(dataDir, "attachments")}
}

func (w *Writer) Dir(slug string) string {
	return filepath.Join(w.root, slug)
}

// Path is a pure function of slug and sanitized name; no path table is
// kept anywhere else.
func (w *Writer) Path(slug, name string) string {
	return filepath.Join(w.root, slug, name)
}

// Write creates the per-paste directory (idempotently) and writes the
// decoded bytes. It returns the final path so the pipeline can re-encrypt
// the file in place.
func (w *Writer) Write(slug, name string, b []byte) (string, error) {
	dir := w.Dir(slug)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "create attachment directory")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return "", errors.Wrap(err, "write attachment")
	}
	return path, nil
}

// Discard removes the per-paste directory. Used as the compensating step
// when the pipeline fails after the attachment was written; best effort,
// a failing cleanup is only logged.
func (w *Writer) Discard(slug string) {
	dir := w.Dir(slug)
	if err := os.RemoveAll(dir); err != nil {
		util.Warn().Err(err).Str("dir", dir).Msg("failed to discard attachment directory")
	}
}
