// Package export turns in-memory state into durable artifacts. In the
// static profile this is the only way edits survive the session.
package export

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yewfence/blogctl/internal/logger"
)

// IndexFilename is the conventional name of the exported index artifact.
const IndexFilename = "blogs.json"

// ZipFilename is the name of the bundled Markdown archive.
const ZipFilename = "posts.zip"

// FileExporter writes artifacts somewhere the editor can pick them up.
type FileExporter interface {
	WriteIndex(content []byte) (string, error)
	WriteMarkdown(name string, content []byte) (string, error)
	WriteZip(files map[string][]byte) (string, error)
}

// DirExporter writes artifacts into a local directory, the CLI stand-in
// for the browser download the original workflow relied on.
type DirExporter struct {
	dir    string
	logger logger.Logger
}

// NewDirExporter creates an exporter rooted at dir.
func NewDirExporter(dir string, log logger.Logger) *DirExporter {
	return &DirExporter{dir: dir, logger: log}
}

// WriteIndex writes the index artifact under its conventional name and
// returns the full path.
func (e *DirExporter) WriteIndex(content []byte) (string, error) {
	return e.write(IndexFilename, content)
}

// WriteMarkdown writes one Markdown body. The name is sanitized so a
// hostile title can never escape the export directory.
func (e *DirExporter) WriteMarkdown(name string, content []byte) (string, error) {
	safe := SafeFilename(strings.TrimSuffix(name, ".md")) + ".md"
	return e.write(safe, content)
}

// WriteZip bundles the given files into one archive.
func (e *DirExporter) WriteZip(files map[string][]byte) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, ZipFilename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create zip artifact: %w", err)
	}

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(SafeFilename(strings.TrimSuffix(name, ".md")) + ".md")
		if err != nil {
			_ = w.Close()
			_ = f.Close()
			return "", fmt.Errorf("failed to add %s to zip: %w", name, err)
		}
		if _, err := entry.Write(content); err != nil {
			_ = w.Close()
			_ = f.Close()
			return "", fmt.Errorf("failed to write %s to zip: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to finalize zip: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close zip artifact: %w", err)
	}

	e.logger.Info("wrote markdown bundle",
		logger.String("path", path),
		logger.Int("files", len(files)))
	return path, nil
}

func (e *DirExporter) write(name string, content []byte) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	e.logger.Info("wrote artifact",
		logger.String("path", path))
	return path, nil
}

// SafeFilename strips characters that are unsafe in filenames on any
// platform (the Windows-reserved set, plus path separators) and trims
// trailing dots and spaces. Empty input falls back to "post".
func SafeFilename(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "post"
	}

	var b strings.Builder
	for _, r := range base {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimRight(b.String(), " .")
	if out == "" {
		out = "post"
	}
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
