package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yewfence/blogctl/internal/logger"
)

func TestWriteIndex(t *testing.T) {
	dir := t.TempDir()
	e := NewDirExporter(dir, logger.Nop())

	path, err := e.WriteIndex([]byte("[]\n"))
	if err != nil {
		t.Fatalf("WriteIndex() error = %v", err)
	}
	if filepath.Base(path) != IndexFilename {
		t.Errorf("index artifact name = %v, want %v", filepath.Base(path), IndexFilename)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("artifact content = %q", data)
	}
}

func TestWriteIndexCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "nested")
	e := NewDirExporter(dir, logger.Nop())

	if _, err := e.WriteIndex([]byte("[]")); err != nil {
		t.Fatalf("WriteIndex() into missing directory error = %v", err)
	}
}

func TestWriteMarkdownSanitizesName(t *testing.T) {
	dir := t.TempDir()
	e := NewDirExporter(dir, logger.Nop())

	path, err := e.WriteMarkdown(`bad/title:really?.md`, []byte("# hi"))
	if err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	base := filepath.Base(path)
	if strings.ContainsAny(base, `\/:*?"<>|`) {
		t.Errorf("artifact name %q still contains unsafe characters", base)
	}
	if !strings.HasSuffix(base, ".md") {
		t.Errorf("artifact name %q should end in .md", base)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("artifact escaped export dir: %v", path)
	}
}

func TestWriteZip(t *testing.T) {
	dir := t.TempDir()
	e := NewDirExporter(dir, logger.Nop())

	path, err := e.WriteZip(map[string][]byte{
		"hello.md": []byte("# Hello"),
		"older.md": []byte("# Older"),
	})
	if err != nil {
		t.Fatalf("WriteZip() error = %v", err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			t.Errorf("failed to close zip: %v", err)
		}
	}()

	if len(r.File) != 2 {
		t.Errorf("zip holds %d files, want 2", len(r.File))
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean", in: "hello", want: "hello"},
		{name: "windows reserved", in: `a\b/c:d*e?f"g<h>i|j`, want: "a_b_c_d_e_f_g_h_i_j"},
		{name: "trailing dots", in: "title...", want: "title"},
		{name: "trailing spaces", in: "title   ", want: "title"},
		{name: "empty", in: "", want: "post"},
		{name: "only dots", in: "...", want: "post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFilename(tt.in); got != tt.want {
				t.Errorf("SafeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeFilenameLength(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := SafeFilename(long); len(got) != 120 {
		t.Errorf("SafeFilename() length = %d, want 120", len(got))
	}
}
