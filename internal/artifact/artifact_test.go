package artifact

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const sample = `{"sourceClass":"a.B","targetClass":"a.C"}` + "\n"

func writeProjectFile(t *testing.T, dataDir, project, name string, write func(io.Writer) error) {
	t.Helper()
	dir := filepath.Join(dataDir, project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		t.Fatal(err)
	}
}

func readAll(t *testing.T, h Handle) string {
	t.Helper()
	rc, err := h.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	return string(data)
}

func TestHandle_Plain(t *testing.T) {
	dataDir := t.TempDir()
	writeProjectFile(t, dataDir, "proj", "jarviz.jsonl", func(w io.Writer) error {
		_, err := io.WriteString(w, sample)
		return err
	})

	h := NewHandle(dataDir, "proj", "jarviz", "jarviz.jsonl")
	if !h.Exists() {
		t.Fatal("Exists() = false for plain file")
	}
	if got := readAll(t, h); got != sample {
		t.Errorf("content = %q, want %q", got, sample)
	}
}

func TestHandle_Missing(t *testing.T) {
	h := NewHandle(t.TempDir(), "proj", "pycg", "pycg.json")
	if h.Exists() {
		t.Fatal("Exists() = true for missing file")
	}
	if _, err := h.Open(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() error = %v, want not-exist", err)
	}
}

func TestHandle_Compressed(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		write func(io.Writer) error
	}{
		{
			name: "zstd",
			file: "jarviz.jsonl.zst",
			write: func(w io.Writer) error {
				enc, err := zstd.NewWriter(w)
				if err != nil {
					return err
				}
				if _, err := io.WriteString(enc, sample); err != nil {
					return err
				}
				return enc.Close()
			},
		},
		{
			name: "gzip",
			file: "jarviz.jsonl.gz",
			write: func(w io.Writer) error {
				zw := gzip.NewWriter(w)
				if _, err := io.WriteString(zw, sample); err != nil {
					return err
				}
				return zw.Close()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			writeProjectFile(t, dataDir, "proj", tt.file, tt.write)

			h := NewHandle(dataDir, "proj", "jarviz", "jarviz.jsonl")
			path, ok := h.Resolve()
			if !ok || filepath.Base(path) != tt.file {
				t.Fatalf("Resolve() = %q, %v", path, ok)
			}
			if got := readAll(t, h); got != sample {
				t.Errorf("content = %q, want %q", got, sample)
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dataDir := t.TempDir()
	writeProjectFile(t, dataDir, "proj", ManifestFileName, func(w io.Writer) error {
		_, err := io.WriteString(w, "./pkg/mod.py\n\npkg/sub/util.py\nsrc/main/java/a/B.java\n./README\n")
		return err
	})

	m, err := LoadManifest(dataDir, "proj")
	if err != nil {
		t.Fatalf("LoadManifest() failed: %v", err)
	}

	wantPaths := []string{"pkg/mod.py", "pkg/sub/util.py", "src/main/java/a/B.java", "README"}
	if !reflect.DeepEqual(m.Paths, wantPaths) {
		t.Errorf("Paths = %v, want %v", m.Paths, wantPaths)
	}

	wantMapping := map[string]string{
		"mod":      "pkg.mod",
		"sub/util": "pkg.sub.util",
	}
	if got := m.ModuleMapping(); !reflect.DeepEqual(got, wantMapping) {
		t.Errorf("ModuleMapping() = %v, want %v", got, wantMapping)
	}

	wantExt := []ExtensionCount{{"", 1}, {".java", 1}, {".py", 2}}
	if got := m.Extensions(); !reflect.DeepEqual(got, wantExt) {
		t.Errorf("Extensions() = %v, want %v", got, wantExt)
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	if _, err := LoadManifest(t.TempDir(), "none"); err == nil {
		t.Error("expected error for missing manifest")
	}
}
