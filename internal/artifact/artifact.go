// Package artifact locates and opens the raw output files that analysis tools
// leave under <data-dir>/<project>/. Files are only ever read.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression suffixes tried, in order, when the plain file is absent.
var compressedSuffixes = []string{".zst", ".gz"}

// Handle identifies one raw tool output.
type Handle struct {
	Project  string
	Tool     string
	Dir      string // directory holding the project's artifacts
	FileName string // required file name, e.g. jarviz.jsonl
}

// NewHandle builds a handle for tool's file under dataDir/project.
func NewHandle(dataDir, project, tool, fileName string) Handle {
	return Handle{
		Project:  project,
		Tool:     tool,
		Dir:      filepath.Join(dataDir, project),
		FileName: fileName,
	}
}

// Path returns the path of the uncompressed artifact.
func (h Handle) Path() string {
	return filepath.Join(h.Dir, h.FileName)
}

// Resolve returns the path that will actually be read: the plain file if it
// exists, otherwise the first compressed variant found.
func (h Handle) Resolve() (string, bool) {
	plain := h.Path()
	if isFile(plain) {
		return plain, true
	}
	for _, suffix := range compressedSuffixes {
		if p := plain + suffix; isFile(p) {
			return p, true
		}
	}
	return "", false
}

// Exists reports whether the artifact (plain or compressed) is present.
func (h Handle) Exists() bool {
	_, ok := h.Resolve()
	return ok
}

// Open opens the artifact for reading, decompressing transparently.
// The caller must close the returned reader.
func (h Handle) Open() (io.ReadCloser, error) {
	path, ok := h.Resolve()
	if !ok {
		return nil, fmt.Errorf("%s: %w", h.Path(), os.ErrNotExist)
	}
	return OpenFile(path)
}

// OpenFile opens path, wrapping it in a decompressor when its suffix is .zst or .gz.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		return &stackedReader{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			f.Close,
		}}, nil
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		return &stackedReader{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
	default:
		return f, nil
	}
}

// stackedReader closes a decompressor and its underlying file together.
type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
