package artifact

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"relbench/internal/paths"
)

// ManifestFileName is the per-project list of analyzed source files.
const ManifestFileName = "paths.txt"

// Manifest is the list of relative source paths analyzed for a project.
type Manifest struct {
	Paths []string
}

// LoadManifest reads paths.txt from the project's artifact directory.
// Blank lines are skipped; separators are normalized and a leading "./" is
// removed.
func LoadManifest(dataDir, project string) (*Manifest, error) {
	h := NewHandle(dataDir, project, "manifest", ManifestFileName)
	rc, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	m := &Manifest{}
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := paths.NormalizePath(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		m.Paths = append(m.Paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", h.Path(), err)
	}
	return m, nil
}

// ModuleMapping maps each Python source path, without its extension and
// without its top-level directory, to the dotted module name of the full path.
// Pyan names nodes relative to the analyzed package, while other tools
// qualify them from the repository root.
func (m *Manifest) ModuleMapping() map[string]string {
	mapping := make(map[string]string)
	for _, p := range m.Paths {
		if !strings.HasSuffix(p, ".py") {
			continue
		}
		p = strings.TrimSuffix(p, ".py")
		key := p
		if _, rest, ok := strings.Cut(key, "/"); ok {
			key = rest
		}
		mapping[key] = strings.ReplaceAll(p, "/", ".")
	}
	return mapping
}

// Extensions counts manifest entries per file extension, sorted by name.
func (m *Manifest) Extensions() []ExtensionCount {
	counts := make(map[string]int)
	for _, p := range m.Paths {
		_, ext := paths.SplitExt(p)
		counts[ext]++
	}

	out := make([]ExtensionCount, 0, len(counts))
	for ext, n := range counts {
		out = append(out, ExtensionCount{Extension: ext, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Extension < out[j].Extension })
	return out
}

// ExtensionCount is the number of manifest entries with one extension.
type ExtensionCount struct {
	Extension string `json:"extension" yaml:"extension" toml:"extension"`
	Count     int    `json:"count" yaml:"count" toml:"count"`
}
