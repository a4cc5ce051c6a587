package extract

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// RosterFile is the optional per-project tool roster.
const RosterFile = "TOOLS.toml"

// ToolEntry overrides how one tool is run for a project.
type ToolEntry struct {
	// Name is the registry key of the tool.
	Name string `toml:"name"`

	// File replaces the tool's default artifact file name.
	File string `toml:"file,omitempty"`

	// Enabled set to false removes the tool from comparisons.
	Enabled *bool `toml:"enabled,omitempty"`
}

// Roster is the parsed form of TOOLS.toml.
type Roster struct {
	Version int         `toml:"version"`
	Tools   []ToolEntry `toml:"tool"`
}

// ParseRoster parses a roster file.
func ParseRoster(filePath string) (*Roster, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", RosterFile, err)
	}

	var roster Roster
	if err := toml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", RosterFile, err)
	}
	if roster.Version < 1 {
		roster.Version = 1
	}
	for i, t := range roster.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("%s: tool entry %d has no name", RosterFile, i+1)
		}
	}
	return &roster, nil
}

// LoadRoster loads the roster of a project directory. A project without a
// roster gets an empty one.
func LoadRoster(projectDir string) (*Roster, error) {
	filePath := filepath.Join(projectDir, RosterFile)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return &Roster{Version: 1}, nil
	}
	return ParseRoster(filePath)
}

func (r *Roster) entry(name string) (ToolEntry, bool) {
	if r == nil {
		return ToolEntry{}, false
	}
	for _, t := range r.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolEntry{}, false
}

// Enabled reports whether the roster keeps the tool. Unlisted tools are
// enabled.
func (r *Roster) Enabled(name string) bool {
	t, ok := r.entry(name)
	if !ok || t.Enabled == nil {
		return true
	}
	return *t.Enabled
}

// FileFor returns the artifact file name for e, honoring overrides.
func (r *Roster) FileFor(e Extractor) string {
	if t, ok := r.entry(e.Name()); ok && t.File != "" {
		return t.File
	}
	return e.FileName()
}

// Apply filters extractors down to the enabled ones, keeping order.
func (r *Roster) Apply(extractors []Extractor) []Extractor {
	out := make([]Extractor, 0, len(extractors))
	for _, e := range extractors {
		if r.Enabled(e.Name()) {
			out = append(out, e)
		}
	}
	return out
}
