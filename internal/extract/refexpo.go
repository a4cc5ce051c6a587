package extract

import (
	"relbench/internal/artifact"
	"relbench/internal/canon"
	"relbench/internal/relation"
)

// RefExpo reads the reference export CSV written by the RefExpo IDE plugin.
// Each row describes one reference with a source and a target side.
type RefExpo struct {
	base
	missingMarkers []string
}

// NewRefExpo creates the RefExpo extractor.
func NewRefExpo(opts Options) *RefExpo {
	return &RefExpo{
		base:           newBase("refexpo", "RefExpo", "refExpo.csv", opts.logger(), relation.LevelClass, relation.LevelMethod),
		missingMarkers: opts.MissingMarkers,
	}
}

// Side selects the source or target half of a reference row.
type Side string

const (
	SourceSide Side = "source"
	TargetSide Side = "target"
)

func (s Side) column(field string) string {
	return string(s) + field
}

// Endpoint is one side of a reference row.
type Endpoint struct {
	ClassFull  string
	Structure  string
	Method     string
	MethodFull string
	Path       string
}

// ReadEndpoint reads one side of the current table row.
func ReadEndpoint(t *Table, side Side) Endpoint {
	return Endpoint{
		ClassFull:  t.Get(side.column("ClassFull")),
		Structure:  t.Get(side.column("Structure")),
		Method:     t.Get(side.column("Method")),
		MethodFull: t.Get(side.column("MethodFull")),
		Path:       t.Get(side.column("Path")),
	}
}

// Class returns the fully qualified class, or "" when absent.
func (e Endpoint) Class() string {
	return e.ClassFull
}

// Member resolves the method-level identifier of the endpoint:
//   - the structure, qualified by the module path of the file;
//   - otherwise class.method, or module.method for a free function;
//   - otherwise the module path alone.
//
// It returns "" when none of these can be derived.
func (e Endpoint) Member() string {
	module, _ := canon.ModulePathFor(e.Path)

	if e.Structure != "" {
		return qualify(module, e.Structure)
	}
	if e.Method != "" {
		if e.ClassFull != "" {
			return e.ClassFull + "." + e.Method
		}
		return qualify(module, e.Method)
	}
	return module
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

var refExpoColumns = []string{
	"sourceClassFull", "sourceStructure", "sourceMethod", "sourcePath",
	"targetClassFull", "targetStructure", "targetMethod", "targetPath",
}

// Extract implements Extractor.
func (x *RefExpo) Extract(h artifact.Handle, level relation.Level) (relation.Sequence, error) {
	rc, err := x.open(h, level)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	t, err := NewTable(rc, x.missingMarkers)
	if err != nil {
		return nil, x.parseFailure(h, "invalid reference table", err)
	}
	if !t.HasAny(refExpoColumns...) {
		return nil, x.parseFailure(h, "reference table has none of the expected columns", nil)
	}

	var out relation.Sequence
	for {
		ok, err := t.Next()
		if err != nil {
			return nil, x.parseFailure(h, "failed to read reference table", err)
		}
		if !ok {
			break
		}

		source := ReadEndpoint(t, SourceSide)
		target := ReadEndpoint(t, TargetSide)

		var r relation.Relation
		switch level {
		case relation.LevelClass:
			r = relation.New(source.Class(), target.Class())
		case relation.LevelMethod:
			r = relation.New(source.Member(), target.Member())
		}
		if r.Source == "" || r.Target == "" {
			x.skipped("unresolved side", "line", t.Line())
			continue
		}
		emit(&out, r)
	}

	if n := t.Skipped(); n > 0 {
		x.logger.Warn("Skipped unparseable rows", "count", n)
	}
	x.logger.Debug("Extracted relations", "level", level.String(), "count", len(out))
	return out, nil
}
