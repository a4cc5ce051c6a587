package eval

import (
	"strings"

	"relbench/internal/artifact"
	"relbench/internal/canon"
	"relbench/internal/errors"
	"relbench/internal/extract"
	"relbench/internal/relation"
)

// Candidates maps each suite unit to the relations a tool reported for it.
type Candidates map[UnitKey]relation.Set

// Add records a relation for key.
func (c Candidates) Add(key UnitKey, r relation.Relation) {
	set, ok := c[key]
	if !ok {
		set = relation.NewSet()
		c[key] = set
	}
	set.Add(r.String())
}

// For returns the relations of key, or an empty set.
func (c Candidates) For(key UnitKey) relation.Set {
	if set, ok := c[key]; ok {
		return set
	}
	return relation.NewSet()
}

// MethodName resolves the fully dotted method identifier of a reference
// export endpoint: the explicit full name when present, otherwise the file
// path without extension followed by the structure or method.
func MethodName(e extract.Endpoint) string {
	if e.MethodFull != "" {
		return e.MethodFull
	}
	if e.Path == "" {
		return ""
	}
	name := canon.TrimExtension(e.Path)
	switch {
	case e.Structure != "":
		name += "." + e.Structure
	case e.Method != "":
		name += "." + e.Method
	}
	return name
}

// ParseLocation splits "feature.category.rest" into its unit key and the
// remainder. ok is false when fewer than two segments are present.
func ParseLocation(location string) (UnitKey, string, bool) {
	parts := strings.Split(location, ".")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return UnitKey{}, "", false
	}
	return UnitKey{Feature: parts[0], Category: parts[1]}, strings.Join(parts[2:], "."), true
}

// LoadCandidates reads a reference export CSV written against a micro-suite
// checkout and groups its method relations by the caller's suite unit. The
// identifiers keep only the part below feature and category.
func LoadCandidates(path string, missingMarkers []string) (Candidates, error) {
	rc, err := artifact.OpenFile(path)
	if err != nil {
		return nil, errors.New(errors.MissingArtifact, "refexpo", "candidate export not readable", err)
	}
	defer func() { _ = rc.Close() }()

	t, err := extract.NewTable(rc, missingMarkers)
	if err != nil {
		return nil, errors.New(errors.StructuralParseFailure, "refexpo", "invalid candidate export", err)
	}

	out := make(Candidates)
	for {
		ok, err := t.Next()
		if err != nil {
			return nil, errors.New(errors.StructuralParseFailure, "refexpo", "failed to read candidate export", err)
		}
		if !ok {
			break
		}

		source := MethodName(extract.ReadEndpoint(t, extract.SourceSide))
		target := MethodName(extract.ReadEndpoint(t, extract.TargetSide))
		key, sourceRest, ok1 := ParseLocation(source)
		_, targetRest, ok2 := ParseLocation(target)
		if !ok1 || !ok2 {
			continue
		}
		out.Add(key, relation.New(sourceRest, targetRest))
	}
	return out, nil
}
