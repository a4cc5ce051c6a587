// Package eval scores a tool's method-level relations against a reference
// micro-suite. The suite is a directory tree <feature>/<category>/ where each
// category holds a reference call graph; every category is one unit of the
// precision and recall computation.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"relbench/internal/relation"
)

// DefaultReferenceFile is the call graph file expected in each category.
const DefaultReferenceFile = "cleaned_callgraph.json"

// DefaultExcludeSubstring marks reference edges into the language runtime.
const DefaultExcludeSubstring = "builtin"

// UnitKey identifies one suite category.
type UnitKey struct {
	Feature  string
	Category string
}

func (k UnitKey) String() string {
	return k.Feature + "/" + k.Category
}

// Category is one unit of the suite.
type Category struct {
	Name string
	// Reference is nil when the category has no reference call graph.
	Reference relation.Set
}

// HasReference reports whether a reference call graph was found.
func (c Category) HasReference() bool {
	return c.Reference != nil
}

// Feature groups related categories.
type Feature struct {
	Name       string
	Categories []Category
}

// Suite is a loaded reference micro-suite.
type Suite struct {
	Dir      string
	Features []Feature
}

// SuiteOptions controls how reference graphs are read.
type SuiteOptions struct {
	ReferenceFile    string
	ExcludeSubstring string
}

func (o SuiteOptions) withDefaults() SuiteOptions {
	if o.ReferenceFile == "" {
		o.ReferenceFile = DefaultReferenceFile
	}
	return o
}

// LoadSuite walks dir and reads the reference graph of every category.
// Features and categories are sorted by name.
func LoadSuite(dir string, opts SuiteOptions) (*Suite, error) {
	opts = opts.withDefaults()

	featureDirs, err := subdirs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite directory: %w", err)
	}

	suite := &Suite{Dir: dir}
	for _, fname := range featureDirs {
		featurePath := filepath.Join(dir, fname)
		categoryDirs, err := subdirs(featurePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read feature %s: %w", fname, err)
		}

		feature := Feature{Name: fname}
		for _, cname := range categoryDirs {
			cat := Category{Name: cname}
			refPath := filepath.Join(featurePath, cname, opts.ReferenceFile)
			if _, err := os.Stat(refPath); err == nil {
				ref, err := LoadReference(refPath, opts.ExcludeSubstring)
				if err != nil {
					return nil, err
				}
				cat.Reference = ref
			}
			feature.Categories = append(feature.Categories, cat)
		}
		suite.Features = append(suite.Features, feature)
	}
	return suite, nil
}

// LoadReference reads a call graph object mapping each caller to its
// callees. Edges with exclude in either end are skipped; an empty exclude
// keeps every edge.
func LoadReference(path, exclude string) (relation.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference: %w", err)
	}

	var graph map[string][]string
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to parse reference %s: %w", path, err)
	}

	ref := relation.NewSet()
	for source, targets := range graph {
		if exclude != "" && strings.Contains(source, exclude) {
			continue
		}
		for _, target := range targets {
			if exclude != "" && strings.Contains(target, exclude) {
				continue
			}
			ref.Add(relation.New(source, target).String())
		}
	}
	return ref, nil
}

// Units returns the number of categories in the suite.
func (s *Suite) Units() int {
	n := 0
	for _, f := range s.Features {
		n += len(f.Categories)
	}
	return n
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
