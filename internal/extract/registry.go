package extract

import (
	"relbench/internal/errors"
	"relbench/internal/relation"
)

// Registry is an ordered, fixed set of extractors.
type Registry struct {
	extractors []Extractor
	byName     map[string]Extractor
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byName: make(map[string]Extractor, len(extractors))}
	for _, e := range extractors {
		r.extractors = append(r.extractors, e)
		r.byName[e.Name()] = e
	}
	return r
}

// DefaultRegistry returns every supported tool in report order.
func DefaultRegistry(opts Options) *Registry {
	return NewRegistry(
		NewSonargraph(opts),
		NewDependencyFinder(opts),
		NewJarviz(opts),
		NewRefExpo(opts),
		NewPyan(opts),
		NewPyCG(opts),
	)
}

// All returns the extractors in registration order.
func (r *Registry) All() []Extractor {
	return append([]Extractor(nil), r.extractors...)
}

// Names returns the registry keys in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// Lookup returns the extractor registered under name.
func (r *Registry) Lookup(name string) (Extractor, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, errors.Newf(errors.UnknownTool, name, "no extractor registered under %q", name)
	}
	return e, nil
}

// Select returns the named extractors in the order given. An empty list
// selects everything.
func (r *Registry) Select(names []string) ([]Extractor, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	out := make([]Extractor, 0, len(names))
	for _, name := range names {
		e, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Supporting returns the registered extractors that support level.
func (r *Registry) Supporting(level relation.Level) []Extractor {
	var out []Extractor
	for _, e := range r.extractors {
		if e.Supports(level) {
			out = append(out, e)
		}
	}
	return out
}
