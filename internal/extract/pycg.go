package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"relbench/internal/artifact"
	"relbench/internal/relation"
)

// callMarker is the suffix PyCG appends to callable namespaces.
const callMarker = "()"

// PyCG reads the nested JSON call graph written by PyCG. Callable namespaces
// are collected from every internal module first; internal call edges
// between two known callables then become relations.
type PyCG struct {
	base
}

// NewPyCG creates the PyCG extractor.
func NewPyCG(opts Options) *PyCG {
	return &PyCG{
		base: newBase("pycg", "PyCG", "pycg.json", opts.logger(), relation.LevelMethod),
	}
}

type pycgDocument struct {
	Modules *struct {
		Internal map[string]pycgModule `json:"internal"`
	} `json:"modules"`
	Graph *struct {
		InternalCalls []pycgEdge `json:"internalCalls"`
	} `json:"graph"`
}

type pycgModule struct {
	Namespaces map[string]pycgNamespace `json:"namespaces"`
}

type pycgNamespace struct {
	Namespace string `json:"namespace"`
}

// pycgEdge is a [source, target] pair of namespace keys. Keys are strings in
// recent PyCG releases and integers in older ones.
type pycgEdge []json.RawMessage

func (e pycgEdge) endpoints() (string, string, bool) {
	if len(e) != 2 {
		return "", "", false
	}
	src, ok1 := namespaceKey(e[0])
	dst, ok2 := namespaceKey(e[1])
	return src, dst, ok1 && ok2
}

func namespaceKey(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return n.String(), true
	}
	return "", false
}

// CallableName cleans a PyCG namespace: the leading "/" is dropped, the call
// marker removed and path separators dotted.
func CallableName(namespace string) string {
	name := strings.TrimPrefix(namespace, "/")
	name = strings.ReplaceAll(name, callMarker, "")
	return strings.ReplaceAll(name, "/", ".")
}

// isManagementMethod reports whether a rendered relation touches a dunder
// segment such as __init__.
func isManagementMethod(rendered string) bool {
	return strings.Contains(rendered, "__")
}

// Extract implements Extractor.
func (p *PyCG) Extract(h artifact.Handle, level relation.Level) (relation.Sequence, error) {
	rc, err := p.open(h, level)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var doc pycgDocument
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, p.parseFailure(h, "invalid call graph document", err)
	}
	if doc.Modules == nil || doc.Modules.Internal == nil {
		return nil, p.parseFailure(h, "call graph lacks modules.internal", nil)
	}
	if doc.Graph == nil || doc.Graph.InternalCalls == nil {
		return nil, p.parseFailure(h, "call graph lacks graph.internalCalls", nil)
	}

	callables := make(map[string]string)
	for _, module := range doc.Modules.Internal {
		for key, ns := range module.Namespaces {
			if strings.Contains(ns.Namespace, callMarker) {
				callables[key] = CallableName(ns.Namespace)
			}
		}
	}

	var out relation.Sequence
	for i, edge := range doc.Graph.InternalCalls {
		srcKey, dstKey, ok := edge.endpoints()
		if !ok {
			p.skipped("malformed call edge", "index", i)
			continue
		}
		source, ok1 := callables[srcKey]
		target, ok2 := callables[dstKey]
		if !ok1 || !ok2 {
			continue
		}
		r := relation.New(source, target)
		if isManagementMethod(r.String()) {
			continue
		}
		emit(&out, r)
	}

	p.logger.Debug("Extracted relations", "level", level.String(), "count", len(out), "callables", len(callables))
	return out, nil
}
