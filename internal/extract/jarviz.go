package extract

import (
	"bufio"
	"bytes"
	"encoding/json"

	"relbench/internal/artifact"
	"relbench/internal/canon"
	"relbench/internal/relation"
)

// NotAvailable stands in for a call-edge field the tool did not write.
const NotAvailable = "N/A"

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 * 1024 * 1024

// Jarviz reads the JSON-lines call graph written by Jarviz, one call edge
// per line.
type Jarviz struct {
	base
}

// NewJarviz creates the Jarviz extractor.
func NewJarviz(opts Options) *Jarviz {
	return &Jarviz{
		base: newBase("jarviz", "Jarviz", "jarviz.jsonl", opts.logger(), relation.LevelClass, relation.LevelMethod),
	}
}

type callEdge struct {
	SourceClass  *string `json:"sourceClass"`
	SourceMethod *string `json:"sourceMethod"`
	TargetClass  *string `json:"targetClass"`
	TargetMethod *string `json:"targetMethod"`
}

func orNotAvailable(s *string) string {
	if s == nil || *s == "" {
		return NotAvailable
	}
	return *s
}

// Extract implements Extractor.
func (j *Jarviz) Extract(h artifact.Handle, level relation.Level) (relation.Sequence, error) {
	rc, err := j.open(h, level)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var out relation.Sequence
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var edge callEdge
		if err := json.Unmarshal(raw, &edge); err != nil {
			j.skipped("invalid JSON line", "line", line, "error", err)
			continue
		}

		sourceClass := orNotAvailable(edge.SourceClass)
		sourceMethod := orNotAvailable(edge.SourceMethod)
		targetClass := orNotAvailable(edge.TargetClass)
		targetMethod := orNotAvailable(edge.TargetMethod)

		switch level {
		case relation.LevelClass:
			if sourceClass == NotAvailable || targetClass == NotAvailable {
				j.skipped("missing class", "line", line)
				continue
			}
			r := relation.New(canon.DotifyNestedSeparator(sourceClass), canon.DotifyNestedSeparator(targetClass))
			if canon.HasAnonymousIndex(r.String()) {
				continue
			}
			emit(&out, r)

		case relation.LevelMethod:
			if sourceClass == NotAvailable || sourceMethod == NotAvailable ||
				targetClass == NotAvailable || targetMethod == NotAvailable {
				j.skipped("missing method", "line", line)
				continue
			}
			// Calls between same-named methods (delegation, overrides) are
			// not method relations.
			if sourceMethod == targetMethod {
				continue
			}
			emit(&out, relation.New(
				relation.Member(sourceClass, sourceMethod),
				relation.Member(targetClass, targetMethod),
			))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, j.parseFailure(h, "failed to read call edges", err)
	}

	j.logger.Debug("Extracted relations", "level", level.String(), "count", len(out))
	return out, nil
}
