package extract

import (
	"bufio"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"relbench/internal/artifact"
	"relbench/internal/relation"
)

// locatorCacheSize bounds the memo of unmangled node names. The same node
// appears on many edges of a call graph.
const locatorCacheSize = 8192

// Pyan reads the Graphviz call graph written by pyan. Node names encode
// dotted paths with "__" separators, so "pkg.mod.__init__" is written as
// "pkg__mod____init__".
type Pyan struct {
	base
	noiseTargets []string
}

// NewPyan creates the pyan extractor.
func NewPyan(opts Options) *Pyan {
	return &Pyan{
		base:         newBase("pyan", "Pyan", "pyan.dot", opts.logger(), relation.LevelMethod),
		noiseTargets: opts.NoiseTargets,
	}
}

// Extract implements Extractor.
func (p *Pyan) Extract(h artifact.Handle, level relation.Level) (relation.Sequence, error) {
	rc, err := p.open(h, level)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	cache, err := lru.New[string, string](locatorCacheSize)
	if err != nil {
		return nil, err
	}
	unmangle := func(loc string) string {
		if v, ok := cache.Get(loc); ok {
			return v
		}
		v := UnmangleLocator(loc)
		cache.Add(loc, v)
		return v
	}

	var out relation.Sequence
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if !strings.Contains(text, relation.Arrow) {
			continue
		}

		body := text
		if i := strings.IndexByte(body, '['); i >= 0 {
			body = body[:i]
		}
		body = strings.TrimSpace(body)
		body = strings.TrimSuffix(body, ";")

		parts := strings.Split(body, relation.Arrow)
		if len(parts) != 2 {
			p.skipped("edge without exactly two endpoints", "line", line)
			continue
		}

		source := unmangle(parts[0])
		target := unmangle(parts[1])
		if p.isNoise(target) {
			continue
		}
		emit(&out, relation.New(source, target))
	}
	if err := scanner.Err(); err != nil {
		return nil, p.parseFailure(h, "failed to read call graph", err)
	}

	p.logger.Debug("Extracted relations", "level", level.String(), "count", len(out), "locators", cache.Len())
	return out, nil
}

func (p *Pyan) isNoise(target string) bool {
	for _, n := range p.noiseTargets {
		if strings.Contains(target, n) {
			return true
		}
	}
	return false
}

// UnmangleLocator converts a pyan node name back to a dotted path. Runs of
// "__" separate segments, except that a segment wrapped in double
// underscores (a dunder name such as __init__) is kept intact.
func UnmangleLocator(locator string) string {
	rest := strings.Trim(strings.TrimSpace(locator), `"`)

	var segments []string
	for rest != "" {
		if name, n, ok := dunderPrefix(rest); ok {
			segments = append(segments, name)
			rest = rest[n:]
		} else {
			i := strings.Index(rest, "__")
			switch {
			case i < 0:
				segments = append(segments, rest)
				rest = ""
			case i == 0:
				// "__" that opens no dunder segment: keep it literally with
				// whatever follows up to the next separator.
				j := strings.Index(rest[2:], "__")
				if j < 0 {
					segments = append(segments, rest)
					rest = ""
				} else {
					segments = append(segments, rest[:j+2])
					rest = rest[j+2:]
				}
			default:
				segments = append(segments, rest[:i])
				rest = rest[i:]
			}
		}
		rest = strings.TrimPrefix(rest, "__")
	}
	return strings.Join(segments, ".")
}

// dunderPrefix matches "__name__" at the start of s when it is followed by
// the end of s or by a "__" separator. name may contain single underscores.
func dunderPrefix(s string) (string, int, bool) {
	if !strings.HasPrefix(s, "__") {
		return "", 0, false
	}
	i := 2
	for i < len(s) {
		c := s[i]
		if c == '_' {
			if i+1 < len(s) && s[i+1] == '_' {
				break
			}
			if i == 2 {
				return "", 0, false
			}
		} else if !isWordByte(c) {
			return "", 0, false
		}
		i++
	}
	if i == 2 || !strings.HasPrefix(s[i:], "__") {
		return "", 0, false
	}
	end := i + 2
	if end != len(s) && !strings.HasPrefix(s[end:], "__") {
		return "", 0, false
	}
	return s[:end], end, true
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
