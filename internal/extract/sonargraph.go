package extract

import (
	"regexp"
	"strings"

	"relbench/internal/artifact"
	"relbench/internal/relation"
)

// Sonargraph reads the dependency export CSV written by Sonargraph. Element
// columns hold colon-separated logical paths such as
// "Workspace:Module:./src/main/java:com:acme:Foo.java:Foo"; the file columns
// say which segment is the source root and what the file extension is.
type Sonargraph struct {
	base
	missingMarkers []string
}

// NewSonargraph creates the Sonargraph extractor.
func NewSonargraph(opts Options) *Sonargraph {
	return &Sonargraph{
		base:           newBase("sonargraph", "Sonargraph", "sonargraph.csv", opts.logger(), relation.LevelClass),
		missingMarkers: opts.MissingMarkers,
	}
}

var (
	sonargraphRoot      = regexp.MustCompile(`:\./([^:]+):`)
	sonargraphExtension = regexp.MustCompile(`\.([^.]+)$`)
)

// rootAndExtension extracts the source root and extension from a file column.
func rootAndExtension(fileColumn string) (root, ext string) {
	if m := sonargraphRoot.FindStringSubmatch(fileColumn); m != nil {
		root = m[1]
	}
	if m := sonargraphExtension.FindStringSubmatch(fileColumn); m != nil {
		ext = m[1]
	}
	return root, ext
}

// QualifiedClass resolves an element column to "package.Class" using the
// root and extension taken from the matching file column. It returns "" when
// either part cannot be found.
func QualifiedClass(element, fileColumn string) string {
	root, ext := rootAndExtension(fileColumn)
	if root == "" || ext == "" {
		return ""
	}

	pattern := `:\./` + regexp.QuoteMeta(root) + `:((?:[^:]+:)*)([^:]+)\.` + regexp.QuoteMeta(ext)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(element)
	if m == nil {
		return ""
	}

	pkg := strings.ReplaceAll(strings.TrimRight(m[1], ":"), ":", ".")
	class := m[2]
	if pkg == "" || class == "" {
		return ""
	}
	return pkg + "." + class
}

// Extract implements Extractor.
func (s *Sonargraph) Extract(h artifact.Handle, level relation.Level) (relation.Sequence, error) {
	rc, err := s.open(h, level)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	t, err := NewTable(rc, s.missingMarkers)
	if err != nil {
		return nil, s.parseFailure(h, "invalid dependency table", err)
	}
	for _, col := range []string{"From", "From File", "To", "To File"} {
		if !t.HasColumn(col) {
			return nil, s.parseFailure(h, "dependency table lacks column "+col, nil)
		}
	}

	var out relation.Sequence
	for {
		ok, err := t.Next()
		if err != nil {
			return nil, s.parseFailure(h, "failed to read dependency table", err)
		}
		if !ok {
			break
		}

		from := QualifiedClass(t.Get("From"), t.Get("From File"))
		to := QualifiedClass(t.Get("To"), t.Get("To File"))
		if from == "" || to == "" {
			s.skipped("unresolved side", "line", t.Line())
			continue
		}
		emit(&out, relation.New(from, to))
	}

	if n := t.Skipped(); n > 0 {
		s.logger.Warn("Skipped unparseable rows", "count", n)
	}
	s.logger.Debug("Extracted relations", "level", level.String(), "count", len(out))
	return out, nil
}
