package extract

import (
	"encoding/xml"
	"strings"

	"relbench/internal/artifact"
	"relbench/internal/canon"
	"relbench/internal/relation"
)

// DependencyFinder reads the XML dependency graph written by Dependency
// Finder. Only edges whose package, class and inbound reference are all
// confirmed become relations.
type DependencyFinder struct {
	base
}

// NewDependencyFinder creates the Dependency Finder extractor.
func NewDependencyFinder(opts Options) *DependencyFinder {
	return &DependencyFinder{
		base: newBase("dependencyfinder", "Dependency Finder", "dependencyFinder.xml", opts.logger(), relation.LevelClass),
	}
}

type dfDocument struct {
	XMLName  xml.Name    `xml:"dependencies"`
	Packages []dfPackage `xml:"package"`
}

type dfPackage struct {
	Confirmed string    `xml:"confirmed,attr"`
	Name      string    `xml:"name"`
	Classes   []dfClass `xml:"class"`
}

type dfClass struct {
	Confirmed string  `xml:"confirmed,attr"`
	Name      string  `xml:"name"`
	Inbound   []dfRef `xml:"inbound"`
}

type dfRef struct {
	Type      string `xml:"type,attr"`
	Confirmed string `xml:"confirmed,attr"`
	Value     string `xml:",chardata"`
}

func confirmed(attr string) bool {
	return attr == "yes"
}

// Extract implements Extractor.
func (d *DependencyFinder) Extract(h artifact.Handle, level relation.Level) (relation.Sequence, error) {
	rc, err := d.open(h, level)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var doc dfDocument
	dec := xml.NewDecoder(rc)
	dec.Strict = true
	if err := dec.Decode(&doc); err != nil {
		return nil, d.parseFailure(h, "invalid dependency document", err)
	}

	var out relation.Sequence
	for _, pkg := range doc.Packages {
		if !confirmed(pkg.Confirmed) {
			continue
		}
		for _, class := range pkg.Classes {
			if !confirmed(class.Confirmed) {
				continue
			}
			className := strings.TrimSpace(class.Name)
			if className == "" {
				d.skipped("class without name", "package", pkg.Name)
				continue
			}
			target := canon.DotifyNestedSeparator(canon.OwningClass(className, false))

			for _, ref := range class.Inbound {
				if !confirmed(ref.Confirmed) {
					continue
				}
				source := strings.TrimSpace(ref.Value)
				if source == "" {
					d.skipped("inbound reference without text", "class", className)
					continue
				}
				if ref.Type == "feature" {
					source = canon.OwningClass(source, true)
				}
				source = canon.DotifyNestedSeparator(source)

				r := relation.New(source, target)
				if canon.HasAnonymousIndex(r.String()) {
					continue
				}
				emit(&out, r)
			}
		}
	}

	d.logger.Debug("Extracted relations", "level", level.String(), "count", len(out))
	return out, nil
}
