// Package relation defines the canonical relation model shared by every
// extractor and comparator: evaluation levels, rendered "source->target"
// relation strings, labeled relation sequences and membership sets.
package relation

import (
	"fmt"
	"sort"
	"strings"
)

// Arrow separates the source and target of a rendered relation.
const Arrow = "->"

// MemberSeparator joins a class and a method in method-level endpoints.
const MemberSeparator = ":"

// Level is the granularity at which relations are compared.
type Level int

const (
	// LevelFile compares file-to-file dependencies.
	LevelFile Level = iota + 1
	// LevelClass compares class-to-class dependencies.
	LevelClass
	// LevelMethod compares method-to-method calls.
	LevelMethod
)

// Levels returns every evaluation level in granularity order.
func Levels() []Level {
	return []Level{LevelFile, LevelClass, LevelMethod}
}

// String returns the upper-case name used on the command line.
func (l Level) String() string {
	switch l {
	case LevelFile:
		return "FILE"
	case LevelClass:
		return "CLASS"
	case LevelMethod:
		return "METHOD"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel parses FILE, CLASS or METHOD (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FILE":
		return LevelFile, nil
	case "CLASS":
		return LevelClass, nil
	case "METHOD":
		return LevelMethod, nil
	default:
		return 0, fmt.Errorf("invalid evaluation level %q (expected FILE, CLASS or METHOD)", s)
	}
}

// Relation is a directed edge between two canonical identifiers.
type Relation struct {
	Source string
	Target string
}

// New creates a relation from source to target.
func New(source, target string) Relation {
	return Relation{Source: source, Target: target}
}

// Member renders a method-level endpoint as "class:method".
func Member(class, method string) string {
	return class + MemberSeparator + method
}

// String renders the relation as "source->target".
func (r Relation) String() string {
	return r.Source + Arrow + r.Target
}

// IsSelf reports whether the relation points back at its own source.
func (r Relation) IsSelf() bool {
	return r.Source == r.Target
}

// Parse splits a rendered relation at its first arrow.
func Parse(s string) (Relation, bool) {
	source, target, ok := strings.Cut(s, Arrow)
	if !ok {
		return Relation{}, false
	}
	return Relation{Source: source, Target: target}, true
}

// Sequence is an ordered list of rendered relations. Duplicates are kept.
type Sequence []string

// Append renders r and appends it to the sequence.
func (s *Sequence) Append(r Relation) {
	*s = append(*s, r.String())
}

// Filter returns the relations for which keep returns true.
func (s Sequence) Filter(keep func(string) bool) Sequence {
	out := make(Sequence, 0, len(s))
	for _, r := range s {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Counts returns the occurrence count of every relation in the sequence.
func (s Sequence) Counts() Counter {
	c := make(Counter, len(s))
	for _, r := range s {
		c[r]++
	}
	return c
}

// Set collapses the sequence to unique membership.
func (s Sequence) Set() Set {
	return NewSet(s...)
}

// Labeled is a relation sequence tagged with the tool that produced it.
type Labeled struct {
	Label     string
	Relations Sequence
}

// Counter maps a value to how many times it was observed.
type Counter map[string]int

// Add increments the count for key.
func (c Counter) Add(key string) {
	c[key]++
}

// Set is an unordered collection of unique relation strings.
type Set map[string]struct{}

// NewSet builds a set from the given items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts item into the set.
func (s Set) Add(item string) {
	s[item] = struct{}{}
}

// Has reports whether item is a member.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set with the members of s and every other set.
func (s Set) Union(others ...Set) Set {
	out := make(Set, len(s))
	for item := range s {
		out[item] = struct{}{}
	}
	for _, o := range others {
		for item := range o {
			out[item] = struct{}{}
		}
	}
	return out
}

// Intersect returns the members of s that are also in o.
func (s Set) Intersect(o Set) Set {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for item := range small {
		if large.Has(item) {
			out[item] = struct{}{}
		}
	}
	return out
}

// Difference returns the members of s that are not in o.
func (s Set) Difference(o Set) Set {
	out := make(Set)
	for item := range s {
		if !o.Has(item) {
			out[item] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets have exactly the same members.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for item := range s {
		if !o.Has(item) {
			return false
		}
	}
	return true
}
