package compare

import (
	"sort"

	"relbench/internal/relation"
)

// Result is the outcome of comparing N labeled relation sets.
type Result struct {
	// Labels are the input labels in input order.
	Labels []string

	// Sets are the de-duplicated inputs, aligned with Labels.
	Sets []relation.Set

	// Unique holds, per input, the elements no other input contains.
	Unique []relation.Set

	// Shared holds the elements every input contains.
	Shared relation.Set

	// Frequency maps each element to the number of inputs containing it.
	Frequency relation.Counter

	// Histogram maps a multiplicity k (1 < k < N) to the number of
	// elements found in exactly k inputs.
	Histogram map[int]int

	// Contributors are the elements counted in Histogram.
	Contributors relation.Set
}

// Participants returns how many sets were compared.
func (r *Result) Participants() int {
	return len(r.Sets)
}

// SharedCount returns the number of elements present in every set.
func (r *Result) SharedCount() int {
	return r.Shared.Len()
}

// UniqueCounts returns the size of each unique set, in input order.
func (r *Result) UniqueCounts() []int {
	counts := make([]int, len(r.Unique))
	for i, u := range r.Unique {
		counts[i] = u.Len()
	}
	return counts
}

// Union returns every element of every set.
func (r *Result) Union() relation.Set {
	return relation.NewSet().Union(r.Sets...)
}

// Bucket is one histogram entry.
type Bucket struct {
	Multiplicity int `json:"multiplicity" yaml:"multiplicity" toml:"multiplicity"`
	Count        int `json:"count" yaml:"count" toml:"count"`
}

// Buckets returns the histogram ordered by multiplicity.
func (r *Result) Buckets() []Bucket {
	out := make([]Bucket, 0, len(r.Histogram))
	for k, v := range r.Histogram {
		out = append(out, Bucket{Multiplicity: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Multiplicity < out[j].Multiplicity })
	return out
}

// Overlap describes how two inputs agree.
type Overlap struct {
	Left         string  `json:"left" yaml:"left" toml:"left"`
	Right        string  `json:"right" yaml:"right" toml:"right"`
	Intersection int     `json:"intersection" yaml:"intersection" toml:"intersection"`
	Union        int     `json:"union" yaml:"union" toml:"union"`
	Jaccard      float64 `json:"jaccard" yaml:"jaccard" toml:"jaccard"`
}

// ToolSummary is the per-input line of a Summary.
type ToolSummary struct {
	Label  string `json:"label" yaml:"label" toml:"label"`
	Total  int    `json:"total" yaml:"total" toml:"total"`
	Unique int    `json:"unique" yaml:"unique" toml:"unique"`
}

// Summary is the numeric digest of a Result, suitable for encoding.
type Summary struct {
	Tools     []ToolSummary `json:"tools" yaml:"tools" toml:"tools"`
	Shared    int           `json:"shared" yaml:"shared" toml:"shared"`
	Union     int           `json:"union" yaml:"union" toml:"union"`
	Histogram []Bucket      `json:"histogram" yaml:"histogram" toml:"histogram"`
	Overlaps  []Overlap     `json:"overlaps,omitempty" yaml:"overlaps,omitempty" toml:"overlaps,omitempty"`
}
