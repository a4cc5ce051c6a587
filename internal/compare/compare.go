// Package compare computes agreement between relation sets produced by
// different tools.
package compare

import (
	"relbench/internal/relation"
)

// Compare collapses each labeled sequence to a set and compares them.
//
// An element's frequency is the number of sets containing it. Elements in
// every set are shared and removed from the histogram; elements in exactly
// one set are reported per input as unique. The histogram keeps the
// remaining multiplicities 2..N-1.
//
// With a single input the whole set is both shared and unique and the
// histogram is empty. With no input the result is empty.
func Compare(inputs []relation.Labeled) *Result {
	res := &Result{
		Labels:       make([]string, len(inputs)),
		Sets:         make([]relation.Set, len(inputs)),
		Unique:       make([]relation.Set, len(inputs)),
		Shared:       relation.NewSet(),
		Frequency:    make(relation.Counter),
		Histogram:    make(map[int]int),
		Contributors: relation.NewSet(),
	}
	if len(inputs) == 0 {
		return res
	}

	for i, in := range inputs {
		res.Labels[i] = in.Label
		res.Sets[i] = in.Relations.Set()
		for item := range res.Sets[i] {
			res.Frequency.Add(item)
		}
	}

	n := len(inputs)
	for item, freq := range res.Frequency {
		switch {
		case freq == n:
			res.Shared.Add(item)
		case freq > 1:
			res.Histogram[freq]++
			res.Contributors.Add(item)
		}
	}

	for i, set := range res.Sets {
		unique := relation.NewSet()
		for item := range set {
			if res.Frequency[item] == 1 {
				unique.Add(item)
			}
		}
		res.Unique[i] = unique
	}
	return res
}

// Pairwise returns the overlap of every unordered pair of inputs, in input
// order.
func (r *Result) Pairwise() []Overlap {
	var out []Overlap
	for i := 0; i < len(r.Sets); i++ {
		for j := i + 1; j < len(r.Sets); j++ {
			inter := r.Sets[i].Intersect(r.Sets[j]).Len()
			union := r.Sets[i].Len() + r.Sets[j].Len() - inter
			o := Overlap{
				Left:         r.Labels[i],
				Right:        r.Labels[j],
				Intersection: inter,
				Union:        union,
			}
			if union > 0 {
				o.Jaccard = float64(inter) / float64(union)
			}
			out = append(out, o)
		}
	}
	return out
}

// Summarize reduces the result to counts.
func (r *Result) Summarize(withOverlaps bool) Summary {
	s := Summary{
		Tools:     make([]ToolSummary, len(r.Sets)),
		Shared:    r.SharedCount(),
		Union:     len(r.Frequency),
		Histogram: r.Buckets(),
	}
	for i := range r.Sets {
		s.Tools[i] = ToolSummary{
			Label:  r.Labels[i],
			Total:  r.Sets[i].Len(),
			Unique: r.Unique[i].Len(),
		}
	}
	if withOverlaps {
		s.Overlaps = r.Pairwise()
	}
	return s
}

// SortedUnique returns the unique elements of the input labeled label in
// ascending order, or nil when no input carries that label.
func (r *Result) SortedUnique(label string) []string {
	for i, l := range r.Labels {
		if l == label {
			return r.Unique[i].Sorted()
		}
	}
	return nil
}

// SortedShared returns the shared elements in ascending order.
func (r *Result) SortedShared() []string {
	return r.Shared.Sorted()
}
