package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"relbench/internal/artifact"
	"relbench/internal/extract"
	"relbench/internal/output"
	"relbench/internal/storage"
)

// formatCompareHuman renders a comparison for the terminal.
func formatCompareHuman(r *compareReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s   Level: %s\n", r.Run.Project, r.Run.Level)
	if r.Run.ID != "" {
		fmt.Fprintf(&b, "Run:     %s\n", r.Run.ID)
	}
	fmt.Fprintf(&b, "Tools:   %s\n", joinOrNone(r.Run.Participants))
	if len(r.Run.Excluded) > 0 {
		b.WriteString("Excluded:\n")
		for _, x := range r.Run.Excluded {
			if x.Detail != "" {
				fmt.Fprintf(&b, "  - %s: %s (%s)\n", x.Display, x.Reason, x.Detail)
			} else {
				fmt.Fprintf(&b, "  - %s: %s\n", x.Display, x.Reason)
			}
		}
	}
	b.WriteString("\n")

	if len(r.Summary.Tools) == 0 {
		b.WriteString("No relations to compare.\n")
		return b.String()
	}

	b.WriteString("Unique elements per tool:\n")
	for _, t := range r.Summary.Tools {
		fmt.Fprintf(&b, "  %-18s %10s  (of %s)\n", t.Label, humanize.Comma(int64(t.Unique)), humanize.Comma(int64(t.Total)))
	}
	fmt.Fprintf(&b, "Shared by all tools: %s\n", humanize.Comma(int64(r.Summary.Shared)))
	fmt.Fprintf(&b, "Distinct relations:  %s\n", humanize.Comma(int64(r.Summary.Union)))

	if len(r.Summary.Histogram) > 0 {
		b.WriteString("Count of elements by number of tools reporting them:\n")
		for _, h := range r.Summary.Histogram {
			fmt.Fprintf(&b, "  %d -> %s\n", h.Multiplicity, humanize.Comma(int64(h.Count)))
		}
	}

	if len(r.Summary.Overlaps) > 0 {
		overlaps := append(r.Summary.Overlaps[:0:0], r.Summary.Overlaps...)
		output.SortOverlaps(overlaps)
		b.WriteString("\nPairwise overlap:\n")
		for _, o := range overlaps {
			fmt.Fprintf(&b, "  %-18s %-18s %8s / %-8s jaccard %s\n",
				o.Left, o.Right,
				humanize.Comma(int64(o.Intersection)), humanize.Comma(int64(o.Union)),
				output.FormatFloat(o.Jaccard))
		}
	}

	for _, u := range r.Unique {
		if len(u.Relations) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nUnique to %s (%d of %s):\n", u.Label, len(u.Relations), humanize.Comma(int64(u.Total)))
		for _, rel := range u.Relations {
			fmt.Fprintf(&b, "  %s\n", rel)
		}
	}

	return b.String()
}

// formatToolsHuman renders the registered extractors.
func formatToolsHuman(tools []toolInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %-18s %-16s %s\n", "NAME", "DISPLAY", "FILE", "LEVELS")
	for _, t := range tools {
		fmt.Fprintf(&b, "%-18s %-18s %-16s %s\n", t.Name, t.Display, t.File, strings.Join(t.Levels, ","))
	}
	return b.String()
}

// formatRunsHuman renders recorded runs, newest first.
func formatRunsHuman(runs []*storage.RunRecord, now time.Time) string {
	if len(runs) == 0 {
		return "No recorded runs.\n"
	}

	var b strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %s  %-8s %s (%s)\n",
			shortID(r.ID), r.Project, r.Level,
			humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			r.CreatedAt.Local().Format(time.DateTime))

		tools := append(r.Tools[:0:0], r.Tools...)
		output.SortToolSummaries(tools)
		for _, t := range tools {
			fmt.Fprintf(&b, "    %-18s unique %8s  total %8s\n", t.Label, humanize.Comma(int64(t.Unique)), humanize.Comma(int64(t.Total)))
		}
		fmt.Fprintf(&b, "    shared %s, distinct %s", humanize.Comma(int64(r.Shared)), humanize.Comma(int64(r.Union)))
		if len(r.Histogram) > 0 {
			parts := make([]string, len(r.Histogram))
			for i, h := range r.Histogram {
				parts[i] = fmt.Sprintf("%d:%s", h.Multiplicity, humanize.Comma(int64(h.Count)))
			}
			fmt.Fprintf(&b, ", by tool count %s", strings.Join(parts, " "))
		}
		b.WriteString("\n")
		if len(r.Excluded) > 0 {
			fmt.Fprintf(&b, "    excluded %s\n", strings.Join(r.Excluded, ", "))
		}
	}
	return b.String()
}

// formatMappingHuman renders a manifest module mapping sorted by path.
func formatMappingHuman(mapping map[string]string, exts []artifact.ExtensionCount) string {
	var b strings.Builder
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(&b, "Modules (%s):\n", humanize.Comma(int64(len(keys))))
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-40s %s\n", k, mapping[k])
	}
	if len(exts) > 0 {
		b.WriteString("Files by extension:\n")
		for _, e := range exts {
			fmt.Fprintf(&b, "  %-8s %s\n", e.Extension, humanize.Comma(int64(e.Count)))
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelNames(e extract.Extractor) []string {
	levels := e.Levels()
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return names
}
