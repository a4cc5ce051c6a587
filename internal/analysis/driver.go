// Package analysis runs the configured extractors for one project and level
// and hands the surviving relation sets to the comparator.
package analysis

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"relbench/internal/artifact"
	"relbench/internal/errors"
	"relbench/internal/extract"
	"relbench/internal/relation"
	"relbench/internal/slogutil"
)

// ExclusionReason says why a tool took no part in a run.
type ExclusionReason string

const (
	ReasonUnsupportedLevel ExclusionReason = "unsupported_level"
	ReasonMissingArtifact  ExclusionReason = "missing_artifact"
	ReasonDisabled         ExclusionReason = "disabled"
	ReasonParseFailure     ExclusionReason = "parse_failure"
)

// Exclusion records a tool that was left out of the comparison.
type Exclusion struct {
	Tool    string          `json:"tool" yaml:"tool" toml:"tool"`
	Display string          `json:"display" yaml:"display" toml:"display"`
	Reason  ExclusionReason `json:"reason" yaml:"reason" toml:"reason"`
	Detail  string          `json:"detail,omitempty" yaml:"detail,omitempty" toml:"detail,omitempty"`
}

// Participant is a tool whose relations take part in the comparison.
type Participant struct {
	Tool      string            `json:"tool"`
	Display   string            `json:"display"`
	Artifact  string            `json:"artifact"`
	Relations relation.Sequence `json:"-"`
	Dropped   int               `json:"dropped"`
}

// Run is the result of extracting every eligible tool for one project.
type Run struct {
	Project      string         `json:"project"`
	Level        relation.Level `json:"-"`
	Participants []Participant  `json:"participants"`
	Excluded     []Exclusion    `json:"excluded"`
	Duration     time.Duration  `json:"-"`
}

// Labeled returns the participants' relation sets labeled with their display
// names, in registry order.
func (r *Run) Labeled() []relation.Labeled {
	out := make([]relation.Labeled, len(r.Participants))
	for i, p := range r.Participants {
		out[i] = relation.Labeled{Label: p.Display, Relations: p.Relations}
	}
	return out
}

// ParticipantNames returns the registry names of the participating tools.
func (r *Run) ParticipantNames() []string {
	out := make([]string, len(r.Participants))
	for i, p := range r.Participants {
		out[i] = p.Tool
	}
	return out
}

// Failures returns the exclusions caused by unreadable artifacts.
func (r *Run) Failures() []Exclusion {
	var out []Exclusion
	for _, e := range r.Excluded {
		if e.Reason == ReasonParseFailure {
			out = append(out, e)
		}
	}
	return out
}

// Options configures a Driver.
type Options struct {
	DataDir string
	// Tools restricts the run to these registry names; empty means all.
	Tools []string
	// Parallel is the number of extractors run at once; 0 or 1 runs them
	// one after another.
	Parallel int
	// DropMissingMarker removes relations with a missing marker as a whole
	// segment of either end.
	DropMissingMarker bool
	MissingMarkers    []string
	Logger            *slog.Logger
}

// Driver gates the registered extractors on level support and artifact
// presence, then extracts the rest.
type Driver struct {
	registry *extract.Registry
	opts     Options
	logger   *slog.Logger
}

// NewDriver creates a driver over registry.
func NewDriver(registry *extract.Registry, opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Driver{registry: registry, opts: opts, logger: logger}
}

type slot struct {
	participant *Participant
	exclusion   *Exclusion
}

// Run extracts every eligible tool for project at level. Per-tool problems
// become exclusions; only an invalid tool selection or a cancelled context
// fails the run.
func (d *Driver) Run(ctx context.Context, project string, level relation.Level) (*Run, error) {
	start := time.Now()

	selected, err := d.registry.Select(d.opts.Tools)
	if err != nil {
		return nil, err
	}

	roster, err := extract.LoadRoster(filepath.Join(d.opts.DataDir, project))
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "", "invalid tool roster for project "+project, err)
	}

	slots := make([]slot, len(selected))
	var eligible []int
	for i, e := range selected {
		switch {
		case !roster.Enabled(e.Name()):
			slots[i].exclusion = exclusion(e, ReasonDisabled, "disabled in "+extract.RosterFile)
		case !e.Supports(level):
			slots[i].exclusion = exclusion(e, ReasonUnsupportedLevel, "supports "+levelList(e.Levels()))
		default:
			h := artifact.NewHandle(d.opts.DataDir, project, e.Name(), roster.FileFor(e))
			if !h.Exists() {
				d.logger.Warn("Artifact not found, tool excluded", "tool", e.Name(), "path", h.Path())
				slots[i].exclusion = exclusion(e, ReasonMissingArtifact, h.Path())
				continue
			}
			eligible = append(eligible, i)
		}
	}

	extractOne := func(i int) {
		e := selected[i]
		h := artifact.NewHandle(d.opts.DataDir, project, e.Name(), roster.FileFor(e))
		seq, err := e.Extract(h, level)
		if err != nil {
			slots[i].exclusion = d.classify(e, err)
			return
		}
		kept, dropped := d.applyPolicy(seq)
		path, _ := h.Resolve()
		slots[i].participant = &Participant{
			Tool:      e.Name(),
			Display:   e.DisplayName(),
			Artifact:  path,
			Relations: kept,
			Dropped:   dropped,
		}
		d.logger.Info("Extracted tool", "tool", e.Name(), "relations", len(kept), "dropped", dropped)
	}

	if d.opts.Parallel > 1 && len(eligible) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.opts.Parallel)
		for _, i := range eligible {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				extractOne(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, i := range eligible {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			extractOne(i)
		}
	}

	run := &Run{Project: project, Level: level}
	for _, s := range slots {
		if s.participant != nil {
			run.Participants = append(run.Participants, *s.participant)
		}
		if s.exclusion != nil {
			run.Excluded = append(run.Excluded, *s.exclusion)
		}
	}
	run.Duration = time.Since(start)

	d.logger.Info("Extraction finished",
		"project", project,
		"level", level.String(),
		"participants", len(run.Participants),
		"excluded", len(run.Excluded),
		"duration", run.Duration.String(),
	)
	return run, nil
}

// classify maps an extraction error onto an exclusion.
func (d *Driver) classify(e extract.Extractor, err error) *Exclusion {
	switch {
	case errors.IsCode(err, errors.MissingArtifact):
		return exclusion(e, ReasonMissingArtifact, err.Error())
	case errors.IsCode(err, errors.UnsupportedLevel):
		return exclusion(e, ReasonUnsupportedLevel, err.Error())
	default:
		d.logger.Error("Tool excluded after extraction failure", "tool", e.Name(), "error", err)
		return exclusion(e, ReasonParseFailure, err.Error())
	}
}

// applyPolicy drops relations that carry a missing marker when configured.
func (d *Driver) applyPolicy(seq relation.Sequence) (relation.Sequence, int) {
	if !d.opts.DropMissingMarker || len(d.opts.MissingMarkers) == 0 {
		return seq, 0
	}
	markers := make(map[string]struct{}, len(d.opts.MissingMarkers))
	for _, m := range d.opts.MissingMarkers {
		markers[m] = struct{}{}
	}
	kept := seq.Filter(func(s string) bool { return !HasMissingMarker(s, markers) })
	return kept, len(seq) - len(kept)
}

// HasMissingMarker reports whether any dotted or member segment of either
// end of the rendered relation equals a marker.
func HasMissingMarker(rendered string, markers map[string]struct{}) bool {
	r, ok := relation.Parse(rendered)
	if !ok {
		return false
	}
	split := func(c rune) bool { return c == '.' || c == ':' }
	for _, end := range []string{r.Source, r.Target} {
		for _, seg := range strings.FieldsFunc(end, split) {
			if _, hit := markers[seg]; hit {
				return true
			}
		}
	}
	return false
}

func exclusion(e extract.Extractor, reason ExclusionReason, detail string) *Exclusion {
	return &Exclusion{Tool: e.Name(), Display: e.DisplayName(), Reason: reason, Detail: detail}
}

func levelList(levels []relation.Level) string {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return strings.Join(names, ",")
}
