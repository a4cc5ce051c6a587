// Package extract turns each analysis tool's raw output into canonical
// relation sequences. Every tool is one Extractor; the set of tools is fixed
// and registered in DefaultRegistry.
package extract

import (
	"io"
	"io/fs"
	"log/slog"

	"relbench/internal/artifact"
	"relbench/internal/errors"
	"relbench/internal/relation"
	"relbench/internal/slogutil"
)

// Extractor converts one tool's artifact into relations at a given level.
type Extractor interface {
	// Name is the registry key, e.g. "jarviz".
	Name() string
	// DisplayName is the tool name shown in reports.
	DisplayName() string
	// FileName is the artifact file the tool writes.
	FileName() string
	// Levels lists the supported evaluation levels.
	Levels() []relation.Level
	// Supports reports whether level is one of Levels.
	Supports(level relation.Level) bool
	// Extract reads the artifact and returns its relations. A missing
	// artifact or unsupported level yields an empty sequence and a coded
	// error; only a structural parse failure is fatal for the tool.
	Extract(h artifact.Handle, level relation.Level) (relation.Sequence, error)
}

// Options carries settings shared by all extractors.
type Options struct {
	Logger *slog.Logger
	// MissingMarkers are cell values tabular extractors treat as absent,
	// in addition to the empty string.
	MissingMarkers []string
	// NoiseTargets are substrings that mark graph-text call targets as noise.
	NoiseTargets []string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Logger:         slogutil.NewDiscardLogger(),
		MissingMarkers: []string{"nan", "NaN", "None"},
		NoiseTargets:   []string{".set", ".print"},
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slogutil.NewDiscardLogger()
	}
	return o.Logger
}

// base implements the bookkeeping shared by every extractor.
type base struct {
	name     string
	display  string
	fileName string
	levels   []relation.Level
	logger   *slog.Logger
}

func newBase(name, display, fileName string, logger *slog.Logger, levels ...relation.Level) base {
	return base{
		name:     name,
		display:  display,
		fileName: fileName,
		levels:   levels,
		logger:   logger.With("tool", name),
	}
}

func (b base) Name() string             { return b.name }
func (b base) DisplayName() string      { return b.display }
func (b base) FileName() string         { return b.fileName }
func (b base) Levels() []relation.Level { return append([]relation.Level(nil), b.levels...) }

func (b base) Supports(level relation.Level) bool {
	for _, l := range b.levels {
		if l == level {
			return true
		}
	}
	return false
}

// ArtifactDetails is attached to errors about a specific artifact.
type ArtifactDetails struct {
	Path string `json:"path"`
}

// open checks the level and opens the artifact, mapping the failure modes
// onto coded errors.
func (b base) open(h artifact.Handle, level relation.Level) (io.ReadCloser, error) {
	if !b.Supports(level) {
		return nil, errors.Newf(errors.UnsupportedLevel, b.name, "evaluation level %s is not supported", level)
	}

	rc, err := h.Open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("Artifact not found", "path", h.Path())
			return nil, errors.New(errors.MissingArtifact, b.name, "artifact not found: "+h.Path(), err).
				WithDetails(ArtifactDetails{Path: h.Path()})
		}
		return nil, errors.New(errors.StructuralParseFailure, b.name, "failed to open artifact", err).
			WithDetails(ArtifactDetails{Path: h.Path()})
	}
	return rc, nil
}

// parseFailure logs and wraps a fatal format error.
func (b base) parseFailure(h artifact.Handle, message string, cause error) error {
	b.logger.Error("Artifact could not be parsed", "path", h.Path(), "error", cause)
	return errors.New(errors.StructuralParseFailure, b.name, message, cause).
		WithDetails(ArtifactDetails{Path: h.Path()})
}

// skipped logs one dropped record at debug level.
func (b base) skipped(reason string, args ...any) {
	b.logger.Debug("Skipped record", append([]any{"reason", reason}, args...)...)
}

// emit appends r unless it is a self-relation.
func emit(seq *relation.Sequence, r relation.Relation) bool {
	if r.Source == "" || r.Target == "" || r.IsSelf() {
		return false
	}
	seq.Append(r)
	return true
}
