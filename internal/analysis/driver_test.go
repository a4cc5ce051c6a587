package analysis

import (
	"context"
	"reflect"
	"testing"

	"relbench/internal/compare"
	"relbench/internal/extract"
	"relbench/internal/relation"
	"relbench/internal/testutil"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	return testutil.ProjectData(t, "demo", files)
}

var methodFixtures = map[string]string{
	"jarviz.jsonl": `{"sourceClass":"app.main","sourceMethod":"run","targetClass":"app.util","targetMethod":"helper"}
{"sourceClass":"app.main","sourceMethod":"run","targetClass":"app.nan","targetMethod":"x"}
`,
	"pyan.dot":  "digraph G {\n  app__main__run -> app__util__helper;\n  app__main__run -> app__db__save;\n}\n",
	"pycg.json": `{"modules": {}}`,
}

func reasons(run *Run) map[string]ExclusionReason {
	out := make(map[string]ExclusionReason)
	for _, e := range run.Excluded {
		out[e.Tool] = e.Reason
	}
	return out
}

func TestDriver_Run(t *testing.T) {
	for _, parallel := range []int{0, 4} {
		dataDir := writeProject(t, methodFixtures)
		d := NewDriver(extract.DefaultRegistry(extract.DefaultOptions()), Options{
			DataDir:           dataDir,
			Parallel:          parallel,
			DropMissingMarker: true,
			MissingMarkers:    []string{"nan"},
		})

		run, err := d.Run(context.Background(), "demo", relation.LevelMethod)
		if err != nil {
			t.Fatalf("Run(parallel=%d) error = %v", parallel, err)
		}

		if got := run.ParticipantNames(); !reflect.DeepEqual(got, []string{"jarviz", "pyan"}) {
			t.Errorf("parallel=%d: participants = %v", parallel, got)
		}

		want := map[string]ExclusionReason{
			"sonargraph":       ReasonUnsupportedLevel,
			"dependencyfinder": ReasonUnsupportedLevel,
			"refexpo":          ReasonMissingArtifact,
			"pycg":             ReasonParseFailure,
		}
		if got := reasons(run); !reflect.DeepEqual(got, want) {
			t.Errorf("parallel=%d: exclusions = %v, want %v", parallel, got, want)
		}
		if len(run.Failures()) != 1 {
			t.Errorf("parallel=%d: Failures() = %v", parallel, run.Failures())
		}

		jarviz := run.Participants[0]
		if jarviz.Dropped != 1 || len(jarviz.Relations) != 1 {
			t.Errorf("parallel=%d: jarviz kept %d, dropped %d", parallel, len(jarviz.Relations), jarviz.Dropped)
		}

		res := compare.Compare(run.Labeled())
		if res.Labels[0] != "Jarviz" || res.Labels[1] != "Pyan" {
			t.Errorf("labels = %v", res.Labels)
		}
	}
}

func TestDriver_RosterAndSelection(t *testing.T) {
	files := map[string]string{
		"calls.jsonl": `{"sourceClass":"a.A","sourceMethod":"m","targetClass":"b.B","targetMethod":"n"}` + "\n",
		"pyan.dot":    "a__m -> b__n\n",
		extract.RosterFile: `[[tool]]
name = "jarviz"
file = "calls.jsonl"

[[tool]]
name = "pyan"
enabled = false
`,
	}
	dataDir := writeProject(t, files)
	d := NewDriver(extract.DefaultRegistry(extract.DefaultOptions()), Options{
		DataDir: dataDir,
		Tools:   []string{"jarviz", "pyan"},
	})

	run, err := d.Run(context.Background(), "demo", relation.LevelMethod)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := run.ParticipantNames(); !reflect.DeepEqual(got, []string{"jarviz"}) {
		t.Errorf("participants = %v, want [jarviz]", got)
	}
	if got := reasons(run); !reflect.DeepEqual(got, map[string]ExclusionReason{"pyan": ReasonDisabled}) {
		t.Errorf("exclusions = %v", got)
	}
}

func TestDriver_UnknownTool(t *testing.T) {
	d := NewDriver(extract.DefaultRegistry(extract.DefaultOptions()), Options{
		DataDir: t.TempDir(),
		Tools:   []string{"doxygen"},
	})
	if _, err := d.Run(context.Background(), "demo", relation.LevelClass); err == nil {
		t.Fatal("Run() with an unknown tool should fail")
	}
}

func TestDriver_Cancelled(t *testing.T) {
	dataDir := writeProject(t, methodFixtures)
	d := NewDriver(extract.DefaultRegistry(extract.DefaultOptions()), Options{DataDir: dataDir})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Run(ctx, "demo", relation.LevelMethod); err == nil {
		t.Fatal("Run() with a cancelled context should fail")
	}
}

func TestHasMissingMarker(t *testing.T) {
	markers := map[string]struct{}{"nan": {}, "None": {}}
	tests := []struct {
		in   string
		want bool
	}{
		{"a.b->c.d", false},
		{"a.nan->c.d", true},
		{"a.b:None->c.d", true},
		{"financial.b->c.d", false},
		{"no arrow", false},
	}
	for _, tt := range tests {
		if got := HasMissingMarker(tt.in, markers); got != tt.want {
			t.Errorf("HasMissingMarker(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
