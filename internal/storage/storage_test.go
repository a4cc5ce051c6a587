package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"relbench/internal/compare"
	"relbench/internal/paths"
	"relbench/internal/slogutil"
)

func setupTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	t.Setenv(paths.HomeEnvVar, "")
	root := t.TempDir()

	db, err := Open(root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db, root
}

func TestDatabaseInitialization(t *testing.T) {
	db, root := setupTestDB(t)

	dbPath := filepath.Join(root, paths.StateDirName, paths.RunsDBFileName)
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("Database file was not created at %s: %v", dbPath, err)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", db.Path(), dbPath)
	}

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	db, root := setupTestDB(t)

	id, err := db.SaveRun(&RunRecord{Project: "demo", Level: "class"})
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	reopened, err := Open(root, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	rec, err := reopened.GetRun(id)
	if err != nil || rec == nil {
		t.Fatalf("GetRun() = %v, %v", rec, err)
	}
	if rec.Project != "demo" {
		t.Errorf("Project = %q, want demo", rec.Project)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db, _ := setupTestDB(t)

	summary := compare.Summary{
		Tools: []compare.ToolSummary{
			{Label: "Jarviz", Total: 10, Unique: 3},
			{Label: "Pyan", Total: 8, Unique: 1},
			{Label: "PyCG", Total: 7, Unique: 0},
		},
		Shared:    4,
		Union:     14,
		Histogram: []compare.Bucket{{Multiplicity: 2, Count: 6}},
	}
	rec := NewRunRecord("demo", "method", summary, []string{"sonargraph:unsupported_level"}, 1500*time.Millisecond)

	id, err := db.SaveRun(rec)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if id == "" || rec.ID != id {
		t.Fatalf("SaveRun() id = %q, record id = %q", id, rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("SaveRun() left CreatedAt unset")
	}

	got, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetRun() returned nil")
	}
	if !reflect.DeepEqual(got.Tools, summary.Tools) {
		t.Errorf("Tools = %+v, want %+v", got.Tools, summary.Tools)
	}
	if !reflect.DeepEqual(got.Histogram, summary.Histogram) {
		t.Errorf("Histogram = %+v", got.Histogram)
	}
	if got.Shared != 4 || got.Union != 14 {
		t.Errorf("Shared/Union = %d/%d", got.Shared, got.Union)
	}
	if !reflect.DeepEqual(got.Excluded, []string{"sonargraph:unsupported_level"}) {
		t.Errorf("Excluded = %v", got.Excluded)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestGetRun_Missing(t *testing.T) {
	db, _ := setupTestDB(t)

	rec, err := db.GetRun("no-such-run")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if rec != nil {
		t.Errorf("GetRun() = %+v, want nil", rec)
	}
}

func TestListRuns(t *testing.T) {
	db, _ := setupTestDB(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []*RunRecord{
		{Project: "alpha", Level: "class", CreatedAt: base},
		{Project: "beta", Level: "class", CreatedAt: base.Add(time.Minute)},
		{Project: "alpha", Level: "method", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		if _, err := db.SaveRun(r); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		project string
		limit   int
		want    []string
	}{
		{"all newest first", "", 0, []string{runs[2].ID, runs[1].ID, runs[0].ID}},
		{"limited", "", 2, []string{runs[2].ID, runs[1].ID}},
		{"by project", "alpha", 0, []string{runs[2].ID, runs[0].ID}},
		{"unknown project", "gamma", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListRuns(tt.project, tt.limit)
			if err != nil {
				t.Fatalf("ListRuns() error = %v", err)
			}
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ListRuns() ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestListRuns_SubsecondOrder(t *testing.T) {
	db, _ := setupTestDB(t)

	base := time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC)
	whole := &RunRecord{Project: "alpha", Level: "class", CreatedAt: base}
	half := &RunRecord{Project: "alpha", Level: "class", CreatedAt: base.Add(500 * time.Millisecond)}
	// Saved newest first so insertion order cannot mask the timestamp order.
	for _, r := range []*RunRecord{half, whole} {
		if _, err := db.SaveRun(r); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	got, err := db.ListRuns("alpha", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != half.ID || got[1].ID != whole.ID {
		t.Fatalf("ListRuns() order = %v, want %s before %s", got, half.ID, whole.ID)
	}
	if !got[0].CreatedAt.Equal(half.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, half.CreatedAt)
	}
}
