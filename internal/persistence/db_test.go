package persistence

import (
	"path/filepath"
	"testing"

	"github.com/sroyc/windtrace/internal/streamline"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fakeHistory(n int) *streamline.History {
	h := &streamline.History{}
	cols := len(streamline.Columns())
	for i := 0; i < n; i++ {
		row := make([]float64, cols)
		for j := range row {
			row[j] = float64(i*cols + j)
		}
		h.AppendRow(row)
	}
	return h
}

func TestSaveAndLoadRun(t *testing.T) {
	db := openTestDB(t)

	cfg := streamline.DefaultConfig()
	hist := fakeHistory(4)
	if err := db.SaveRun("run-1", cfg, streamline.Failed, false, hist); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, err := db.LoadRun("run-1")
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if run.R0 != cfg.R0 || run.Status != "failed" || run.Steps != 4 {
		t.Errorf("run record mismatch: %+v", run)
	}
}

func TestLoadSteps(t *testing.T) {
	db := openTestDB(t)

	hist := fakeHistory(6)
	if err := db.SaveRun("run-2", streamline.DefaultConfig(), streamline.DomainExit, true, hist); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	loaded, err := db.LoadSteps("run-2")
	if err != nil {
		t.Fatalf("LoadSteps: %v", err)
	}
	if loaded.Len() != hist.Len() {
		t.Fatalf("loaded %d steps, want %d", loaded.Len(), hist.Len())
	}
	for i := 0; i < hist.Len(); i++ {
		want := hist.Row(i)
		got := loaded.Row(i)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("steps[%d][%d] = %g, want %g", i, j, got[j], want[j])
			}
		}
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"a", "b"} {
		if err := db.SaveRun(id, streamline.DefaultConfig(), streamline.StepLimit, false, fakeHistory(1)); err != nil {
			t.Fatalf("SaveRun(%s): %v", id, err)
		}
	}
	runs, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("listed %d runs, want 2", len(runs))
	}
}

func TestDuplicateRunRejected(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveRun("dup", streamline.DefaultConfig(), streamline.Failed, false, fakeHistory(1)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := db.SaveRun("dup", streamline.DefaultConfig(), streamline.Failed, false, fakeHistory(1)); err == nil {
		t.Fatal("expected primary key violation for duplicate run id")
	}
}
