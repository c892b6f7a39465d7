package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
	"github.com/desertthunder/wpx/internal/tasks"
)

func setupLedgerDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReport(id string, started time.Time) *tasks.RunReport {
	authors := &tasks.KindReport{
		Kind:      tasks.KindAuthors,
		Total:     2,
		Submitted: 1,
		Failed:    1,
		Outcomes: []tasks.Outcome{
			{Kind: tasks.KindAuthors, SourceID: 1, State: tasks.StateSubmitted, Reference: models.Reference{ID: "a1"}},
			{Kind: tasks.KindAuthors, SourceID: 2, State: tasks.StateFailed, Error: "author 2: /authors: client rejected (status 422)"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
	posts := &tasks.KindReport{
		Kind:          tasks.KindPosts,
		Total:         1,
		Submitted:     1,
		AssetFailures: 1,
		Outcomes: []tasks.Outcome{
			{
				Kind:       tasks.KindPosts,
				SourceID:   10,
				State:      tasks.StateSubmitted,
				Reference:  models.Reference{ID: "p10"},
				AssetError: "post 10 image: asset unresolvable",
			},
		},
		StartedAt:  started.Add(time.Second),
		FinishedAt: started.Add(2 * time.Second),
	}
	tags := &tasks.KindReport{Kind: tasks.KindTags, FetchError: "no such table: wp_terms"}

	return &tasks.RunReport{
		ID:         id,
		Kinds:      []*tasks.KindReport{authors, tags, posts},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
}

func TestRunRepository(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Save And Get", func(t *testing.T) {
		repo := NewRunRepository(setupLedgerDB(t))

		if err := repo.Save(sampleReport("run-1", started)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		detail, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if detail.Total != 3 || detail.Submitted != 2 || detail.Failed != 1 || detail.AssetFailures != 1 {
			t.Errorf("unexpected counters: %+v", detail.RunSummary)
		}
		if len(detail.Kinds) != 3 || detail.Kinds[0] != "authors" || detail.Kinds[2] != "posts" {
			t.Errorf("unexpected kinds %v", detail.Kinds)
		}
		if detail.FetchErrors != "tags: no such table: wp_terms" {
			t.Errorf("unexpected fetch errors %q", detail.FetchErrors)
		}
		if !detail.StartedAt.Equal(started) || !detail.FinishedAt.Equal(started.Add(2*time.Second)) {
			t.Errorf("unexpected timestamps %v %v", detail.StartedAt, detail.FinishedAt)
		}

		if len(detail.Entities) != 3 {
			t.Fatalf("expected 3 entities, got %d", len(detail.Entities))
		}
		if e := detail.Entities[0]; e.Kind != "authors" || e.SourceID != 1 || e.State != "submitted" || e.DestinationID != "a1" {
			t.Errorf("unexpected first entity %+v", e)
		}
		if e := detail.Entities[2]; e.AssetError == "" || e.State != "submitted" {
			t.Errorf("expected submitted post with asset error, got %+v", e)
		}

		failures := detail.Failures()
		if len(failures) != 1 || failures[0].SourceID != 2 {
			t.Errorf("expected author 2 as the only failure, got %+v", failures)
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		repo := NewRunRepository(setupLedgerDB(t))

		_, err := repo.Get("missing")
		if !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Save Duplicate", func(t *testing.T) {
		repo := NewRunRepository(setupLedgerDB(t))

		if err := repo.Save(sampleReport("run-1", started)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if err := repo.Save(sampleReport("run-1", started)); err == nil {
			t.Error("expected error saving the same run twice")
		}

		detail, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if len(detail.Entities) != 3 {
			t.Errorf("failed save must not add entities, got %d", len(detail.Entities))
		}
	})

	t.Run("Save Invalid", func(t *testing.T) {
		repo := NewRunRepository(setupLedgerDB(t))

		if err := repo.Save(nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for nil report, got %v", err)
		}
		if err := repo.Save(&tasks.RunReport{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupLedgerDB(t))

		for i, id := range []string{"old", "middle", "new"} {
			if err := repo.Save(sampleReport(id, started.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("failed to save %s: %v", id, err)
			}
		}

		runs, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].ID != "new" || runs[2].ID != "old" {
			t.Errorf("expected newest first, got %s..%s", runs[0].ID, runs[2].ID)
		}

		limited, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 runs, got %d", len(limited))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupLedgerDB(t)
		repo := NewRunRepository(db)

		if err := repo.Save(sampleReport("run-1", started)); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if err := repo.Delete("run-1"); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM run_entities").Scan(&count); err != nil {
			t.Fatalf("failed to count entities: %v", err)
		}
		if count != 0 {
			t.Errorf("expected entities to be removed, got %d", count)
		}

		if err := repo.Delete("run-1"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}
