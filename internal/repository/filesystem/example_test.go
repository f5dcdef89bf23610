package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
)

const testSVG = `<svg width="800" height="600"><rect x="10" y="10" width="50" height="50" fill="none" stroke="black"/></svg>`

func newTestRepo(t *testing.T) (*ExampleRepository, string, string) {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "examples")
	trash := filepath.Join(base, "trash")

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo, err := NewExampleRepository(&RepositoryConfig{
		Root:      root,
		TrashRoot: trash,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	if err != nil {
		t.Fatalf("NewExampleRepository: %v", err)
	}
	return repo, root, trash
}

func svgExample(id, question string) *models.Example {
	return &models.Example{
		ID:       id,
		Question: question,
		Diagram:  models.Diagram{MediaType: models.MediaTypeSVG, Data: []byte(testSVG)},
	}
}

func TestSaveThenListIncludesExampleOnce(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, svgExample("incline-01", "A block slides down a 30 degree incline.")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	examples, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	count := 0
	for _, ex := range examples {
		if ex.ID != "incline-01" {
			continue
		}
		count++
		if ex.Question != "A block slides down a 30 degree incline." {
			t.Errorf("question = %q", ex.Question)
		}
		if string(ex.Diagram.Data) != testSVG {
			t.Errorf("diagram = %q", ex.Diagram.Data)
		}
		if ex.Diagram.MediaType != models.MediaTypeSVG {
			t.Errorf("media type = %q", ex.Diagram.MediaType)
		}
	}
	if count != 1 {
		t.Fatalf("example listed %d times, want 1", count)
	}
}

func TestListSortedAndSkipsIncomplete(t *testing.T) {
	repo, root, _ := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if _, err := repo.Save(ctx, svgExample(id, "q "+id)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	// Question without diagram
	partial := filepath.Join(root, "delta")
	if err := os.MkdirAll(partial, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(partial, questionFile), []byte("orphan"), 0644); err != nil {
		t.Fatal(err)
	}
	// Leftover staging folder with both artifacts
	staging := filepath.Join(root, stagingPrefix+"abc")
	if err := os.MkdirAll(staging, 0755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(staging, questionFile), []byte("hidden"), 0644)
	_ = os.WriteFile(filepath.Join(staging, "diagram.svg"), []byte(testSVG), 0644)

	examples, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var ids []string
	for _, ex := range examples {
		ids = append(ids, ex.ID)
	}
	want := []string{"alpha", "bravo", "charlie"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestSaveDuplicateLeavesExistingUntouched(t *testing.T) {
	repo, root, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, svgExample("pulley", "original question")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	beforeQ, _ := os.ReadFile(filepath.Join(root, "pulley", questionFile))
	beforeD, _ := os.ReadFile(filepath.Join(root, "pulley", "diagram.svg"))

	dup := &models.Example{
		ID:       "pulley",
		Question: "replacement",
		Diagram:  models.Diagram{MediaType: models.MediaTypePNG, Data: []byte{0x89, 'P', 'N', 'G'}},
	}
	_, err := repo.Save(ctx, dup)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Save duplicate err = %v, want ErrConflict", err)
	}
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.ResourceID != "pulley" {
		t.Fatalf("expected ConflictError for pulley, got %#v", err)
	}

	afterQ, _ := os.ReadFile(filepath.Join(root, "pulley", questionFile))
	afterD, _ := os.ReadFile(filepath.Join(root, "pulley", "diagram.svg"))
	if !bytes.Equal(beforeQ, afterQ) || !bytes.Equal(beforeD, afterD) {
		t.Fatal("existing record was modified")
	}
	if _, err := os.Stat(filepath.Join(root, "pulley", "diagram.png")); !os.IsNotExist(err) {
		t.Fatal("duplicate save leaked a raster artifact")
	}

	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		if isHidden(e.Name()) {
			t.Fatalf("staging folder %s left behind", e.Name())
		}
	}
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	repo, _, trash := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, svgExample("spring-mass", "A mass hangs from a spring."))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	trashed, err := repo.SoftDelete(ctx, "spring-mass")
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if trashed.OriginalID != "spring-mass" {
		t.Errorf("OriginalID = %q", trashed.OriginalID)
	}
	if _, err := os.Stat(filepath.Join(trash, trashed.TrashID, trashMetaFile)); err != nil {
		t.Errorf("trash metadata missing: %v", err)
	}

	examples, _ := repo.List(ctx)
	for _, ex := range examples {
		if ex.ID == "spring-mass" {
			t.Fatal("soft-deleted example still listed")
		}
	}

	items, err := repo.ListTrash(ctx)
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}
	if len(items) != 1 || items[0].TrashID != trashed.TrashID {
		t.Fatalf("ListTrash = %+v", items)
	}

	restored, err := repo.Restore(ctx, trashed.TrashID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.ID != "spring-mass" || restored.Question != saved.Question ||
		!bytes.Equal(restored.Diagram.Data, saved.Diagram.Data) {
		t.Fatalf("restored = %+v, want content of %+v", restored, saved)
	}

	examples, _ = repo.List(ctx)
	if len(examples) != 1 || examples[0].ID != "spring-mass" {
		t.Fatalf("List after restore = %+v", examples)
	}

	items, _ = repo.ListTrash(ctx)
	if len(items) != 0 {
		t.Fatalf("trash not empty after restore: %+v", items)
	}
}

func TestRestoreUsesStoredOriginalID(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	// An id that itself looks like "<id>_<timestamp>"
	id := "lens_20250101-000000.000000000"
	if _, err := repo.Save(ctx, svgExample(id, "Converging lens")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	trashed, err := repo.SoftDelete(ctx, id)
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	restored, err := repo.Restore(ctx, trashed.TrashID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.ID != id {
		t.Fatalf("restored id = %q, want %q", restored.ID, id)
	}
}

func TestRestoreConflictsWithActiveExample(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, svgExample("circuit", "first")); err != nil {
		t.Fatal(err)
	}
	trashed, err := repo.SoftDelete(ctx, "circuit")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Save(ctx, svgExample("circuit", "second")); err != nil {
		t.Fatal(err)
	}

	_, err = repo.Restore(ctx, trashed.TrashID)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Restore err = %v, want ErrConflict", err)
	}

	// Trashed copy is still restorable later
	items, _ := repo.ListTrash(ctx)
	if len(items) != 1 {
		t.Fatalf("trash entries = %d, want 1", len(items))
	}
	active, _ := repo.Get(ctx, "circuit")
	if active.Question != "second" {
		t.Fatalf("active question = %q", active.Question)
	}
}

func TestNotFoundErrors(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := repo.Get(ctx, "missing"); return err }},
		{"soft delete", func() error { _, err := repo.SoftDelete(ctx, "missing"); return err }},
		{"restore", func() error { _, err := repo.Restore(ctx, "missing_20260101-000000.000000000"); return err }},
		{"hard delete", func() error { return repo.HardDelete(ctx, "missing") }},
		{"purge", func() error { return repo.PurgeTrash(ctx, "missing") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestHardDeleteAndPurge(t *testing.T) {
	repo, root, trash := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a1", "b2"} {
		if _, err := repo.Save(ctx, svgExample(id, id)); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.HardDelete(ctx, "a1"); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if exists(filepath.Join(root, "a1")) {
		t.Fatal("hard-deleted folder still present")
	}

	trashed, err := repo.SoftDelete(ctx, "b2")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.PurgeTrash(ctx, trashed.TrashID); err != nil {
		t.Fatalf("PurgeTrash: %v", err)
	}
	if exists(filepath.Join(trash, trashed.TrashID)) {
		t.Fatal("purged folder still present")
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("root not empty: %d entries", len(entries))
	}
}

func TestHardDeleteIgnoresIncompleteFolder(t *testing.T) {
	repo, root, _ := newTestRepo(t)
	ctx := context.Background()

	// A half-written upload: question only
	partial := filepath.Join(root, "half")
	if err := os.MkdirAll(partial, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(partial, questionFile), []byte("orphan"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := repo.HardDelete(ctx, "half"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("HardDelete err = %v, want ErrNotFound", err)
	}
	if !exists(partial) {
		t.Fatal("incomplete folder was removed")
	}
	if _, err := repo.SoftDelete(ctx, "half"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SoftDelete err = %v, want ErrNotFound", err)
	}
}

func TestListDuringTrashAndRestoreSeesCompleteExamples(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	const question = "A ladder leans against a frictionless wall."
	for _, id := range []string{"ladder", "steady"} {
		if _, err := repo.Save(ctx, svgExample(id, question)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	done := make(chan struct{})
	errs := make(chan error, 1)
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			trashed, err := repo.SoftDelete(ctx, "ladder")
			if err != nil {
				errs <- fmt.Errorf("cycle %d SoftDelete: %w", i, err)
				return
			}
			if _, err := repo.Restore(ctx, trashed.TrashID); err != nil {
				errs <- fmt.Errorf("cycle %d Restore: %w", i, err)
				return
			}
		}
	}()
	defer func() { <-done }()

	lists := 0
	for running := true; running; lists++ {
		select {
		case <-done:
			running = false
		default:
		}

		examples, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		sawSteady := false
		for _, ex := range examples {
			switch ex.ID {
			case "ladder", "steady":
			default:
				t.Fatalf("unexpected entry %q", ex.ID)
			}
			sawSteady = sawSteady || ex.ID == "steady"
			if ex.Question != question {
				t.Fatalf("%s question = %q", ex.ID, ex.Question)
			}
			if !bytes.Equal(ex.Diagram.Data, []byte(testSVG)) {
				t.Fatalf("%s diagram = %q", ex.ID, ex.Diagram.Data)
			}
			if ex.Diagram.MediaType != models.MediaTypeSVG {
				t.Fatalf("%s media type = %q", ex.ID, ex.Diagram.MediaType)
			}
		}
		if !sawSteady {
			t.Fatal("untouched example missing from List")
		}
	}

	select {
	case err := <-errs:
		t.Fatal(err)
	default:
	}
	if lists == 0 {
		t.Fatal("List never ran")
	}

	final, err := repo.Get(ctx, "ladder")
	if err != nil {
		t.Fatalf("Get after cycles: %v", err)
	}
	if final.Question != question {
		t.Errorf("question after cycles = %q", final.Question)
	}
}

func TestInvalidIDsRejected(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", ".hidden", "x..y"} {
		if _, err := repo.Save(ctx, svgExample(id, "q")); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Save(%q) err = %v, want ErrValidation", id, err)
		}
	}
}

func TestSoftDeleteSameInstantGetsDistinctTrashIDs(t *testing.T) {
	base := t.TempDir()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo, err := NewExampleRepository(&RepositoryConfig{
		Root:      filepath.Join(base, "root"),
		TrashRoot: filepath.Join(base, "trash"),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var trashIDs []string
	for i := 0; i < 2; i++ {
		if _, err := repo.Save(ctx, svgExample("wave", "q")); err != nil {
			t.Fatal(err)
		}
		trashed, err := repo.SoftDelete(ctx, "wave")
		if err != nil {
			t.Fatal(err)
		}
		trashIDs = append(trashIDs, trashed.TrashID)
	}
	if trashIDs[0] == trashIDs[1] {
		t.Fatalf("trash ids collided: %v", trashIDs)
	}
}
