package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"diagramlab/internal/domain/models"
)

const (
	trashMetaFile = "trash.yaml"
	// trashTimeLayout is appended to the original id to form the trash folder name
	trashTimeLayout = "20060102-150405.000000000"
)

// trashMeta is written next to the trashed artifacts. The original id is
// kept verbatim; the folder name is informational only.
type trashMeta struct {
	OriginalID string    `yaml:"original_id"`
	DeletedAt  time.Time `yaml:"deleted_at"`
}

// SoftDelete moves an active example into the trash root. The metadata file
// is written first, then the folder is relocated with a single rename.
func (r *ExampleRepository) SoftDelete(ctx context.Context, id string) (*models.TrashedExample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	source := filepath.Join(r.root, id)
	example, err := readExample(source, id)
	if err != nil {
		return nil, notFoundOr(err, "example", id)
	}

	deletedAt := r.now().UTC()
	trashID := r.nextTrashID(id, deletedAt)

	meta := trashMeta{OriginalID: id, DeletedAt: deletedAt}
	metaPath := filepath.Join(source, trashMetaFile)
	if err := writeTrashMeta(metaPath, meta); err != nil {
		return nil, err
	}

	if err := moveFolder(source, filepath.Join(r.trashRoot, trashID)); err != nil {
		if rmErr := os.Remove(metaPath); rmErr != nil {
			r.logger.Warn("failed to remove trash metadata after failed move", "id", id, "error", rmErr)
		}
		return nil, fmt.Errorf("move example to trash: %w", err)
	}

	r.logger.Info("example moved to trash", "id", id, "trash_id", trashID)

	return &models.TrashedExample{
		TrashID:    trashID,
		OriginalID: id,
		DeletedAt:  deletedAt,
		Example:    *example,
	}, nil
}

// ListTrash returns trashed examples with readable metadata, newest first
func (r *ExampleRepository) ListTrash(ctx context.Context) ([]models.TrashedExample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.trashRoot)
	if err != nil {
		return nil, fmt.Errorf("read trash directory: %w", err)
	}

	trashed := make([]models.TrashedExample, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		item, err := readTrashed(filepath.Join(r.trashRoot, entry.Name()), entry.Name())
		if err != nil {
			r.logger.Warn("skipping unreadable trash entry", "trash_id", entry.Name(), "error", err)
			continue
		}
		trashed = append(trashed, *item)
	}

	sort.Slice(trashed, func(i, j int) bool {
		if trashed[i].DeletedAt.Equal(trashed[j].DeletedAt) {
			return trashed[i].TrashID < trashed[j].TrashID
		}
		return trashed[i].DeletedAt.After(trashed[j].DeletedAt)
	})

	return trashed, nil
}

// Restore moves a trashed example back under its original id. It goes through
// a hidden staging folder under the active root so the metadata file is gone
// before the example becomes visible again.
func (r *ExampleRepository) Restore(ctx context.Context, trashID string) (*models.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(trashID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	source := filepath.Join(r.trashRoot, trashID)
	item, err := readTrashed(source, trashID)
	if err != nil {
		return nil, notFoundOr(err, "trashed example", trashID)
	}

	target := filepath.Join(r.root, item.OriginalID)
	if exists(target) {
		return nil, duplicateError(item.OriginalID)
	}

	staging := filepath.Join(r.root, stagingPrefix+"restore-"+trashID)
	if err := moveFolder(source, staging); err != nil {
		return nil, fmt.Errorf("move example out of trash: %w", err)
	}
	if err := os.Remove(filepath.Join(staging, trashMetaFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("failed to remove trash metadata", "trash_id", trashID, "error", err)
	}
	if err := os.Rename(staging, target); err != nil {
		// Put it back so the record is not stranded in staging
		if backErr := moveFolder(staging, source); backErr == nil {
			_ = writeTrashMeta(filepath.Join(source, trashMetaFile), trashMeta{
				OriginalID: item.OriginalID,
				DeletedAt:  item.DeletedAt,
			})
		}
		return nil, fmt.Errorf("restore example: %w", err)
	}

	r.logger.Info("example restored", "id", item.OriginalID, "trash_id", trashID)

	return readExample(target, item.OriginalID)
}

// PurgeTrash permanently removes a trashed example
func (r *ExampleRepository) PurgeTrash(ctx context.Context, trashID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(trashID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	source := filepath.Join(r.trashRoot, trashID)
	if !exists(source) {
		return notFound("trashed example", trashID)
	}

	if err := r.removeFolder(r.trashRoot, source); err != nil {
		return err
	}

	r.logger.Info("trashed example purged", "trash_id", trashID)
	return nil
}

// nextTrashID builds "<id>_<timestamp>", adding a counter on collision
func (r *ExampleRepository) nextTrashID(id string, deletedAt time.Time) string {
	base := id + "_" + deletedAt.Format(trashTimeLayout)
	candidate := base
	for n := 1; exists(filepath.Join(r.trashRoot, candidate)); n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	return candidate
}

func readTrashed(dir, trashID string) (*models.TrashedExample, error) {
	data, err := os.ReadFile(filepath.Join(dir, trashMetaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errIncomplete
		}
		return nil, fmt.Errorf("read trash metadata: %w", err)
	}

	var meta trashMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse trash metadata: %w", err)
	}
	if err := validateName(meta.OriginalID); err != nil {
		return nil, fmt.Errorf("trash metadata has invalid original id: %w", err)
	}

	example, err := readExample(dir, meta.OriginalID)
	if err != nil {
		return nil, err
	}

	return &models.TrashedExample{
		TrashID:    trashID,
		OriginalID: meta.OriginalID,
		DeletedAt:  meta.DeletedAt,
		Example:    *example,
	}, nil
}

func writeTrashMeta(path string, meta trashMeta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode trash metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write trash metadata: %w", err)
	}
	return nil
}
