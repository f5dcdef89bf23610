package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"diagramlab/internal/domain"
)

// errIncomplete marks a folder that lacks one of its artifacts
var errIncomplete = errors.New("incomplete example folder")

// namePattern matches ids and trash ids that are safe to use as folder names
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func validateName(name string) error {
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q is not a valid example id", domain.ErrValidation, name)
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func duplicateError(id string) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("an example with id %q already exists", id),
		ResourceType: "example",
		ResourceID:   id,
	}
}

func notFound(kind, id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("%s %q not found", kind, id)}
}

// notFoundOr maps missing/incomplete folders to a NotFoundError and passes
// other I/O errors through
func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, errIncomplete) || errors.Is(err, os.ErrNotExist) {
		return notFound(kind, id)
	}
	return err
}

// moveFolder renames src to dst. When the two live on different filesystems
// it falls back to copy-then-remove; callers hold the store lock, so the
// intermediate state is never observed.
func moveFolder(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyFolder(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return err
	}
	return os.RemoveAll(src)
}

// copyFolder copies the regular files of a flat artifact folder
func copyFolder(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.Mkdir(dst, 0755); err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
