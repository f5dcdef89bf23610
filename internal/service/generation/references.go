package generation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"diagramlab/internal/domain/models"
)

// LoadReferenceImages reads every raster image in dir, sorted by file name.
// An empty dir means no configured images.
func LoadReferenceImages(dir string) ([]models.ReferenceImage, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reference images dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		mediaType := models.MediaTypeForExtension(strings.ToLower(filepath.Ext(entry.Name())))
		if mediaType == "" || mediaType == models.MediaTypeSVG {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	images := make([]models.ReferenceImage, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read reference image %s: %w", name, err)
		}
		images = append(images, models.ReferenceImage{
			MediaType: models.MediaTypeForExtension(strings.ToLower(filepath.Ext(name))),
			Data:      data,
		})
	}
	return images, nil
}
