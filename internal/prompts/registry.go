package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"diagramlab/internal/domain"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds prompt profiles by name
type Registry struct {
	profiles map[string]*Profile
	mu       sync.RWMutex
}

// NewRegistry creates a registry and loads every embedded YAML file
func NewRegistry() (*Registry, error) {
	r := &Registry{
		profiles: make(map[string]*Profile),
	}

	files, err := fs.Glob(configFiles, "config/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}
	for _, name := range files {
		data, err := configFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := r.Load(data); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	return r, nil
}

// Load parses a YAML document of profiles and registers them. Later
// definitions replace earlier ones with the same name.
func (r *Registry) Load(data []byte) error {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal profiles: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range file.Profiles {
		p := file.Profiles[i]
		if p.Name == "" {
			return fmt.Errorf("profile %d has no name", i)
		}
		if strings.TrimSpace(p.Instruction) == "" {
			return fmt.Errorf("profile %s has no instruction", p.Name)
		}
		p.System = p.Canvas.expand(p.System)
		p.Instruction = p.Canvas.expand(p.Instruction)
		r.profiles[p.Name] = &p
	}
	return nil
}

// Get returns a profile or a validation error for unknown names
func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown prompt profile %q", domain.ErrValidation, name)
	}
	return p, nil
}

// Names returns all registered profile names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expand substitutes {{width}}, {{height}} and {{background}}
func (c Canvas) expand(text string) string {
	return strings.NewReplacer(
		"{{width}}", strconv.Itoa(c.Width),
		"{{height}}", strconv.Itoa(c.Height),
		"{{background}}", c.Background,
	).Replace(text)
}
