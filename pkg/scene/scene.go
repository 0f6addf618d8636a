package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
	"github.com/df07/go-twobounce/pkg/loaders"
)

// Scene is loaded geometry together with where its rays should start
type Scene struct {
	Name        string
	Description string
	Geometry    *geometry.Scene
	Source      core.Vec3 // Suggested ray source
	FilePath    string    // Scene file, empty for built-in scenes
}

// builtins maps scene IDs to their constructors
var builtins = map[string]func() *Scene{
	"square":     NewSquareScene,
	"shell":      NewShellScene,
	"mirror-box": NewMirrorBoxScene,
}

// BuiltinIDs lists the built-in scene IDs in display order
var BuiltinIDs = []string{"square", "shell", "mirror-box"}

// Load resolves a scene ID: a built-in name, "file:<name>" for a file in
// scenesDir, or a path to an OBJ or PLY file
func Load(id, scenesDir string, logger core.Logger) (*Scene, error) {
	if create, ok := builtins[id]; ok {
		return create(), nil
	}

	path := id
	if name, ok := strings.CutPrefix(id, FileScenePrefix); ok {
		if !filepath.IsLocal(name) {
			return nil, fmt.Errorf("scene %q is outside the scenes directory", id)
		}
		path = filepath.Join(scenesDir, name)
	}
	if !loaders.IsSceneFile(path) {
		return nil, fmt.Errorf("unknown scene %q", id)
	}

	geom, err := loaders.LoadScene(path, logger)
	if err != nil {
		return nil, err
	}
	return &Scene{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Geometry: geom,
		FilePath: path,
	}, nil
}

// LoadListed is Load restricted to the IDs a scene listing can offer:
// built-in names and "file:" names inside scenesDir. Raw paths are rejected.
func LoadListed(id, scenesDir string, logger core.Logger) (*Scene, error) {
	if _, ok := builtins[id]; !ok && !strings.HasPrefix(id, FileScenePrefix) {
		return nil, fmt.Errorf("unknown scene %q", id)
	}
	return Load(id, scenesDir, logger)
}
