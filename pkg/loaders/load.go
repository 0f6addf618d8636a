package loaders

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
)

// SupportedExtensions lists the scene file extensions LoadScene accepts
var SupportedExtensions = []string{".obj", ".ply"}

// IsSceneFile reports whether path has a supported scene extension
func IsSceneFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// LoadScene loads an OBJ or PLY scene, chosen by file extension
func LoadScene(path string, logger core.Logger) (*geometry.Scene, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	startTime := time.Now()

	var scene *geometry.Scene
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		scene, err = LoadOBJ(path)
	case ".ply":
		scene, err = LoadPLYScene(path)
	default:
		return nil, &LoadError{Path: path, Msg: fmt.Sprintf("unsupported scene format %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, err
	}

	logger.Printf("Loaded %s: %s in %v\n", filepath.Base(path), scene, time.Since(startTime))
	return scene, nil
}
