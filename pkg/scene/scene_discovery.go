package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileScenePrefix starts the ID of every scene discovered on disk
const FileScenePrefix = "file:"

const builtinGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin", "obj" or "ply"
	FilePath    string `json:"filePath"`    // Path to the scene file (file scenes only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// ListFileScenes scans scenesDir for OBJ and PLY files. A missing
// directory yields an empty list.
func ListFileScenes(scenesDir string) ([]SceneInfo, error) {
	if _, err := os.Stat(scenesDir); err != nil {
		return []SceneInfo{}, nil
	}

	scenes := []SceneInfo{}
	for _, ext := range []string{"obj", "ply"} {
		files, err := filepath.Glob(filepath.Join(scenesDir, "*."+ext))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		for _, filePath := range files {
			sceneInfo, err := ParseSceneMetadata(filePath)
			if err != nil {
				// Keep the fallback values; a bad header only costs the description
				sceneInfo.Description = ""
			}
			scenes = append(scenes, sceneInfo)
		}
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseSceneMetadata extracts metadata from the leading comments of a scene
// file: "# Scene:", "# Description:" and "# Group:" in OBJ files, or the
// same keys after "comment" in PLY headers
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	ext := strings.ToLower(filepath.Ext(filename))
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:          FileScenePrefix + filename,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Scene Files",
		Type:        strings.TrimPrefix(ext, "."),
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		// If we can't read the file, return with fallback values
		return sceneInfo, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		var content string
		switch {
		case ext == ".ply" && (line == "ply" || strings.HasPrefix(line, "format")):
			continue
		case ext == ".ply" && strings.HasPrefix(line, "comment "):
			content = strings.TrimPrefix(line, "comment ")
		case ext == ".obj" && strings.HasPrefix(line, "#"):
			content = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		default:
			// Stop parsing at the first non-comment line
			return sceneInfo, nil
		}

		if value, ok := strings.CutPrefix(content, "Scene:"); ok {
			sceneInfo.Name = strings.TrimSpace(value)
			sceneInfo.DisplayName = sceneInfo.Name
		} else if value, ok := strings.CutPrefix(content, "Description:"); ok {
			sceneInfo.Description = strings.TrimSpace(value)
		} else if value, ok := strings.CutPrefix(content, "Group:"); ok && strings.TrimSpace(value) != "" {
			sceneInfo.Group = strings.TrimSpace(value)
		}
	}

	return sceneInfo, scanner.Err()
}

// ListAllScenes returns both built-in and file scenes, grouped by category
func ListAllScenes(scenesDir string) (ScenesResponse, error) {
	var response ScenesResponse

	var allScenes []SceneInfo
	for _, id := range BuiltinIDs {
		s := builtins[id]()
		allScenes = append(allScenes, SceneInfo{
			ID:          id,
			Name:        titleCase(id),
			DisplayName: titleCase(id),
			Description: s.Description,
			Group:       builtinGroup,
			Type:        "builtin",
		})
	}

	fileScenes, err := ListFileScenes(scenesDir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}
	allScenes = append(allScenes, fileScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Create ordered groups (Built-in first, then alphabetical)
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{
		Name:   builtinGroup,
		Scenes: groupMap[builtinGroup],
	})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "mirror-box" -> "Mirror Box"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
