package texture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/simulation"
)

// ImageDir is the directory, relative to the output directory, holding hit maps
const ImageDir = "images"

// Options controls texture export
type Options struct {
	Size      int    // Native hit-map size in pixels (0 = DefaultMapSize)
	Scale     int    // Output image size; larger than Size upscales (0 = native)
	SourceOBJ string // OBJ scene to rewrite with hit-map materials (optional)
	Name      string // Base name of the MTL and textured OBJ (default: SourceOBJ's base name, else "scene")
}

// Output lists the files written by Export
type Output struct {
	Images  []string
	MTL     string
	OBJ     string // Empty when no source OBJ was given
	Objects []string
}

// ExportHitMaps reads ledger files and writes hit maps and materials to outDir
func ExportHitMaps(ledgers []string, outDir string, opts Options, logger core.Logger) (*Output, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	for _, path := range ledgers {
		logger.Printf("Parsing %s\n", filepath.Base(path))
	}
	records, err := ReadLedgers(ledgers)
	if err != nil {
		return nil, err
	}
	return Export(records, outDir, opts, logger)
}

// Export writes one hit-map image per object found in records, an MTL file
// with a material per object and, when opts.SourceOBJ is set, a copy of
// that OBJ using those materials
func Export(records []simulation.Record, outDir string, opts Options, logger core.Logger) (*Output, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if opts.Size <= 0 {
		opts.Size = DefaultMapSize
	}
	name := opts.Name
	if name == "" {
		name = "scene"
		if opts.SourceOBJ != "" {
			name = strings.TrimSuffix(filepath.Base(opts.SourceOBJ), filepath.Ext(opts.SourceOBJ))
		}
	}

	imageDir := filepath.Join(outDir, ImageDir)
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	out := &Output{}
	maps := BuildHitMaps(records, opts.Size)
	logger.Printf("Writing images\n")
	for i, m := range maps {
		logger.Printf("Writing image for %s (%d/%d)\n", m.Object, i+1, len(maps))
		path := filepath.Join(imageDir, ImageName(m.Object))
		if err := m.SavePNG(path, opts.Scale); err != nil {
			return nil, err
		}
		out.Images = append(out.Images, path)
		out.Objects = append(out.Objects, m.Object)
	}

	mtlName := name + "_MTL.mtl"
	if opts.SourceOBJ != "" {
		objects, err := rewriteOBJFile(opts.SourceOBJ, filepath.Join(outDir, name+"_textured.obj"), mtlName)
		if err != nil {
			return nil, err
		}
		out.OBJ = filepath.Join(outDir, name+"_textured.obj")
		out.Objects = objects
	}

	out.MTL = filepath.Join(outDir, mtlName)
	file, err := os.Create(out.MTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create material file: %w", err)
	}
	if err := WriteMTL(file, out.Objects); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write material file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, err
	}

	return out, nil
}

func rewriteOBJFile(src, dst, mtlName string) ([]string, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open source OBJ: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create textured OBJ: %w", err)
	}
	objects, err := RewriteOBJ(in, out, mtlName)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to write textured OBJ: %w", err)
	}
	return objects, out.Close()
}
