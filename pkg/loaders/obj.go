package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
)

// DefaultGroup names the object that collects faces appearing before any
// o or g statement
const DefaultGroup = "default"

// objParser holds the state of one OBJ parse
type objParser struct {
	path      string
	line      int
	vertices  []core.Vec3
	normals   []core.Vec3
	texCoords []core.Vec2
	builder   *geometry.SceneBuilder
}

// objRef is one vertex reference of a face; -1 marks an absent index
type objRef struct {
	v, vt, vn int
}

// LoadOBJ loads a Wavefront OBJ file. Every o or g statement starts an
// object; objects whose name carries the critical token are flagged critical.
func LoadOBJ(path string) (*geometry.Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Msg: "failed to open OBJ file", Err: err}
	}
	defer file.Close()

	return ParseOBJ(file, path)
}

// ParseOBJ parses OBJ data from r; path is used in error messages
func ParseOBJ(r io.Reader, path string) (*geometry.Scene, error) {
	p := &objParser{path: path, builder: geometry.NewSceneBuilder()}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Path: path, Line: p.line, Msg: "read failed", Err: err}
	}

	return p.builder.Build(), nil
}

func (p *objParser) errorf(format string, args ...interface{}) error {
	return &LoadError{Path: p.path, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "o", "g":
		name := DefaultGroup
		if len(fields) > 1 {
			name = strings.Join(fields[1:], " ")
		}
		p.builder.BeginObject(name, geometry.IsCriticalName(name))
	case "v":
		v, err := p.parseVec3(fields)
		if err != nil {
			return err
		}
		p.vertices = append(p.vertices, v)
	case "vn":
		n, err := p.parseVec3(fields)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, n)
	case "vt":
		if len(fields) < 2 {
			return p.errorf("texture coordinate needs at least 1 component")
		}
		u, err := p.parseFloat(fields[1])
		if err != nil {
			return err
		}
		v := 0.0
		if len(fields) > 2 {
			if v, err = p.parseFloat(fields[2]); err != nil {
				return err
			}
		}
		p.texCoords = append(p.texCoords, core.NewVec2(u, v))
	case "f":
		return p.parseFace(fields[1:])
	case "s", "mtllib", "usemtl", "l":
		// Smoothing groups, materials and polylines do not affect the simulation
	default:
		// Unknown statements are ignored
	}
	return nil
}

func (p *objParser) parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, p.errorf("invalid number %q", s)
	}
	return f, nil
}

func (p *objParser) parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 4 {
		return core.Vec3{}, p.errorf("%s needs 3 components, got %d", fields[0], len(fields)-1)
	}
	var c [3]float64
	for i := range c {
		f, err := p.parseFloat(fields[i+1])
		if err != nil {
			return core.Vec3{}, err
		}
		c[i] = f
	}
	return core.NewVec3(c[0], c[1], c[2]), nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index into a
// 0-based index into a list of length n
func (p *objParser) resolveIndex(s string, n int, kind string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.errorf("invalid %s index %q", kind, s)
	}
	switch {
	case idx > 0 && idx <= n:
		return idx - 1, nil
	case idx < 0 && -idx <= n:
		return n + idx, nil
	}
	return 0, p.errorf("%s index %d out of range (have %d)", kind, idx, n)
}

func (p *objParser) parseRef(s string) (objRef, error) {
	ref := objRef{v: -1, vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return ref, p.errorf("invalid face vertex %q", s)
	}

	var err error
	if ref.v, err = p.resolveIndex(parts[0], len(p.vertices), "vertex"); err != nil {
		return ref, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if ref.vt, err = p.resolveIndex(parts[1], len(p.texCoords), "texture coordinate"); err != nil {
			return ref, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if ref.vn, err = p.resolveIndex(parts[2], len(p.normals), "normal"); err != nil {
			return ref, err
		}
	}
	return ref, nil
}

// parseFace fan-triangulates a polygon. The face normal is the normal
// referenced by its first vertex.
func (p *objParser) parseFace(fields []string) error {
	if len(fields) < 3 {
		return p.errorf("face needs at least 3 vertices, got %d", len(fields))
	}

	refs := make([]objRef, len(fields))
	for i, field := range fields {
		ref, err := p.parseRef(field)
		if err != nil {
			return err
		}
		refs[i] = ref
	}

	if !p.builder.HasObject() {
		p.builder.BeginObject(DefaultGroup, false)
	}

	for i := 1; i+1 < len(refs); i++ {
		a, b, c := refs[0], refs[i], refs[i+1]
		tri := geometry.NewTriangle(p.vertices[a.v], p.vertices[b.v], p.vertices[c.v])
		if a.vn >= 0 {
			tri = tri.WithNormal(p.normals[a.vn])
		}
		if a.vt >= 0 && b.vt >= 0 && c.vt >= 0 {
			tri = tri.WithTexCoords(p.texCoords[a.vt], p.texCoords[b.vt], p.texCoords[c.vt])
		}
		if err := p.builder.AddTriangle(tri); err != nil {
			return p.errorf("%v", err)
		}
	}
	return nil
}
