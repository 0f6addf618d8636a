package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element declaration with its properties, in file order
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the raw data loaded from a PLY file
type PLYData struct {
	Vertices  []core.Vec3 // Vertex positions (x, y, z)
	Faces     []int       // Triangle indices (3 per triangle), fan-triangulated
	Normals   []core.Vec3 // Per-vertex normals (nx, ny, nz) - empty if not present
	TexCoords []core.Vec2 // Per-vertex texture coordinates (u, v) - empty if not present
}

// LoadPLY loads a PLY file and returns the raw vertex and face data
func LoadPLY(path string) (*PLYData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Msg: "failed to open PLY file", Err: err}
	}
	defer file.Close()

	return ParsePLY(file, path)
}

// ParsePLY parses PLY data from r; path is used in error messages
func ParsePLY(r io.Reader, path string) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024)

	header, err := parsePLYHeader(reader, path)
	if err != nil {
		return nil, err
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		values = &asciiValueReader{reader: reader}
	case "binary_little_endian":
		values = &binaryValueReader{reader: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValueReader{reader: reader, order: binary.BigEndian}
	default:
		return nil, &LoadError{Path: path, Msg: fmt.Sprintf("unsupported PLY format: %q", header.Format)}
	}

	data := &PLYData{}
	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			err = readPLYVertices(values, element, data)
		case "face":
			err = readPLYFaces(values, element, data)
		default:
			err = skipPLYElement(values, element)
		}
		if err != nil {
			return nil, &LoadError{Path: path, Msg: fmt.Sprintf("reading %s data: %v", element.Name, err), Err: err}
		}
	}

	for i, idx := range data.Faces {
		if idx < 0 || idx >= len(data.Vertices) {
			return nil, &LoadError{Path: path, Msg: fmt.Sprintf("face %d: vertex index %d out of range (have %d)", i/3, idx, len(data.Vertices))}
		}
	}
	return data, nil
}

// parsePLYHeader parses the PLY header up to and including end_header
func parsePLYHeader(reader *bufio.Reader, path string) (*PLYHeader, error) {
	header := &PLYHeader{}
	lineNumber := 0

	for {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return nil, &LoadError{Path: path, Line: lineNumber, Msg: "unexpected end of header", Err: err}
		}
		lineNumber++
		line = strings.TrimSpace(line)

		if lineNumber == 1 {
			if line != "ply" {
				return nil, &LoadError{Path: path, Line: 1, Msg: "missing ply magic number"}
			}
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, &LoadError{Path: path, Line: lineNumber, Msg: "invalid format line"}
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, &LoadError{Path: path, Line: lineNumber, Msg: "invalid element line"}
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, &LoadError{Path: path, Line: lineNumber, Msg: fmt.Sprintf("invalid element count: %s", parts[2])}
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, &LoadError{Path: path, Line: lineNumber, Msg: "property before any element"}
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, &LoadError{Path: path, Line: lineNumber, Msg: err.Error()}
			}
			current := &header.Elements[len(header.Elements)-1]
			current.Props = append(current.Props, prop)
		default:
			return nil, &LoadError{Path: path, Line: lineNumber, Msg: fmt.Sprintf("unknown header keyword %q", parts[0])}
		}
	}

	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
		if getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported list types %s %s", prop.ListType, prop.DataType)
		}
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
		if getTypeSize(prop.Type) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported data type: %s", prop.Type)
		}
	}

	return prop, nil
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// plyValueReader reads the next scalar of the body in the given PLY type
type plyValueReader interface {
	next(dataType string) (float64, error)
}

// asciiValueReader reads whitespace-separated values
type asciiValueReader struct {
	reader *bufio.Reader
	fields []string
}

func (a *asciiValueReader) next(string) (float64, error) {
	for len(a.fields) == 0 {
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		a.fields = strings.Fields(line)
	}
	field := a.fields[0]
	a.fields = a.fields[1:]

	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", field)
	}
	return value, nil
}

// binaryValueReader decodes fixed-size values in one byte order
type binaryValueReader struct {
	reader *bufio.Reader
	order  binary.ByteOrder
	buf    [8]byte
}

func (b *binaryValueReader) next(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if _, err := io.ReadFull(b.reader, b.buf[:size]); err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	data := b.buf[:size]

	switch dataType {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	case "double", "float64":
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
	return 0, fmt.Errorf("unsupported data type: %s", dataType)
}

// readPLYList reads a list property's count and then its values
func readPLYList(values plyValueReader, prop PLYProperty, dst []float64) ([]float64, error) {
	n, err := values.next(prop.ListType)
	if err != nil {
		return nil, err
	}
	if n < 0 || n != math.Trunc(n) {
		return nil, fmt.Errorf("invalid list length %v", n)
	}
	dst = dst[:0]
	for i := 0; i < int(n); i++ {
		v, err := values.next(prop.DataType)
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

// maxPLYPrealloc bounds the capacity reserved from a header count; larger
// elements grow by append and truncated bodies fail at EOF
const maxPLYPrealloc = 1 << 16

func readPLYVertices(values plyValueReader, element PLYElement, data *PLYData) error {
	hasNormals, hasTexCoords := false, false
	for _, prop := range element.Props {
		switch prop.Name {
		case "nx", "ny", "nz":
			hasNormals = true
		case "u", "s", "texture_u", "v", "t", "texture_v":
			hasTexCoords = true
		}
	}

	capacity := min(element.Count, maxPLYPrealloc)
	data.Vertices = make([]core.Vec3, 0, capacity)
	if hasNormals {
		data.Normals = make([]core.Vec3, 0, capacity)
	}
	if hasTexCoords {
		data.TexCoords = make([]core.Vec2, 0, capacity)
	}

	var list []float64
	for i := 0; i < element.Count; i++ {
		var position, normal core.Vec3
		var uv core.Vec2
		for _, prop := range element.Props {
			if prop.IsList {
				var err error
				if list, err = readPLYList(values, prop, list); err != nil {
					return fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			value, err := values.next(prop.Type)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			switch prop.Name {
			case "x":
				position.X = value
			case "y":
				position.Y = value
			case "z":
				position.Z = value
			case "nx":
				normal.X = value
			case "ny":
				normal.Y = value
			case "nz":
				normal.Z = value
			case "u", "s", "texture_u":
				uv.U = value
			case "v", "t", "texture_v":
				uv.V = value
			}
		}

		data.Vertices = append(data.Vertices, position)
		if hasNormals {
			data.Normals = append(data.Normals, normal)
		}
		if hasTexCoords {
			data.TexCoords = append(data.TexCoords, uv)
		}
	}
	return nil
}

func readPLYFaces(values plyValueReader, element PLYElement, data *PLYData) error {
	data.Faces = make([]int, 0, min(element.Count, maxPLYPrealloc)*3)

	var list []float64
	for i := 0; i < element.Count; i++ {
		for _, prop := range element.Props {
			if !prop.IsList {
				if _, err := values.next(prop.Type); err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}

			var err error
			if list, err = readPLYList(values, prop, list); err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if prop.Name != "vertex_indices" && prop.Name != "vertex_index" {
				continue
			}
			if len(list) < 3 {
				return fmt.Errorf("face %d: need at least 3 vertices, got %d", i, len(list))
			}
			// Fan-triangulate polygons
			for j := 1; j+1 < len(list); j++ {
				data.Faces = append(data.Faces, int(list[0]), int(list[j]), int(list[j+1]))
			}
		}
	}
	return nil
}

func skipPLYElement(values plyValueReader, element PLYElement) error {
	var list []float64
	for i := 0; i < element.Count; i++ {
		for _, prop := range element.Props {
			var err error
			if prop.IsList {
				list, err = readPLYList(values, prop, list)
			} else {
				_, err = values.next(prop.Type)
			}
			if err != nil {
				return fmt.Errorf("%s %d: %w", element.Name, i, err)
			}
		}
	}
	return nil
}

// MeshOptions converts the per-vertex attributes into the scene's mesh
// options. A triangle takes the normal of its first vertex.
func (d *PLYData) MeshOptions() *geometry.MeshOptions {
	options := &geometry.MeshOptions{TexCoords: d.TexCoords}
	if len(d.Normals) > 0 {
		options.Normals = make([]core.Vec3, len(d.Faces)/3)
		for i := range options.Normals {
			options.Normals[i] = d.Normals[d.Faces[i*3]]
		}
	}
	return options
}

// LoadPLYScene loads a PLY file as a scene with a single object named after
// the file
func LoadPLYScene(path string) (*geometry.Scene, error) {
	data, err := LoadPLY(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	builder := geometry.NewSceneBuilder()
	if err := builder.AddMesh(name, geometry.IsCriticalName(name), data.Vertices, data.Faces, data.MeshOptions()); err != nil {
		return nil, &LoadError{Path: path, Msg: err.Error(), Err: err}
	}
	return builder.Build(), nil
}
