package simulation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
	"github.com/df07/go-twobounce/pkg/trace"
)

// Record is one ledger entry: a found hit on the path of a ray that
// touched critical geometry.
//
// On disk a record is the tab-separated line
//
//	<object>\t<bounce>\t<x>,<y>
//
// where bounce is 0 for the first hit and 1 for the reflected one, and x,y
// is a texture-space or barycentric coordinate depending on LedgerCoords.
type Record struct {
	Ray    int // Ray index; not written to disk
	Object string
	Bounce int
	Coord  core.Vec2
}

// newRecord builds the ledger entry for a found hit
func newRecord(scene *geometry.Scene, ray, bounce int, hit trace.Hit, coords LedgerCoords) Record {
	coord := hit.Bary
	if coords == CoordsTexture {
		if uv, ok := scene.Triangles[hit.Triangle].TextureCoord(hit.Bary); ok {
			coord = uv
		}
	}
	return Record{
		Ray:    ray,
		Object: scene.Objects[hit.Object].Name,
		Bounce: bounce,
		Coord:  coord,
	}
}

// String formats the record as a ledger line without the trailing newline
func (r Record) String() string {
	return r.Object + "\t" + strconv.Itoa(r.Bounce) + "\t" +
		strconv.FormatFloat(r.Coord.U, 'g', -1, 64) + "," +
		strconv.FormatFloat(r.Coord.V, 'g', -1, 64)
}

// ParseRecord parses one ledger line
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("ledger line %q: expected 3 tab-separated fields, got %d", line, len(fields))
	}

	bounce, err := strconv.Atoi(fields[1])
	if err != nil || (bounce != 0 && bounce != 1) {
		return Record{}, fmt.Errorf("ledger line %q: invalid bounce index %q", line, fields[1])
	}

	coords := strings.Split(fields[2], ",")
	if len(coords) != 2 {
		return Record{}, fmt.Errorf("ledger line %q: expected x,y coordinate, got %q", line, fields[2])
	}
	x, err := strconv.ParseFloat(coords[0], 64)
	if err != nil {
		return Record{}, fmt.Errorf("ledger line %q: invalid x: %w", line, err)
	}
	y, err := strconv.ParseFloat(coords[1], 64)
	if err != nil {
		return Record{}, fmt.Errorf("ledger line %q: invalid y: %w", line, err)
	}

	return Record{Ray: -1, Object: fields[0], Bounce: bounce, Coord: core.NewVec2(x, y)}, nil
}

// WriteLedger writes records one per line
func WriteLedger(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(r.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadLedger parses every non-empty line of a ledger
func ReadLedger(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
