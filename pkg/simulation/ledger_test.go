package simulation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
	"github.com/df07/go-twobounce/pkg/trace"
)

func TestRecord_String(t *testing.T) {
	r := Record{Object: "panel-crit", Bounce: 1, Coord: core.NewVec2(0.25, 0.5)}
	if got := r.String(); got != "panel-crit\t1\t0.25,0.5" {
		t.Errorf("Unexpected ledger line %q", got)
	}
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Record
		wantErr bool
	}{
		{"first bounce", "wall\t0\t0.1,0.9", Record{Ray: -1, Object: "wall", Bounce: 0, Coord: core.NewVec2(0.1, 0.9)}, false},
		{"second bounce with CRLF", "a-crit\t1\t1,0\r\n", Record{Ray: -1, Object: "a-crit", Bounce: 1, Coord: core.NewVec2(1, 0)}, false},
		{"missing field", "wall\t0", Record{}, true},
		{"bad bounce", "wall\t2\t0,0", Record{}, true},
		{"bad coordinate", "wall\t0\t0.5", Record{}, true},
		{"bad number", "wall\t0\tx,0", Record{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecord(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestLedger_WriteRead(t *testing.T) {
	records := []Record{
		{Ray: -1, Object: "a-crit", Bounce: 0, Coord: core.NewVec2(0.125, 0.75)},
		{Ray: -1, Object: "b", Bounce: 1, Coord: core.NewVec2(1.0/3, 0)},
	}

	var buf bytes.Buffer
	if err := WriteLedger(&buf, records); err != nil {
		t.Fatalf("WriteLedger: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("Expected one line per record, got %q", buf.String())
	}

	got, err := ReadLedger(strings.NewReader(buf.String() + "\n\n"))
	if err != nil {
		t.Fatalf("ReadLedger: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("Expected %d records, got %d", len(records), len(got))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("Record %d: expected %+v, got %+v", i, records[i], got[i])
		}
	}
}

func TestReadLedger_ReportsLine(t *testing.T) {
	_, err := ReadLedger(strings.NewReader("a\t0\t0,0\n\nbroken\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("Expected error on line 3, got %v", err)
	}
}

func TestNewRecord_Coordinates(t *testing.T) {
	b := geometry.NewSceneBuilder()
	b.BeginObject("textured-crit", true)
	textured := geometry.NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)).
		WithTexCoords(core.NewVec2(0.5, 0.5), core.NewVec2(1, 0.5), core.NewVec2(0.5, 1))
	if err := b.AddTriangle(textured); err != nil {
		t.Fatal(err)
	}
	b.BeginObject("plain", false)
	if err := b.AddTriangle(geometry.NewTriangle(core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 1), core.NewVec3(0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	scene := b.Build()

	bary := core.NewVec2(0.2, 0.4)
	tests := []struct {
		name     string
		triangle int
		coords   LedgerCoords
		want     core.Vec2
	}{
		{"texture mode uses texture coordinates", 0, CoordsTexture, core.NewVec2(0.6, 0.7)},
		{"barycentric mode ignores texture coordinates", 0, CoordsBarycentric, bary},
		{"texture mode falls back to barycentric", 1, CoordsTexture, bary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := trace.Hit{Found: true, Triangle: tt.triangle, Object: scene.Triangles[tt.triangle].Object, Bary: bary}
			r := newRecord(scene, 7, 1, hit, tt.coords)
			if r.Ray != 7 || r.Bounce != 1 {
				t.Errorf("Unexpected ray/bounce in %+v", r)
			}
			if r.Object != scene.Objects[hit.Object].Name {
				t.Errorf("Expected object %q, got %q", scene.Objects[hit.Object].Name, r.Object)
			}
			if diff := r.Coord.Add(tt.want.Multiply(-1)); diff.U*diff.U+diff.V*diff.V > 1e-18 {
				t.Errorf("Expected coordinate %v, got %v", tt.want, r.Coord)
			}
		})
	}
}
