package texture

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/simulation"
)

func record(object string, bounce int, x, y float64) simulation.Record {
	return simulation.Record{Object: object, Bounce: bounce, Coord: core.NewVec2(x, y)}
}

func TestHitMap_Pixel(t *testing.T) {
	m := NewHitMap("a", 200)
	tests := []struct {
		name   string
		coord  core.Vec2
		wx, wy int
	}{
		{"origin maps to bottom-left", core.NewVec2(0, 0), 0, 199},
		{"top-right clamps into the image", core.NewVec2(1, 1), 199, 0},
		{"center", core.NewVec2(0.5, 0.5), 100, 100},
		{"truncates toward zero", core.NewVec2(0.0149, 0.75), 2, 50},
		{"negative clamps to zero", core.NewVec2(-0.2, 1.5), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := m.Pixel(tt.coord)
			if x != tt.wx || y != tt.wy {
				t.Errorf("Pixel(%v) = (%d,%d), expected (%d,%d)", tt.coord, x, y, tt.wx, tt.wy)
			}
		})
	}
}

func TestHitMap_Colors(t *testing.T) {
	m := NewHitMap("a", 10)
	m.Plot(record("a", 1, 0.05, 0.95)) // green at (0,0)
	m.Plot(record("a", 0, 0.05, 0.95)) // red overrides
	m.Plot(record("a", 1, 0.05, 0.95)) // green does not override red
	m.Plot(record("a", 1, 0.55, 0.45)) // green at (5,5)

	if got := m.img.RGBAAt(0, 0); got != firstColor {
		t.Errorf("Expected red at (0,0), got %v", got)
	}
	if got := m.img.RGBAAt(5, 5); got != secondColor {
		t.Errorf("Expected green at (5,5), got %v", got)
	}
	if got := m.img.RGBAAt(9, 9); got != background {
		t.Errorf("Expected white background, got %v", got)
	}
	if m.Hits != 4 {
		t.Errorf("Expected 4 hits, got %d", m.Hits)
	}
}

func TestHitMap_ImageScale(t *testing.T) {
	m := NewHitMap("a", 4)
	m.Plot(record("a", 0, 0.1, 0.9)) // pixel (0,0)

	if m.Image(0) != m.img {
		t.Error("Expected native image when not upscaling")
	}
	scaled := m.Image(16)
	if scaled.Bounds().Dx() != 16 || scaled.Bounds().Dy() != 16 {
		t.Fatalf("Expected 16x16 image, got %v", scaled.Bounds())
	}
	r, g, b, _ := scaled.At(2, 2).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("Expected the hit pixel to stay red after scaling, got %d %d %d", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = scaled.At(12, 12).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("Expected white away from the hit, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestBuildHitMaps(t *testing.T) {
	maps := BuildHitMaps([]simulation.Record{
		record("wall", 0, 0.1, 0.1),
		record("panel-crit", 0, 0.2, 0.2),
		record("wall", 1, 0.3, 0.3),
	}, 8)

	if len(maps) != 2 {
		t.Fatalf("Expected 2 maps, got %d", len(maps))
	}
	if maps[0].Object != "panel-crit" || maps[1].Object != "wall" {
		t.Errorf("Expected maps sorted by name, got %s, %s", maps[0].Object, maps[1].Object)
	}
	if maps[1].Hits != 2 {
		t.Errorf("Expected 2 wall hits, got %d", maps[1].Hits)
	}
}

func TestHitMap_SavePNG(t *testing.T) {
	m := NewHitMap("a", 8)
	m.Plot(record("a", 1, 0.5, 0.5))
	path := filepath.Join(t.TempDir(), "a.png")
	if err := m.SavePNG(path, 0); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(4, 4)).(color.RGBA); got != secondColor {
		t.Errorf("Expected green pixel, got %v", got)
	}
}
