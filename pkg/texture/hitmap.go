package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nfnt/resize"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/simulation"
)

// DefaultMapSize is the edge length of a hit map in pixels
const DefaultMapSize = 200

var (
	background  = color.RGBA{255, 255, 255, 255}
	firstColor  = color.RGBA{255, 0, 0, 255} // Direct hits
	secondColor = color.RGBA{0, 255, 0, 255} // Hits after the reflection
)

// HitMap is a square image of where one object was hit in texture space.
// Direct hits are red; reflected hits are green unless the pixel is already red.
type HitMap struct {
	Object string
	Hits   int
	img    *image.RGBA
}

// NewHitMap creates a white size×size map
func NewHitMap(object string, size int) *HitMap {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = background.R, background.G, background.B, background.A
	}
	return &HitMap{Object: object, img: img}
}

// Size returns the edge length in pixels
func (m *HitMap) Size() int {
	return m.img.Bounds().Dx()
}

// Pixel maps a texture coordinate to a pixel. The y axis is flipped so that
// v=1 is the top row; coordinates outside [0,1) are clamped onto the border.
func (m *HitMap) Pixel(coord core.Vec2) (x, y int) {
	n := m.Size()
	x = clamp(int(float64(n)*coord.U), n)
	y = clamp(int(float64(n)-float64(n)*coord.V), n)
	return x, y
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// Plot marks one ledger record on the map
func (m *HitMap) Plot(r simulation.Record) {
	x, y := m.Pixel(r.Coord)
	m.Hits++
	switch r.Bounce {
	case 0:
		m.img.SetRGBA(x, y, firstColor)
	case 1:
		if m.img.RGBAAt(x, y) != firstColor {
			m.img.SetRGBA(x, y, secondColor)
		}
	}
}

// Image returns the map, scaled to scale×scale pixels when scale exceeds
// the native size. Nearest-neighbour keeps single-pixel hits visible.
func (m *HitMap) Image(scale int) image.Image {
	if scale <= m.Size() {
		return m.img
	}
	return resize.Resize(uint(scale), uint(scale), m.img, resize.NearestNeighbor)
}

// MaterialName is the material and image name used for an object
func MaterialName(object string) string {
	return "mat_" + object
}

// ImageName is the file name of an object's hit map. Characters that could
// leave the image directory become underscores.
func ImageName(object string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, MaterialName(object))
	return safe + ".png"
}

// BuildHitMaps plots records into one map per object, returned in name order
func BuildHitMaps(records []simulation.Record, size int) []*HitMap {
	maps := make(map[string]*HitMap)
	for _, r := range records {
		m, ok := maps[r.Object]
		if !ok {
			m = NewHitMap(r.Object, size)
			maps[r.Object] = m
		}
		m.Plot(r)
	}

	result := make([]*HitMap, 0, len(maps))
	for _, m := range maps {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Object < result[j].Object })
	return result
}

// SavePNG writes the map to path
func (m *HitMap) SavePNG(path string, scale int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create hit map: %w", err)
	}
	if err := png.Encode(file, m.Image(scale)); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode hit map %s: %w", m.Object, err)
	}
	return file.Close()
}

// ReadLedgers parses every ledger file in order
func ReadLedgers(paths []string) ([]simulation.Record, error) {
	var records []simulation.Record
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		parsed, err := simulation.ReadLedger(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		records = append(records, parsed...)
	}
	return records, nil
}
