package texture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-twobounce/pkg/simulation"
)

const sourceOBJ = `mtllib old.mtl
o panel-crit
v 0 0 0
v 1 0 0
v 0 1 0
usemtl Material
s off
f 1 2 3
o wall
v 0 0 1
s 1
f 1 2 4
`

func TestRewriteOBJ(t *testing.T) {
	var out strings.Builder
	objects, err := RewriteOBJ(strings.NewReader(sourceOBJ), &out, "room_MTL.mtl")
	if err != nil {
		t.Fatalf("RewriteOBJ: %v", err)
	}

	if len(objects) != 2 || objects[0] != "panel-crit" || objects[1] != "wall" {
		t.Errorf("Unexpected objects %v", objects)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "mtllib room_MTL.mtl" {
		t.Errorf("Expected mtllib first, got %q", lines[0])
	}
	text := out.String()
	if strings.Contains(text, "old.mtl") || strings.Contains(text, "usemtl Material") {
		t.Errorf("Expected prior material statements stripped:\n%s", text)
	}
	if !strings.Contains(text, "s off\nusemtl mat_panel-crit\n") {
		t.Errorf("Expected panel material after its s line:\n%s", text)
	}
	if !strings.Contains(text, "s 1\nusemtl mat_wall\n") {
		t.Errorf("Expected wall material after its s line:\n%s", text)
	}
	if !strings.Contains(text, "f 1 2 4\n") {
		t.Errorf("Expected geometry preserved:\n%s", text)
	}
}

func TestWriteMTL(t *testing.T) {
	var out strings.Builder
	if err := WriteMTL(&out, []string{"a", "b-crit"}); err != nil {
		t.Fatalf("WriteMTL: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"newmtl mat_a\nNs 250.000000\n",
		"illum 2\nmap_Kd ./images/mat_a.png\n",
		"newmtl mat_b-crit\n",
		"map_Kd ./images/mat_b-crit.png\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}
}

func TestExportHitMaps(t *testing.T) {
	dir := t.TempDir()

	ledger := filepath.Join(dir, "output_0.txt")
	if err := os.WriteFile(ledger, []byte("panel-crit\t0\t0.5,0.5\nwall\t1\t0.25,0.75\n"), 0644); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(dir, "room.obj")
	if err := os.WriteFile(source, []byte(sourceOBJ), 0644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "Textured")
	out, err := ExportHitMaps([]string{ledger}, outDir, Options{Size: 16, SourceOBJ: source}, nil)
	if err != nil {
		t.Fatalf("ExportHitMaps: %v", err)
	}

	if len(out.Images) != 2 {
		t.Fatalf("Expected 2 images, got %v", out.Images)
	}
	for _, name := range []string{"mat_panel-crit.png", "mat_wall.png"} {
		if _, err := os.Stat(filepath.Join(outDir, ImageDir, name)); err != nil {
			t.Errorf("Expected image %s: %v", name, err)
		}
	}
	if out.MTL != filepath.Join(outDir, "room_MTL.mtl") {
		t.Errorf("Unexpected MTL path %s", out.MTL)
	}
	if out.OBJ != filepath.Join(outDir, "room_textured.obj") {
		t.Errorf("Unexpected OBJ path %s", out.OBJ)
	}
	mtl, err := os.ReadFile(out.MTL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mtl), "newmtl mat_wall") {
		t.Errorf("Expected material for wall, got:\n%s", mtl)
	}
}

func TestExport_WithoutSourceOBJ(t *testing.T) {
	outDir := t.TempDir()
	records := []simulation.Record{record("shell-crit", 0, 0.1, 0.1)}

	out, err := Export(records, outDir, Options{}, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.OBJ != "" {
		t.Errorf("Expected no textured OBJ, got %s", out.OBJ)
	}
	if filepath.Base(out.MTL) != "scene_MTL.mtl" {
		t.Errorf("Expected default MTL name, got %s", out.MTL)
	}
	if len(out.Objects) != 1 || out.Objects[0] != "shell-crit" {
		t.Errorf("Expected objects from the ledger, got %v", out.Objects)
	}
}

func TestExport_ObjectNamesStayInImageDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "run")
	records := []simulation.Record{record("a/../../x", 0, 0.5, 0.5), record(`b\..\y`, 1, 0.5, 0.5)}

	out, err := Export(records, outDir, Options{Size: 8}, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	imageDir := filepath.Join(outDir, ImageDir)
	for _, path := range out.Images {
		if filepath.Dir(path) != imageDir {
			t.Errorf("Image %s written outside %s", path, imageDir)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected image %s: %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(outDir), "x.png")); err == nil {
		t.Error("Image escaped the output directory")
	}

	mtl, err := os.ReadFile(out.MTL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mtl), "map_Kd ./images/mat_a_.._.._x.png") {
		t.Errorf("Expected the material to reference the cleaned image name, got:\n%s", mtl)
	}
}

func TestReadLedgers_Error(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "output_1.txt")
	if err := os.WriteFile(bad, []byte("broken line\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLedgers([]string{bad}); err == nil || !strings.Contains(err.Error(), "output_1.txt") {
		t.Errorf("Expected error naming the ledger, got %v", err)
	}
}
