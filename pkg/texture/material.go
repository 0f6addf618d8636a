package texture

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// materialLines returns the MTL entry of an object's hit-map material
func materialLines(object string) []string {
	name := MaterialName(object)
	return []string{
		"newmtl " + name,
		"Ns 250.000000",
		"Ka 1.000000 1.000000 1.000000",
		"Kd 0.097925 0.065680 0.800000",
		"Ks 0.500000 0.500000 0.500000",
		"Ke 0.000000 0.000000 0.000000",
		"Ni 1.450000",
		"d 1.000000",
		"illum 2",
		"map_Kd ./" + ImageDir + "/" + ImageName(object),
	}
}

// WriteMTL writes one material per object, each textured with the object's hit map
func WriteMTL(w io.Writer, objects []string) error {
	bw := bufio.NewWriter(w)
	for _, object := range objects {
		if _, err := fmt.Fprintf(bw, "\n%s\n", strings.Join(materialLines(object), "\n")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// RewriteOBJ copies an OBJ file with its material statements replaced:
// existing mtllib and usemtl lines are dropped, mtllib is declared first,
// and every smoothing-group line of an object is followed by
// "usemtl mat_<object>". It returns the objects in file order.
func RewriteOBJ(r io.Reader, w io.Writer, mtllib string) ([]string, error) {
	var objects []string
	current := ""

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "mtllib %s\n", mtllib); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		keyword := ""
		if len(fields) > 0 {
			keyword = fields[0]
		}

		switch keyword {
		case "mtllib", "usemtl":
			continue
		case "o":
			if len(fields) > 1 {
				current = strings.Join(fields[1:], " ")
				objects = append(objects, current)
			}
		}

		if _, err := fmt.Fprintln(bw, line); err != nil {
			return nil, err
		}
		if keyword == "s" && current != "" {
			if _, err := fmt.Fprintf(bw, "usemtl %s\n", MaterialName(current)); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return objects, bw.Flush()
}
