package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	gomath "math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Faultbox/layerslice/pkg/math"
	"github.com/Faultbox/layerslice/pkg/mesh"
)

// tetra is a unit tetrahedron with outward facing triangles.
func tetra() *mesh.Mesh {
	return &mesh.Mesh{
		Vertices: []math.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Triangles: []mesh.Triangle{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}},
	}
}

// createTestSTL builds a binary STL with one unwelded facet per triangle.
func createTestSTL(header string, m *mesh.Mesh) []byte {
	buf := new(bytes.Buffer)

	var h [80]byte
	copy(h[:], header)
	buf.Write(h[:])
	binary.Write(buf, binary.LittleEndian, uint32(len(m.Triangles)))

	for _, t := range m.Triangles {
		// Normal left zero
		for range 3 {
			binary.Write(buf, binary.LittleEndian, float32(0))
		}
		for _, v := range m.Corners(t) {
			binary.Write(buf, binary.LittleEndian, v.X)
			binary.Write(buf, binary.LittleEndian, v.Y)
			binary.Write(buf, binary.LittleEndian, v.Z)
		}
		binary.Write(buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func checkTetra(t *testing.T, got *mesh.Mesh) {
	t.Helper()
	want := tetra()
	if len(got.Vertices) != 4 {
		t.Fatalf("expected 4 welded vertices, got %d", len(got.Vertices))
	}
	if len(got.Triangles) != 4 {
		t.Fatalf("expected 4 triangles, got %d", len(got.Triangles))
	}
	for i := range want.Triangles {
		if got.Corners(got.Triangles[i]) != want.Corners(want.Triangles[i]) {
			t.Errorf("triangle %d: expected %v, got %v", i,
				want.Corners(want.Triangles[i]), got.Corners(got.Triangles[i]))
		}
	}
}

func TestParseSTL_Binary(t *testing.T) {
	data := createTestSTL("tetra", tetra())

	stl, err := ParseSTL(data)
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}
	if !stl.Binary {
		t.Error("expected binary STL")
	}
	if stl.Name != "tetra" {
		t.Errorf("expected name 'tetra', got %q", stl.Name)
	}
	checkTetra(t, stl.Mesh)
}

func TestParseSTL_BinaryHeaderStartsWithSolid(t *testing.T) {
	data := createTestSTL("solid exported by some CAD tool", tetra())

	stl, err := ParseSTL(data)
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}
	if !stl.Binary {
		t.Error("expected the size check to pick binary")
	}
	checkTetra(t, stl.Mesh)
}

func TestParseSTL_ASCII(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("solid tetra\n")
	m := tetra()
	for _, tri := range m.Triangles {
		sb.WriteString("  facet normal 0 0 0\n    outer loop\n")
		for _, v := range m.Corners(tri) {
			sb.WriteString("      vertex ")
			sb.WriteString(strings.Join([]string{ftoa(v.X), ftoa(v.Y), ftoa(v.Z)}, " "))
			sb.WriteString("\n")
		}
		sb.WriteString("    endloop\n  endfacet\n")
	}
	sb.WriteString("endsolid tetra\n")

	stl, err := ParseSTL([]byte(sb.String()))
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}
	if stl.Binary {
		t.Error("expected ASCII STL")
	}
	if stl.Name != "tetra" {
		t.Errorf("expected name 'tetra', got %q", stl.Name)
	}
	checkTetra(t, stl.Mesh)
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'e', -1, 32)
}

func TestParseSTL_Errors(t *testing.T) {
	valid := createTestSTL("", tetra())
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedSTL},
		{"short header", make([]byte, 40), ErrTruncatedSTL},
		{"missing facets", valid[:len(valid)-20], ErrTruncatedSTL},
		{"two vertex loop", []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid\n"), ErrInvalidSTL},
		{"bad number", []byte("solid x\nouter loop\nvertex 0 a 0\n"), ErrInvalidSTL},
		{"stray vertex", []byte("solid x\nvertex 0 0 0\n"), ErrInvalidSTL},
		{"unknown keyword", []byte("solid x\nbanana\n"), ErrInvalidSTL},
		{"unterminated", []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\n"), ErrTruncatedSTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSTL(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWriteSTL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, "tetra", tetra()); err != nil {
		t.Fatalf("WriteSTL failed: %v", err)
	}
	data := buf.Bytes()
	if len(data) != 84+4*50 {
		t.Fatalf("expected %d bytes, got %d", 84+4*50, len(data))
	}

	// The first facet lies in z=0 facing down.
	nz := gomath.Float32frombits(binary.LittleEndian.Uint32(data[84+8:]))
	if nz != -1 {
		t.Errorf("expected first facet normal z=-1, got %v", nz)
	}

	stl, err := ParseSTL(data)
	if err != nil {
		t.Fatalf("ParseSTL failed: %v", err)
	}
	checkTetra(t, stl.Mesh)
}

func TestSaveSTLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetra.stl")
	if err := SaveSTL(path, "tetra", tetra()); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	stl, err := ParseSTLFile(path)
	if err != nil {
		t.Fatalf("ParseSTLFile failed: %v", err)
	}
	checkTetra(t, stl.Mesh)

	if _, err := ParseSTLFile(filepath.Join(t.TempDir(), "missing.stl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFaceNormalDegenerate(t *testing.T) {
	c := [3]math.Vec3{{X: 1}, {X: 2}, {X: 3}}
	if n := faceNormal(c); n != ([3]float32{}) {
		t.Errorf("expected zero normal, got %v", n)
	}
}
