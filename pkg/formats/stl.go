// Package formats reads and writes the mesh file formats the slicer accepts.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/layerslice/pkg/math"
	"github.com/Faultbox/layerslice/pkg/mesh"
)

// STL format errors.
var (
	ErrTruncatedSTL = errors.New("truncated STL data")
	ErrInvalidSTL   = errors.New("malformed ASCII STL")
)

const (
	stlHeaderSize = 80
	stlFacetSize  = 50 // normal + 3 vertices as float32, attribute count
)

// STL is a parsed STL file. Identical vertex coordinates are welded into
// a single vertex, so the mesh is indexed the way the slicer expects.
type STL struct {
	Name   string // binary header or ASCII solid name
	Binary bool
	Mesh   *mesh.Mesh
}

// welder deduplicates vertices by exact coordinates.
type welder struct {
	m     *mesh.Mesh
	index map[math.Vec3]int
}

func newWelder() *welder {
	return &welder{m: &mesh.Mesh{}, index: make(map[math.Vec3]int)}
}

func (w *welder) vertex(v math.Vec3) int {
	if i, ok := w.index[v]; ok {
		return i
	}
	i := len(w.m.Vertices)
	w.m.Vertices = append(w.m.Vertices, v)
	w.index[v] = i
	return i
}

func (w *welder) triangle(a, b, c math.Vec3) {
	w.m.Triangles = append(w.m.Triangles, mesh.Triangle{w.vertex(a), w.vertex(b), w.vertex(c)})
}

// ParseSTL parses binary or ASCII STL data. Binary is recognized by its
// size matching the facet count in the header, since binary headers may
// also start with "solid".
func ParseSTL(data []byte) (*STL, error) {
	if len(data) >= stlHeaderSize+4 {
		count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if int64(len(data)) == stlHeaderSize+4+int64(count)*stlFacetSize {
			return parseBinarySTL(data)
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(data)
	}
	return parseBinarySTL(data)
}

func parseBinarySTL(data []byte) (*STL, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedSTL, len(data), stlHeaderSize+4)
	}
	count := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	body := data[stlHeaderSize+4:]
	if len(body) < count*stlFacetSize {
		return nil, fmt.Errorf("%w: %d facets need %d bytes, have %d", ErrTruncatedSTL, count, count*stlFacetSize, len(body))
	}

	w := newWelder()
	w.m.Triangles = make([]mesh.Triangle, 0, count)
	var corners [3]math.Vec3
	for i := range count {
		facet := body[i*stlFacetSize:]
		for v := range corners {
			const start = 12 // skip normal
			off := start + 12*v
			corners[v] = math.Vec3{
				X: gomath.Float32frombits(binary.LittleEndian.Uint32(facet[off:])),
				Y: gomath.Float32frombits(binary.LittleEndian.Uint32(facet[off+4:])),
				Z: gomath.Float32frombits(binary.LittleEndian.Uint32(facet[off+8:])),
			}
		}
		w.triangle(corners[0], corners[1], corners[2])
	}

	return &STL{
		Name:   strings.TrimRight(string(data[:stlHeaderSize]), " \x00"),
		Binary: true,
		Mesh:   w.m,
	}, nil
}

func parseASCIISTL(data []byte) (*STL, error) {
	s := &STL{}
	w := newWelder()
	var loop []math.Vec3
	inLoop := false

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			if s.Name == "" {
				s.Name = strings.Join(fields[1:], " ")
			}
		case "outer":
			inLoop = true
			loop = loop[:0]
		case "vertex":
			if !inLoop {
				return nil, fmt.Errorf("%w: line %d: vertex outside a loop", ErrInvalidSTL, line)
			}
			v, err := parseASCIIVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, line, err)
			}
			loop = append(loop, v)
		case "endloop":
			if len(loop) != 3 {
				return nil, fmt.Errorf("%w: line %d: loop has %d vertices", ErrInvalidSTL, line, len(loop))
			}
			w.triangle(loop[0], loop[1], loop[2])
			inLoop = false
		case "facet", "endfacet", "endsolid":
		default:
			return nil, fmt.Errorf("%w: line %d: unexpected %q", ErrInvalidSTL, line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ASCII STL: %w", err)
	}
	if inLoop {
		return nil, fmt.Errorf("%w: unterminated loop", ErrTruncatedSTL)
	}

	s.Mesh = w.m
	return s, nil
}

func parseASCIIVertex(fields []string) (math.Vec3, error) {
	if len(fields) != 3 {
		return math.Vec3{}, fmt.Errorf("vertex has %d coordinates", len(fields))
	}
	var c [3]float32
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return math.Vec3{}, err
		}
		c[i] = float32(v)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ReadSTL parses an STL stream.
func ReadSTL(r io.Reader) (*STL, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}
	return ParseSTL(data)
}

// ParseSTLFile parses an STL file from disk.
func ParseSTLFile(path string) (*STL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return ParseSTL(data)
}

// stlFacet is the on-disk layout of one binary facet.
type stlFacet struct {
	Normal   [3]float32
	Vertices [3][3]float32
	_        uint16 // attribute byte count
}

// WriteSTL writes m as binary STL. Facet normals are derived from the
// vertex winding.
func WriteSTL(w io.Writer, name string, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)

	var header [stlHeaderSize]byte
	copy(header[:], name)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("writing STL header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return fmt.Errorf("writing STL facet count: %w", err)
	}

	for i, t := range m.Triangles {
		c := m.Corners(t)
		f := stlFacet{Normal: faceNormal(c)}
		for v := range c {
			f.Vertices[v] = [3]float32{c[v].X, c[v].Y, c[v].Z}
		}
		if err := binary.Write(bw, binary.LittleEndian, &f); err != nil {
			return fmt.Errorf("writing STL facet %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// SaveSTL writes m as a binary STL file.
func SaveSTL(path, name string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating STL file: %w", err)
	}
	if err := WriteSTL(f, name, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// faceNormal returns the unit normal of a counter-clockwise triangle, or
// zero for a degenerate one.
func faceNormal(c [3]math.Vec3) [3]float32 {
	n := c[1].Sub(c[0]).Cross(c[2].Sub(c[0]))
	l := n.Length()
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(float64(n.X) / l), float32(float64(n.Y) / l), float32(float64(n.Z) / l)}
}
