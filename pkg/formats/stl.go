// Package formats provides parsers for the mesh file formats the spinner can import.
// STL (stereolithography) parser for binary and ASCII solids.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// STL format errors.
var (
	ErrTruncatedSTLData  = errors.New("truncated STL data")
	ErrInvalidSTLCount   = errors.New("invalid STL triangle count")
	ErrMalformedASCIISTL = errors.New("malformed ASCII STL")
	ErrEmptySTL          = errors.New("STL contains no triangles")
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal + 3 vertices (12 float32) + attribute count
	stlMaxTriangles = 50_000_000
)

// STLTriangle is one facet: a normal and three vertices.
type STLTriangle struct {
	Normal   [3]float32
	Vertices [3][3]float32
}

// STL represents a parsed STL solid.
type STL struct {
	Name      string // Solid name (ASCII) or trimmed header text (binary)
	Binary    bool
	Triangles []STLTriangle
}

// ParseSTL parses STL data from a byte slice. The encoding is detected from the
// content: a file is binary when its size matches the triangle count in the header,
// otherwise it must be an ASCII solid.
func ParseSTL(data []byte) (*STL, error) {
	if isBinarySTL(data) {
		return parseBinarySTL(data)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(data)
	}
	return parseBinarySTL(data)
}

// ParseSTLFile parses an STL file from disk.
func ParseSTLFile(path string) (*STL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return ParseSTL(data)
}

// isBinarySTL reports whether the size of data matches a binary header.
// ASCII-looking headers ("solid ...") are common in binary exports, so the
// size check wins over the prefix.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return int64(len(data)) == stlHeaderSize+4+int64(count)*stlTriangleSize
}

func parseBinarySTL(data []byte) (*STL, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTLData
	}

	stl := &STL{
		Name:   strings.TrimSpace(strings.TrimRight(string(data[:stlHeaderSize]), "\x00")),
		Binary: true,
	}

	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	if count > stlMaxTriangles {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSTLCount, count)
	}
	if count == 0 {
		return nil, ErrEmptySTL
	}
	if len(data) < stlHeaderSize+4+int(count)*stlTriangleSize {
		return nil, fmt.Errorf("%w: header declares %d triangles", ErrTruncatedSTLData, count)
	}

	r := bytes.NewReader(data[stlHeaderSize+4:])
	stl.Triangles = make([]STLTriangle, count)
	for i := range stl.Triangles {
		tri := &stl.Triangles[i]
		if err := binary.Read(r, binary.LittleEndian, &tri.Normal); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, ErrTruncatedSTLData)
		}
		if err := binary.Read(r, binary.LittleEndian, &tri.Vertices); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, ErrTruncatedSTLData)
		}
		// Attribute byte count, unused.
		var attr uint16
		binary.Read(r, binary.LittleEndian, &attr)
	}

	return stl, nil
}

func parseASCIISTL(data []byte) (*STL, error) {
	stl := &STL{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		tri    STLTriangle
		vertex int
		inLoop bool
		line   int
	)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			stl.Name = strings.Join(fields[1:], " ")
		case "facet":
			tri = STLTriangle{}
			vertex = 0
			if len(fields) == 5 && fields[1] == "normal" {
				n, err := parseFloats(fields[2:])
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedASCIISTL, line, err)
				}
				tri.Normal = n
			}
		case "outer":
			inLoop = true
		case "vertex":
			if !inLoop || vertex >= 3 || len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: unexpected vertex", ErrMalformedASCIISTL, line)
			}
			v, err := parseFloats(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedASCIISTL, line, err)
			}
			tri.Vertices[vertex] = v
			vertex++
		case "endloop":
			inLoop = false
		case "endfacet":
			if vertex != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrMalformedASCIISTL, line, vertex)
			}
			stl.Triangles = append(stl.Triangles, tri)
		case "endsolid":
			// Multi-solid files keep accumulating.
		default:
			return nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrMalformedASCIISTL, line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedASCIISTL, err)
	}
	if inLoop {
		return nil, fmt.Errorf("%w: unterminated loop", ErrTruncatedSTLData)
	}
	if len(stl.Triangles) == 0 {
		return nil, ErrEmptySTL
	}

	return stl, nil
}

func parseFloats(fields []string) ([3]float32, error) {
	var out [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return out, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// GetVertexCount returns the number of vertices (three per triangle).
func (s *STL) GetVertexCount() int {
	return len(s.Triangles) * 3
}

// Positions returns the vertices as a flat, non-indexed position list.
func (s *STL) Positions() [][3]float32 {
	out := make([][3]float32, 0, len(s.Triangles)*3)
	for _, tri := range s.Triangles {
		out = append(out, tri.Vertices[0], tri.Vertices[1], tri.Vertices[2])
	}
	return out
}
