package data

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseOBJ reads the vertex positions and faces of a Wavefront OBJ stream
// into a mesh entry. Polygons are fan-triangulated; texture and normal
// references and every other statement are ignored.
func ParseOBJ(r io.Reader, name string) (MeshEntry, error) {
	m := MeshEntry{Name: name}
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, len(buf))

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return MeshEntry{}, fmt.Errorf("obj line %d: vertex needs 3 coordinates", line)
			}
			var v [3]float32
			for i := range v {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return MeshEntry{}, fmt.Errorf("obj line %d: %w", line, err)
				}
				v[i] = float32(f)
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return MeshEntry{}, fmt.Errorf("obj line %d: face needs 3 vertices", line)
			}
			idx := make([]uint32, len(fields)-1)
			for i, ref := range fields[1:] {
				n, err := objIndex(ref, len(m.Vertices))
				if err != nil {
					return MeshEntry{}, fmt.Errorf("obj line %d: %w", line, err)
				}
				idx[i] = n
			}
			for i := 1; i+1 < len(idx); i++ {
				m.Indices = append(m.Indices, idx[0], idx[i], idx[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return MeshEntry{}, fmt.Errorf("read obj: %w", err)
	}
	if len(m.Vertices) == 0 {
		return MeshEntry{}, fmt.Errorf("obj %s: no vertices", name)
	}
	return m, nil
}

// objIndex resolves a face reference ("7", "7/2", "7//3", "-1") to a
// zero-based vertex index.
func objIndex(ref string, count int) (uint32, error) {
	pos, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(pos)
	if err != nil {
		return 0, fmt.Errorf("face reference %q: %w", ref, err)
	}
	if n < 0 {
		n = count + n + 1
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("face reference %q out of range (have %d vertices)", ref, count)
	}
	return uint32(n - 1), nil
}
