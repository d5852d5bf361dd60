package data

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/crypto/blake2b"

	"github.com/scenecore/scenecore/internal/scene"
)

type meshDigest [blake2b.Size256]byte

// MeshLibrary holds the named meshes of a scene. Meshes with identical
// vertex and index data share one copy of the slices, whatever their names.
type MeshLibrary struct {
	byName   map[string]scene.Geometry
	byDigest map[meshDigest]scene.Geometry
}

func NewMeshLibrary() *MeshLibrary {
	return &MeshLibrary{
		byName:   make(map[string]scene.Geometry),
		byDigest: make(map[meshDigest]scene.Geometry),
	}
}

// Add registers a mesh under name. It reports whether the data duplicated
// an already registered mesh.
func (l *MeshLibrary) Add(name string, vertices []mgl32.Vec3, indices []uint32) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("mesh without name")
	}
	if _, ok := l.byName[name]; ok {
		return false, fmt.Errorf("mesh %q defined twice", name)
	}
	if len(vertices) == 0 {
		return false, fmt.Errorf("mesh %q has no vertices", name)
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return false, fmt.Errorf("mesh %q: index %d out of range (%d >= %d)", name, i, idx, len(vertices))
		}
	}

	d := digestOf(vertices, indices)
	if shared, ok := l.byDigest[d]; ok {
		l.byName[name] = shared
		return true, nil
	}
	geo := scene.Geometry{Vertices: vertices, Indices: indices}
	l.byDigest[d] = geo
	l.byName[name] = geo
	return false, nil
}

// Mesh implements scene.MeshSource.
func (l *MeshLibrary) Mesh(name string) (scene.Geometry, bool) {
	geo, ok := l.byName[name]
	if !ok {
		return scene.Geometry{}, false
	}
	geo.Mesh = name
	return geo, true
}

// Len returns the number of mesh names.
func (l *MeshLibrary) Len() int { return len(l.byName) }

// Unique returns the number of distinct meshes after deduplication.
func (l *MeshLibrary) Unique() int { return len(l.byDigest) }

func digestOf(vertices []mgl32.Vec3, indices []uint32) meshDigest {
	buf := make([]byte, 0, 8+len(vertices)*12+len(indices)*4)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vertices)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(indices)))
	for _, v := range vertices {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
		}
	}
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return blake2b.Sum256(buf)
}
