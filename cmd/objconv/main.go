// objconv converts Wavefront OBJ files into the meshes section of a scene
// description YAML file.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scenecore/scenecore/internal/data"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: objconv <output.yaml> <mesh.obj>...")
		os.Exit(1)
	}

	var meshes []data.MeshEntry
	for _, path := range os.Args[2:] {
		in, err := os.Open(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m, err := data.ParseOBJ(in, name)
		in.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
		meshes = append(meshes, m)
	}

	sort.Slice(meshes, func(i, j int) bool { return meshes[i].Name < meshes[j].Name })

	// Validate names and indices the same way the scene loader will.
	if _, err := (&data.Scene{Meshes: meshes}).MeshLibrary(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	raw, err := yaml.Marshal(struct {
		Meshes []data.MeshEntry `yaml:"meshes"`
	}{meshes})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := os.Create(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintf(out, "# Meshes auto-generated by objconv (%d entries)\n", len(meshes))
	if _, err := out.Write(raw); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tris := 0
	for _, m := range meshes {
		tris += len(m.Indices) / 3
	}
	fmt.Printf("Wrote %d meshes (%d triangles) to %s\n", len(meshes), tris, os.Args[1])
}
