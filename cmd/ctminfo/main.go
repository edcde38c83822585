package main

import (
	"flag"
	"fmt"
	"os"

	"ctm-loader/internal/ctm"
	"ctm-loader/internal/loader"
)

func main() {
	offset := flag.Int("offset", 0, "Byte offset of the CTM file inside each input")
	chunks := flag.Bool("chunks", false, "Print the 16-bit draw ranges after vertex reordering")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ctminfo [-offset N] [-chunks] file.ctm...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := 0
	for _, arg := range flag.Args() {
		if err := inspect(arg, *offset, *chunks); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func inspect(path string, offset int, chunks bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := ctm.DecodeAt(data, offset)
	if err != nil {
		return err
	}
	h := f.Header

	fmt.Printf("\n=== %s ===\n", path)
	fmt.Printf("  version=%d method=%v vertices=%d triangles=%d normals=%v\n",
		h.Version, h.Method, h.VertexCount, h.TriangleCount, h.HasNormals())
	if h.Comment != "" {
		fmt.Printf("  comment: %q\n", h.Comment)
	}
	if g := f.MG2; g != nil {
		fmt.Printf("  MG2: vertexPrecision=%g normalPrecision=%g\n", g.VertexPrecision, g.NormalPrecision)
		fmt.Printf("       grid=[%v..%v] div=%v\n", g.LowerBound, g.UpperBound, g.Div)
	}
	for i, m := range f.Body.UVMaps {
		fmt.Printf("  UV[%d] %q file=%q\n", i, m.Name, m.FileName)
	}
	for i, m := range f.Body.AttrMaps {
		fmt.Printf("  Attr[%d] %q\n", i, m.Name)
	}

	mesh, err := loader.NewMesh(f, loader.Options{ReorderVertices: chunks, SplitOffsets: chunks})
	if err != nil {
		return err
	}
	if mesh.VertexCount() > 0 {
		lo, hi := mesh.Bounds()
		fmt.Printf("  bounds: x=[%.4g..%.4g] y=[%.4g..%.4g] z=[%.4g..%.4g]\n",
			lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	}
	if chunks {
		fmt.Printf("  used vertices=%d chunks=%d\n", mesh.VertexCount(), len(mesh.Offsets))
		for i, o := range mesh.Offsets {
			fmt.Printf("    [%d] start=%d count=%d base=%d\n", i, o.Start, o.Count, o.Index)
		}
	}
	return nil
}
