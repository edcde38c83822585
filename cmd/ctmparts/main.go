package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ctm-loader/internal/batch"
	"ctm-loader/internal/loader"
	"ctm-loader/internal/mathutil"
	"ctm-loader/internal/raster"
	"ctm-loader/internal/texture"
)

func main() {
	out := flag.String("out", "", "Write <out>.glb and/or <out>.webp for the whole model")
	glb := flag.Bool("glb", true, "With -out, export binary glTF")
	webp := flag.Bool("webp", false, "With -out, render a WebP preview")
	base := flag.String("base", "", "Resolve data and texture paths against this path or URL")
	textures := flag.String("textures", "", "Texture directory for previews (default: manifest directory)")
	view := flag.String("view", "iso", "Preview camera: "+fmt.Sprint(mathutil.ViewNames()))
	size := flag.Int("size", 256, "Preview size in pixels")
	normals := flag.Bool("normals", false, "Compute normals for parts stored without them")
	noSplit := flag.Bool("nosplit", false, "Keep 32-bit indices instead of 16-bit chunks")
	timeout := flag.Duration("timeout", time.Minute, "Overall load timeout")
	verbose := flag.Bool("v", false, "Log fetch and decode timings")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ctmparts [flags] manifest.json|URL\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	location := flag.Arg(0)

	opts := loader.DefaultOptions()
	opts.BasePath = *base
	opts.ComputeNormals = *normals
	opts.SplitOffsets = !*noSplit
	if *verbose {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	parts, err := loader.LoadParts(ctx, location, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d parts, %d materials, data=%s (%.0fms)\n",
		location, len(parts.Meshes), len(parts.Materials), parts.Manifest.Data,
		float64(time.Since(start).Microseconds())/1000)

	for i, m := range parts.Meshes {
		name := ""
		if i < len(parts.Materials) {
			name = parts.Materials[i].Name
		}
		fmt.Printf("  part[%d] %-16s vertices=%-7d triangles=%-7d normals=%-5v uv=%q chunks=%d\n",
			i, name, m.VertexCount(), m.TriangleCount(), m.Normals != nil, m.UVMapName, len(m.Offsets))
		for j, o := range m.Offsets {
			fmt.Printf("      [%d] start=%d count=%d base=%d\n", j, o.Start, o.Count, o.Index)
		}
	}

	if *out == "" {
		return
	}

	cfg := batch.Config{GLB: *glb, WebP: *webp, FillRatio: 0.9}
	if *webp {
		rot, err := mathutil.ViewByName(*view)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		texDir := *textures
		if texDir == "" {
			texDir = loader.BaseOf(location)
		}
		cfg.Render = raster.Options{
			Size:        *size,
			Supersample: 2,
			Margin:      *size / 32,
			View:        rot,
			Textures:    texture.NewCache(texture.BuildIndex(texDir)),
		}
	}
	written, err := batch.Convert(cfg, *out, parts.Meshes, parts.Materials)
	for _, p := range written {
		fmt.Printf("Wrote %s\n", p)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
