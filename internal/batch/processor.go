// Package batch converts directories of CTM files to glTF and WebP previews
// with a worker pool.
package batch

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"ctm-loader/internal/export"
	"ctm-loader/internal/loader"
	"ctm-loader/internal/postprocess"
	"ctm-loader/internal/raster"
)

// Config holds all shared resources for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	GLB       bool
	WebP      bool
	Loader    loader.Options
	Render    raster.Options // Textures are shared across workers
	FillRatio float64
	Workers   int
	Progress  time.Duration // 0 disables the progress line
}

// Result holds the outcome of converting one file.
type Result struct {
	File      string
	Vertices  int
	Triangles int
	Chunks    int
	Outputs   []string
	Success   bool
	Error     string
}

// Discover returns the .ctm files below dir as slash-separated paths
// relative to dir, sorted.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ctm") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run converts files (relative to cfg.InputDir) using a worker pool.
// Results are in input order.
func Run(ctx context.Context, cfg Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := max(cfg.Workers, 1)

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Printf("  [%d/%d] %.1f files/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Decoding inside a worker stays sequential.
	cfg.Loader.Workers = 1

	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(ctx, cfg, files[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

func processFile(ctx context.Context, cfg Config, rel string) Result {
	res := Result{File: rel}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	data, err := os.ReadFile(filepath.Join(cfg.InputDir, filepath.FromSlash(rel)))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	meshes, err := loader.DecodeParts(ctx, data, []int{0}, cfg.Loader)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	m := meshes[0]
	res.Vertices = m.VertexCount()
	res.Triangles = m.TriangleCount()
	res.Chunks = len(m.Offsets)

	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	outputs, err := Convert(cfg, filepath.Join(cfg.OutputDir, filepath.FromSlash(stem)), meshes, nil)
	res.Outputs = outputs
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// Convert writes the requested outputs for one model next to outBase, which
// is a path without extension. It returns the written paths.
func Convert(cfg Config, outBase string, meshes []*loader.Mesh, materials []loader.Material) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(outBase), 0755); err != nil {
		return nil, err
	}
	var outputs []string

	if cfg.GLB {
		path := outBase + ".glb"
		if err := export.WriteGLB(path, meshes, materials); err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}

	if cfg.WebP {
		path := outBase + ".webp"
		if err := writeWebP(path, Preview(cfg, meshes, materials)); err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

// Preview renders meshes, downsamples the supersampled frame and frames the
// visible pixels on the canvas.
func Preview(cfg Config, meshes []*loader.Mesh, materials []loader.Material) *image.NRGBA {
	img := raster.RenderMeshes(meshes, materials, cfg.Render)
	if cfg.Render.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.Render.Size)
	}
	if cfg.FillRatio > 0 {
		img = postprocess.CropAndCenter(img, cfg.Render.Size, cfg.FillRatio)
	}
	return img
}

func writeWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("WebP encode: %w", err)
	}
	return f.Close()
}
