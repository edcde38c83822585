// Package loader fetches CTM files, decodes every part of a model and
// prepares the buffers for 16-bit indexed drawing.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"ctm-loader/internal/ctm"
)

// Options control fetching, concurrency and mesh post-processing.
type Options struct {
	ReorderVertices bool
	SplitOffsets    bool
	ComputeNormals  bool // only for parts stored without normals
	Workers         int
	BasePath        string // overrides the manifest directory when set
	Fetcher         Fetcher
	Logger          *slog.Logger
}

// DefaultOptions reorders and splits, as required for 16-bit index buffers.
func DefaultOptions() Options {
	return Options{
		ReorderVertices: true,
		SplitOffsets:    true,
		Workers:         runtime.NumCPU(),
	}
}

func (o *Options) resolve() {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Fetcher == nil {
		o.Fetcher = AutoFetcher{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Parts is the result of loading a parts manifest.
type Parts struct {
	Meshes    []*Mesh
	Materials []Material
	Manifest  *Manifest
}

// LoadParts reads the manifest at location, fetches its shared blob and
// decodes one mesh per offset. It returns only after every part decoded;
// any failure discards the whole result.
func LoadParts(ctx context.Context, location string, opts Options) (*Parts, error) {
	opts.resolve()

	data, err := opts.Fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	man, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	base := opts.BasePath
	if base == "" {
		base = BaseOf(location)
	}
	for i := range man.Materials {
		m := &man.Materials[i]
		m.MapDiffuseURL = Resolve(base, m.MapDiffuse)
		m.MapNormalURL = Resolve(base, m.MapNormal)
	}

	blobURL := Resolve(base, man.Data)
	blob, err := opts.Fetcher.Fetch(ctx, blobURL)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("fetched blob", "url", blobURL, "bytes", len(blob), "parts", len(man.Offsets))

	meshes, err := DecodeParts(ctx, blob, man.Offsets, opts)
	if err != nil {
		return nil, err
	}
	return &Parts{Meshes: meshes, Materials: man.Materials, Manifest: man}, nil
}

// Load fetches one blob and decodes the CTM files at offsets, or at offset
// zero when none are given.
func Load(ctx context.Context, location string, offsets []int, opts Options) ([]*Mesh, error) {
	opts.resolve()
	blob, err := opts.Fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return DecodeParts(ctx, blob, offsets, opts)
}

// DecodeParts decodes the files at offsets within blob on a worker pool.
// Each part gets its own stream and buffers.
func DecodeParts(ctx context.Context, blob []byte, offsets []int, opts Options) ([]*Mesh, error) {
	opts.resolve()
	if len(offsets) == 0 {
		offsets = []int{0}
	}

	meshes := make([]*Mesh, len(offsets))
	errs := make([]error, len(offsets))

	partChan := make(chan int, opts.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < min(opts.Workers, len(offsets)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range partChan {
				if err := ctx.Err(); err != nil {
					errs[idx] = err
					continue
				}
				meshes[idx], errs[idx] = decodePart(blob, offsets[idx], opts)
			}
		}()
	}

	for i := range offsets {
		partChan <- i
	}
	close(partChan)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("loader: part %d at offset %d: %w", i, offsets[i], err)
		}
	}
	return meshes, nil
}

func decodePart(blob []byte, offset int, opts Options) (*Mesh, error) {
	start := time.Now()
	f, err := ctm.DecodeAt(blob, offset)
	if err != nil {
		return nil, err
	}
	m, err := NewMesh(f, opts)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("decoded part",
		"offset", offset,
		"method", f.Header.Method.String(),
		"vertices", f.Header.VertexCount,
		"triangles", f.Header.TriangleCount,
		"chunks", len(m.Offsets),
		"elapsed", time.Since(start))
	return m, nil
}
