package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"ctm-loader/internal/batch"
	"ctm-loader/internal/config"
	"ctm-loader/internal/loader"
	"ctm-loader/internal/mathutil"
	"ctm-loader/internal/raster"
	"ctm-loader/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a .json, .toml or .yaml config file")
	testN := flag.Int("test", 0, "Convert only the first N files for testing")
	inputDir := flag.String("input", "", "Directory scanned for .ctm files (default: .)")
	outputDir := flag.String("output", "", "Output directory (default: <input>/converted)")
	formats := flag.String("formats", "", "Comma separated outputs: glb, webp (default: both)")
	view := flag.String("view", "", "Preview camera: "+fmt.Sprint(mathutil.ViewNames()))
	size := flag.Int("size", 0, "Preview size in pixels (default: 256)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	verbose := flag.Bool("v", false, "Log per-part decode timings")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		InputDir:  *inputDir,
		OutputDir: *outputDir,
		Formats:   *formats,
		View:      *view,
		Size:      *size,
		Workers:   *workers,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	rot, err := mathutil.ViewByName(cfg.View)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	files, err := batch.Discover(cfg.InputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *testN > 0 && *testN < len(files) {
		files = files[:*testN]
	}
	if len(files) == 0 {
		fmt.Println("No .ctm files found.")
		os.Exit(0)
	}

	opts := loader.DefaultOptions()
	opts.ReorderVertices = cfg.ReorderEnabled()
	opts.SplitOffsets = cfg.SplitEnabled()
	opts.ComputeNormals = cfg.ComputeNormals
	if *verbose {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	batchCfg := batch.Config{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		GLB:       cfg.Wants(config.FormatGLB),
		WebP:      cfg.Wants(config.FormatWebP),
		Loader:    opts,
		FillRatio: cfg.FillRatio,
		Workers:   cfg.Workers,
		Progress:  2 * time.Second,
	}
	if batchCfg.WebP {
		texIndex := texture.BuildIndex(cfg.TextureDir)
		fmt.Printf("Textures: %d indexed\n", texIndex.Len())
		batchCfg.Render = raster.Options{
			Size:        cfg.RenderSize,
			Supersample: cfg.Supersample,
			Margin:      cfg.RenderSize / 32,
			View:        rot,
			FOV:         cfg.FOV,
			Textures:    texture.NewCache(texIndex),
		}
	}

	fmt.Printf("CTM converter → %v\n", cfg.Formats)
	fmt.Printf("Files: %d, Workers: %d\n", len(files), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results := batch.Run(ctx, batchCfg, files)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	var failed []batch.Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Converted: %d/%d\n", len(results)-len(failed), len(results))

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(len(failed), 20)] {
			fmt.Printf("  %s: %s\n", r.File, r.Error)
		}
	}

	reportPath := filepath.Join(cfg.OutputDir, "report.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else if err := batch.WriteReport(reportPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report write failed: %v\n", err)
	} else {
		fmt.Printf("Report: %s\n", reportPath)
	}

	if len(failed) > 0 {
		stop()
		os.Exit(1)
	}
}
