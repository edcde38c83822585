package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFormats(t *testing.T) {
	files := map[string]string{
		"c.json": `{"input_dir": "models", "formats": ["glb"], "render_size": 128, "reorder": false, "fov": 40}`,
		"c.toml": "input_dir = \"models\"\nformats = [\"glb\"]\nrender_size = 128\nreorder = false\nfov = 40.0\n",
		"c.yaml": "input_dir: models\nformats: [glb]\nrender_size: 128\nreorder: false\nfov: 40\n",
		"c.yml":  "input_dir: models\nformats:\n  - glb\nrender_size: 128\nreorder: false\nfov: 40\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, name, body))
			require.NoError(t, err)
			assert.Equal(t, "models", cfg.InputDir)
			assert.Equal(t, []string{"glb"}, cfg.Formats)
			assert.Equal(t, 128, cfg.RenderSize)
			assert.Equal(t, float32(40), cfg.FOV)
			require.NotNil(t, cfg.Reorder)
			assert.False(t, cfg.ReorderEnabled())
			assert.True(t, cfg.SplitEnabled())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "c.ini", "x=1"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "c.json", "{"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{})
	assert.Equal(t, ".", cfg.InputDir)
	assert.Equal(t, filepath.Join(".", "converted"), cfg.OutputDir)
	assert.Equal(t, ".", cfg.TextureDir)
	assert.Equal(t, []string{FormatGLB, FormatWebP}, cfg.Formats)
	assert.Equal(t, 256, cfg.RenderSize)
	assert.Equal(t, 2, cfg.Supersample)
	assert.Equal(t, 0.9, cfg.FillRatio)
	assert.Equal(t, "iso", cfg.View)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.True(t, cfg.ReorderEnabled())
	assert.True(t, cfg.SplitEnabled())
	assert.False(t, cfg.ComputeNormals)
	assert.NoError(t, cfg.Validate())
}

func TestResolveFlagsOverride(t *testing.T) {
	cfg := Config{InputDir: "a", OutputDir: "b", Formats: []string{"glb"}, Workers: 3}
	cfg.Resolve(Flags{
		InputDir:  "in",
		OutputDir: "out",
		Formats:   " WebP , glb,",
		View:      "front",
		Size:      64,
		Workers:   7,
	})
	assert.Equal(t, "in", cfg.InputDir)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []string{"webp", "glb"}, cfg.Formats)
	assert.Equal(t, "front", cfg.View)
	assert.Equal(t, 64, cfg.RenderSize)
	assert.Equal(t, 7, cfg.Workers)
	assert.True(t, cfg.Wants(FormatWebP))
	assert.True(t, cfg.Wants(FormatGLB))
}

func TestResolveExpandsHome(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Config{InputDir: "~/models"}
	cfg.Resolve(Flags{})
	assert.Equal(t, filepath.Join(home, "models"), cfg.InputDir)
	assert.Equal(t, filepath.Join(home, "models", "converted"), cfg.OutputDir)
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	cfg.Resolve(Flags{Formats: "glb,png"})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Config{FOV: 200}
	cfg.Resolve(Flags{})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Config{Supersample: 16}
	cfg.Resolve(Flags{})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}
