package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Extensions the loader can decode, keyed by lowercase extension. Higher
// rank wins when two files share a stem; formats with alpha rank first.
var extRank = map[string]int{
	".png":  4,
	".tga":  3,
	".webp": 2,
	".bmp":  1,
	".jpg":  0,
	".jpeg": 0,
}

// Index maps lowercase texture stems to filesystem paths below a model
// directory.
type Index struct {
	root    string
	entries map[string]string // stem → full path
}

// BuildIndex scans root and its subdirectories for texture images.
func BuildIndex(root string) *Index {
	idx := &Index{root: root, entries: make(map[string]string)}
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank, ok := extRank[ext]
		if !ok {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		existing, exists := idx.entries[stem]
		if !exists || rank > extRank[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})
	return idx
}

// ResolvePath returns the filesystem path for a texture reference. The
// reference is tried as a path relative to the root first, then by stem so
// that "maps\Wood.jpg" finds "textures/wood.png".
func (idx *Index) ResolvePath(name string) (string, bool) {
	name = strings.TrimPrefix(name, "file://")
	if name == "" || strings.Contains(name, "://") {
		return "", false
	}
	name = strings.ReplaceAll(name, "\\", "/")

	direct := name
	if !filepath.IsAbs(direct) {
		direct = filepath.Join(idx.root, filepath.FromSlash(name))
	}
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, true
	}

	base := filepath.Base(name)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
