package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Fetcher retrieves the bytes behind a manifest or blob location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher fetches http and https URLs.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, location, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %s", ErrFetch, location, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, location, err)
	}
	return data, nil
}

// FileFetcher reads local paths and file:// URLs.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(localPath(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}

// AutoFetcher picks HTTPFetcher or FileFetcher by the location's scheme.
type AutoFetcher struct {
	HTTP HTTPFetcher
	File FileFetcher
}

func (f AutoFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if isRemote(location) {
		return f.HTTP.Fetch(ctx, location)
	}
	return f.File.Fetch(ctx, location)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func localPath(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme == "file" {
		return filepath.FromSlash(u.Path)
	}
	return location
}

// BaseOf returns the directory part of a manifest location, with a
// trailing separator for URLs.
func BaseOf(location string) string {
	if isRemote(location) {
		u, err := url.Parse(location)
		if err != nil {
			return ""
		}
		u.Path = path.Dir(u.Path) + "/"
		u.RawQuery, u.Fragment = "", ""
		return u.String()
	}
	return filepath.Dir(localPath(location))
}

// Resolve joins a relative reference onto base. Absolute paths and URLs
// are returned unchanged.
func Resolve(base, ref string) string {
	if ref == "" || isRemote(ref) || filepath.IsAbs(ref) || strings.HasPrefix(ref, "file://") {
		return ref
	}
	if isRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		if !strings.HasSuffix(b.Path, "/") {
			b.Path += "/"
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	}
	if base == "" {
		return ref
	}
	return filepath.Join(base, filepath.FromSlash(ref))
}
