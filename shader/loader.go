package shader

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
)

// Paths of the built-in halftone program inside BuiltinFS.
const (
	HalftoneVertexPath   = "shaders/halftone.vs.wgsl"
	HalftoneFragmentPath = "shaders/halftone.fs.wgsl"
)

// BuiltinFS holds the embedded halftone program sources.
//
//go:embed shaders/*.wgsl
var BuiltinFS embed.FS

// maxSourceSize bounds a fetched source file.
const maxSourceSize = 1 << 20

// Loader retrieves program sources.
//
// Paths starting with http:// or https:// are fetched with Client. Any other
// path is read from FS.
type Loader struct {
	FS     fs.FS
	Client *http.Client
}

// NewLoader returns a loader reading from the embedded sources and the
// default HTTP client.
func NewLoader() *Loader {
	return &Loader{FS: BuiltinFS, Client: http.DefaultClient}
}

// Fetch returns the source text at path.
//
// A transport error, a status outside 2xx-3xx or an empty body is reported
// as ErrFetch.
func (l *Loader) Fetch(ctx context.Context, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return l.fetchHTTP(ctx, path)
	}
	fsys := l.FS
	if fsys == nil {
		fsys = BuiltinFS
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s: empty source", ErrFetch, path)
	}
	return string(data), nil
}

func (l *Loader) fetchHTTP(ctx context.Context, url string) (string, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: %s: status %d", ErrFetch, url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: %s: empty source", ErrFetch, url)
	}
	return string(body), nil
}
