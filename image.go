package halftone

import (
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	// Decoders for the source image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxImageSize bounds a fetched source image.
const maxImageSize = 64 << 20

// ImageLoader retrieves and decodes a source image.
type ImageLoader interface {
	LoadImage(ctx context.Context, src string) (image.Image, error)
}

// SourceLoader loads images from http(s) URLs, from FS, or from the OS
// filesystem when FS is nil.
//
// Supported formats are JPEG, PNG, GIF, WebP, BMP and TIFF.
type SourceLoader struct {
	FS     fs.FS
	Client *http.Client
}

// LoadImage fetches and decodes src. Every failure wraps ErrImageLoad.
func (l *SourceLoader) LoadImage(ctx context.Context, src string) (image.Image, error) {
	rc, err := l.open(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageLoad, src, err)
	}
	defer rc.Close()

	img, format, err := image.Decode(io.LimitReader(rc, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrImageLoad, src, err)
	}
	Logger().Debug("halftone: image decoded", "src", src, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

func (l *SourceLoader) open(ctx context.Context, src string) (io.ReadCloser, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		client := l.Client
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, http.NoBody)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.FS != nil {
		return l.FS.Open(src)
	}
	return os.Open(src)
}
