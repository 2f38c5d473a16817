package halftone

import (
	"fmt"
	"io/fs"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/halftone/shader"
)

// Dot sizing. The pitch is both the maximum dot diameter and the grid
// spacing; the two must match or dots overlap or leave gaps.
const (
	MinSize      = 0
	DefaultPitch = 12
	MinPitch     = 12
	MaxPitch     = 16
)

// Default viewport used when no window is attached.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ProgramName is the shader cache key of the halftone program.
const ProgramName = "halftone"

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := halftone.New(adapter,
//	    halftone.WithImage("images/bird.jpg"),
//	    halftone.WithPitch(16),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	imageSource  string
	imageLoader  ImageLoader
	shaderCache  *shader.Cache
	shaderLoader *shader.Loader
	vertexPath   string
	fragmentPath string
	window       gpucontext.WindowProvider
	pitch        float64
	colors       [3]gg.RGBA
	overlay      bool
	width        int
	height       int
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		imageLoader:  &SourceLoader{},
		shaderLoader: shader.NewLoader(),
		vertexPath:   shader.HalftoneVertexPath,
		fragmentPath: shader.HalftoneFragmentPath,
		pitch:        DefaultPitch,
		colors:       [3]gg.RGBA{gg.Hex(DarkColor), gg.Hex(MidColor), gg.Hex(LightColor)},
	}
}

func (o *options) validate() error {
	if o.pitch < MinPitch || o.pitch > MaxPitch {
		return fmt.Errorf("%w: %v not in [%d, %d]", ErrInvalidPitch, o.pitch, MinPitch, MaxPitch)
	}
	return nil
}

// WithImage sets the source image: a file path, an http(s) URL, or a path
// inside the filesystem given to WithImageFS. Without an image the renderer
// draws from a blank placeholder texture.
func WithImage(src string) Option {
	return func(o *options) {
		o.imageSource = src
	}
}

// WithImageFS reads image paths from fsys instead of the OS filesystem.
func WithImageFS(fsys fs.FS) Option {
	return func(o *options) {
		o.imageLoader = &SourceLoader{FS: fsys}
	}
}

// WithImageLoader replaces the image loader entirely. A nil loader keeps
// the default.
func WithImageLoader(l ImageLoader) Option {
	return func(o *options) {
		if l != nil {
			o.imageLoader = l
		}
	}
}

// WithShaderCache shares a program cache between renderers.
// Without it each renderer links into a private cache.
func WithShaderCache(c *shader.Cache) Option {
	return func(o *options) {
		o.shaderCache = c
	}
}

// WithShaderLoader sets where program sources are fetched from. A nil
// loader keeps the embedded sources.
func WithShaderLoader(l *shader.Loader) Option {
	return func(o *options) {
		if l != nil {
			o.shaderLoader = l
		}
	}
}

// WithShaderPaths overrides the vertex and fragment source paths passed to
// the shader loader.
func WithShaderPaths(vertex, fragment string) Option {
	return func(o *options) {
		o.vertexPath = vertex
		o.fragmentPath = fragment
	}
}

// WithWindow attaches a window. Its size times its scale factor is the
// default resolution, and pointer events are mapped against its size.
func WithWindow(w gpucontext.WindowProvider) Option {
	return func(o *options) {
		o.window = w
	}
}

// WithPitch sets the dot pitch in device pixels: the maximum dot diameter
// and the grid spacing. Valid range is [MinPitch, MaxPitch].
func WithPitch(px float64) Option {
	return func(o *options) {
		o.pitch = px
	}
}

// WithColors overrides the dark, mid and light sprite tints.
func WithColors(dark, mid, light gg.RGBA) Option {
	return func(o *options) {
		o.colors = [3]gg.RGBA{dark, mid, light}
	}
}

// WithPointerOverlay enables the radial pointer overlay on the working
// texture.
func WithPointerOverlay(enabled bool) Option {
	return func(o *options) {
		o.overlay = enabled
	}
}

// WithResolution sets the initial resolution. It is equivalent to calling
// SetResolution right after New.
func WithResolution(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}
