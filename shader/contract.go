package shader

import "fmt"

// Names the halftone renderer resolves in its program. A replacement
// program must declare all of them.
const (
	AttrPosition = "position"

	UniformResolution = "resolution"
	UniformMinSize    = "minSize"
	UniformMaxSize    = "maxSize"
	UniformImageSize  = "imageSize"
	UniformLow        = "lowThreshold"
	UniformHigh       = "highThreshold"

	TextureImage  = "image"
	TexturePoint  = "pointSprite"
	SamplerImage  = "imageSampler"
	SamplerSprite = "spriteSampler"
)

// Locations is the resolved halftone interface of a program.
type Locations struct {
	Position   Attribute
	Resolution Location
	MinSize    Location
	MaxSize    Location
	ImageSize  Location
	Low        Location
	High       Location
	Image      Location
	Sprite     Location
}

// Resolve looks up every halftone input of p. A missing name is an error.
func Resolve(p *Program) (Locations, error) {
	var locs Locations
	var ok bool

	if locs.Position, ok = p.Attribute(AttrPosition); !ok {
		return locs, fmt.Errorf("%s: missing attribute %q", p.Label, AttrPosition)
	}
	uniforms := []struct {
		name string
		dst  *Location
	}{
		{UniformResolution, &locs.Resolution},
		{UniformMinSize, &locs.MinSize},
		{UniformMaxSize, &locs.MaxSize},
		{UniformImageSize, &locs.ImageSize},
		{UniformLow, &locs.Low},
		{UniformHigh, &locs.High},
	}
	for _, u := range uniforms {
		if *u.dst, ok = p.Uniform(u.name); !ok {
			return locs, fmt.Errorf("%s: missing uniform %q", p.Label, u.name)
		}
	}
	if locs.Image, ok = p.Texture(TextureImage); !ok {
		return locs, fmt.Errorf("%s: missing texture %q", p.Label, TextureImage)
	}
	if locs.Sprite, ok = p.Texture(TexturePoint); !ok {
		return locs, fmt.Errorf("%s: missing texture %q", p.Label, TexturePoint)
	}
	return locs, nil
}
