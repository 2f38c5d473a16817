package shader

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func builtinSources(t *testing.T) (string, string) {
	t.Helper()
	vs, err := BuiltinFS.ReadFile(HalftoneVertexPath)
	if err != nil {
		t.Fatalf("read vertex source: %v", err)
	}
	fs, err := BuiltinFS.ReadFile(HalftoneFragmentPath)
	if err != nil {
		t.Fatalf("read fragment source: %v", err)
	}
	return string(vs), string(fs)
}

func TestLinkBuiltinReflectsContract(t *testing.T) {
	vs, fs := builtinSources(t)
	p, err := Link("halftone", vs, fs)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	if p.VertexEntry != "vs_main" || p.FragmentEntry != "fs_main" {
		t.Errorf("entries = %q/%q, want vs_main/fs_main", p.VertexEntry, p.FragmentEntry)
	}

	wantAttrs := map[string]Attribute{
		"position": {Name: "position", Location: 0, Components: 2},
	}
	if diff := cmp.Diff(wantAttrs, p.Layout.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}

	uniforms := []struct {
		name   string
		group  uint32
		offset uint32
		size   uint32
	}{
		{"resolution", 0, 0, 8},
		{"minSize", 0, 8, 4},
		{"maxSize", 0, 12, 4},
		{"imageSize", 0, 16, 4},
		{"lowThreshold", 1, 0, 4},
		{"highThreshold", 1, 4, 4},
	}
	for _, u := range uniforms {
		t.Run(u.name, func(t *testing.T) {
			loc, ok := p.Uniform(u.name)
			if !ok {
				t.Fatalf("uniform %q not reflected", u.name)
			}
			if loc.Group != u.group || loc.Binding != 0 || loc.Offset != u.offset || loc.Size != u.size {
				t.Errorf("uniform %q = %+v, want group %d binding 0 offset %d size %d",
					u.name, loc, u.group, u.offset, u.size)
			}
		})
	}

	for _, name := range []string{"pad0", "pad1", "pad2"} {
		if _, ok := p.Uniform(name); ok {
			t.Errorf("padding member %q reflected as a uniform", name)
		}
	}

	for name, group := range map[string]uint32{"image": 0, "pointSprite": 1} {
		loc, ok := p.Texture(name)
		if !ok {
			t.Errorf("texture %q not reflected", name)
			continue
		}
		if loc.Group != group || loc.Binding != 1 {
			t.Errorf("texture %q = %+v, want (%d, 1)", name, loc, group)
		}
	}

	if got := p.Layout.Groups(); got != 2 {
		t.Errorf("Groups() = %d, want 2", got)
	}
	for g := uint32(0); g < 2; g++ {
		bs := p.Layout.GroupBindings(g)
		kinds := make([]BindingKind, len(bs))
		for i, b := range bs {
			kinds[i] = b.Kind
		}
		want := []BindingKind{BindingUniform, BindingTexture, BindingSampler}
		if diff := cmp.Diff(want, kinds); diff != "" {
			t.Errorf("group %d kinds mismatch (-want +got):\n%s", g, diff)
		}
	}
}

func TestLinkErrors(t *testing.T) {
	vs, _ := builtinSources(t)

	tests := []struct {
		name     string
		vertex   string
		fragment string
	}{
		{"syntax error", "fn broken( {", ""},
		{"missing fragment stage", vs, ""},
		{"undeclared identifier", vs, "@fragment fn fs_main() -> @location(0) vec4<f32> { return missing; }"},
		{"uniform member declared twice", vs, duplicateUniformFragment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Link("broken", tt.vertex, tt.fragment)
			if !errors.Is(err, ErrCompile) {
				t.Fatalf("Link error = %v, want ErrCompile", err)
			}
		})
	}
}

// duplicateUniformFragment redeclares the vertex stage's minSize in the
// layer block.
const duplicateUniformFragment = `
struct Extra {
    minSize: vec4<f32>,
}

@group(1) @binding(0) var<uniform> extra: Extra;

@fragment
fn fs_main(input: VertexOutput) -> @location(0) vec4<f32> {
    return extra.minSize * input.luminance;
}
`

func TestIsPadding(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"pad0", true},
		{"pad12", true},
		{"pad", false},
		{"padding", false},
		{"minSize", false},
		{"spad0", false},
	}
	for _, tt := range tests {
		if got := isPadding(tt.name); got != tt.want {
			t.Errorf("isPadding(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBindingKindString(t *testing.T) {
	tests := []struct {
		kind BindingKind
		want string
	}{
		{BindingUniform, "uniform"},
		{BindingTexture, "texture"},
		{BindingSampler, "sampler"},
		{BindingKind(9), "BindingKind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
