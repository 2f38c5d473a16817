package shader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Sentinel errors returned by this package.
var (
	// ErrCompile is returned when a program fails to parse, lower or validate.
	ErrCompile = errors.New("shader: compile failed")

	// ErrFetch is returned when a program source cannot be retrieved.
	ErrFetch = errors.New("shader: fetch failed")

	// ErrNameCollision is returned when a cache name is reused for a
	// different source pair.
	ErrNameCollision = errors.New("shader: name already registered with different sources")
)

// BindingKind identifies the resource type behind a (group, binding) slot.
type BindingKind uint8

const (
	// BindingUniform is a uniform buffer holding a struct or scalar.
	BindingUniform BindingKind = iota + 1
	// BindingTexture is a sampled 2D texture.
	BindingTexture
	// BindingSampler is a filtering sampler.
	BindingSampler
)

// String returns the WGSL-ish name of the kind.
func (k BindingKind) String() string {
	switch k {
	case BindingUniform:
		return "uniform"
	case BindingTexture:
		return "texture"
	case BindingSampler:
		return "sampler"
	default:
		return fmt.Sprintf("BindingKind(%d)", k)
	}
}

// Location addresses a named program input.
//
// For uniforms Offset and Size describe the byte range of the member inside
// the uniform buffer at (Group, Binding). For textures and samplers both are
// zero.
type Location struct {
	Group   uint32
	Binding uint32
	Offset  uint32
	Size    uint32
}

// Attribute is a per-vertex (or per-instance) input of the vertex stage.
type Attribute struct {
	Name       string
	Location   uint32
	Components uint32
}

// Binding is one resource slot of the program.
type Binding struct {
	Name    string
	Group   uint32
	Binding uint32
	Kind    BindingKind
	// Size is the byte span of a uniform block. Zero for other kinds.
	Size uint32
}

// Layout is the reflected interface of a linked program.
type Layout struct {
	Attributes map[string]Attribute
	Uniforms   map[string]Location
	Textures   map[string]Location
	Samplers   map[string]Location

	// Bindings lists every resource slot ordered by (Group, Binding).
	Bindings []Binding
}

// Groups returns the number of bind groups the program uses.
func (l *Layout) Groups() uint32 {
	var n uint32
	for _, b := range l.Bindings {
		if b.Group+1 > n {
			n = b.Group + 1
		}
	}
	return n
}

// GroupBindings returns the bindings of a single group.
func (l *Layout) GroupBindings(group uint32) []Binding {
	var out []Binding
	for _, b := range l.Bindings {
		if b.Group == group {
			out = append(out, b)
		}
	}
	return out
}

// Program is a linked vertex+fragment program.
type Program struct {
	Label         string
	Source        string
	VertexEntry   string
	FragmentEntry string
	Layout        Layout
}

// Attribute returns the attribute with the given argument name.
func (p *Program) Attribute(name string) (Attribute, bool) {
	a, ok := p.Layout.Attributes[name]
	return a, ok
}

// Uniform returns the location of a uniform struct member.
func (p *Program) Uniform(name string) (Location, bool) {
	loc, ok := p.Layout.Uniforms[name]
	return loc, ok
}

// Texture returns the location of a texture variable.
func (p *Program) Texture(name string) (Location, bool) {
	loc, ok := p.Layout.Textures[name]
	return loc, ok
}

// Link concatenates the vertex and fragment sources into one module,
// validates it and reflects its layout.
//
// The fragment source may refer to declarations made in the vertex source
// (typically the vertex output struct).
func Link(label, vertexSrc, fragmentSrc string) (*Program, error) {
	src := vertexSrc + "\n" + fragmentSrc

	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse: %v", ErrCompile, label, err)
	}
	mod, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: lower: %v", ErrCompile, label, err)
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: validate: %v", ErrCompile, label, err)
	}
	if len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for i := range verrs {
			msgs = append(msgs, verrs[i].Error())
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrCompile, label, strings.Join(msgs, "; "))
	}

	p := &Program{Label: label, Source: src}
	if err := reflectModule(mod, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, label, err)
	}
	return p, nil
}

func reflectModule(mod *ir.Module, p *Program) error {
	l := Layout{
		Attributes: make(map[string]Attribute),
		Uniforms:   make(map[string]Location),
		Textures:   make(map[string]Location),
		Samplers:   make(map[string]Location),
	}

	for i := range mod.GlobalVariables {
		gv := &mod.GlobalVariables[i]
		if gv.Binding == nil {
			continue
		}
		group, binding := gv.Binding.Group, gv.Binding.Binding
		if int(gv.Type) >= len(mod.Types) {
			return fmt.Errorf("global %q: type handle %d out of range", gv.Name, gv.Type)
		}
		inner := mod.Types[gv.Type].Inner

		switch gv.Space {
		case ir.SpaceUniform:
			span := typeSize(inner)
			if st, ok := inner.(ir.StructType); ok {
				span = st.Span
				for _, m := range st.Members {
					if isPadding(m.Name) {
						continue
					}
					if _, dup := l.Uniforms[m.Name]; dup {
						return fmt.Errorf("uniform %q declared twice", m.Name)
					}
					l.Uniforms[m.Name] = Location{
						Group:   group,
						Binding: binding,
						Offset:  m.Offset,
						Size:    typeSize(mod.Types[m.Type].Inner),
					}
				}
			} else {
				l.Uniforms[gv.Name] = Location{Group: group, Binding: binding, Size: span}
			}
			l.Bindings = append(l.Bindings, Binding{
				Name: gv.Name, Group: group, Binding: binding, Kind: BindingUniform, Size: span,
			})
		case ir.SpaceHandle:
			switch inner.(type) {
			case ir.ImageType:
				l.Textures[gv.Name] = Location{Group: group, Binding: binding}
				l.Bindings = append(l.Bindings, Binding{
					Name: gv.Name, Group: group, Binding: binding, Kind: BindingTexture,
				})
			case ir.SamplerType:
				l.Samplers[gv.Name] = Location{Group: group, Binding: binding}
				l.Bindings = append(l.Bindings, Binding{
					Name: gv.Name, Group: group, Binding: binding, Kind: BindingSampler,
				})
			}
		}
	}

	sort.Slice(l.Bindings, func(i, j int) bool {
		if l.Bindings[i].Group != l.Bindings[j].Group {
			return l.Bindings[i].Group < l.Bindings[j].Group
		}
		return l.Bindings[i].Binding < l.Bindings[j].Binding
	})

	for i := range mod.EntryPoints {
		ep := &mod.EntryPoints[i]
		switch ep.Stage {
		case ir.StageVertex:
			if p.VertexEntry != "" {
				continue
			}
			p.VertexEntry = ep.Name
			for _, arg := range ep.Function.Arguments {
				if arg.Binding == nil {
					continue
				}
				loc, ok := (*arg.Binding).(ir.LocationBinding)
				if !ok {
					continue
				}
				l.Attributes[arg.Name] = Attribute{
					Name:       arg.Name,
					Location:   loc.Location,
					Components: components(mod.Types[arg.Type].Inner),
				}
			}
		case ir.StageFragment:
			if p.FragmentEntry == "" {
				p.FragmentEntry = ep.Name
			}
		}
	}
	if p.VertexEntry == "" {
		return errors.New("no vertex entry point")
	}
	if p.FragmentEntry == "" {
		return errors.New("no fragment entry point")
	}

	p.Layout = l
	return nil
}

// isPadding reports whether a struct member only pads a uniform block to
// its alignment, such as pad0 or pad12.
func isPadding(name string) bool {
	digits := strings.TrimPrefix(name, "pad")
	if digits == name || digits == "" {
		return false
	}
	return strings.Trim(digits, "0123456789") == ""
}

func typeSize(inner ir.TypeInner) uint32 {
	switch t := inner.(type) {
	case ir.ScalarType:
		return uint32(t.Width)
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width)
	case ir.StructType:
		return t.Span
	case ir.ArrayType:
		if t.Size.Constant != nil {
			return t.Stride * *t.Size.Constant
		}
	}
	return 0
}

func components(inner ir.TypeInner) uint32 {
	switch t := inner.(type) {
	case ir.ScalarType:
		return 1
	case ir.VectorType:
		return uint32(t.Size)
	}
	return 0
}
