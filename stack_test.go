package halftone

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeLayer is a layer with a fixed snapshot result.
type fakeLayer struct {
	name string
	img  *image.RGBA
	err  error
}

func (l *fakeLayer) Snapshot() (*image.RGBA, error) { return l.img, l.err }

func names(s *Stack) []string {
	var out []string
	for _, l := range s.Layers() {
		out = append(out, l.(*fakeLayer).name)
	}
	return out
}

func TestStackOrdering(t *testing.T) {
	a, b, c := &fakeLayer{name: "a"}, &fakeLayer{name: "b"}, &fakeLayer{name: "c"}
	s := NewStack()
	s.Append(a)
	s.Append(b)
	s.Prepend(c)
	if diff := cmp.Diff([]string{"c", "a", "b"}, names(s)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	// Re-adding moves instead of duplicating.
	s.Append(c)
	if diff := cmp.Diff([]string{"a", "b", "c"}, names(s)); diff != "" {
		t.Errorf("order after move mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}

	if !s.Remove(b) {
		t.Error("Remove(b) = false, want true")
	}
	if s.Remove(b) {
		t.Error("second Remove(b) = true, want false")
	}
	if diff := cmp.Diff([]string{"a", "c"}, names(s)); diff != "" {
		t.Errorf("order after remove mismatch (-want +got):\n%s", diff)
	}
}

func TestStackComposite(t *testing.T) {
	red := solidImage(4, 4, color.RGBA{255, 0, 0, 255})
	half := image.NewRGBA(image.Rect(0, 0, 4, 4))
	half.SetRGBA(1, 1, color.RGBA{0, 0, 128, 128})

	s := NewStack()
	s.Append(&fakeLayer{name: "bottom", img: red})
	s.Append(&fakeLayer{name: "pending", err: ErrNotReady})
	s.Append(&fakeLayer{name: "top", img: half})

	got, err := s.Composite(4, 4)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	if c := got.RGBAAt(0, 0); c != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel (0,0) = %v, want red", c)
	}
	// 50% blue over red.
	if c := got.RGBAAt(1, 1); c.A != 255 || c.B != 128 || c.R < 126 || c.R > 128 {
		t.Errorf("pixel (1,1) = %v, want blend of blue over red", c)
	}
}

func TestStackCompositeError(t *testing.T) {
	boom := errors.New("boom")
	s := NewStack()
	s.Append(&fakeLayer{name: "broken", err: boom})
	if _, err := s.Composite(2, 2); !errors.Is(err, boom) {
		t.Errorf("Composite() error = %v, want %v", err, boom)
	}
}
