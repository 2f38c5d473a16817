package halftone

import (
	"errors"
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// Layer is a source of composited pixels.
type Layer interface {
	// Snapshot returns the current pixels of the layer. ErrNotReady means
	// the layer has nothing to show yet.
	Snapshot() (*image.RGBA, error)
}

// Stack is an ordered set of layers. The first layer is the bottom one.
//
// A Stack is safe for concurrent use.
type Stack struct {
	mu     sync.Mutex
	layers []Layer
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Append puts l on top of the stack. A layer already present is moved.
func (s *Stack) Append(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(l)
	s.layers = append(s.layers, l)
}

// Prepend puts l at the bottom of the stack. A layer already present is
// moved.
func (s *Stack) Prepend(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(l)
	s.layers = append([]Layer{l}, s.layers...)
}

// Remove takes l out of the stack. It reports whether l was present.
func (s *Stack) Remove(l Layer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(l)
}

func (s *Stack) remove(l Layer) bool {
	for i, x := range s.layers {
		if x == l {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return true
		}
	}
	return false
}

// Layers returns the layers bottom to top.
func (s *Stack) Layers() []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}

// Composite draws every layer bottom to top with source-over onto a
// transparent width×height image. Layers that are not ready are skipped.
func (s *Stack) Composite(width, height int) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for _, l := range s.Layers() {
		img, err := l.Snapshot()
		if errors.Is(err, ErrNotReady) {
			continue
		}
		if err != nil {
			return nil, err
		}
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	}
	return dst, nil
}
