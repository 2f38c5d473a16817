package halftone

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGridDims(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		spacing       float64
		rows, cols    int
	}{
		{"small", 64, 48, 12, 5, 12},
		{"exact multiple", 60, 48, 12, 5, 11},
		{"default viewport", 1280, 720, 12, 61, 215},
		{"wide pitch", 1280, 720, 16, 46, 161},
		{"empty target", 0, 0, 12, 1, 1},
		{"zero spacing", 64, 48, 0, 0, 0},
		{"negative size", -1, 48, 12, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, cols := GridDims(tt.width, tt.height, tt.spacing)
			if rows != tt.rows || cols != tt.cols {
				t.Errorf("GridDims(%d, %d, %v) = %d, %d, want %d, %d",
					tt.width, tt.height, tt.spacing, rows, cols, tt.rows, tt.cols)
			}
			if got := len(Generate(tt.width, tt.height, tt.spacing)); got != tt.rows*tt.cols {
				t.Errorf("len(Generate()) = %d, want %d", got, tt.rows*tt.cols)
			}
		})
	}
}

func TestGenerateStagger(t *testing.T) {
	got := Generate(12, 6, 12)
	// 2 rows of 3 columns; odd columns sit half a row lower.
	want := []Point{
		{0, 0}, {6, 6}, {12, 0},
		{0, 12}, {6, 18}, {12, 12},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(333, 217, 14)
	b := Generate(333, 217, 14)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Generate() not deterministic (-first +second):\n%s", diff)
	}
}

func TestGenerateCoversTarget(t *testing.T) {
	const w, h, spacing = 100, 70, 12.0
	var maxX, maxY float64
	for _, p := range Generate(w, h, spacing) {
		if p.X < 0 || p.Y < 0 {
			t.Fatalf("point %v has a negative coordinate", p)
		}
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	if maxX < w || maxY < h {
		t.Errorf("grid reaches (%v, %v), want at least (%d, %d)", maxX, maxY, w, h)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten([]Point{{1, 2}, {3.5, 4.25}})
	want := []float32{1, 2, 3.5, 4.25}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("Flatten(nil) = %v, want empty", got)
	}
}
