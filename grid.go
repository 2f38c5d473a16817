package halftone

import "math"

// Point is a grid position in device pixels with the origin at the top-left
// corner of the target.
type Point struct {
	X, Y float64
}

// GridDims returns the number of rows and columns Generate emits for the
// given resolution and spacing.
//
// Columns step by half the spacing, so a grid is twice as dense
// horizontally as it is vertically.
func GridDims(width, height int, spacing float64) (rows, cols int) {
	if width < 0 || height < 0 || !(spacing > 0) {
		return 0, 0
	}
	rows = int(math.Ceil(float64(height)/spacing + 1))
	cols = int(math.Ceil(float64(width)/(spacing/2) + 1))
	return rows, cols
}

// Generate returns the staggered point grid covering width×height.
//
// Point (row r, column c) sits at (c*spacing/2, r*spacing + (c%2)*spacing/2):
// odd columns are pushed down by half a row. Points are ordered row-major.
func Generate(width, height int, spacing float64) []Point {
	rows, cols := GridDims(width, height, spacing)
	if rows == 0 || cols == 0 {
		return nil
	}
	half := spacing / 2
	points := make([]Point, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			points = append(points, Point{
				X: float64(c) * half,
				Y: float64(r)*spacing + float64(c%2)*half,
			})
		}
	}
	return points
}

// Flatten interleaves points into x, y float32 pairs for upload.
func Flatten(points []Point) []float32 {
	out := make([]float32, 0, len(points)*2)
	for _, p := range points {
		out = append(out, float32(p.X), float32(p.Y))
	}
	return out
}
