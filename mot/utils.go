package mot

import "math"

// Corners returns four vertices of the rotated rectangle
func (r RotatedRect) Corners() [4]Point {
	rad := r.Angle * math.Pi / 180.0
	cos := math.Cos(rad) * 0.5
	sin := math.Sin(rad) * 0.5

	// Same vertex order as OpenCV's RotatedRect::points
	var pts [4]Point
	pts[0].X = r.Center.X - sin*r.Height - cos*r.Width
	pts[0].Y = r.Center.Y + cos*r.Height - sin*r.Width
	pts[1].X = r.Center.X + sin*r.Height - cos*r.Width
	pts[1].Y = r.Center.Y - cos*r.Height - sin*r.Width
	pts[2].X = 2*r.Center.X - pts[0].X
	pts[2].Y = 2*r.Center.Y - pts[0].Y
	pts[3].X = 2*r.Center.X - pts[1].X
	pts[3].Y = 2*r.Center.Y - pts[1].Y
	return pts
}

// BoundingRect returns axis-aligned rectangle enclosing all corners
func (r RotatedRect) BoundingRect() Rectangle {
	pts := r.Corners()
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, pt := range pts[1:] {
		minX = minFloat64(minX, pt.X)
		minY = minFloat64(minY, pt.Y)
		maxX = maxFloat64(maxX, pt.X)
		maxY = maxFloat64(maxY, pt.Y)
	}
	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Area returns width*height
func (r RotatedRect) Area() float64 {
	return r.Width * r.Height
}

// AspectRatio returns short side divided by long side, so it is always in [0, 1].
// A degenerate rectangle (both sides zero) reports 1, i.e. "not elongated".
func (r RotatedRect) AspectRatio() float64 {
	long := maxFloat64(r.Width, r.Height)
	if long <= 0 {
		return 1.0
	}
	return minFloat64(r.Width, r.Height) / long
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
