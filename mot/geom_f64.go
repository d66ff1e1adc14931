package mot

import (
	"image"
	"math"
)

// Rectangle is axis-aligned box in pixel coordinates
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// ImageRect returns pixel rectangle covering r, both floor and ceil edges included.
// Same as OpenCV RotatedRect::boundingRect: width is ceil(maxX)-floor(minX)+1.
func (r Rectangle) ImageRect() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width))+1,
		int(math.Ceil(r.Y+r.Height))+1,
	)
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// ImagePoint rounds p to the nearest pixel
func (p Point) ImagePoint() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// RotatedRect is an oriented rectangle. Angle is in degrees, clockwise in image coordinates.
type RotatedRect struct {
	Center Point
	Width  float64
	Height float64
	Angle  float64
}

func NewRotatedRect(center Point, width, height, angle float64) RotatedRect {
	return RotatedRect{
		Center: center,
		Width:  width,
		Height: height,
		Angle:  angle,
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(float64(p1.X-p2.X), 2) + math.Pow(float64(p1.Y-p2.Y), 2))
}

// Distance returns euclidean distance between two points
func Distance(p1, p2 Point) float64 {
	return euclideanDistance(p1, p2)
}
