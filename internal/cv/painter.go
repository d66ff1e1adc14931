package cv

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/LdDl/eeltrack/overlay"
)

const font = gocv.FontHersheySimplex

// MeasureText is overlay.TextMeasurer backed by OpenCV font metrics
func MeasureText(text string, scale float64, thickness int) image.Point {
	return gocv.GetTextSize(text, font, scale, thickness)
}

// Paint draws the scene onto img in place
func Paint(img *gocv.Mat, scene overlay.Scene) {
	if len(scene.Contours) > 0 {
		pv := gocv.NewPointsVectorFromPoints(scene.Contours)
		gocv.DrawContours(img, pv, -1, scene.ContourColor, scene.ContourThickness)
		pv.Close()
	}
	for _, c := range scene.Circles {
		gocv.Circle(img, c.Center, c.Radius, c.Color, c.Thickness)
	}
	for _, b := range scene.Boxes {
		gocv.Rectangle(img, b.Rect, b.Color, b.Thickness)
	}
	for _, t := range scene.Texts {
		gocv.PutText(img, t.Text, t.Origin, font, t.Scale, t.Color, t.Thickness)
	}
}

// VideoOutput paints the scene and appends the frame to the video file
type VideoOutput struct {
	Writer *Writer
}

func (o VideoOutput) Write(frame gocv.Mat, scene overlay.Scene) error {
	Paint(&frame, scene)
	if o.Writer == nil {
		return nil
	}
	return o.Writer.Write(frame)
}
