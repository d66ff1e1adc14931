// Package overlay turns tracker output into drawing primitives for the annotated video.
// Painting itself happens in the OpenCV adapter so this package does not depend on cgo.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/LdDl/eeltrack/mot"
)

var (
	ContourColor = color.RGBA{0, 0, 255, 0}
	TrackColor   = color.RGBA{255, 0, 0, 0}
	TextColor    = color.RGBA{255, 255, 255, 0}
	EelColor     = color.RGBA{0, 255, 0, 0}
)

const (
	// EelLabel is printed under the bounding box of every confirmed track
	EelLabel   = "Anguille"
	FontScale  = 0.5
	labelGap   = 5
	idOffsetX  = 10
	dotRadius  = 3
	boxOutline = 2
)

// ContourThickness is line width of detection outlines
const ContourThickness = 2

// TextMeasurer returns size of the text rendered with the given scale and thickness.
// Y component is the height above the baseline.
type TextMeasurer func(text string, scale float64, thickness int) image.Point

type Circle struct {
	Center image.Point
	Radius int
	Color  color.RGBA
	// Negative means filled
	Thickness int
}

type Text struct {
	Text      string
	Origin    image.Point
	Scale     float64
	Color     color.RGBA
	Thickness int
}

type Box struct {
	Rect      image.Rectangle
	Color     color.RGBA
	Thickness int
}

// Scene is everything drawn on top of a single frame
type Scene struct {
	Contours         [][]image.Point
	ContourColor     color.RGBA
	ContourThickness int
	Circles          []Circle
	Texts            []Text
	Boxes            []Box
}

// Empty reports whether there is nothing to draw
func (s Scene) Empty() bool {
	return len(s.Contours) == 0 && len(s.Circles) == 0 && len(s.Texts) == 0 && len(s.Boxes) == 0
}

// IDLabel is the text put next to the track center
func IDLabel(id int) string {
	return fmt.Sprintf("id :%d", id)
}

// IDLabelOrigin places identifier label right of the track center
func IDLabelOrigin(center image.Point) image.Point {
	return center.Add(image.Pt(idOffsetX, 0))
}

// LabelOrigin centers text horizontally under the box, baseline sits labelGap pixels below text top
func LabelOrigin(box image.Rectangle, textSize image.Point) image.Point {
	return image.Pt(
		box.Min.X+(box.Dx()-textSize.X)/2,
		box.Max.Y+textSize.Y+labelGap,
	)
}

// Compose builds the overlay for a processed frame.
// contours are outlines of accepted detections, detections is what has been passed to the tracker.
func Compose(contours [][]image.Point, detections []mot.Detection, result mot.FrameResult, measure TextMeasurer) Scene {
	scene := Scene{
		Contours:         contours,
		ContourColor:     ContourColor,
		ContourThickness: ContourThickness,
		Circles:          make([]Circle, 0, len(result.Updates)),
		Texts:            make([]Text, 0, len(result.Updates)),
	}
	for _, update := range result.Updates {
		center := update.Track.Position.ImagePoint()
		scene.Circles = append(scene.Circles, Circle{Center: center, Radius: dotRadius, Color: TrackColor, Thickness: -1})
		scene.Texts = append(scene.Texts, Text{
			Text:      IDLabel(update.Track.ID),
			Origin:    IDLabelOrigin(center),
			Scale:     FontScale,
			Color:     TextColor,
			Thickness: 1,
		})
		if !update.Confirmed || update.IsNew {
			continue
		}
		if update.DetectionIndex < 0 || update.DetectionIndex >= len(detections) {
			continue
		}
		rect := detections[update.DetectionIndex].BBox.BoundingRect().ImageRect()
		scene.Boxes = append(scene.Boxes, Box{Rect: rect, Color: EelColor, Thickness: boxOutline})
		size := image.Point{}
		if measure != nil {
			size = measure(EelLabel, FontScale, 1)
		}
		scene.Texts = append(scene.Texts, Text{
			Text:      EelLabel,
			Origin:    LabelOrigin(rect, size),
			Scale:     FontScale,
			Color:     EelColor,
			Thickness: 1,
		})
	}
	return scene
}
