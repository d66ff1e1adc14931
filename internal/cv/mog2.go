package cv

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/LdDl/eeltrack/detect"
	"github.com/LdDl/eeltrack/internal/config"
	"github.com/LdDl/eeltrack/mot"
)

// MOG2Detector extracts moving elongated blobs with Gaussian mixture background subtraction.
// Steps: grayscale, blur, MOG2, opening, closing, external contours, shape filter.
type MOG2Detector struct {
	subtractor  gocv.BackgroundSubtractorMOG2
	filter      detect.ShapeFilter
	blurKernel  image.Point
	blurSigma   float64
	openKernel  gocv.Mat
	closeKernel gocv.Mat
	gray        gocv.Mat
	blurred     gocv.Mat
	mask        gocv.Mat
}

func NewMOG2Detector(cfg config.DetectorConfig) *MOG2Detector {
	return &MOG2Detector{
		subtractor:  gocv.NewBackgroundSubtractorMOG2WithParams(cfg.History, cfg.VarThreshold, cfg.DetectShadows),
		filter:      detect.NewShapeFilter(cfg),
		blurKernel:  image.Pt(cfg.BlurKernel, cfg.BlurKernel),
		blurSigma:   cfg.BlurSigma,
		openKernel:  gocv.GetStructuringElement(gocv.MorphRect, image.Pt(cfg.OpenKernel, cfg.OpenKernel)),
		closeKernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(cfg.CloseKernel, cfg.CloseKernel)),
		gray:        gocv.NewMat(),
		blurred:     gocv.NewMat(),
		mask:        gocv.NewMat(),
	}
}

// Detect returns accepted detections and their contours, both in contour enumeration order
func (d *MOG2Detector) Detect(frame gocv.Mat) ([]mot.Detection, [][]image.Point) {
	gocv.CvtColor(frame, &d.gray, gocv.ColorBGRToGray)
	gocv.GaussianBlur(d.gray, &d.blurred, d.blurKernel, d.blurSigma, d.blurSigma, gocv.BorderDefault)
	d.subtractor.Apply(d.blurred, &d.mask)
	gocv.MorphologyEx(d.mask, &d.mask, gocv.MorphOpen, d.openKernel)
	gocv.MorphologyEx(d.mask, &d.mask, gocv.MorphClose, d.closeKernel)

	contours := gocv.FindContours(d.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	candidates := make([]detect.Candidate, 0, contours.Size())
	outlines := make([][]image.Point, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		rect := gocv.MinAreaRect2f(contour)
		center := mot.NewPoint(float64(rect.Center.X), float64(rect.Center.Y))
		candidates = append(candidates, detect.Candidate{
			Area: gocv.ContourArea(contour),
			Box:  mot.NewRotatedRect(center, float64(rect.Width), float64(rect.Height), rect.Angle),
		})
		outlines = append(outlines, contour.ToPoints())
	}

	detections, accepted := d.filter.Screen(candidates)
	kept := make([][]image.Point, 0, len(accepted))
	for _, idx := range accepted {
		kept = append(kept, outlines[idx])
	}
	return detections, kept
}

func (d *MOG2Detector) Close() error {
	d.subtractor.Close()
	d.openKernel.Close()
	d.closeKernel.Close()
	d.gray.Close()
	d.blurred.Close()
	return d.mask.Close()
}
