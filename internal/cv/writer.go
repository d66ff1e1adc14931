package cv

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Writer encodes annotated frames to a video file
type Writer struct {
	vw   *gocv.VideoWriter
	path string
}

// OpenWriter creates video file with given codec (FourCC), fps and frame size
func OpenWriter(path, codec string, fps float64, width, height int) (*Writer, error) {
	vw, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't create video file '%s'", path)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, errors.Errorf("Can't create video file '%s'", path)
	}
	return &Writer{vw: vw, path: path}, nil
}

func (w *Writer) Write(img gocv.Mat) error {
	if err := w.vw.Write(img); err != nil {
		return errors.Wrapf(err, "Can't write frame to '%s'", w.path)
	}
	return nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Close() error {
	return w.vw.Close()
}
