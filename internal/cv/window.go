package cv

import (
	"gocv.io/x/gocv"
)

const keyEscape = 27

// Window shows annotated frames. ESC asks to stop processing.
type Window struct {
	w *gocv.Window
}

func NewWindow(name string) *Window {
	return &Window{w: gocv.NewWindow(name)}
}

// Show displays the frame and polls keyboard for 1ms. It returns true when ESC has been pressed.
func (w *Window) Show(img gocv.Mat) bool {
	w.w.IMShow(img)
	return w.w.WaitKey(1) == keyEscape
}

func (w *Window) Close() error {
	return w.w.Close()
}
