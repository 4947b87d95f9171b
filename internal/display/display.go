// Package display shows the annotated camera feed in a desktop window.
package display

import (
	"context"
	"weaponcam/internal/apperr"
	"weaponcam/internal/logger"
	"weaponcam/internal/metrics"
	"weaponcam/internal/service/ai"

	"gocv.io/x/gocv"
)

// EscKey is the key code that closes the window.
const EscKey = 27

// Window is the part of a desktop window the loop needs.
type Window interface {
	Show(frame gocv.Mat)
	WaitKey(delayMs int) int
	Close() error
}

// Frames yields annotated frames; *pipeline.Pipeline satisfies it.
type Frames interface {
	NextFrame(dst *gocv.Mat) ([]ai.Detection, error)
}

type gocvWindow struct {
	w *gocv.Window
}

// NewWindow opens an OpenCV window with the given title.
func NewWindow(title string) Window {
	return &gocvWindow{w: gocv.NewWindow(title)}
}

func (g *gocvWindow) Show(frame gocv.Mat) {
	g.w.IMShow(frame)
}

func (g *gocvWindow) WaitKey(delayMs int) int {
	return g.w.WaitKey(delayMs)
}

func (g *gocvWindow) Close() error {
	return g.w.Close()
}

// Run shows frames until ESC is pressed or ctx is cancelled. Failed reads
// skip the frame but keep polling the keyboard; any other error ends the loop
// and is returned. The window is left open for the caller to close.
func Run(ctx context.Context, frames Frames, window Window, m *metrics.Metrics, logger *logger.Logger) error {
	if m == nil {
		m = metrics.New()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	for ctx.Err() == nil {
		_, err := frames.NextFrame(&frame)
		switch {
		case err == nil:
			window.Show(frame)
			m.FramesEmitted.Add(1)
		case apperr.IsTransient(err):
			m.FramesSkipped.Add(1)
		default:
			m.PipelineFailures.Add(1)
			logger.Error("An error occurred: %v", err)
			return err
		}

		if window.WaitKey(1) == EscKey {
			logger.Info("Stopping detection...")
			return nil
		}
	}

	logger.Info("Stopping detection...")
	return nil
}
