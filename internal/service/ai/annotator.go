package ai

import (
	"fmt"
	"image"
	"weaponcam/internal/logger"

	"gocv.io/x/gocv"
)

const (
	boxThickness   = 2
	labelFontScale = 2
	labelThickness = 2
	labelOffsetY   = 30
)

// Annotator draws detections onto frames in place.
type Annotator struct {
	classes ClassCatalog
	colors  ColorTable
	logger  *logger.Logger
}

// NewAnnotator creates an Annotator for a class catalog and its colors.
func NewAnnotator(classes ClassCatalog, colors ColorTable, logger *logger.Logger) *Annotator {
	return &Annotator{
		classes: classes,
		colors:  colors,
		logger:  logger,
	}
}

// Label formats the text drawn next to a detection.
func (a *Annotator) Label(d Detection) string {
	return fmt.Sprintf("%s %.2f", a.classes.Label(d.ClassID), d.Confidence)
}

// Annotate draws a box outline and a "label confidence" caption for each detection.
// With no detections the frame is left untouched.
func (a *Annotator) Annotate(frame *gocv.Mat, detections []Detection) error {
	for _, d := range detections {
		c := a.colors.Color(d.ClassID)

		if err := gocv.Rectangle(frame, d.Box.Rect(), c, boxThickness); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := a.Label(d)
		pt := image.Pt(d.Box.X, d.Box.Y+labelOffsetY)
		if err := gocv.PutText(frame, label, pt, gocv.FontHersheyPlain, labelFontScale, c, labelThickness); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}

		a.logger.Info("Detected %s with confidence %.2f", a.classes.Label(d.ClassID), d.Confidence)
	}
	return nil
}
