package ai

import (
	"image"
	"image/color"
	"math/rand"
)

// BoundingBox is a pixel rectangle with a top-left origin.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Area is width times height.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Detection is one candidate object found in a frame.
type Detection struct {
	Box        BoundingBox `json:"box"`
	ClassID    int         `json:"class_id"`
	Confidence float32     `json:"confidence"`
}

// ClassCatalog maps class ids to labels.
type ClassCatalog []string

// Label returns the label for id, or a placeholder for ids outside the catalog.
func (c ClassCatalog) Label(id int) string {
	if id >= 0 && id < len(c) {
		return c[id]
	}
	return "unknown"
}

// ColorTable holds one display color per class index.
type ColorTable []color.RGBA

// NewColorTable draws n uniformly random colors from rng.
func NewColorTable(n int, rng *rand.Rand) ColorTable {
	colors := make(ColorTable, n)
	for i := range colors {
		colors[i] = color.RGBA{
			R: uint8(rng.Intn(256)),
			G: uint8(rng.Intn(256)),
			B: uint8(rng.Intn(256)),
			A: 0,
		}
	}
	return colors
}

// Color returns the color for a class, cycling when the table is short.
func (t ColorTable) Color(classID int) color.RGBA {
	if len(t) == 0 {
		return color.RGBA{R: 255}
	}
	if classID < 0 {
		classID = -classID
	}
	return t[classID%len(t)]
}
