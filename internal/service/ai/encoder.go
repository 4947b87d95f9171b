package ai

import (
	"fmt"
	"weaponcam/internal/apperr"

	"gocv.io/x/gocv"
)

// Encoder serializes frames to JPEG.
type Encoder struct {
	Quality int
}

// Encode returns a copy of the JPEG bytes of frame. Failures wrap apperr.ErrEncode.
func (e Encoder) Encode(frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("%w: empty frame", apperr.ErrEncode)
	}

	var params []int
	if e.Quality > 0 {
		params = []int{gocv.IMWriteJpegQuality, e.Quality}
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrEncode, err)
	}
	defer buf.Close()

	encoded := make([]byte, buf.Len())
	copy(encoded, buf.GetBytes())
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%w: encoder produced no bytes", apperr.ErrEncode)
	}
	return encoded, nil
}
