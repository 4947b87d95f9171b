package ai

// Decoder turns raw network outputs into detections above a confidence floor.
type Decoder struct {
	ConfidenceThreshold float32
}

// NewDecoder creates a Decoder; cells scoring at or below threshold are dropped.
func NewDecoder(threshold float64) Decoder {
	return Decoder{ConfidenceThreshold: float32(threshold)}
}

// Decode scales every cell whose best class score beats the floor to the frame
// size. Cells are visited layer by layer in order, which fixes detection indices.
func (d Decoder) Decode(outputs []Output, width, height int) []Detection {
	var detections []Detection

	for _, out := range outputs {
		if out.Cols <= 5 {
			continue
		}
		for i := 0; i < out.Rows; i++ {
			cell := out.Row(i)
			classID, confidence := argmax(cell[5:])
			if confidence <= d.ConfidenceThreshold {
				continue
			}

			centerX := int(cell[0] * float32(width))
			centerY := int(cell[1] * float32(height))
			w := max(int(cell[2]*float32(width)), 0)
			h := max(int(cell[3]*float32(height)), 0)

			detections = append(detections, Detection{
				Box: BoundingBox{
					X:      int(float64(centerX) - float64(w)/2),
					Y:      int(float64(centerY) - float64(h)/2),
					Width:  w,
					Height: h,
				},
				ClassID:    classID,
				Confidence: confidence,
			})
		}
	}

	return detections
}

// argmax returns the first index of the largest score.
func argmax(scores []float32) (int, float32) {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best, scores[best]
}
