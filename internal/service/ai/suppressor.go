package ai

import (
	"image"
	"sort"
	"weaponcam/internal/config"

	"gocv.io/x/gocv"
)

// Suppressor removes overlapping duplicates and returns the surviving detections
// in the order the suppression routine selected them.
type Suppressor interface {
	Suppress(detections []Detection) []Detection
}

// TieBreak orders two candidates with equal confidence; it reports whether
// detection i should be visited before detection j.
type TieBreak func(detections []Detection, i, j int) bool

// TieBreakFirstSeen visits the earlier decoded detection first.
func TieBreakFirstSeen(_ []Detection, i, j int) bool {
	return i < j
}

// TieBreakLargerArea visits the larger box first, then the earlier one.
func TieBreakLargerArea(detections []Detection, i, j int) bool {
	ai, aj := detections[i].Box.Area(), detections[j].Box.Area()
	if ai != aj {
		return ai > aj
	}
	return i < j
}

// GreedySuppressor is classic greedy NMS: visit candidates by descending
// confidence and drop any whose IoU with an already kept box reaches the
// overlap threshold.
type GreedySuppressor struct {
	ScoreThreshold float32
	NMSThreshold   float64
	TieBreak       TieBreak
}

// Suppress implements Suppressor.
func (s GreedySuppressor) Suppress(detections []Detection) []Detection {
	tieBreak := s.TieBreak
	if tieBreak == nil {
		tieBreak = TieBreakFirstSeen
	}

	order := make([]int, 0, len(detections))
	for i, d := range detections {
		if d.Confidence > s.ScoreThreshold {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if detections[i].Confidence != detections[j].Confidence {
			return detections[i].Confidence > detections[j].Confidence
		}
		return tieBreak(detections, i, j)
	})

	var kept []Detection
	for _, i := range order {
		suppressed := false
		for _, k := range kept {
			if IoU(detections[i].Box, k.Box) >= s.NMSThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, detections[i])
		}
	}
	return kept
}

// OpenCVSuppressor delegates to the OpenCV DNN NMSBoxes routine. Ties are
// resolved however OpenCV orders them.
type OpenCVSuppressor struct {
	ScoreThreshold float32
	NMSThreshold   float32
}

// Suppress implements Suppressor.
func (s OpenCVSuppressor) Suppress(detections []Detection) []Detection {
	if len(detections) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(detections))
	scores := make([]float32, len(detections))
	for i, d := range detections {
		boxes[i] = d.Box.Rect()
		scores[i] = d.Confidence
	}

	indices := gocv.NMSBoxes(boxes, scores, s.ScoreThreshold, s.NMSThreshold)

	kept := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(detections) {
			kept = append(kept, detections[idx])
		}
	}
	return kept
}

// NewSuppressor builds the suppressor selected by the configuration.
func NewSuppressor(cfg *config.Config) Suppressor {
	if cfg.NMSMethod == config.NMSMethodGreedy {
		tieBreak := TieBreakFirstSeen
		if cfg.NMSTieBreak == config.TieBreakArea {
			tieBreak = TieBreakLargerArea
		}
		return GreedySuppressor{
			ScoreThreshold: float32(cfg.ScoreThreshold),
			NMSThreshold:   cfg.NMSThreshold,
			TieBreak:       tieBreak,
		}
	}
	return OpenCVSuppressor{
		ScoreThreshold: float32(cfg.ScoreThreshold),
		NMSThreshold:   float32(cfg.NMSThreshold),
	}
}

// IoU is the intersection-over-union of two boxes; 0 when either is empty.
func IoU(a, b BoundingBox) float64 {
	inter := a.Rect().Intersect(b.Rect())
	interArea := inter.Dx() * inter.Dy()
	union := a.Area() + b.Area() - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}
