package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
	"weaponcam/internal/apperr"
	"weaponcam/internal/logger"
	"weaponcam/internal/metrics"
	"weaponcam/internal/service/ai"

	"gocv.io/x/gocv"
)

// FrameSource yields raw frames; *capture.Source satisfies it.
type FrameSource interface {
	Read(dst *gocv.Mat) error
}

// Backend runs the detection network; *ai.Model satisfies it.
type Backend interface {
	Forward(frame gocv.Mat) ([]ai.Output, error)
}

// Observer receives serialized DetectionEvents; the websocket hub satisfies it.
type Observer interface {
	Broadcast(message []byte)
}

// DetectionEvent is published for every detection drawn on a frame.
type DetectionEvent struct {
	Label      string         `json:"label"`
	ClassID    int            `json:"class_id"`
	Confidence float32        `json:"confidence"`
	Box        ai.BoundingBox `json:"box"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Stages groups the per-frame processing steps.
type Stages struct {
	Decoder    ai.Decoder
	Suppressor ai.Suppressor
	Annotator  *ai.Annotator
	Encoder    ai.Encoder
	Classes    ai.ClassCatalog
}

// Pipeline turns one raw frame into one annotated frame, and optionally into JPEG bytes.
// A Pipeline is not safe for concurrent use; each stream owns its own.
type Pipeline struct {
	source   FrameSource
	backend  Backend
	stages   Stages
	observer Observer
	metrics  *metrics.Metrics
	logger   *logger.Logger

	frame gocv.Mat
}

// New creates a Pipeline. observer may be nil.
func New(source FrameSource, backend Backend, stages Stages, observer Observer, m *metrics.Metrics, logger *logger.Logger) *Pipeline {
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{
		source:   source,
		backend:  backend,
		stages:   stages,
		observer: observer,
		metrics:  m,
		logger:   logger,
		frame:    gocv.NewMat(),
	}
}

// Next captures, annotates and encodes one frame. Read and encode failures
// wrap apperr.ErrRead / apperr.ErrEncode and only cost this frame; anything
// else wraps apperr.ErrPipelineFailure.
func (p *Pipeline) Next() ([]byte, error) {
	start := time.Now()

	if _, err := p.NextFrame(&p.frame); err != nil {
		return nil, err
	}

	data, err := p.stages.Encoder.Encode(p.frame)
	if err != nil {
		p.metrics.EncodeErrors.Add(1)
		p.logger.Warning("Failed to encode frame: %v", err)
		return nil, err
	}

	p.metrics.ProcessLatencyUs.Store(uint64(time.Since(start).Microseconds()))
	return data, nil
}

// NextFrame captures one frame into dst and draws the surviving detections on it.
func (p *Pipeline) NextFrame(dst *gocv.Mat) (detections []ai.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", apperr.ErrPipelineFailure, r)
			detections = nil
		}
	}()

	if err := p.source.Read(dst); err != nil {
		if !apperr.IsTransient(err) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrPipelineFailure, err)
		}
		p.metrics.ReadErrors.Add(1)
		p.logger.Warning("Failed to read frame: %v", err)
		return nil, err
	}
	p.metrics.FramesCaptured.Add(1)

	outputs, err := p.backend.Forward(*dst)
	if err != nil {
		return nil, fmt.Errorf("%w: forward: %v", apperr.ErrPipelineFailure, err)
	}

	candidates := p.stages.Decoder.Decode(outputs, dst.Cols(), dst.Rows())
	detections = p.stages.Suppressor.Suppress(candidates)

	if err := p.stages.Annotator.Annotate(dst, detections); err != nil {
		return nil, fmt.Errorf("%w: annotate: %v", apperr.ErrPipelineFailure, err)
	}

	p.metrics.Detections.Add(uint64(len(detections)))
	p.publish(detections)

	return detections, nil
}

func (p *Pipeline) publish(detections []ai.Detection) {
	if p.observer == nil {
		return
	}
	now := time.Now()
	for _, d := range detections {
		msg, err := json.Marshal(DetectionEvent{
			Label:      p.stages.Classes.Label(d.ClassID),
			ClassID:    d.ClassID,
			Confidence: d.Confidence,
			Box:        d.Box,
			Timestamp:  now,
		})
		if err != nil {
			p.logger.Error("Failed to marshal detection event: %v", err)
			continue
		}
		p.observer.Broadcast(msg)
	}
}

// Close frees the pipeline's frame buffer. It does not release the source or backend.
func (p *Pipeline) Close() error {
	return p.frame.Close()
}
