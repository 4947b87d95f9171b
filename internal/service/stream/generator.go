package stream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"weaponcam/internal/apperr"
	"weaponcam/internal/config"
	"weaponcam/internal/logger"
	"weaponcam/internal/metrics"
)

const (
	// Boundary separates the parts of the multipart stream.
	Boundary = "frame"
	// ContentType is the response content type of an MJPEG stream.
	ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

	partHeader = "--" + Boundary + "\r\nContent-Type: image/jpeg\r\n\r\n"
	partFooter = "\r\n\r\n"
)

// Chunk wraps one JPEG as a multipart part.
func Chunk(jpeg []byte) []byte {
	chunk := make([]byte, 0, len(partHeader)+len(jpeg)+len(partFooter))
	chunk = append(chunk, partHeader...)
	chunk = append(chunk, jpeg...)
	chunk = append(chunk, partFooter...)
	return chunk
}

// TerminalChunk returns the chunk emitted when a stream ends on a pipeline failure.
func TerminalChunk(terminator string) []byte {
	if terminator == config.TerminatorClose {
		return []byte("--" + Boundary + "--\r\n")
	}
	return []byte{}
}

// Producer yields encoded frames; *pipeline.Pipeline satisfies it.
type Producer interface {
	Next() ([]byte, error)
}

// Options configure a Generator.
type Options struct {
	Pacing     time.Duration
	Terminator string
}

// Generator pulls frames from a Producer and emits them as multipart chunks.
// A Generator runs once; create a new one to restart a stream.
type Generator struct {
	producer Producer
	opts     Options
	metrics  *metrics.Metrics
	logger   *logger.Logger
	used     atomic.Bool
}

// NewGenerator creates a Generator for producer.
func NewGenerator(producer Producer, opts Options, m *metrics.Metrics, logger *logger.Logger) *Generator {
	if m == nil {
		m = metrics.New()
	}
	return &Generator{
		producer: producer,
		opts:     opts,
		metrics:  m,
		logger:   logger,
	}
}

// Run emits chunks in capture order until ctx ends, emit fails, or the producer
// reports a non-transient error. Transient errors skip the iteration. On a
// producer failure the terminal chunk is emitted and the failure returned;
// a cancelled ctx or a failed emit returns nil.
func (g *Generator) Run(ctx context.Context, emit func(chunk []byte) error) error {
	if !g.used.CompareAndSwap(false, true) {
		return apperr.ErrGeneratorUsed
	}

	var pacing *time.Timer
	if g.opts.Pacing > 0 {
		pacing = time.NewTimer(g.opts.Pacing)
		defer pacing.Stop()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		data, err := g.producer.Next()
		switch {
		case err == nil && len(data) > 0:
			if err := emit(Chunk(data)); err != nil {
				g.logger.Info("Stream consumer gone: %v", err)
				return nil
			}
			g.metrics.FramesEmitted.Add(1)

		case err == nil || apperr.IsTransient(err):
			g.metrics.FramesSkipped.Add(1)

		default:
			g.metrics.PipelineFailures.Add(1)
			g.logger.Error("Error in video feed: %v", err)
			if emitErr := emit(TerminalChunk(g.opts.Terminator)); emitErr != nil {
				g.logger.Warning("Failed to emit terminal chunk: %v", emitErr)
			}
			if !errors.Is(err, apperr.ErrPipelineFailure) {
				err = fmt.Errorf("%w: %v", apperr.ErrPipelineFailure, err)
			}
			return err
		}

		if pacing == nil {
			continue
		}
		pacing.Reset(g.opts.Pacing)
		select {
		case <-ctx.Done():
			return nil
		case <-pacing.C:
		}
	}
}
