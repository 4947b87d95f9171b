package capture

import (
	"fmt"
	"sync"
	"weaponcam/internal/apperr"
	"weaponcam/internal/logger"

	"gocv.io/x/gocv"
)

// Options control how a Source picks and configures its device.
type Options struct {
	Indices     []int
	Width       int
	Height      int
	FPS         int
	FallbackAPI gocv.VideoCaptureAPI
}

// Source owns exactly one open camera device until Release.
type Source struct {
	device Device
	index  int

	logger      *logger.Logger
	mu          sync.Mutex
	released    bool
	releaseOnce sync.Once
	releaseErr  error
}

// Open probes opts.Indices in order and keeps the first device that opens and
// delivers a trial frame; rejected handles are closed immediately. When none
// qualifies it falls back to index 0 on the platform backend and requires one
// successful read from it. Failures wrap apperr.ErrDeviceUnavailable.
func Open(opener Opener, opts Options, logger *logger.Logger) (*Source, error) {
	trial := gocv.NewMat()
	defer trial.Close()

	for _, idx := range opts.Indices {
		device, err := opener.Open(idx, gocv.VideoCaptureAny)
		if err != nil || device == nil || !device.IsOpened() {
			if device != nil {
				device.Close()
			}
			logger.Debug("Camera index %d did not open: %v", idx, err)
			continue
		}

		configure(device, opts)

		if device.Read(&trial) && !trial.Empty() {
			logger.Info("Successfully opened camera at index %d", idx)
			return &Source{device: device, index: idx, logger: logger}, nil
		}

		logger.Warning("Camera index %d opened but trial read failed", idx)
		device.Close()
	}

	device, err := opener.Open(0, opts.FallbackAPI)
	if err != nil || device == nil || !device.IsOpened() {
		if device != nil {
			device.Close()
		}
		return nil, fmt.Errorf("%w: no camera index in %v could be opened", apperr.ErrDeviceUnavailable, opts.Indices)
	}

	configure(device, opts)

	if !device.Read(&trial) || trial.Empty() {
		device.Close()
		return nil, fmt.Errorf("%w: could not read frame from fallback device", apperr.ErrDeviceUnavailable)
	}

	logger.Warning("Using fallback camera backend %d on index 0", opts.FallbackAPI)
	return &Source{device: device, index: 0, logger: logger}, nil
}

func configure(device Device, opts Options) {
	if opts.Width > 0 {
		device.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
	}
	if opts.Height > 0 {
		device.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	if opts.FPS > 0 {
		device.Set(gocv.VideoCaptureFPS, float64(opts.FPS))
	}
}

// Index reports which device index was selected.
func (s *Source) Index() int {
	return s.index
}

// Read grabs the next frame into dst. A failed read wraps apperr.ErrRead and
// leaves the device open; callers skip the frame and try again.
func (s *Source) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return fmt.Errorf("%w: camera released", apperr.ErrRead)
	}
	if !s.device.Read(dst) || dst.Empty() {
		return fmt.Errorf("%w: camera %d", apperr.ErrRead, s.index)
	}
	return nil
}

// Release closes the device. Only the first call reaches the device; later
// calls return the first call's result.
func (s *Source) Release() error {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.released = true
		s.releaseErr = s.device.Close()
		s.logger.Info("Camera %d released", s.index)
	})
	return s.releaseErr
}
