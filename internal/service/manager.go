package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
	"weaponcam/internal/apperr"
	"weaponcam/internal/config"
	"weaponcam/internal/logger"
	"weaponcam/internal/metrics"
	"weaponcam/internal/service/ai"
	"weaponcam/internal/service/capture"
	"weaponcam/internal/service/pipeline"
	"weaponcam/internal/service/websocket"

	"gocv.io/x/gocv"
)

// CameraKey is the lease key shared by every consumer of the local camera.
const CameraKey = "camera"

// Model is a loaded detection network.
type Model interface {
	pipeline.Backend
	Close() error
}

// ModelLoader loads the network named by the configuration.
type ModelLoader func(cfg *config.Config, logger *logger.Logger) (Model, error)

// LoadDarknetModel is the default ModelLoader.
func LoadDarknetModel(cfg *config.Config, logger *logger.Logger) (Model, error) {
	m, err := ai.LoadModel(cfg.WeightsPath(), cfg.ModelConfigPath(), cfg.InputSize, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Manager owns the shared collaborators and opens scoped capture sessions.
type Manager struct {
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	hub     *websocket.HubService
	devices *capture.DeviceManager

	opener      capture.Opener
	loadModel   ModelLoader
	fallbackAPI gocv.VideoCaptureAPI
}

// Option customizes a Manager.
type Option func(*Manager)

// WithOpener replaces the OpenCV device opener.
func WithOpener(opener capture.Opener) Option {
	return func(m *Manager) { m.opener = opener }
}

// WithModelLoader replaces the darknet model loader.
func WithModelLoader(loader ModelLoader) Option {
	return func(m *Manager) { m.loadModel = loader }
}

// WithFallbackAPI overrides the platform fallback capture backend.
func WithFallbackAPI(api gocv.VideoCaptureAPI) Option {
	return func(m *Manager) { m.fallbackAPI = api }
}

// NewManager creates a Manager. hub may be nil when nobody listens for events.
func NewManager(cfg *config.Config, logger *logger.Logger, m *metrics.Metrics, hub *websocket.HubService, opts ...Option) *Manager {
	if m == nil {
		m = metrics.New()
	}
	manager := &Manager{
		config:      cfg,
		logger:      logger,
		metrics:     m,
		hub:         hub,
		devices:     capture.NewDeviceManager(capture.ParseLeasePolicy(cfg.LeasePolicy)),
		opener:      capture.VideoCaptureOpener{},
		loadModel:   LoadDarknetModel,
		fallbackAPI: capture.PlatformFallbackAPI(),
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// Metrics returns the shared counters.
func (m *Manager) Metrics() *metrics.Metrics {
	return m.metrics
}

// Hub returns the detection event hub, or nil.
func (m *Manager) Hub() *websocket.HubService {
	return m.hub
}

// Config returns the configuration the Manager was built with.
func (m *Manager) Config() *config.Config {
	return m.config
}

// OpenSession leases the camera, loads the model, opens the capture source and
// assembles a pipeline. A model failure aborts before any device is opened.
// The caller must Close the session.
func (m *Manager) OpenSession(ctx context.Context) (*Session, error) {
	lease, err := m.devices.Acquire(ctx, CameraKey)
	if err != nil {
		m.metrics.LeaseRejections.Add(1)
		m.logger.Warning("Camera request refused: %v", err)
		return nil, err
	}
	s := &Session{lease: lease, logger: m.logger}
	m.logger.Debug("Lease on %s acquired", lease.Key())

	model, err := m.loadModel(m.config, m.logger)
	if err != nil {
		s.Close()
		m.logger.Error("Error loading detection model: %v", err)
		if !errors.Is(err, apperr.ErrModelLoad) {
			err = fmt.Errorf("%w: %v", apperr.ErrModelLoad, err)
		}
		return nil, err
	}
	s.model = model

	source, err := capture.Open(m.opener, m.sourceOptions(), m.logger)
	if err != nil {
		s.Close()
		m.logger.Error("Error initializing camera: %v", err)
		return nil, err
	}
	s.source = source

	s.pipeline = pipeline.New(source, model, m.stages(), m.observer(), m.metrics, m.logger)
	return s, nil
}

func (m *Manager) sourceOptions() capture.Options {
	return capture.Options{
		Indices:     m.config.CameraIndices,
		Width:       m.config.FrameWidth,
		Height:      m.config.FrameHeight,
		FPS:         m.config.FrameRate,
		FallbackAPI: m.fallbackAPI,
	}
}

func (m *Manager) stages() pipeline.Stages {
	classes := ai.ClassCatalog(m.config.Classes)

	seed := m.config.ColorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	colors := ai.NewColorTable(len(classes), rand.New(rand.NewSource(seed)))

	return pipeline.Stages{
		Decoder:    ai.NewDecoder(m.config.ConfidenceThreshold),
		Suppressor: ai.NewSuppressor(m.config),
		Annotator:  ai.NewAnnotator(classes, colors, m.logger),
		Encoder:    ai.Encoder{Quality: m.config.JPEGQuality},
		Classes:    classes,
	}
}

// observer avoids handing the pipeline a typed nil hub.
func (m *Manager) observer() pipeline.Observer {
	if m.hub == nil {
		return nil
	}
	return m.hub
}

// Session is one leased camera with its model and pipeline.
type Session struct {
	lease    *capture.Lease
	model    Model
	source   *capture.Source
	pipeline *pipeline.Pipeline
	logger   *logger.Logger

	once sync.Once
	err  error
}

// Pipeline returns the session's frame pipeline.
func (s *Session) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// Close tears the session down in reverse order: pipeline, camera, model,
// lease. Later calls return the first call's result.
func (s *Session) Close() error {
	s.once.Do(func() {
		var errs []error
		if s.pipeline != nil {
			errs = append(errs, s.pipeline.Close())
		}
		if s.source != nil {
			errs = append(errs, s.source.Release())
		}
		if s.model != nil {
			errs = append(errs, s.model.Close())
		}
		if s.lease != nil {
			s.lease.Release()
			s.logger.Debug("Lease on %s released", s.lease.Key())
		}
		s.err = errors.Join(errs...)
		if s.err != nil {
			s.logger.Warning("Session closed with errors: %v", s.err)
		}
	})
	return s.err
}
