package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
	"weaponcam/internal/config"
	"weaponcam/internal/logger"
	"weaponcam/internal/metrics"
	"weaponcam/internal/route"
	"weaponcam/internal/service"
	"weaponcam/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
	hubService *websocket.HubService
	manager    *service.Manager
}

func NewApp(cfg *config.Config, logger *logger.Logger, opts ...service.Option) *App {
	m := metrics.New()
	hub := websocket.NewHubService(logger)
	mng := service.NewManager(cfg, logger, m, hub, opts...)

	return &App{
		config:     cfg,
		logger:     logger,
		metrics:    m,
		hubService: hub,
		manager:    mng,
	}
}

// Manager exposes the session manager for the display and probe commands.
func (a *App) Manager() *service.Manager {
	return a.manager
}

// Run serves HTTP until ctx is cancelled, then shuts the server down. Open
// streams see their request context cancelled along with ctx.
func (a *App) Run(ctx context.Context) error {
	// Start background services
	go a.hubService.Run(ctx)

	// Setup routes
	router := route.SetupRoutes(a.manager, a.config, a.logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	a.logger.Info("🚀 Weapon detection server")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("🤖 AI Model: %s", a.config.WeightsPath())
	a.logger.Info("📷 Camera indices: %v (lease policy %s)", a.config.CameraIndices, a.config.LeasePolicy)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("🛑 Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
