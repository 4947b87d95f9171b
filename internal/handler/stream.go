package handler

import (
	"errors"
	"net/http"
	"weaponcam/internal/apperr"
	"weaponcam/internal/logger"
	"weaponcam/internal/service"
	"weaponcam/internal/service/stream"
)

// VideoFeedHandler streams annotated camera frames as MJPEG. Each request owns
// a session for as long as the client stays connected; a leased camera answers
// 503 and any other start-up failure 500 with the error text.
func VideoFeedHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		session, err := manager.OpenSession(r.Context())
		if err != nil {
			logger.Error("Video feed error: %v", err)
			status := http.StatusInternalServerError
			if errors.Is(err, apperr.ErrDeviceBusy) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), status)
			return
		}
		defer session.Close()

		m := manager.Metrics()
		m.TotalStreams.Add(1)
		m.ActiveStreams.Add(1)
		defer m.ActiveStreams.Add(-1)

		w.Header().Set("Content-Type", stream.ContentType)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		cfg := manager.Config()
		generator := stream.NewGenerator(session.Pipeline(), stream.Options{
			Pacing:     cfg.StreamPacing,
			Terminator: cfg.StreamTerminator,
		}, m, logger)

		logger.Info("Video stream started for %s", r.RemoteAddr)
		err = generator.Run(r.Context(), func(chunk []byte) error {
			if _, err := w.Write(chunk); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		})
		if err != nil {
			logger.Error("Video stream for %s ended: %v", r.RemoteAddr, err)
			return
		}
		logger.Info("Video stream for %s closed", r.RemoteAddr)
	}
}
