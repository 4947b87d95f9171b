package route

import (
	"net/http"
	"os"
	"path/filepath"
	"weaponcam/internal/config"
	"weaponcam/internal/handler"
	"weaponcam/internal/logger"
	"weaponcam/internal/service"
)

// dynamicHTMLHandler serves /path as <staticDir>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the page, stream, probe, event, metrics and log endpoints.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	// Camera endpoints
	mux.HandleFunc("GET /video_feed", handler.VideoFeedHandler(manager, logger))
	mux.HandleFunc("/check_camera", handler.CheckCameraHandler(manager, logger))
	mux.HandleFunc("/check_camera_permissions", handler.CheckCameraPermissionsHandler(manager, logger))

	// Detection events
	if hub := manager.Hub(); hub != nil {
		mux.HandleFunc("/api/detections", handler.DetectionEventsHandler(hub, logger))
	}

	mux.Handle("GET /metrics", manager.Metrics().Handler())

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handler.ShowLogsHandler(cfg))
	mux.HandleFunc("/logs/{level}/clear", handler.ClearLogsHandler(logger))

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDir))

	return mux
}
