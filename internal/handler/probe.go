package handler

import (
	"encoding/json"
	"net/http"
	"weaponcam/internal/logger"
	"weaponcam/internal/service"
)

// CheckCameraHandler reports whether the camera opens and delivers a frame.
func CheckCameraHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return probeHandler(manager, logger, service.ProbeCamera)
}

// CheckCameraPermissionsHandler is CheckCameraHandler worded for access problems.
func CheckCameraPermissionsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return probeHandler(manager, logger, service.ProbePermissions)
}

func probeHandler(manager *service.Manager, logger *logger.Logger, kind service.ProbeKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result := manager.Probe(r.Context(), kind)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error("Failed to encode probe result: %v", err)
		}
	}
}
