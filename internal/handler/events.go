package handler

import (
	"net/http"
	"weaponcam/internal/logger"
	"weaponcam/internal/service/websocket"

	gorilla "github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DetectionEventsHandler upgrades viewers to WebSocket and registers them in
// the hub, which pushes a JSON DetectionEvent for every annotated detection.
func DetectionEventsHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		logger.Info("Detection viewer connected")

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
					logger.Info("Detection viewer disconnected normally")
				} else {
					logger.Warning("Detection viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
