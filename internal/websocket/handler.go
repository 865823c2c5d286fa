package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Handle upgrades the request to a WebSocket and runs it as a hub
// client. Authentication happens upstream in the router.
func Handle(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn)
		client.Run(r.Context())
	}
}
