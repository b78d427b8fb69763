package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/media-service/internal/utils/jwt"
	"github.com/princekumarofficial/media-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/media-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The token query parameter authenticates the handshake.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades an authenticated connection and registers it
// with the hub.
// @Summary Live events
// @Description Streams document.reviewed, media.orphaned and media.purged events for the token's user.
// @Tags websocket
// @Param token query string true "JWT"
// @Router /ws [get]
func WebSocketHandler(hub *wsClient.Hub, jwtSecret string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			logger.Warn("websocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		userID, err := jwt.ExtractUserIDFromToken(token, jwtSecret)
		if err != nil {
			logger.Warn("websocket connection attempted with invalid token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid token")))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("failed to upgrade websocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, userID, hub)
		hub.RegisterClient(client)
		client.Start()
	}
}
