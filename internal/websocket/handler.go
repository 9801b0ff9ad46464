package websocket

import (
	"log/slog"
	"net/http"

	"github.com/climatologylab/labsite/internal/auth"
	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades authenticated dashboard requests and runs them as
// hub clients. originPatterns lists the hosts allowed to connect; an empty
// list accepts same-origin requests only.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		userID := auth.UserID(r.Context())
		logger.Debug("websocket connected", "user_id", userID)
		NewClient(hub, conn, userID).Run(r.Context())
		logger.Debug("websocket disconnected", "user_id", userID)
	}
}
