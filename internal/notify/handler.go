package notify

import (
	"net/http"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/pkg/logger"
	ws "github.com/coder/websocket"
)

// Handler upgrades the request and streams notices for the technician set on
// the request context.
func Handler(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tech, ok := familydomain.TechnicianFromContext(r.Context())
		if !ok {
			http.Error(w, "technician required", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.FromContext(r.Context(), hub.log).BusinessError("notify.handler: accept", err, "technician_id", tech.ID)
			return
		}

		NewClient(hub, conn, tech.ID).Run(r.Context())
	}
}
