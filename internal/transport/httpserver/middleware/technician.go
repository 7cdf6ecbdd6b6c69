package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"cras-cadastro/internal/config"
	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/pkg/logger"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	HeaderTechnicianID   = "X-Technician-ID"
	HeaderTechnicianCras = "X-Technician-Cras"
)

// TechnicianAuth identifies the technician behind a request. Authentication
// happens upstream; this only reads the identity it forwards.
type TechnicianAuth struct {
	skipAuth bool
	mockTech familydomain.Technician
	log      logger.Logger
}

func NewTechnicianAuth(cfg config.AuthConfig, log logger.Logger) *TechnicianAuth {
	return &TechnicianAuth{
		skipAuth: cfg.SkipAuth,
		mockTech: familydomain.Technician{
			ID:     strings.TrimSpace(cfg.MockTechnicianID),
			CrasID: strings.TrimSpace(cfg.MockTechnicianCras),
		},
		log: log,
	}
}

func (a *TechnicianAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tech := familydomain.Technician{
			ID:     strings.TrimSpace(r.Header.Get(HeaderTechnicianID)),
			CrasID: strings.TrimSpace(r.Header.Get(HeaderTechnicianCras)),
		}
		if a.skipAuth {
			tech = a.mockTech
			if tech.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock technician id not configured")
				return
			}
		}

		if tech.ID == "" {
			writeError(w, http.StatusUnauthorized, "technician_required", "technician required")
			return
		}
		if !familydomain.IsKnownCras(tech.CrasID) {
			writeError(w, http.StatusForbidden, "unknown_cras", "unknown cras")
			return
		}

		reqLog := a.log.With(
			"request_id", chimw.GetReqID(r.Context()),
			"technician_id", tech.ID,
			"cras_id", tech.CrasID,
		)
		ctx := familydomain.ContextWithTechnician(r.Context(), tech)
		ctx = logger.WithContext(ctx, reqLog)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
