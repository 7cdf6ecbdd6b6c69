package common

import (
	"net/http"

	familydomain "cras-cadastro/internal/domain/family"
)

// RequireTechnician writes a 401 when the request carries no technician.
func RequireTechnician(w http.ResponseWriter, r *http.Request) (familydomain.Technician, bool) {
	tech, ok := familydomain.TechnicianFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "technician_required", "technician required")
		return familydomain.Technician{}, false
	}
	return tech, true
}
