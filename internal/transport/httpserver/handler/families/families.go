package families

import (
	"net/http"
	"strings"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type lookupRequest struct {
	Name string `json:"nome"`
	CPF  string `json:"cpf"`
	NIS  string `json:"nis"`
}

type matchRequest struct {
	Name        string `json:"nome"`
	CPF         string `json:"cpf"`
	NIS         string `json:"nis"`
	DateOfBirth string `json:"dataNascimento"`
	ExcludingID string `json:"excluding_id"`
}

func (h *Handlers) ListFamilies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result, err := h.Families.Search(r.Context(), query)
	if err != nil {
		common.WriteDomainError(w, r, h.log, "families.list: search failed", err, "q", query)
		return
	}

	common.WriteJSON(w, http.StatusOK, toFamilyResponses(result))
}

func (h *Handlers) GetFamily(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	result, err := h.Families.Get(r.Context(), id)
	if err != nil {
		common.WriteDomainError(w, r, h.log, "families.get: get family failed", err, "family_id", id)
		return
	}

	common.WriteJSON(w, http.StatusOK, toFamilyResponse(*result))
}

func (h *Handlers) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	tech, ok := common.RequireTechnician(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.Families.Delete(r.Context(), tech, id); err != nil {
		common.WriteDomainError(w, r, h.log, "families.delete: delete family failed", err, "family_id", id, "technician_id", tech.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TransferToCras moves the whole household to the technician's own unit.
func (h *Handlers) TransferToCras(w http.ResponseWriter, r *http.Request) {
	tech, ok := common.RequireTechnician(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	result, err := h.Families.TransferToCras(r.Context(), tech, id)
	if err != nil {
		common.WriteDomainError(w, r, h.log, "families.cras_transfer: transfer failed", err, "family_id", id, "cras_id", tech.CrasID)
		return
	}

	common.WriteJSON(w, http.StatusOK, toFamilyResponse(*result))
}

func (h *Handlers) Lookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	result, err := h.Families.Lookup(r.Context(), familydomain.LookupQuery{
		Name: req.Name,
		CPF:  req.CPF,
		NIS:  req.NIS,
	})
	if err != nil {
		common.WriteDomainError(w, r, h.log, "families.lookup: lookup failed", err)
		return
	}

	common.WriteJSON(w, http.StatusOK, toFamilyResponses(result))
}

// Match runs the member matcher against stored households without touching
// any of them.
func (h *Handlers) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	match, ok, err := h.Families.FindMatch(r.Context(), familydomain.Candidate{
		Name:        req.Name,
		CPF:         req.CPF,
		NIS:         req.NIS,
		DateOfBirth: req.DateOfBirth,
	}, strings.TrimSpace(req.ExcludingID))
	if err != nil {
		common.WriteDomainError(w, r, h.log, "families.match: match failed", err)
		return
	}

	common.WriteJSON(w, http.StatusOK, toMatchResponse(match, ok))
}
