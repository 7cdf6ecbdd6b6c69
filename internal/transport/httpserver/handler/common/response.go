package common

import (
	"encoding/json"
	"errors"
	"net/http"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/pkg/logger"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, code, message)
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, payload)
}

func DecodeJSON(r *http.Request, dst interface{}) error {
	return decodeJSON(r, dst)
}

type domainError struct {
	target  error
	status  int
	code    string
	message string
}

var domainErrors = []domainError{
	{familydomain.ErrFamilyNotFound, http.StatusNotFound, "family_not_found", "family not found"},
	{familydomain.ErrSessionNotFound, http.StatusNotFound, "session_not_found", "session not found"},
	{familydomain.ErrForbiddenCras, http.StatusForbidden, "forbidden_cras", "family belongs to another cras"},
	{familydomain.ErrConfirmationPending, http.StatusConflict, "confirmation_pending", "transfer confirmation pending"},
	{familydomain.ErrNoPendingConfirmation, http.StatusConflict, "no_pending_confirmation", "no pending confirmation"},
	{familydomain.ErrInvalidSlot, http.StatusUnprocessableEntity, "invalid_member", "invalid member index"},
	{familydomain.ErrMemberInactive, http.StatusUnprocessableEntity, "member_inactive", "member is inactive"},
	{familydomain.ErrUnknownField, http.StatusUnprocessableEntity, "unknown_field", "unknown member field"},
	{familydomain.ErrUnknownCras, http.StatusUnprocessableEntity, "unknown_cras", "unknown cras"},
}

// WriteDomainError maps family sentinels to a status and logs the failure as a
// business error. Anything unmapped is an internal error. The request-scoped
// logger is preferred over log.
func WriteDomainError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error, args ...any) {
	log = logger.FromContext(r.Context(), log)
	for _, known := range domainErrors {
		if errors.Is(err, known.target) {
			log.BusinessError(op, err, args...)
			writeError(w, known.status, known.code, known.message)
			return
		}
	}
	if errors.Is(err, familydomain.ErrValidation) {
		log.BusinessError(op, err, args...)
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return
	}
	log.InternalError(op, err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
