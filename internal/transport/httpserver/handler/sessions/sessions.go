package sessions

import (
	"context"
	"net/http"
	"strings"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type openSessionRequest struct {
	FamilyID string       `json:"family_id"`
	Seed     *seedRequest `json:"seed"`
}

type seedRequest struct {
	Name string `json:"nome"`
	CPF  string `json:"cpf"`
	NIS  string `json:"nis"`
}

type updateSessionRequest struct {
	Prontuario *string `json:"prontuario"`
	Notes      *string `json:"observacoes"`
}

type updateMemberRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type sessionOp func(ctx context.Context, session *familydomain.Session) (familydomain.Outcome, error)

type memberOp func(ctx context.Context, session *familydomain.Session, index int) (familydomain.Outcome, error)

func (h *Handlers) OpenSession(w http.ResponseWriter, r *http.Request) {
	tech, ok := common.RequireTechnician(w, r)
	if !ok {
		return
	}

	var req openSessionRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input := familydomain.OpenSessionInput{FamilyID: strings.TrimSpace(req.FamilyID)}
	if req.Seed != nil {
		input.Seed = &familydomain.LookupQuery{Name: req.Seed.Name, CPF: req.Seed.CPF, NIS: req.Seed.NIS}
	}

	session, err := h.Families.OpenSession(r.Context(), tech, input)
	if err != nil {
		common.WriteDomainError(w, r, h.log, "sessions.open: open session failed", err, "family_id", input.FamilyID, "technician_id", tech.ID)
		return
	}

	common.WriteJSON(w, http.StatusCreated, toSessionResponse(session.ID(), session.Snapshot()))
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	common.WriteJSON(w, http.StatusOK, toSessionResponse(session.ID(), session.Snapshot()))
}

func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	h.Families.CloseSession(session.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateSessionRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	outcome := session.Snapshot()
	var err error
	if req.Prontuario != nil {
		if outcome, err = session.SetProntuario(*req.Prontuario); err != nil {
			common.WriteDomainError(w, r, h.log, "sessions.update: set prontuario failed", err, "session_id", session.ID())
			return
		}
	}
	if req.Notes != nil {
		if outcome, err = session.SetNotes(*req.Notes); err != nil {
			common.WriteDomainError(w, r, h.log, "sessions.update: set notes failed", err, "session_id", session.ID())
			return
		}
	}

	common.WriteJSON(w, http.StatusOK, toSessionResponse(session.ID(), outcome))
}

func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "sessions.add_member", func(ctx context.Context, s *familydomain.Session) (familydomain.Outcome, error) {
		return s.AddMember(ctx)
	})
}

// UpdateMember edits one field. An identity edit that matches someone in
// another household comes back with a pending prompt instead of being applied.
func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req updateMemberRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	field := familydomain.MemberField(strings.TrimSpace(req.Field))
	if field == "" {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "field is required")
		return
	}

	h.runMember(w, r, "sessions.update_member", func(ctx context.Context, s *familydomain.Session, index int) (familydomain.Outcome, error) {
		return s.UpdateMember(ctx, index, field, req.Value)
	})
}

func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.runMember(w, r, "sessions.remove_member", func(ctx context.Context, s *familydomain.Session, index int) (familydomain.Outcome, error) {
		return s.RemoveMember(ctx, index)
	})
}

func (h *Handlers) SetResponsible(w http.ResponseWriter, r *http.Request) {
	h.runMember(w, r, "sessions.set_responsible", func(_ context.Context, s *familydomain.Session, index int) (familydomain.Outcome, error) {
		return s.SetResponsible(index)
	})
}

func (h *Handlers) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	h.runMember(w, r, "sessions.deactivate_member", func(ctx context.Context, s *familydomain.Session, index int) (familydomain.Outcome, error) {
		return s.DeactivateMember(ctx, index)
	})
}

func (h *Handlers) ReactivateMember(w http.ResponseWriter, r *http.Request) {
	h.runMember(w, r, "sessions.reactivate_member", func(ctx context.Context, s *familydomain.Session, index int) (familydomain.Outcome, error) {
		return s.ReactivateMember(ctx, index)
	})
}

func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "sessions.confirm", func(ctx context.Context, s *familydomain.Session) (familydomain.Outcome, error) {
		return s.Confirm(ctx)
	})
}

func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "sessions.cancel", func(_ context.Context, s *familydomain.Session) (familydomain.Outcome, error) {
		return s.Cancel()
	})
}

func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "sessions.save", func(ctx context.Context, s *familydomain.Session) (familydomain.Outcome, error) {
		return s.Save(ctx)
	})
}

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, op string, fn sessionOp) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	outcome, err := fn(r.Context(), session)
	if err != nil {
		common.WriteDomainError(w, r, h.log, op+": failed", err, "session_id", session.ID())
		return
	}

	common.WriteJSON(w, http.StatusOK, toSessionResponse(session.ID(), outcome))
}

func (h *Handlers) runMember(w http.ResponseWriter, r *http.Request, op string, fn memberOp) {
	index, err := common.IndexParam(r, "index")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	h.run(w, r, op, func(ctx context.Context, s *familydomain.Session) (familydomain.Outcome, error) {
		return fn(ctx, s, index)
	})
}

// session resolves the route's session for the requesting technician. Other
// technicians' sessions are reported as missing.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*familydomain.Session, bool) {
	tech, ok := common.RequireTechnician(w, r)
	if !ok {
		return nil, false
	}

	id := strings.TrimSpace(chi.URLParam(r, "sid"))
	session, err := h.Families.Session(id)
	if err == nil && !session.OwnedBy(tech) {
		err = familydomain.ErrSessionNotFound
	}
	if err != nil {
		common.WriteDomainError(w, r, h.log, "sessions: resolve session failed", err, "session_id", id, "technician_id", tech.ID)
		return nil, false
	}
	return session, true
}
