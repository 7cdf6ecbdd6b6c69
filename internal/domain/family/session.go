package family

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

type MemberField string

const (
	FieldName          MemberField = "nome"
	FieldCPF           MemberField = "cpf"
	FieldNIS           MemberField = "nis"
	FieldDateOfBirth   MemberField = "dataNascimento"
	FieldRelationship  MemberField = "vinculoComTitular"
	FieldSex           MemberField = "sexo"
	FieldMaritalStatus MemberField = "estadoCivil"
	FieldRace          MemberField = "raca"
	FieldEducation     MemberField = "grauInstrucao"
	FieldProfession    MemberField = "profissao"
	FieldGrossIncome   MemberField = "rendaBruta"
)

// Identity fields feed the member matcher on every edit.
func (f MemberField) Identity() bool {
	switch f {
	case FieldName, FieldCPF, FieldNIS, FieldDateOfBirth:
		return true
	default:
		return false
	}
}

func (f MemberField) apply(m *Member, value string) error {
	switch f {
	case FieldName:
		m.Name = value
	case FieldCPF:
		m.CPF = value
	case FieldNIS:
		m.NIS = value
	case FieldDateOfBirth:
		m.DateOfBirth = value
	case FieldRelationship:
		m.Relationship = value
	case FieldSex:
		m.Sex = value
	case FieldMaritalStatus:
		m.MaritalStatus = value
	case FieldRace:
		m.Race = value
	case FieldEducation:
		m.Education = value
	case FieldProfession:
		m.Profession = value
	case FieldGrossIncome:
		value = strings.ReplaceAll(trimmed(value), ",", ".")
		if value == "" {
			m.GrossIncome = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed < 0 || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return fmt.Errorf("%w: invalid gross income", ErrValidation)
		}
		m.GrossIncome = parsed
	default:
		return ErrUnknownField
	}
	return nil
}

type PendingKind int

const (
	NoPending PendingKind = iota
	AwaitingTransferConfirmation
)

// PendingAction is an identity edit held back until the technician confirms
// or cancels the transfer it would cause.
type PendingAction struct {
	Kind  PendingKind
	Index int
	Field MemberField
	Value string
	Match Match
}

// Prompt is what the confirmation step shows.
type Prompt struct {
	MemberName      string    `json:"member_name"`
	Prontuario      string    `json:"prontuario"`
	ResponsibleName string    `json:"responsible_name,omitempty"`
	FamilyID        string    `json:"family_id"`
	Rule            MatchRule `json:"rule"`
	Index           int       `json:"index"`
}

func (p PendingAction) prompt() *Prompt {
	if p.Kind != AwaitingTransferConfirmation {
		return nil
	}
	prompt := &Prompt{
		MemberName: p.Match.Member.Name,
		Prontuario: p.Match.Family.Prontuario,
		FamilyID:   p.Match.Family.ID,
		Rule:       p.Match.Rule,
		Index:      p.Index,
	}
	if responsible, ok := p.Match.Family.Responsible(); ok {
		prompt.ResponsibleName = responsible.Name
	}
	return prompt
}

// Outcome is the state of a session after an operation.
type Outcome struct {
	Family   Family
	Pending  *Prompt
	ReadOnly bool
	Notices  []Notice
}

// Session is the working copy of one household being edited. Nothing but
// cross-household transfers reaches the store before Save.
type Session struct {
	mu         sync.Mutex
	id         string
	service    *Service
	technician Technician
	working    Family
	readOnly   bool
	pending    PendingAction
}

type OpenSessionInput struct {
	FamilyID string
	// Seed prefills the responsible member of a new household.
	Seed *LookupQuery
}

func (s *Service) OpenSession(ctx context.Context, tech Technician, input OpenSessionInput) (*Session, error) {
	session := &Session{
		id:         s.newID(),
		service:    s,
		technician: tech,
	}

	if input.FamilyID != "" {
		existing, err := s.records.Get(ctx, input.FamilyID)
		if err != nil {
			return nil, err
		}
		session.working = *existing
		session.readOnly = existing.CrasID != tech.CrasID
	} else {
		if !IsKnownCras(tech.CrasID) {
			return nil, ErrUnknownCras
		}
		session.working = Family{
			CrasID:    tech.CrasID,
			CreatedBy: tech.ID,
			Members:   []Member{},
		}
		if input.Seed != nil {
			member := session.newMember()
			member.Name = trimmed(input.Seed.Name)
			member.CPF = trimmed(input.Seed.CPF)
			member.NIS = trimmed(input.Seed.NIS)
			session.working.Members = append(session.working.Members, member)
		}
	}

	s.sessions.Set(session.id, session, s.sessionTTL)
	return session, nil
}

// Session returns a cached session and extends its lifetime.
func (s *Service) Session(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.sessions.Set(id, session, s.sessionTTL)
	return session, nil
}

func (s *Service) CloseSession(id string) {
	s.sessions.Delete(id)
}

func (s *Session) ID() string {
	return s.id
}

// OwnedBy reports whether tech opened the session.
func (s *Session) OwnedBy(tech Technician) bool {
	return s.technician.ID == tech.ID
}

func (s *Session) Snapshot() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome(nil)
}

func (s *Session) SetProntuario(value string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return Outcome{}, ErrForbiddenCras
	}
	s.working.Prontuario = value
	return s.outcome(nil), nil
}

func (s *Session) SetNotes(value string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return Outcome{}, ErrForbiddenCras
	}
	s.working.Notes = value
	return s.outcome(nil), nil
}

// AddMember appends an empty active member. The first active member of the
// household becomes its responsible member.
func (s *Session) AddMember(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutable(); err != nil {
		return Outcome{}, err
	}
	s.working.Members = append(s.working.Members, s.newMember())
	return s.outcome(nil), nil
}

// UpdateMember applies a field edit. Identity edits that match an active
// member of another household are held as a pending confirmation instead of
// being applied.
func (s *Session) UpdateMember(ctx context.Context, index int, field MemberField, value string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutable(); err != nil {
		return Outcome{}, err
	}
	if index < 0 || index >= len(s.working.Members) {
		return Outcome{}, ErrInvalidSlot
	}

	current := s.working.Members[index]
	edited := current
	if err := field.apply(&edited, value); err != nil {
		return Outcome{}, err
	}

	if field.Identity() && current.Active && edited != current {
		match, ok, err := s.service.FindMatch(ctx, CandidateFromMember(edited), s.working.ID)
		if err != nil {
			return Outcome{}, err
		}
		if ok {
			s.pending = PendingAction{
				Kind:  AwaitingTransferConfirmation,
				Index: index,
				Field: field,
				Value: value,
				Match: match,
			}
			s.service.metrics.MatchDetected(match.Rule)
			return s.outcome(nil), nil
		}
	}

	s.working.Members[index] = edited
	return s.outcome(nil), nil
}

// Confirm resolves a pending confirmation by transferring the matched member
// into the edited slot. The match is looked up again first: if it now points
// at another member the prompt is replaced and shown again. If the matched
// member was moved away meanwhile, the edit is discarded as on Cancel.
func (s *Session) Confirm(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending.Kind != AwaitingTransferConfirmation {
		return Outcome{}, ErrNoPendingConfirmation
	}

	edited := s.working.Members[s.pending.Index]
	if err := s.pending.Field.apply(&edited, s.pending.Value); err != nil {
		return Outcome{}, err
	}
	match, ok, err := s.service.FindMatch(ctx, CandidateFromMember(edited), s.working.ID)
	if err != nil {
		return Outcome{}, err
	}
	if ok && !match.sameMember(s.pending.Match) {
		s.pending.Match = match
		s.service.metrics.MatchDetected(match.Rule)
		notice := Notice{
			Level:   NoticeInfo,
			Message: fmt.Sprintf("Correspondência atualizada: %s na família com prontuário %s", trimmed(match.Member.Name), match.Family.Prontuario),
		}
		return s.outcome([]Notice{notice}), nil
	}

	result, err := s.service.TransferMember(ctx, TransferRequest{
		SourceFamilyID: s.pending.Match.Family.ID,
		Member:         s.pending.Match.Member,
		Destination:    s.working.Members,
		Slot:           s.pending.Index,
	})
	if errors.Is(err, ErrStaleMatch) {
		stale := s.pending.Match
		s.pending = PendingAction{}
		notice := Notice{
			Level:   NoticeError,
			Message: fmt.Sprintf("%s não está mais ativo(a) na família com prontuário %s: transferência cancelada", trimmed(stale.Member.Name), stale.Family.Prontuario),
		}
		s.service.publish(ctx, notice)
		return s.outcome([]Notice{notice}), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	s.working.Members = result.Members
	s.pending = PendingAction{}
	return s.outcome(result.Notices), nil
}

// Cancel discards the pending edit; the field keeps its previous value.
func (s *Session) Cancel() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending.Kind != AwaitingTransferConfirmation {
		return Outcome{}, ErrNoPendingConfirmation
	}
	s.pending = PendingAction{}
	return s.outcome(nil), nil
}

func (s *Session) SetResponsible(index int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutable(); err != nil {
		return Outcome{}, err
	}
	if err := SetResponsible(s.working.Members, index); err != nil {
		return Outcome{}, err
	}
	return s.outcome(nil), nil
}

// RemoveMember deletes the member from the household outright.
func (s *Session) RemoveMember(ctx context.Context, index int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutable(); err != nil {
		return Outcome{}, err
	}
	if index < 0 || index >= len(s.working.Members) {
		return Outcome{}, ErrInvalidSlot
	}

	removed := s.working.Members[index]
	s.working.Members = append(s.working.Members[:index:index], s.working.Members[index+1:]...)
	notices := s.repair(ctx, removed)
	return s.outcome(notices), nil
}

// DeactivateMember keeps the member as an inactive record.
func (s *Session) DeactivateMember(ctx context.Context, index int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutable(); err != nil {
		return Outcome{}, err
	}
	if index < 0 || index >= len(s.working.Members) {
		return Outcome{}, ErrInvalidSlot
	}
	if !s.working.Members[index].Active {
		return Outcome{}, ErrMemberInactive
	}

	departing := s.working.Members[index]
	s.working.Members[index].SetStatus(StatusInactive)
	notices := s.repair(ctx, departing)
	return s.outcome(notices), nil
}

func (s *Session) ReactivateMember(ctx context.Context, index int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutable(); err != nil {
		return Outcome{}, err
	}

	result, err := s.service.Reactivate(ctx, s.working, index)
	if err != nil {
		return Outcome{}, err
	}
	s.working = result.Family
	return s.outcome(result.Notices), nil
}

// Save validates and persists the working copy. A new household receives its
// id here.
func (s *Session) Save(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutable(); err != nil {
		return Outcome{}, err
	}

	created := s.working.ID == ""
	saved, err := s.service.Save(ctx, s.technician, s.working)
	if err != nil {
		return Outcome{}, err
	}
	s.working = *saved

	notice := Notice{Level: NoticeSuccess, Message: "Família atualizada com sucesso!"}
	if created {
		notice.Message = "Família cadastrada com sucesso!"
	}
	s.service.publish(ctx, notice)
	return s.outcome([]Notice{notice}), nil
}

func (s *Session) repair(ctx context.Context, departing Member) []Notice {
	reassigned, ok := ReassignIfNeeded(&s.working, departing)
	if !ok {
		return nil
	}
	s.service.metrics.ResponsibilityReassigned()
	notice := responsibleNotice(reassigned)
	s.service.publish(ctx, notice)
	return []Notice{notice}
}

func (s *Session) newMember() Member {
	member := Member{ID: s.service.newID()}
	if countActive(s.working.Members) == 0 {
		member.SetStatus(StatusResponsible)
	} else {
		member.SetStatus(StatusActive)
	}
	return member
}

func (s *Session) checkMutable() error {
	if s.readOnly {
		return ErrForbiddenCras
	}
	if s.pending.Kind != NoPending {
		return ErrConfirmationPending
	}
	return nil
}

func (s *Session) outcome(notices []Notice) Outcome {
	return Outcome{
		Family:   s.working.Clone(),
		Pending:  s.pending.prompt(),
		ReadOnly: s.readOnly,
		Notices:  notices,
	}
}
