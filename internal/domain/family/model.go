package family

import (
	"encoding/json"
	"time"
)

const RelationshipResponsible = "Responsável"

const (
	CrasDonaTita      = "Dona Tita"
	CrasPedroOmetto   = "Pedro Ometto"
	CrasCilaBauab     = "Cila Bauab"
	CrasAltosDaCidade = "Altos da Cidade"
	CrasCentral       = "Central"
	CrasPotunduva     = "Distrito de Potunduva"
)

var CrasUnits = []string{
	CrasDonaTita,
	CrasPedroOmetto,
	CrasCilaBauab,
	CrasAltosDaCidade,
	CrasCentral,
	CrasPotunduva,
}

func IsKnownCras(name string) bool {
	for _, unit := range CrasUnits {
		if unit == name {
			return true
		}
	}
	return false
}

// Family is one household case record. Members are embedded and keep list
// order; the order is significant for matching and for responsibility
// reassignment.
type Family struct {
	ID         string    `json:"id"`
	Prontuario string    `json:"prontuario"`
	Members    []Member  `json:"membros"`
	Notes      string    `json:"observacoes,omitempty"`
	CrasID     string    `json:"crasId"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Member struct {
	ID            string  `json:"id"`
	Name          string  `json:"nome"`
	CPF           string  `json:"cpf,omitempty"`
	NIS           string  `json:"nis,omitempty"`
	IsResponsible bool    `json:"isResponsavel"`
	Active        bool    `json:"ativo"`
	Relationship  string  `json:"vinculoComTitular"`
	Sex           string  `json:"sexo"`
	DateOfBirth   string  `json:"dataNascimento"`
	MaritalStatus string  `json:"estadoCivil"`
	Race          string  `json:"raca"`
	Education     string  `json:"grauInstrucao"`
	Profession    string  `json:"profissao"`
	GrossIncome   float64 `json:"rendaBruta"`
}

// UnmarshalJSON treats records written before the active flag existed as
// active members.
func (m *Member) UnmarshalJSON(data []byte) error {
	type plain Member
	aux := struct {
		*plain
		Active *bool `json:"ativo"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Active = aux.Active == nil || *aux.Active
	return nil
}

type MemberStatus int

const (
	StatusInactive MemberStatus = iota
	StatusActive
	StatusResponsible
)

func (s MemberStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusResponsible:
		return "responsible"
	default:
		return "inactive"
	}
}

func (m Member) Status() MemberStatus {
	switch {
	case !m.Active:
		return StatusInactive
	case m.IsResponsible:
		return StatusResponsible
	default:
		return StatusActive
	}
}

// SetStatus keeps the stored flags consistent: an inactive member never
// carries the responsible flag.
func (m *Member) SetStatus(status MemberStatus) {
	switch status {
	case StatusResponsible:
		m.Active = true
		m.IsResponsible = true
		m.Relationship = RelationshipResponsible
	case StatusActive:
		m.Active = true
		m.IsResponsible = false
		if m.Relationship == RelationshipResponsible {
			m.Relationship = ""
		}
	default:
		m.Active = false
		m.IsResponsible = false
	}
}

func (m Member) IdentityComparable() bool {
	return trimmed(m.Name) != "" && trimmed(m.DateOfBirth) != ""
}

func (f *Family) MemberIndex(memberID string) int {
	for i := range f.Members {
		if f.Members[i].ID == memberID {
			return i
		}
	}
	return -1
}

// Responsible returns the active responsible member, if any.
func (f *Family) Responsible() (*Member, bool) {
	for i := range f.Members {
		if f.Members[i].Status() == StatusResponsible {
			return &f.Members[i], true
		}
	}
	return nil, false
}

func (f *Family) ActiveMembers() []Member {
	result := make([]Member, 0, len(f.Members))
	for _, member := range f.Members {
		if member.Active {
			result = append(result, member)
		}
	}
	return result
}

func (f *Family) ActiveIncome() float64 {
	var total float64
	for _, member := range f.ActiveMembers() {
		total += member.GrossIncome
	}
	return total
}

func (f Family) Clone() Family {
	clone := f
	clone.Members = append([]Member(nil), f.Members...)
	return clone
}

type Technician struct {
	ID     string
	CrasID string
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
)

type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
