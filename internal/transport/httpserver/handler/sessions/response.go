package sessions

import (
	familydomain "cras-cadastro/internal/domain/family"
)

type sessionResponse struct {
	ID       string                `json:"id"`
	Family   familydomain.Family   `json:"family"`
	Income   float64               `json:"rendaFamiliar"`
	Pending  *familydomain.Prompt  `json:"pending"`
	ReadOnly bool                  `json:"read_only"`
	Notices  []familydomain.Notice `json:"notices"`
}

func toSessionResponse(id string, outcome familydomain.Outcome) sessionResponse {
	f := outcome.Family
	if f.Members == nil {
		f.Members = []familydomain.Member{}
	}
	notices := outcome.Notices
	if notices == nil {
		notices = []familydomain.Notice{}
	}
	return sessionResponse{
		ID:       id,
		Family:   f,
		Income:   f.ActiveIncome(),
		Pending:  outcome.Pending,
		ReadOnly: outcome.ReadOnly,
		Notices:  notices,
	}
}
