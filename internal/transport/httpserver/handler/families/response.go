package families

import (
	familydomain "cras-cadastro/internal/domain/family"
)

type familyResponse struct {
	familydomain.Family
	Income float64 `json:"rendaFamiliar"`
}

func toFamilyResponse(f familydomain.Family) familyResponse {
	if f.Members == nil {
		f.Members = []familydomain.Member{}
	}
	return familyResponse{Family: f, Income: f.ActiveIncome()}
}

func toFamilyResponses(families []familydomain.Family) []familyResponse {
	response := make([]familyResponse, 0, len(families))
	for _, f := range families {
		response = append(response, toFamilyResponse(f))
	}
	return response
}

type matchResponse struct {
	Matched     bool                   `json:"matched"`
	Rule        familydomain.MatchRule `json:"rule,omitempty"`
	FamilyID    string                 `json:"family_id,omitempty"`
	Prontuario  string                 `json:"prontuario,omitempty"`
	MemberIndex int                    `json:"member_index"`
	Member      *familydomain.Member   `json:"member,omitempty"`
}

func toMatchResponse(match familydomain.Match, ok bool) matchResponse {
	if !ok {
		return matchResponse{}
	}
	member := match.Member
	return matchResponse{
		Matched:     true,
		Rule:        match.Rule,
		FamilyID:    match.Family.ID,
		Prontuario:  match.Family.Prontuario,
		MemberIndex: match.MemberIndex,
		Member:      &member,
	}
}
