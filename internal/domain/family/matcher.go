package family

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type MatchRule string

const (
	MatchByNameAndBirth MatchRule = "name_birth"
	MatchByCPF          MatchRule = "cpf"
	MatchByNIS          MatchRule = "nis"
)

type Candidate struct {
	Name        string
	CPF         string
	NIS         string
	DateOfBirth string
}

func CandidateFromMember(m Member) Candidate {
	return Candidate{
		Name:        m.Name,
		CPF:         m.CPF,
		NIS:         m.NIS,
		DateOfBirth: m.DateOfBirth,
	}
}

// Match points at an active member of another household.
type Match struct {
	Family      Family
	Member      Member
	MemberIndex int
	Rule        MatchRule
}

func (m Match) sameMember(other Match) bool {
	return m.Family.ID == other.Family.ID && m.Member.ID == other.Member.ID
}

// FindMatch scans families in order, skipping excludingID, and returns the
// first active member matching the candidate. Candidates without both a name
// and a date of birth never match.
func FindMatch(families []Family, candidate Candidate, excludingID string) (Match, bool) {
	if trimmed(candidate.Name) == "" || trimmed(candidate.DateOfBirth) == "" {
		return Match{}, false
	}

	name := foldName(candidate.Name)
	for _, f := range families {
		if f.ID == excludingID {
			continue
		}
		for i, member := range f.Members {
			if !member.Active {
				continue
			}
			rule, ok := matchMember(member, candidate, name)
			if !ok {
				continue
			}
			return Match{
				Family:      f.Clone(),
				Member:      member,
				MemberIndex: i,
				Rule:        rule,
			}, true
		}
	}
	return Match{}, false
}

func matchMember(member Member, candidate Candidate, foldedName string) (MatchRule, bool) {
	if foldName(member.Name) == foldedName && member.DateOfBirth == candidate.DateOfBirth {
		return MatchByNameAndBirth, true
	}
	if candidate.CPF != "" && member.CPF != "" && candidate.CPF == member.CPF {
		return MatchByCPF, true
	}
	if candidate.NIS != "" && member.NIS != "" && candidate.NIS == member.NIS {
		return MatchByNIS, true
	}
	return "", false
}

func foldName(name string) string {
	return cases.Fold().String(norm.NFC.String(trimmed(name)))
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}
