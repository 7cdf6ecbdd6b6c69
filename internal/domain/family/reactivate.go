package family

import (
	"context"
	"fmt"
)

type ReactivateResult struct {
	Family Family
	// PulledFrom is set when an active duplicate elsewhere was deactivated.
	PulledFrom *Match
	Notices    []Notice
}

// Reactivate restores the member at index of a working household. If the
// same person is active in another household, that record is deactivated
// first and the change is written immediately. The working copy itself is
// only returned.
func (s *Service) Reactivate(ctx context.Context, working Family, index int) (ReactivateResult, error) {
	if index < 0 || index >= len(working.Members) {
		return ReactivateResult{}, ErrInvalidSlot
	}

	updated := working.Clone()
	if updated.Members[index].Active {
		return ReactivateResult{Family: updated}, nil
	}

	candidate := CandidateFromMember(updated.Members[index])
	var (
		pulled       *Match
		promotedAway *Member
	)
	err := s.records.Update(ctx, func(c *Collection) error {
		pulled, promotedAway = nil, nil

		match, ok := FindMatch(c.All(), candidate, working.ID)
		if !ok {
			return nil
		}
		other, ok := c.Find(match.Family.ID)
		if !ok {
			return nil
		}

		departing := other.Members[match.MemberIndex]
		other.Members[match.MemberIndex].SetStatus(StatusInactive)
		other.UpdatedAt = s.now()
		if reassigned, ok := ReassignIfNeeded(&other, departing); ok {
			promoted := *reassigned
			promotedAway = &promoted
		}
		c.Put(other)

		match.Family = other.Clone()
		pulled = &match
		return nil
	})
	if err != nil {
		return ReactivateResult{}, fmt.Errorf("deactivate duplicate member: %w", err)
	}

	notices := make([]Notice, 0, 3)
	if pulled != nil {
		s.metrics.MatchDetected(pulled.Rule)
		notices = append(notices, Notice{
			Level:   NoticeInfo,
			Message: fmt.Sprintf("%s foi desativado(a) na família com prontuário %s", trimmed(pulled.Member.Name), pulled.Family.Prontuario),
		})
	}
	if promotedAway != nil {
		s.metrics.ResponsibilityReassigned()
		notices = append(notices, responsibleNotice(promotedAway))
	}

	updated.Members[index].SetStatus(StatusActive)
	if !hasActiveResponsible(updated.Members) {
		updated.Members[index].SetStatus(StatusResponsible)
		notices = append(notices, responsibleNotice(&updated.Members[index]))
	}
	notices = append(notices, Notice{
		Level:   NoticeSuccess,
		Message: fmt.Sprintf("%s reativado(a)", trimmed(updated.Members[index].Name)),
	})

	s.metrics.MemberReactivated(pulled != nil)
	s.publish(ctx, notices...)
	return ReactivateResult{Family: updated, PulledFrom: pulled, Notices: notices}, nil
}
