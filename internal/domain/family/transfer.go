package family

import (
	"context"
	"errors"
	"fmt"
)

type TransferRequest struct {
	SourceFamilyID string
	// Member is the matched member as seen when the match was detected. The
	// stored record is preferred when it still exists.
	Member      Member
	Destination []Member
	Slot        int
}

type TransferResult struct {
	Members           []Member
	Inserted          Member
	SourceDeactivated bool
	SourceProntuario  string
	// NewSourceResponsible is set when the transferred member was the source
	// household's responsible member and someone else took over.
	NewSourceResponsible *Member
	Notices              []Notice
}

// TransferMember moves a member out of its source household into a slot of a
// destination working list. The source side (deactivation and responsibility
// repair) is written to the store immediately; the destination list is only
// returned and becomes durable when its own household is saved.
//
// The slot keeps its own id and its responsible flag. A source household or
// member that no longer exists does not abort the transfer: the destination
// is still filled and an error notice is emitted. A source member that is
// already inactive has been moved elsewhere since the match was found, and
// the transfer fails with ErrStaleMatch without writing anything.
func (s *Service) TransferMember(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if req.Slot < 0 || req.Slot >= len(req.Destination) {
		return TransferResult{}, ErrInvalidSlot
	}

	var (
		data   Member
		result TransferResult
	)
	err := s.records.Update(ctx, func(c *Collection) error {
		// Atomic stores may run this more than once.
		data = req.Member
		result = TransferResult{}

		source, ok := c.Find(req.SourceFamilyID)
		if !ok {
			return nil
		}
		index := source.MemberIndex(req.Member.ID)
		if index == -1 {
			return nil
		}
		if !source.Members[index].Active {
			return ErrStaleMatch
		}

		departing := source.Members[index]
		data = departing
		source.Members[index].SetStatus(StatusInactive)
		source.UpdatedAt = s.now()
		if reassigned, ok := ReassignIfNeeded(&source, departing); ok {
			promoted := *reassigned
			result.NewSourceResponsible = &promoted
		}
		c.Put(source)

		result.SourceDeactivated = true
		result.SourceProntuario = source.Prontuario
		return nil
	})
	if errors.Is(err, ErrStaleMatch) {
		return TransferResult{}, err
	}
	if err != nil {
		return TransferResult{}, fmt.Errorf("deactivate source member: %w", err)
	}

	members := append([]Member(nil), req.Destination...)
	inserted := data
	inserted.ID = members[req.Slot].ID
	inserted.SetStatus(StatusActive)
	if members[req.Slot].Status() == StatusResponsible {
		inserted.SetStatus(StatusResponsible)
	}
	members[req.Slot] = inserted

	notices := make([]Notice, 0, 3)
	if !result.SourceDeactivated {
		notices = append(notices, Notice{
			Level:   NoticeError,
			Message: "Registro de origem não encontrado: o membro foi incluído sem desativação na família anterior",
		})
	} else {
		notices = append(notices, Notice{
			Level:   NoticeSuccess,
			Message: fmt.Sprintf("%s transferido(a) da família com prontuário %s", trimmed(inserted.Name), result.SourceProntuario),
		})
	}
	if result.NewSourceResponsible != nil {
		notices = append(notices, responsibleNotice(result.NewSourceResponsible))
		s.metrics.ResponsibilityReassigned()
	}
	if promoted, ok := EnsureResponsible(members); ok {
		notices = append(notices, responsibleNotice(promoted))
	}

	result.Members = members
	result.Inserted = members[req.Slot]
	result.Notices = notices

	s.metrics.TransferCompleted(result.SourceDeactivated)
	s.publish(ctx, notices...)
	return result, nil
}
