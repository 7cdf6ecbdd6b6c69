package family

import "fmt"

// ReassignIfNeeded repairs the household after removed left the active set
// (deleted, deactivated or transferred out). Only a departing responsible
// member triggers it; the lowest-index active member takes over. With no
// active members left the household stays without a responsible member until
// the next add.
func ReassignIfNeeded(f *Family, removed Member) (*Member, bool) {
	if !removed.IsResponsible {
		return nil, false
	}
	if _, ok := f.Responsible(); ok {
		return nil, false
	}
	for i := range f.Members {
		if f.Members[i].ID == removed.ID || !f.Members[i].Active {
			continue
		}
		f.Members[i].SetStatus(StatusResponsible)
		return &f.Members[i], true
	}
	return nil, false
}

// EnsureResponsible marks the only active member responsible. Lists with
// more than one active member are left alone.
func EnsureResponsible(members []Member) (*Member, bool) {
	index := -1
	for i := range members {
		if !members[i].Active {
			continue
		}
		if index != -1 {
			return nil, false
		}
		index = i
	}
	if index == -1 || members[index].IsResponsible {
		return nil, false
	}
	members[index].SetStatus(StatusResponsible)
	return &members[index], true
}

// SetResponsible makes the member at index the household's responsible
// member and demotes any other.
func SetResponsible(members []Member, index int) error {
	if index < 0 || index >= len(members) {
		return ErrInvalidSlot
	}
	if !members[index].Active {
		return ErrMemberInactive
	}
	for i := range members {
		if i != index && members[i].IsResponsible {
			members[i].SetStatus(members[i].demoted())
		}
	}
	members[index].SetStatus(StatusResponsible)
	return nil
}

func (m Member) demoted() MemberStatus {
	if m.Active {
		return StatusActive
	}
	return StatusInactive
}

// CountActiveResponsible is at most one for every household at rest.
func CountActiveResponsible(members []Member) int {
	count := 0
	for _, member := range members {
		if member.Status() == StatusResponsible {
			count++
		}
	}
	return count
}

func hasActiveResponsible(members []Member) bool {
	return CountActiveResponsible(members) > 0
}

func countActive(members []Member) int {
	count := 0
	for _, member := range members {
		if member.Active {
			count++
		}
	}
	return count
}

func responsibleNotice(m *Member) Notice {
	name := trimmed(m.Name)
	if name == "" {
		name = "O primeiro membro ativo"
	}
	return Notice{
		Level:   NoticeInfo,
		Message: fmt.Sprintf("%s foi definido(a) como novo(a) responsável", name),
	}
}
