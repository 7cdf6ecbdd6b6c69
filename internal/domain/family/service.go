package family

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const defaultSessionTTL = 2 * time.Hour

type Service struct {
	records    *Records
	notifier   Notifier
	metrics    Metrics
	sessions   SessionCache
	sessionTTL time.Duration
	now        func() time.Time
	newID      func() string
}

type Option func(*Service)

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

func WithSessionCache(cache SessionCache, ttl time.Duration) Option {
	return func(s *Service) {
		if cache != nil {
			s.sessions = cache
		}
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewService(records *Records, opts ...Option) *Service {
	s := &Service{
		records:    records,
		notifier:   noopNotifier{},
		metrics:    noopMetrics{},
		sessions:   noopSessionCache{},
		sessionTTL: defaultSessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (*Family, error) {
	return s.records.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Family, error) {
	return s.records.List(ctx)
}

// FindMatch runs the member matcher against the current store contents.
func (s *Service) FindMatch(ctx context.Context, candidate Candidate, excludingID string) (Match, bool, error) {
	families, err := s.records.List(ctx)
	if err != nil {
		return Match{}, false, err
	}
	match, ok := FindMatch(families, candidate, excludingID)
	return match, ok, nil
}

// Search filters families by a free-text term over prontuario and member
// name, cpf and nis. An empty term returns everything.
func (s *Service) Search(ctx context.Context, term string) ([]Family, error) {
	families, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(trimmed(term))
	if term == "" {
		return families, nil
	}

	result := make([]Family, 0)
	for _, f := range families {
		if strings.Contains(strings.ToLower(f.Prontuario), term) {
			result = append(result, f)
			continue
		}
		for _, member := range f.Members {
			if strings.Contains(strings.ToLower(member.Name), term) ||
				strings.Contains(strings.ToLower(member.CPF), term) ||
				strings.Contains(strings.ToLower(member.NIS), term) {
				result = append(result, f)
				break
			}
		}
	}
	return result, nil
}

type LookupQuery struct {
	Name string
	CPF  string
	NIS  string
}

// Lookup is the identity search run before registering a new household:
// name substring, cpf compared on digits only, exact nis.
func (s *Service) Lookup(ctx context.Context, query LookupQuery) ([]Family, error) {
	families, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(trimmed(query.Name))
	cpf := digitsOnly(query.CPF)
	nis := trimmed(query.NIS)

	result := make([]Family, 0)
	for _, f := range families {
		for _, member := range f.Members {
			nameMatch := name != "" && strings.Contains(strings.ToLower(member.Name), name)
			cpfMatch := cpf != "" && digitsOnly(member.CPF) == cpf
			nisMatch := nis != "" && member.NIS == nis
			if nameMatch || cpfMatch || nisMatch {
				result = append(result, f)
				break
			}
		}
	}
	return result, nil
}

// Save writes a household. New households are stamped with the technician's
// CRAS; existing ones may only be saved from their owning CRAS.
func (s *Service) Save(ctx context.Context, tech Technician, f Family) (*Family, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}

	var saved Family
	err := s.records.Update(ctx, func(c *Collection) error {
		saved = f.Clone()
		now := s.now()
		if saved.ID != "" {
			existing, ok := c.Find(saved.ID)
			if !ok {
				return ErrFamilyNotFound
			}
			if existing.CrasID != tech.CrasID {
				return ErrForbiddenCras
			}
			saved.CrasID = existing.CrasID
			saved.CreatedBy = existing.CreatedBy
			saved.CreatedAt = existing.CreatedAt
		} else {
			if !IsKnownCras(tech.CrasID) {
				return ErrUnknownCras
			}
			saved.ID = s.newID()
			saved.CrasID = tech.CrasID
			saved.CreatedBy = tech.ID
			saved.CreatedAt = now
		}
		saved.UpdatedAt = now
		c.Put(saved)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func (s *Service) Delete(ctx context.Context, tech Technician, id string) error {
	return s.records.Update(ctx, func(c *Collection) error {
		existing, ok := c.Find(id)
		if !ok {
			return ErrFamilyNotFound
		}
		if existing.CrasID != tech.CrasID {
			return ErrForbiddenCras
		}
		c.Delete(id)
		return nil
	})
}

// TransferToCras hands a whole household over to the technician's CRAS.
func (s *Service) TransferToCras(ctx context.Context, tech Technician, id string) (*Family, error) {
	if !IsKnownCras(tech.CrasID) {
		return nil, ErrUnknownCras
	}

	var result Family
	err := s.records.Update(ctx, func(c *Collection) error {
		existing, ok := c.Find(id)
		if !ok {
			return ErrFamilyNotFound
		}
		existing.CrasID = tech.CrasID
		existing.UpdatedAt = s.now()
		c.Put(existing)
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Notice{Level: NoticeSuccess, Message: fmt.Sprintf("Família transferida para %s", tech.CrasID)})
	return &result, nil
}

// Validate checks a household before it is saved.
func Validate(f Family) error {
	if trimmed(f.Prontuario) == "" {
		return fmt.Errorf("%w: prontuario is required", ErrValidation)
	}
	if len(f.Members) == 0 {
		return fmt.Errorf("%w: at least one member is required", ErrValidation)
	}
	for i, member := range f.Members {
		if trimmed(member.Name) == "" {
			return fmt.Errorf("%w: member %d name is required", ErrValidation, i+1)
		}
	}
	switch responsible := CountActiveResponsible(f.Members); {
	case responsible > 1:
		return fmt.Errorf("%w: more than one active responsible member", ErrValidation)
	case responsible == 0 && countActive(f.Members) > 0:
		return fmt.Errorf("%w: a responsible member is required", ErrValidation)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, notices ...Notice) {
	for _, notice := range notices {
		s.notifier.Notify(ctx, notice)
	}
}

func digitsOnly(value string) string {
	var builder strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
