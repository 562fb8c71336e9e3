package planner

import (
	"context"
	"strings"
	"time"

	"finanse/internal/core"
	"finanse/internal/kv"
	"finanse/internal/log"
)

// Recurring is the persisted list of recurring payments.
type Recurring struct {
	b *book[core.RecurringPayment]
}

func NewRecurring(ctx context.Context, store kv.Store, opts ...Option) (*Recurring, error) {
	b, err := openBook[core.RecurringPayment](ctx, store, RecurringKey, opts)
	if err != nil {
		return nil, err
	}
	return &Recurring{b: b}, nil
}

func byPaymentID(id string) func(core.RecurringPayment) bool {
	return func(p core.RecurringPayment) bool { return p.ID == id }
}

// Add validates p and stores it as a new active payment. ID and CreatedAt are assigned.
func (s *Recurring) Add(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Active = true
	if err := p.Validate(); err != nil {
		return core.RecurringPayment{}, err
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	p.ID = s.b.newID()
	p.CreatedAt = s.b.now()
	p.AnchorDay = p.NextDate.Day()
	s.b.insert(ctx, p, byPaymentID(p.ID))

	s.b.logger.InfoContext(ctx, "Recurring payment added",
		log.FieldOperation, log.OpCreate,
		log.FieldPaymentID, p.ID,
		log.FieldFrequency, string(p.Frequency),
		log.FieldAmountCents, p.Amount.Cents)
	return p, nil
}

// Update replaces the editable fields of the payment with p.ID.
// ID and CreatedAt are kept. A changed NextDate also moves the anchor day.
func (s *Recurring) Update(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return core.RecurringPayment{}, err
	}
	updated, found, err := s.b.update(ctx, byPaymentID(p.ID), func(cur *core.RecurringPayment) error {
		p.CreatedAt = cur.CreatedAt
		p.AnchorDay = cur.AnchorDay
		if !p.NextDate.Equal(cur.NextDate.Time) {
			p.AnchorDay = p.NextDate.Day()
		}
		*cur = p
		return nil
	})
	if err != nil {
		return core.RecurringPayment{}, err
	}
	if !found {
		return core.RecurringPayment{}, ErrPaymentNotFound
	}
	return updated, nil
}

// Toggle flips the active flag and returns the new value.
func (s *Recurring) Toggle(ctx context.Context, id string) (bool, error) {
	updated, found, _ := s.b.update(ctx, byPaymentID(id), func(cur *core.RecurringPayment) error {
		cur.Active = !cur.Active
		return nil
	})
	if !found {
		return false, ErrPaymentNotFound
	}
	return updated.Active, nil
}

// SetNextDate moves the payment forward without changing its anchor day.
func (s *Recurring) SetNextDate(ctx context.Context, id string, next core.Date) error {
	if err := next.Validate(); err != nil {
		return err
	}
	_, found, _ := s.b.update(ctx, byPaymentID(id), func(cur *core.RecurringPayment) error {
		cur.NextDate = next
		return nil
	})
	if !found {
		return ErrPaymentNotFound
	}
	return nil
}

func (s *Recurring) Delete(ctx context.Context, id string) bool {
	return s.b.remove(ctx, byPaymentID(id))
}

func (s *Recurring) Find(id string) (core.RecurringPayment, bool) {
	return s.b.find(byPaymentID(id))
}

func (s *Recurring) List() []core.RecurringPayment {
	return s.b.list()
}

// Upcoming returns active payments due within the next week, soonest first.
func (s *Recurring) Upcoming(now time.Time) []core.RecurringPayment {
	return core.Upcoming(s.List(), now)
}

func (s *Recurring) TotalMonthly() core.Money {
	return core.TotalMonthly(s.List())
}
