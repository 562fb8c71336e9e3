package core

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// UpcomingWindow is how far ahead Upcoming looks.
const UpcomingWindow = 7 * 24 * time.Hour

type (
	Frequency string

	// RecurringPayment is a template for an expense that repeats on a schedule.
	RecurringPayment struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Amount    Money     `json:"amount"`
		Category  string    `json:"category"`
		Frequency Frequency `json:"frequency"`
		NextDate  Date      `json:"nextDate"`
		// AnchorDay is the day of the month the schedule was set up on.
		// Month-based schedules return to it after clamping to a shorter month.
		AnchorDay int       `json:"anchorDay,omitempty"`
		Active    bool      `json:"isActive"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return true
	default:
		return false
	}
}

func (p RecurringPayment) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if !p.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if err := p.NextDate.Validate(); err != nil {
		return errors.New("invalid next date: " + err.Error())
	}
	return nil
}

// Anchor returns AnchorDay, or the day of NextDate for payments stored without one.
func (p RecurringPayment) Anchor() int {
	if p.AnchorDay >= 1 && p.AnchorDay <= 31 {
		return p.AnchorDay
	}
	return p.NextDate.Day()
}

// Transaction returns the expense recorded when p is paid.
func (p RecurringPayment) Transaction() NewTransaction {
	return NewTransaction{
		Description: p.Name,
		Amount:      p.Amount,
		Type:        Expense,
		Category:    p.Category,
	}
}

// DaysUntil returns the number of whole days from today to d. Negative when d has passed.
func DaysUntil(d Date, now time.Time) int {
	today := DateOf(now)
	return int(math.Round(d.Sub(today.Time).Hours() / 24))
}

// Upcoming returns the active payments due between today and a week from now, soonest first.
func Upcoming(payments []RecurringPayment, now time.Time) []RecurringPayment {
	today := DateOf(now).Time
	limit := today.Add(UpcomingWindow)
	var out []RecurringPayment
	for _, p := range payments {
		if !p.Active {
			continue
		}
		if p.NextDate.Before(today) || p.NextDate.After(limit) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextDate.Before(out[j].NextDate.Time)
	})
	return out
}

// TotalMonthly sums the amounts of active monthly payments.
func TotalMonthly(payments []RecurringPayment) Money {
	var total Money
	for _, p := range payments {
		if p.Active && p.Frequency == Monthly {
			total = total.Add(p.Amount)
		}
	}
	return total
}
