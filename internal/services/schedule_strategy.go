// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring payment scheduling.
// Each frequency (daily, weekly, monthly, quarterly, yearly) has its own
// strategy that computes the date of the next payment.

package services

import (
	"fmt"
	"sync"
	"time"

	"finanse/internal/core"
)

// Advancer is the strategy interface for moving a payment date forward by one period.
type Advancer interface {
	// Next returns the payment date that follows d. anchorDay is the day of
	// the month the schedule started on; 0 means the day of d.
	Next(d core.Date, anchorDay int) core.Date
}

// DayAdvancer moves a date forward by a fixed number of days.
type DayAdvancer struct {
	Days int
}

func (a DayAdvancer) Next(d core.Date, _ int) core.Date {
	return core.DateOf(d.AddDate(0, 0, a.Days))
}

// MonthAdvancer moves a date forward by whole months onto the anchor day.
// When the target month is shorter, the day is clamped to its last day, and
// later months return to the anchor (Jan 31 -> Feb 29 -> Mar 31).
type MonthAdvancer struct {
	Months int
}

func (a MonthAdvancer) Next(d core.Date, anchorDay int) core.Date {
	return AddMonthsClamped(d, a.Months, anchorDay)
}

// AddMonthsClamped moves d by months onto day anchorDay (the day of d when
// anchorDay is 0), clamping to the end of the target month.
func AddMonthsClamped(d core.Date, months, anchorDay int) core.Date {
	first := time.Date(d.Year(), time.Month(d.Month())+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := anchorDay
	if day < 1 {
		day = d.Day()
	}
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}

var (
	strategiesMu sync.RWMutex
	// advanceStrategies maps frequencies to their advancers.
	advanceStrategies = map[core.Frequency]Advancer{
		core.Daily:     DayAdvancer{Days: 1},
		core.Weekly:    DayAdvancer{Days: 7},
		core.Monthly:   MonthAdvancer{Months: 1},
		core.Quarterly: MonthAdvancer{Months: 3},
		core.Yearly:    MonthAdvancer{Months: 12},
	}
)

// GetAdvancer returns the advancer for a frequency.
// Returns an error if the frequency is not supported.
func GetAdvancer(frequency core.Frequency) (Advancer, error) {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	a, ok := advanceStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, frequency)
	}
	return a, nil
}

// RegisterAdvancer registers or replaces the advancer for a frequency.
func RegisterAdvancer(frequency core.Frequency, a Advancer) {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	advanceStrategies[frequency] = a
}

// NextDate advances d by one period of frequency, keeping anchorDay for
// month-based frequencies.
func NextDate(d core.Date, frequency core.Frequency, anchorDay int) (core.Date, error) {
	a, err := GetAdvancer(frequency)
	if err != nil {
		return core.Date{}, err
	}
	return a.Next(d, anchorDay), nil
}
