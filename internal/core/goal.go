package core

import (
	"math"
	"strings"
	"time"
)

// DefaultGoalColor is used when a goal is created without a color.
const DefaultGoalColor = "#667eea"

type (
	// Goal is a savings target. Income transactions whose description
	// mentions the goal name count towards it.
	Goal struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Target    Money     `json:"targetAmount"`
		Deadline  Date      `json:"deadline"`
		Color     string    `json:"color"`
		CreatedAt time.Time `json:"createdAt"`
	}

	GoalProgress struct {
		Goal          Goal
		Saved         Money
		Contributions []Transaction
		Percentage    float64 // capped at 100
		Remaining     Money
		DaysRemaining int // never negative
		Completed     bool
		Overdue       bool
		MonthlyNeeded Money
	}

	GoalsOverview struct {
		TotalSaved  Money
		TotalTarget Money
		Completed   int
	}
)

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Deadline.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Contributes reports whether t counts towards g.
func (g Goal) Contributes(t Transaction) bool {
	return t.Type == Income &&
		strings.Contains(strings.ToLower(t.Description), strings.ToLower(g.Name))
}

// SavingsContribution builds the income transaction that records a deposit towards g.
func SavingsContribution(g Goal, amount Money) NewTransaction {
	return NewTransaction{
		Description: "Oszczędności: " + g.Name,
		Amount:      amount,
		Type:        Income,
		Category:    SavingsCategory,
	}
}

// TrackGoal computes the progress of g from all transactions at now.
func TrackGoal(g Goal, txs []Transaction, now time.Time) GoalProgress {
	p := GoalProgress{Goal: g}
	for _, t := range txs {
		if g.Contributes(t) {
			p.Contributions = append(p.Contributions, t)
			p.Saved = p.Saved.Add(t.Amount)
		}
	}

	var pct float64
	if g.Target.Cents > 0 {
		pct = p.Saved.Float() / g.Target.Float() * 100
	}
	p.Percentage = math.Min(pct, 100)
	p.Completed = pct >= 100
	p.Remaining = g.Target.Sub(p.Saved)

	days := int(math.Ceil(g.Deadline.Sub(now).Hours() / 24))
	p.DaysRemaining = max(days, 0)
	p.Overdue = days < 0 && !p.Completed

	months := math.Max(float64(days)/30, 1)
	p.MonthlyNeeded = Money{Cents: int64(math.Round(float64(p.Remaining.Cents) / months))}
	return p
}

// TrackGoals computes progress for every goal plus totals.
func TrackGoals(goals []Goal, txs []Transaction, now time.Time) ([]GoalProgress, GoalsOverview) {
	var overview GoalsOverview
	progress := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		p := TrackGoal(g, txs, now)
		overview.TotalSaved = overview.TotalSaved.Add(p.Saved)
		overview.TotalTarget = overview.TotalTarget.Add(g.Target)
		if p.Completed {
			overview.Completed++
		}
		progress = append(progress, p)
	}
	return progress, overview
}
