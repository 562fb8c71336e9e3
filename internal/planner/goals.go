package planner

import (
	"context"
	"strings"
	"time"

	"finanse/internal/core"
	"finanse/internal/kv"
	"finanse/internal/log"
)

// Goals is the persisted list of savings goals.
type Goals struct {
	b *book[core.Goal]
}

func NewGoals(ctx context.Context, store kv.Store, opts ...Option) (*Goals, error) {
	b, err := openBook[core.Goal](ctx, store, GoalsKey, opts)
	if err != nil {
		return nil, err
	}
	return &Goals{b: b}, nil
}

// Add creates a goal. An empty color falls back to core.DefaultGoalColor.
func (s *Goals) Add(ctx context.Context, name string, target core.Money, deadline core.Date, color string) (core.Goal, error) {
	g := core.Goal{
		Name:     strings.TrimSpace(name),
		Target:   target,
		Deadline: deadline,
		Color:    color,
	}
	if g.Color == "" {
		g.Color = core.DefaultGoalColor
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	g.ID = s.b.newID()
	g.CreatedAt = s.b.now()
	s.b.insert(ctx, g, func(o core.Goal) bool { return o.ID == g.ID })

	s.b.logger.InfoContext(ctx, "Savings goal added",
		log.FieldOperation, log.OpCreate,
		"goal", g.Name,
		log.FieldAmountCents, target.Cents)
	return g, nil
}

func (s *Goals) Delete(ctx context.Context, id string) bool {
	return s.b.remove(ctx, func(g core.Goal) bool { return g.ID == id })
}

func (s *Goals) Find(id string) (core.Goal, bool) {
	return s.b.find(func(g core.Goal) bool { return g.ID == id })
}

func (s *Goals) List() []core.Goal {
	return s.b.list()
}

// Progress tracks every goal against txs at now.
func (s *Goals) Progress(txs []core.Transaction, now time.Time) ([]core.GoalProgress, core.GoalsOverview) {
	return core.TrackGoals(s.List(), txs, now)
}
