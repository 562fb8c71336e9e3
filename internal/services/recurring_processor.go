package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finanse/internal/core"
	"finanse/internal/log"
)

// DefaultMaxCatchUp bounds how many missed periods of one payment are posted in a single run.
const DefaultMaxCatchUp = 12

// TransactionAdder records transactions. *ledger.Store satisfies it.
type TransactionAdder interface {
	Add(ctx context.Context, in core.NewTransaction) core.Transaction
}

// PaymentBook is the subset of *planner.Recurring the processor needs.
type PaymentBook interface {
	Find(id string) (core.RecurringPayment, bool)
	List() []core.RecurringPayment
	SetNextDate(ctx context.Context, id string, next core.Date) error
}

// ErrPaymentNotFound is returned by Post for an unknown payment.
var ErrPaymentNotFound = errors.New("recurring payment not found")

// ProcessResult summarizes one ProcessDue run.
type ProcessResult struct {
	Checked int
	Posted  int
	Skipped int // periods skipped past the catch-up limit
}

// RecurringProcessor posts recurring payments as expense transactions and
// moves their next date forward.
type RecurringProcessor struct {
	ledger     TransactionAdder
	payments   PaymentBook
	logger     *log.Logger
	maxCatchUp int
}

// NewRecurringProcessor creates a new recurring payment processor
func NewRecurringProcessor(ledger TransactionAdder, payments PaymentBook, logger *log.Logger) *RecurringProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecurringProcessor{
		ledger:     ledger,
		payments:   payments,
		logger:     logger.WithComponent(log.ComponentRecurring),
		maxCatchUp: DefaultMaxCatchUp,
	}
}

// SetMaxCatchUp changes the per-payment catch-up limit. Values below 1 are ignored.
func (p *RecurringProcessor) SetMaxCatchUp(n int) {
	if n >= 1 {
		p.maxCatchUp = n
	}
}

// Post records one payment of id as an expense now, whether or not the
// payment is due or active, and advances its next date by one period.
func (p *RecurringProcessor) Post(ctx context.Context, id string) (core.Transaction, core.RecurringPayment, error) {
	if p.ledger == nil || p.payments == nil {
		return core.Transaction{}, core.RecurringPayment{}, fmt.Errorf("processor not properly initialized")
	}

	payment, ok := p.payments.Find(id)
	if !ok {
		return core.Transaction{}, core.RecurringPayment{}, ErrPaymentNotFound
	}
	next, err := NextDate(payment.NextDate, payment.Frequency, payment.Anchor())
	if err != nil {
		return core.Transaction{}, core.RecurringPayment{}, err
	}

	tx := p.ledger.Add(ctx, payment.Transaction())
	if err := p.payments.SetNextDate(ctx, id, next); err != nil {
		return tx, payment, fmt.Errorf("advance next date: %w", err)
	}
	payment.NextDate = next

	p.logger.InfoContext(ctx, "Posted recurring payment",
		log.FieldPaymentID, id,
		log.FieldTransactionID, tx.ID,
		log.FieldAmountCents, payment.Amount.Cents,
		log.FieldFrequency, string(payment.Frequency),
		"next_date", next.String())
	return tx, payment, nil
}

// ProcessDue posts every active payment whose next date is on or before
// today, once per missed period up to the catch-up limit. Periods beyond the
// limit are skipped without posting so the next date always ends up after today.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	var res ProcessResult
	if p.ledger == nil || p.payments == nil {
		return res, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	payments := p.payments.List()
	p.logger.InfoContext(ctx, "Processing recurring payments",
		log.FieldOperation, log.OpProcess,
		log.FieldCount, len(payments),
		"processing_date", today.String())

	for _, payment := range payments {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !payment.Active {
			continue
		}
		res.Checked++
		if payment.NextDate.After(today.Time) {
			continue
		}

		advancer, err := GetAdvancer(payment.Frequency)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to schedule recurring payment",
				log.FieldPaymentID, payment.ID,
				log.FieldErrorType, log.ErrorTypeValidation,
				log.FieldError, err)
			continue
		}

		next := payment.NextDate
		anchor := payment.Anchor()
		posted := 0
		for !next.After(today.Time) {
			if posted >= p.maxCatchUp {
				res.Skipped++
			} else {
				p.ledger.Add(ctx, payment.Transaction())
				posted++
			}
			next = advancer.Next(next, anchor)
		}
		res.Posted += posted

		if err := p.payments.SetNextDate(ctx, payment.ID, next); err != nil {
			p.logger.ErrorContext(ctx, "Failed to update next payment date",
				log.FieldPaymentID, payment.ID,
				log.FieldError, err)
			continue
		}

		p.logger.InfoContext(ctx, "Created transactions from recurring payment",
			log.FieldPaymentID, payment.ID,
			log.FieldDescription, payment.Name,
			log.FieldCount, posted,
			log.FieldFrequency, string(payment.Frequency),
			"next_date", next.String())
	}

	if res.Skipped > 0 {
		p.logger.WarnContext(ctx, "Skipped missed periods beyond catch-up limit",
			"skipped", res.Skipped,
			"max_catch_up", p.maxCatchUp)
	}
	p.logger.InfoContext(ctx, "Recurring payment processing complete",
		"posted", res.Posted,
		"total_checked", res.Checked)
	return res, nil
}
