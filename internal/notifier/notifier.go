// Package notifier runs the periodic overdue-loan scan and emails the
// affected customers.
package notifier

import (
	"context"
	"log"
	"time"

	"libraryapi/internal/loan"
	"libraryapi/internal/mail"
)

// Subject is fixed for every overdue notification.
const Subject = "Livro com empréstimo atrasado"

// LoanSource yields the currently overdue loans.
type LoanSource interface {
	AllLate(ctx context.Context, windowDays int) ([]loan.Loan, error)
}

// Notifier periodically collects overdue loans and dispatches one message
// addressed to all affected customers. Delivery is at-least-once: a failed
// run is retried in full on the next tick, so still-overdue customers may
// be notified again.
type Notifier struct {
	loans      LoanSource
	sender     mail.Sender
	interval   time.Duration
	windowDays int
	message    string
}

func New(loans LoanSource, sender mail.Sender, interval time.Duration, windowDays int, message string) *Notifier {
	return &Notifier{
		loans:      loans,
		sender:     sender,
		interval:   interval,
		windowDays: windowDays,
		message:    message,
	}
}

// Run ticks until ctx is cancelled. A slow run simply delays the next tick;
// ticks themselves are not cancelled mid-flight.
func (n *Notifier) Run(ctx context.Context) {
	log.Printf("notifier started interval=%s window_days=%d", n.interval, n.windowDays)
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("notifier stopped")
			return
		case <-ticker.C:
			if err := n.Notify(ctx); err != nil {
				log.Printf("notifier run failed: error=%v", err)
			}
		}
	}
}

// Notify performs one scan-and-dispatch run. A run with no overdue loans
// sends nothing.
func (n *Notifier) Notify(ctx context.Context) error {
	late, err := n.loans.AllLate(ctx, n.windowDays)
	if err != nil {
		return err
	}

	recipients := distinctEmails(late)
	if len(recipients) == 0 {
		return nil
	}

	log.Printf("notifier dispatching overdue_loans=%d recipients=%d", len(late), len(recipients))
	return n.sender.Send(ctx, recipients, Subject, n.message)
}

// distinctEmails keeps first-seen order so repeated runs address recipients
// deterministically.
func distinctEmails(loans []loan.Loan) []string {
	seen := make(map[string]struct{}, len(loans))
	var emails []string
	for _, l := range loans {
		if _, ok := seen[l.CustomerEmail]; ok {
			continue
		}
		seen[l.CustomerEmail] = struct{}{}
		emails = append(emails, l.CustomerEmail)
	}
	return emails
}
