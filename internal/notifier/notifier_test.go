package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/book"
	"libraryapi/internal/loan"
)

type stubSource struct {
	loans []loan.Loan
	err   error
}

func (s *stubSource) AllLate(ctx context.Context, windowDays int) ([]loan.Loan, error) {
	return s.loans, s.err
}

type stubSender struct {
	sent    int
	to      []string
	subject string
	body    string
	sendErr error
}

func (s *stubSender) Send(ctx context.Context, to []string, subject, body string) error {
	s.sent++
	s.to = to
	s.subject = subject
	s.body = body
	return s.sendErr
}

func lateLoan(email string) loan.Loan {
	l := loan.New("Customer", email, book.Book{ID: 1})
	l.LoanDate = l.LoanDate.AddDate(0, 0, -30)
	return l
}

func TestNotify_SendsOneMessageToDistinctEmails(t *testing.T) {
	source := &stubSource{loans: []loan.Loan{
		lateLoan("joao@x.com"),
		lateLoan("maria@x.com"),
		lateLoan("joao@x.com"),
	}}
	sender := &stubSender{}
	n := New(source, sender, time.Hour, 4, "Devolva o livro, por favor.")

	require.NoError(t, n.Notify(context.Background()))

	assert.Equal(t, 1, sender.sent)
	assert.Equal(t, []string{"joao@x.com", "maria@x.com"}, sender.to)
	assert.Equal(t, Subject, sender.subject)
	assert.Equal(t, "Devolva o livro, por favor.", sender.body)
}

func TestNotify_NoOverdueLoansSendsNothing(t *testing.T) {
	sender := &stubSender{}
	n := New(&stubSource{}, sender, time.Hour, 4, "msg")

	require.NoError(t, n.Notify(context.Background()))

	assert.Zero(t, sender.sent)
}

func TestNotify_SourceFailureAbortsRun(t *testing.T) {
	sender := &stubSender{}
	n := New(&stubSource{err: errors.New("db down")}, sender, time.Hour, 4, "msg")

	assert.Error(t, n.Notify(context.Background()))
	assert.Zero(t, sender.sent)
}

func TestNotify_TransportFailurePropagates(t *testing.T) {
	source := &stubSource{loans: []loan.Loan{lateLoan("joao@x.com")}}
	sender := &stubSender{sendErr: errors.New("smtp refused")}
	n := New(source, sender, time.Hour, 4, "msg")

	assert.Error(t, n.Notify(context.Background()))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	sender := &stubSender{}
	n := New(&stubSource{}, sender, time.Millisecond, 4, "msg")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop after context cancellation")
	}
}
