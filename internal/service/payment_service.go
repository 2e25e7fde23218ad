package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/repository"
)

const (
	PaymentResultSuccess            = "success"
	PaymentResultNotFound           = "not_found"
	PaymentResultAlreadyPaid        = "already_paid"
	PaymentResultInsufficientFunds  = "insufficient_funds"
	PaymentResultTransactionFailure = "transaction_failure"
)

const maxRetryBackoff = time.Second

// Postgres error codes after which the whole transaction can safely run again.
var retryableSQLStates = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

type PaymentStore interface {
	Begin(ctx context.Context) (repository.PaymentTx, error)
}

type PaymentObserver interface {
	PaymentFinished(result string, amount decimal.Decimal, elapsed time.Duration)
	PaymentRetried()
}

type PaymentOptions struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

type PaymentService struct {
	store    PaymentStore
	observer PaymentObserver
	opts     PaymentOptions
	now      func() time.Time
}

func NewPaymentService(store PaymentStore, observer PaymentObserver, opts PaymentOptions) *PaymentService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &PaymentService{
		store:    store,
		observer: observer,
		opts:     opts,
		now:      time.Now,
	}
}

// Pay moves the job price from the client to the contractor and marks the
// job paid, all in one store transaction. Only the contract's client may pay.
func (s *PaymentService) Pay(ctx context.Context, jobID, profileID int64) (*model.Job, error) {
	start := time.Now()

	var (
		job *model.Job
		err error
	)
	for attempt := 0; ; attempt++ {
		job, err = s.pay(ctx, jobID, profileID)
		if !s.shouldRetry(ctx, err, attempt) {
			break
		}
		s.observer.PaymentRetried()
		if waitErr := s.backoff(ctx, attempt); waitErr != nil {
			err = &TxError{Op: "retry backoff", Err: waitErr}
			break
		}
	}

	amount := decimal.Zero
	if err == nil {
		amount = job.Price
	}
	s.observer.PaymentFinished(paymentResult(err), amount, time.Since(start))
	return job, err
}

func (s *PaymentService) pay(ctx context.Context, jobID, profileID int64) (*model.Job, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, txError("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock order is job, client, contractor. Clients and contractors are
	// disjoint profile sets, so two payments can never wait on each other in
	// a cycle.
	job, err := tx.FindJobWithContract(ctx, jobID, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, txError("lock job", err)
	}
	if job.Contract == nil || job.Contract.ClientID != profileID {
		return nil, ErrNotFound
	}
	if job.Paid {
		return nil, ErrAlreadyPaid
	}
	if !job.Price.IsPositive() {
		return nil, txError("validate job", fmt.Errorf("job %d has non-positive price %s", job.ID, job.Price))
	}

	client, err := tx.FindProfile(ctx, job.Contract.ClientID, true)
	if err != nil {
		return nil, txError("lock client profile", err)
	}
	if job.Price.GreaterThan(client.Balance) {
		return nil, ErrInsufficientFunds
	}

	contractor, err := tx.FindProfile(ctx, job.Contract.ContractorID, true)
	if err != nil {
		return nil, txError("lock contractor profile", err)
	}

	if err := tx.AdjustBalance(ctx, client.ID, job.Price.Neg()); err != nil {
		return nil, txError("debit client", err)
	}
	if err := tx.AdjustBalance(ctx, contractor.ID, job.Price); err != nil {
		return nil, txError("credit contractor", err)
	}

	paidAt := s.now().UTC()
	if err := tx.MarkJobPaid(ctx, job.ID, paidAt); err != nil {
		if errors.Is(err, repository.ErrJobAlreadyPaid) {
			return nil, ErrAlreadyPaid
		}
		return nil, txError("mark job paid", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, txError("commit", err)
	}
	committed = true

	job.Paid = true
	job.PaymentDate = &paidAt
	job.UpdatedAt = paidAt
	return job, nil
}

func (s *PaymentService) shouldRetry(ctx context.Context, err error, attempt int) bool {
	if err == nil || attempt >= s.opts.MaxRetries || ctx.Err() != nil {
		return false
	}
	var txErr *TxError
	return errors.As(err, &txErr) && txErr.Retryable
}

func (s *PaymentService) backoff(ctx context.Context, attempt int) error {
	delay := s.opts.RetryBackoff << attempt
	if delay <= 0 {
		return ctx.Err()
	}
	if delay > maxRetryBackoff {
		delay = maxRetryBackoff
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func txError(op string, err error) *TxError {
	return &TxError{Op: op, Err: err, Retryable: isRetryable(err)}
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	_, ok := retryableSQLStates[pgErr.Code]
	return ok
}

func paymentResult(err error) string {
	switch {
	case err == nil:
		return PaymentResultSuccess
	case errors.Is(err, ErrNotFound):
		return PaymentResultNotFound
	case errors.Is(err, ErrAlreadyPaid):
		return PaymentResultAlreadyPaid
	case errors.Is(err, ErrInsufficientFunds):
		return PaymentResultInsufficientFunds
	default:
		return PaymentResultTransactionFailure
	}
}

type nopObserver struct{}

func (nopObserver) PaymentFinished(string, decimal.Decimal, time.Duration) {}

func (nopObserver) PaymentRetried() {}
