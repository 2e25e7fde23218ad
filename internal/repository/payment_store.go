package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/marketplace-payments/internal/model"
)

// PaymentTx is a single store transaction used by the payment flow. Every
// method except Commit and Rollback runs inside the transaction.
type PaymentTx interface {
	FindJobWithContract(ctx context.Context, jobID int64, forUpdate bool) (*model.Job, error)
	FindProfile(ctx context.Context, profileID int64, forUpdate bool) (*model.Profile, error)
	AdjustBalance(ctx context.Context, profileID int64, delta decimal.Decimal) error
	MarkJobPaid(ctx context.Context, jobID int64, paidAt time.Time) error
	Commit() error
	Rollback() error
}

type TxOptions struct {
	Isolation sql.IsolationLevel
	// LockTimeout bounds how long a row lock may be waited for. Only applied
	// on postgres.
	LockTimeout time.Duration
}

type PaymentStore struct {
	db   *gorm.DB
	opts TxOptions
}

func NewPaymentStore(db *gorm.DB, opts TxOptions) *PaymentStore {
	return &PaymentStore{db: db, opts: opts}
}

func (s *PaymentStore) Begin(ctx context.Context) (PaymentTx, error) {
	var tx *gorm.DB
	if s.opts.Isolation != sql.LevelDefault {
		tx = s.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: s.opts.Isolation})
	} else {
		tx = s.db.WithContext(ctx).Begin()
	}
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	if s.opts.LockTimeout > 0 && tx.Dialector.Name() == "postgres" {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.opts.LockTimeout.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &gormPaymentTx{tx: tx}, nil
}

type gormPaymentTx struct {
	tx *gorm.DB
}

func (t *gormPaymentTx) FindJobWithContract(ctx context.Context, jobID int64, forUpdate bool) (*model.Job, error) {
	query := t.tx.WithContext(ctx).InnerJoins("Contract")
	if forUpdate {
		// Only the job row is locked; the contract is read as of the lock.
		query = query.Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: clause.CurrentTable},
		})
	}

	var job model.Job
	if err := query.Where("jobs.id = ?", jobID).Take(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (t *gormPaymentTx) FindProfile(ctx context.Context, profileID int64, forUpdate bool) (*model.Profile, error) {
	query := t.tx.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var profile model.Profile
	if err := query.Where("id = ?", profileID).Take(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// AdjustBalance adds delta (which may be negative) to the balance in SQL so
// the stored value, not a value read earlier, is the base of the update.
func (t *gormPaymentTx) AdjustBalance(ctx context.Context, profileID int64, delta decimal.Decimal) error {
	res := t.tx.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", profileID).
		UpdateColumns(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *gormPaymentTx) MarkJobPaid(ctx context.Context, jobID int64, paidAt time.Time) error {
	res := t.tx.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND paid = ?", jobID, false).
		UpdateColumns(map[string]interface{}{
			"paid":         true,
			"payment_date": paidAt,
			"updated_at":   paidAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrJobAlreadyPaid
	}
	return nil
}

func (t *gormPaymentTx) Commit() error {
	return t.tx.Commit().Error
}

// Rollback is safe to call after Commit or after the context has already
// aborted the transaction.
func (t *gormPaymentTx) Rollback() error {
	err := t.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
