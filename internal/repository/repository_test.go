package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/storetest"
)

func TestProfileRepository_GetProfile(t *testing.T) {
	db := storetest.NewDB(t)
	repo := NewProfileRepository(db)
	storetest.AddProfile(t, db, 1, model.ProfileTypeClient, "1150.50")

	t.Run("finds existing profile", func(t *testing.T) {
		profile, err := repo.GetProfile(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, model.ProfileTypeClient, profile.Type)
		assert.True(t, decimal.RequireFromString("1150.50").Equal(profile.Balance))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetProfile(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestContractRepository(t *testing.T) {
	db := storetest.NewDB(t)
	repo := NewContractRepository(db)
	ctx := context.Background()

	storetest.AddProfile(t, db, 1, model.ProfileTypeClient, "100")
	storetest.AddProfile(t, db, 2, model.ProfileTypeContractor, "0")
	storetest.AddProfile(t, db, 3, model.ProfileTypeClient, "100")
	storetest.AddContract(t, db, 10, 1, 2, model.ContractStatusNew)
	storetest.AddContract(t, db, 11, 1, 2, model.ContractStatusTerminated)
	storetest.AddContract(t, db, 12, 3, 2, model.ContractStatusInProgress)

	t.Run("get contract", func(t *testing.T) {
		contract, err := repo.GetContract(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), contract.ClientID)
		assert.Equal(t, int64(2), contract.ContractorID)
		assert.Equal(t, model.ContractStatusNew, contract.Status)

		_, err = repo.GetContract(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("client sees only own non-terminated contracts", func(t *testing.T) {
		contracts, err := repo.ListActiveForProfile(ctx, 1)
		require.NoError(t, err)
		require.Len(t, contracts, 1)
		assert.Equal(t, int64(10), contracts[0].ID)
	})

	t.Run("contractor sees contracts of all clients", func(t *testing.T) {
		contracts, err := repo.ListActiveForProfile(ctx, 2)
		require.NoError(t, err)
		require.Len(t, contracts, 2)
		assert.Equal(t, int64(10), contracts[0].ID)
		assert.Equal(t, int64(12), contracts[1].ID)
	})

	t.Run("no contracts returns empty slice", func(t *testing.T) {
		contracts, err := repo.ListActiveForProfile(ctx, 77)
		require.NoError(t, err)
		assert.NotNil(t, contracts)
		assert.Empty(t, contracts)
	})
}

func TestJobRepository(t *testing.T) {
	db := storetest.NewDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	storetest.AddProfile(t, db, 1, model.ProfileTypeClient, "100")
	storetest.AddProfile(t, db, 2, model.ProfileTypeContractor, "0")
	storetest.AddProfile(t, db, 3, model.ProfileTypeContractor, "0")
	storetest.AddContract(t, db, 10, 1, 2, model.ContractStatusInProgress)
	storetest.AddContract(t, db, 11, 1, 3, model.ContractStatusNew)
	storetest.AddJob(t, db, 100, 10, "200")
	storetest.AddJob(t, db, 101, 10, "20")
	storetest.AddJob(t, db, 102, 11, "30")

	paidAt := time.Now().UTC()
	require.NoError(t, db.Model(&model.Job{}).Where("id = ?", 101).
		Updates(map[string]interface{}{"paid": true, "payment_date": paidAt}).Error)

	t.Run("unpaid jobs of in-progress contracts", func(t *testing.T) {
		jobs, err := repo.ListUnpaidForProfile(ctx, 1)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, int64(100), jobs[0].ID)
		assert.False(t, jobs[0].Paid)
		require.NotNil(t, jobs[0].Contract)
		assert.Equal(t, int64(2), jobs[0].Contract.ContractorID)
		assert.True(t, decimal.NewFromInt(200).Equal(jobs[0].Price))
	})

	t.Run("contractor of a new contract sees nothing", func(t *testing.T) {
		jobs, err := repo.ListUnpaidForProfile(ctx, 3)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("get job with contract", func(t *testing.T) {
		job, err := repo.GetJobWithContract(ctx, 101)
		require.NoError(t, err)
		assert.True(t, job.Paid)
		require.NotNil(t, job.PaymentDate)
		assert.WithinDuration(t, paidAt, *job.PaymentDate, time.Second)
		assert.Equal(t, int64(1), job.Contract.ClientID)

		_, err = repo.GetJobWithContract(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPaymentStore_TransactionOperations(t *testing.T) {
	db := storetest.NewDB(t)
	store := NewPaymentStore(db, TxOptions{LockTimeout: time.Second})
	ctx := context.Background()

	storetest.AddProfile(t, db, 1, model.ProfileTypeClient, "500")
	storetest.AddProfile(t, db, 2, model.ProfileTypeContractor, "75")
	storetest.AddContract(t, db, 10, 1, 2, model.ContractStatusInProgress)
	storetest.AddJob(t, db, 100, 10, "200")

	t.Run("commit applies all mutations", func(t *testing.T) {
		tx, err := store.Begin(ctx)
		require.NoError(t, err)

		job, err := tx.FindJobWithContract(ctx, 100, true)
		require.NoError(t, err)
		require.NotNil(t, job.Contract)
		assert.Equal(t, int64(1), job.Contract.ClientID)

		client, err := tx.FindProfile(ctx, 1, true)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(500).Equal(client.Balance))

		require.NoError(t, tx.AdjustBalance(ctx, 1, decimal.NewFromInt(-200)))
		require.NoError(t, tx.AdjustBalance(ctx, 2, decimal.NewFromInt(200)))
		require.NoError(t, tx.MarkJobPaid(ctx, 100, time.Now()))
		require.NoError(t, tx.Commit())
		require.NoError(t, tx.Rollback(), "rollback after commit is a no-op")

		assert.True(t, decimal.NewFromInt(300).Equal(storetest.Balance(t, db, 1)))
		assert.True(t, decimal.NewFromInt(275).Equal(storetest.Balance(t, db, 2)))
		stored := storetest.Job(t, db, 100)
		assert.True(t, stored.Paid)
		assert.NotNil(t, stored.PaymentDate)
	})

	t.Run("mark paid twice is rejected", func(t *testing.T) {
		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback()

		assert.ErrorIs(t, tx.MarkJobPaid(ctx, 100, time.Now()), ErrJobAlreadyPaid)
	})

	t.Run("rollback discards mutations", func(t *testing.T) {
		tx, err := store.Begin(ctx)
		require.NoError(t, err)

		require.NoError(t, tx.AdjustBalance(ctx, 1, decimal.NewFromInt(-300)))
		require.NoError(t, tx.Rollback())

		assert.True(t, decimal.NewFromInt(300).Equal(storetest.Balance(t, db, 1)))
	})

	t.Run("missing rows", func(t *testing.T) {
		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback()

		_, err = tx.FindJobWithContract(ctx, 999, true)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.FindProfile(ctx, 999, true)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, tx.AdjustBalance(ctx, 999, decimal.NewFromInt(1)), ErrNotFound)
	})
}
