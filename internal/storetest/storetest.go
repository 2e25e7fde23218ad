// Package storetest provides an in-memory gorm database and fixture helpers
// for tests of the store, service and HTTP layers.
package storetest

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/marketplace-payments/internal/model"
)

// NewDB opens an in-memory sqlite database with the marketplace schema. The
// pool is limited to one connection so every transaction sees the same
// database and concurrent transactions queue up behind each other.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Profile{}, &model.Contract{}, &model.Job{}))
	return db
}

func AddProfile(t *testing.T, db *gorm.DB, id int64, typ model.ProfileType, balance string) *model.Profile {
	t.Helper()

	profile := &model.Profile{
		ID:         id,
		FirstName:  fmt.Sprintf("First%d", id),
		LastName:   fmt.Sprintf("Last%d", id),
		Profession: "Programmer",
		Balance:    decimal.RequireFromString(balance),
		Type:       typ,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func AddContract(t *testing.T, db *gorm.DB, id, clientID, contractorID int64, status model.ContractStatus) *model.Contract {
	t.Helper()

	contract := &model.Contract{
		ID:           id,
		Terms:        fmt.Sprintf("terms of contract %d", id),
		Status:       status,
		ClientID:     clientID,
		ContractorID: contractorID,
	}
	require.NoError(t, db.Create(contract).Error)
	return contract
}

func AddJob(t *testing.T, db *gorm.DB, id, contractID int64, price string) *model.Job {
	t.Helper()

	job := &model.Job{
		ID:          id,
		Description: fmt.Sprintf("job %d", id),
		Price:       decimal.RequireFromString(price),
		ContractID:  contractID,
	}
	require.NoError(t, db.Create(job).Error)
	return job
}

func Balance(t *testing.T, db *gorm.DB, profileID int64) decimal.Decimal {
	t.Helper()

	var profile model.Profile
	require.NoError(t, db.Where("id = ?", profileID).Take(&profile).Error)
	return profile.Balance
}

func Job(t *testing.T, db *gorm.DB, jobID int64) model.Job {
	t.Helper()

	var job model.Job
	require.NoError(t, db.Where("id = ?", jobID).Take(&job).Error)
	return job
}
