package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
)

const selectJobWithContract = `
	SELECT
		j.id,
		j.description,
		j.price,
		j.paid,
		j.payment_date,
		j.contract_id,
		j.created_at,
		j.updated_at,
		c.terms AS contract_terms,
		c.status AS contract_status,
		c.client_id AS contract_client_id,
		c.contractor_id AS contract_contractor_id,
		c.created_at AS contract_created_at,
		c.updated_at AS contract_updated_at
	FROM jobs j
	JOIN contracts c ON c.id = j.contract_id
`

type jobRow struct {
	ID                   int64
	Description          string
	Price                decimal.Decimal
	Paid                 bool
	PaymentDate          *time.Time
	ContractID           int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ContractTerms        string
	ContractStatus       model.ContractStatus
	ContractClientID     int64
	ContractContractorID int64
	ContractCreatedAt    time.Time
	ContractUpdatedAt    time.Time
}

func (row jobRow) toModel() model.Job {
	return model.Job{
		ID:          row.ID,
		Description: row.Description,
		Price:       row.Price,
		Paid:        row.Paid,
		PaymentDate: row.PaymentDate,
		ContractID:  row.ContractID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Contract: &model.Contract{
			ID:           row.ContractID,
			Terms:        row.ContractTerms,
			Status:       row.ContractStatus,
			ClientID:     row.ContractClientID,
			ContractorID: row.ContractContractorID,
			CreatedAt:    row.ContractCreatedAt,
			UpdatedAt:    row.ContractUpdatedAt,
		},
	}
}

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// GetJobWithContract is a plain read without locks.
func (r *JobRepository) GetJobWithContract(ctx context.Context, id int64) (*model.Job, error) {
	var row jobRow
	err := r.db.WithContext(ctx).Raw(selectJobWithContract+`
		WHERE j.id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, ErrNotFound
	}
	job := row.toModel()
	return &job, nil
}

// ListUnpaidForProfile returns unpaid jobs of in-progress contracts where the
// profile is a party.
func (r *JobRepository) ListUnpaidForProfile(ctx context.Context, profileID int64) ([]model.Job, error) {
	var rows []jobRow
	err := r.db.WithContext(ctx).Raw(selectJobWithContract+`
		WHERE j.paid = ?
			AND c.status = ?
			AND (c.client_id = ? OR c.contractor_id = ?)
		ORDER BY j.id ASC
	`, false, model.ContractStatusInProgress, profileID, profileID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toModel())
	}
	return jobs, nil
}
