package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Job is a billable unit of work under a contract. Paid and PaymentDate flip
// together exactly once and are never reset.
type Job struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	Description string          `gorm:"not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Paid        bool            `gorm:"not null;default:false" json:"paid"`
	PaymentDate *time.Time      `json:"paymentDate"`
	ContractID  int64           `gorm:"not null;index" json:"contractId"`
	Contract    *Contract       `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
