package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProfileType string

const (
	ProfileTypeClient     ProfileType = "client"
	ProfileTypeContractor ProfileType = "contractor"
)

// Profile is a marketplace participant. Balance is only ever changed by the
// payment transaction.
type Profile struct {
	ID         int64           `gorm:"primaryKey" json:"id"`
	FirstName  string          `gorm:"not null" json:"firstName"`
	LastName   string          `gorm:"not null" json:"lastName"`
	Profession string          `gorm:"not null" json:"profession"`
	Balance    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	Type       ProfileType     `gorm:"type:varchar(16);not null" json:"type"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
