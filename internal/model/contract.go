package model

import "time"

type ContractStatus string

const (
	ContractStatusNew        ContractStatus = "new"
	ContractStatusInProgress ContractStatus = "in_progress"
	ContractStatusTerminated ContractStatus = "terminated"
)

type Contract struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Terms        string         `gorm:"not null" json:"terms"`
	Status       ContractStatus `gorm:"type:varchar(16);not null" json:"status"`
	ClientID     int64          `gorm:"not null;index" json:"clientId"`
	ContractorID int64          `gorm:"not null;index" json:"contractorId"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Involves reports whether the profile is a party of the contract.
func (c Contract) Involves(profileID int64) bool {
	return c.ClientID == profileID || c.ContractorID == profileID
}
