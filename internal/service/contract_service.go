package service

import (
	"context"
	"errors"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/repository"
)

type ContractReader interface {
	GetContract(ctx context.Context, id int64) (*model.Contract, error)
	ListActiveForProfile(ctx context.Context, profileID int64) ([]model.Contract, error)
}

type ContractService struct {
	repo ContractReader
}

func NewContractService(repo ContractReader) *ContractService {
	return &ContractService{repo: repo}
}

// GetContract returns ErrForbidden when the contract exists but the caller is
// not one of its parties.
func (s *ContractService) GetContract(ctx context.Context, principal model.Principal, id int64) (*model.Contract, error) {
	contract, err := s.repo.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !contract.Involves(principal.ProfileID) {
		return nil, ErrForbidden
	}
	return contract, nil
}

func (s *ContractService) ListContracts(ctx context.Context, principal model.Principal) ([]model.Contract, error) {
	return s.repo.ListActiveForProfile(ctx, principal.ProfileID)
}
