package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/repository"
)

type JobReader interface {
	GetJobWithContract(ctx context.Context, id int64) (*model.Job, error)
	ListUnpaidForProfile(ctx context.Context, profileID int64) ([]model.Job, error)
}

type ProfileReader interface {
	GetProfile(ctx context.Context, id int64) (*model.Profile, error)
}

type ReceiptGenerator interface {
	Generate(receipt model.PaymentReceipt) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(export model.UnpaidJobsExport) ([]byte, error)
}

type Document struct {
	FileName string
	Content  []byte
}

type JobService struct {
	jobs     JobReader
	profiles ProfileReader
	receipts ReceiptGenerator
	excel    ExcelGenerator
}

func NewJobService(jobs JobReader, profiles ProfileReader, receipts ReceiptGenerator, excel ExcelGenerator) *JobService {
	return &JobService{
		jobs:     jobs,
		profiles: profiles,
		receipts: receipts,
		excel:    excel,
	}
}

func (s *JobService) ListUnpaid(ctx context.Context, principal model.Principal) ([]model.Job, error) {
	return s.jobs.ListUnpaidForProfile(ctx, principal.ProfileID)
}

// Receipt renders a PDF receipt for a paid job. Jobs the caller is not a
// party of are reported as not found.
func (s *JobService) Receipt(ctx context.Context, principal model.Principal, jobID int64) (*Document, error) {
	job, err := s.jobs.GetJobWithContract(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if job.Contract == nil || !job.Contract.Involves(principal.ProfileID) {
		return nil, ErrNotFound
	}
	if !job.Paid {
		return nil, ErrNotPaid
	}

	client, err := s.profiles.GetProfile(ctx, job.Contract.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client profile: %w", err)
	}
	contractor, err := s.profiles.GetProfile(ctx, job.Contract.ContractorID)
	if err != nil {
		return nil, fmt.Errorf("load contractor profile: %w", err)
	}

	content, err := s.receipts.Generate(model.PaymentReceipt{
		Job:        *job,
		Contract:   *job.Contract,
		Client:     *client,
		Contractor: *contractor,
	})
	if err != nil {
		return nil, err
	}
	return &Document{
		FileName: fmt.Sprintf("receipt-job-%d.pdf", job.ID),
		Content:  content,
	}, nil
}

func (s *JobService) ExportUnpaid(ctx context.Context, principal model.Principal) (*Document, error) {
	owner, err := s.profiles.GetProfile(ctx, principal.ProfileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	jobs, err := s.jobs.ListUnpaidForProfile(ctx, principal.ProfileID)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(model.UnpaidJobsExport{Owner: *owner, Jobs: jobs})
	if err != nil {
		return nil, err
	}
	return &Document{
		FileName: fmt.Sprintf("unpaid-jobs-%d.xlsx", owner.ID),
		Content:  content,
	}, nil
}
