// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/ledgerbank/ledger-api/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, owner, balance string) (domain.Account, error)
	Get(ctx context.Context, id int32) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// MovementRepo provides movement read access needed by account service layer.
type MovementRepo interface {
	ListByAccount(ctx context.Context, accountID int32, limit, offset int32) ([]domain.Movement, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo         Repo
	movementRepo MovementRepo
}

// New returns account service struct to manage account business logic.
func New(ar Repo, mr MovementRepo) *Service {
	return &Service{
		repo:         ar,
		movementRepo: mr,
	}
}

// Create provisions the single account of the given owner with zero balance.
func (s *Service) Create(ctx context.Context, owner string) (domain.Account, error) {
	account, err := s.repo.Create(ctx, owner, "0")
	if err != nil {
		return account, err
	}

	return account, nil
}

// Get returns the account with the given account ID.
func (s *Service) Get(ctx context.Context, id int32) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	return account, nil
}

// GetByOwner returns the account owned by the given user.
func (s *Service) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	account, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return account, err
	}

	return account, nil
}

// Statement returns the owner's movements, most recent first.
func (s *Service) Statement(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.Movement, error) {
	account, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	limit := pageSize
	offset := (pageID - 1) * pageSize

	movements, err := s.movementRepo.ListByAccount(ctx, account.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	return movements, nil
}
