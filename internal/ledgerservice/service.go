// Package ledgerservice manages business logic layer of ledger operations.
//
// It validates inputs, resolves the caller's account, drives the atomic
// repository operation, and fans committed movements out to notifiers.
package ledgerservice

import (
	"context"
	"fmt"

	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Deposit(ctx context.Context, arg domain.OperationParams) (domain.OperationResult, error)
	Withdraw(ctx context.Context, arg domain.OperationParams) (domain.OperationResult, error)
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferTxResult, error)
}

// AccountService provides account resolution needed by ledger service layer.
type AccountService interface {
	Get(ctx context.Context, id int32) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// Notifier observes committed movements.
//
// Implementations must treat delivery as best-effort: they are called after
// the commit, outside any lock scope, and their failures are never surfaced
// to the financial caller.
type Notifier interface {
	MovementCommitted(ctx context.Context, owner string, movement domain.Movement)
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo           Repo
	accountService AccountService
	notifiers      []Notifier
	events         chan event
}

// event is one committed movement queued for delivery.
type event struct {
	ctx      context.Context
	owner    string
	movement domain.Movement
}

const eventQueueSize = 256

// New returns ledger service struct to manage ledger business logic.
func New(lr Repo, as AccountService, notifiers ...Notifier) *Service {
	s := &Service{
		repo:           lr,
		accountService: as,
		notifiers:      notifiers,
	}

	if len(notifiers) > 0 {
		s.events = make(chan event, eventQueueSize)
		go s.dispatch()
	}

	return s
}

// dispatch drains the event queue one event at a time, so notifiers observe
// an owner's movements in commit order.
func (s *Service) dispatch() {
	for e := range s.events {
		for _, n := range s.notifiers {
			n.MovementCommitted(e.ctx, e.owner, e.movement)
		}
	}
}

// validAmount rejects amounts that are malformed, non-positive, or carry
// more than 2 fractional digits.
func validAmount(amount string) error {
	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	if amountDecimal.Exponent() < -2 {
		return domain.ErrInvalidAmount
	}

	return nil
}

// Deposit credits the owner's account by amount.
func (s *Service) Deposit(ctx context.Context, owner, amount string) (domain.OperationResult, error) {
	if err := validAmount(amount); err != nil {
		return domain.OperationResult{}, err
	}

	account, err := s.accountService.GetByOwner(ctx, owner)
	if err != nil {
		return domain.OperationResult{}, err
	}

	result, err := s.repo.Deposit(ctx, domain.OperationParams{
		AccountID:   account.ID,
		Amount:      amount,
		Description: "deposit",
	})
	if err != nil {
		return result, err
	}

	s.notify(ctx, result.Account.Owner, result.Movement)

	return result, nil
}

// Withdraw debits the owner's account by amount.
func (s *Service) Withdraw(ctx context.Context, owner, amount string) (domain.OperationResult, error) {
	return s.debit(ctx, owner, amount, "withdrawal")
}

// Pay debits the owner's account by amount, recording the caller-supplied
// description on the movement.
func (s *Service) Pay(ctx context.Context, owner, amount, description string) (domain.OperationResult, error) {
	return s.debit(ctx, owner, amount, fmt.Sprintf("payment: %s", description))
}

func (s *Service) debit(ctx context.Context, owner, amount, description string) (domain.OperationResult, error) {
	if err := validAmount(amount); err != nil {
		return domain.OperationResult{}, err
	}

	account, err := s.accountService.GetByOwner(ctx, owner)
	if err != nil {
		return domain.OperationResult{}, err
	}

	result, err := s.repo.Withdraw(ctx, domain.OperationParams{
		AccountID:   account.ID,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return result, err
	}

	s.notify(ctx, result.Account.Owner, result.Movement)

	return result, nil
}

// Transfer moves amount from the owner's account to the destination account.
func (s *Service) Transfer(ctx context.Context, owner string, toAccountID int32, amount string) (domain.TransferTxResult, error) {
	if err := validAmount(amount); err != nil {
		return domain.TransferTxResult{}, err
	}

	fromAccount, err := s.accountService.GetByOwner(ctx, owner)
	if err != nil {
		return domain.TransferTxResult{}, err
	}

	// Rejected before any lock is acquired.
	if fromAccount.ID == toAccountID {
		return domain.TransferTxResult{}, domain.ErrSameAccount
	}

	// The destination is resolved before the repository takes any row locks.
	if _, err = s.accountService.Get(ctx, toAccountID); err != nil {
		return domain.TransferTxResult{}, err
	}

	result, err := s.repo.Transfer(ctx, domain.TransferParams{
		FromAccountID: fromAccount.ID,
		ToAccountID:   toAccountID,
		Amount:        amount,
	})
	if err != nil {
		return result, err
	}

	s.notify(ctx, result.FromAccount.Owner, result.FromMovement)
	s.notify(ctx, result.ToAccount.Owner, result.ToMovement)

	return result, nil
}

// notify queues the committed movement for delivery. Enqueueing never blocks:
// when the queue is full the event is dropped and logged. The request context
// is not reused, the financial operation is already committed when delivery
// starts.
func (s *Service) notify(ctx context.Context, owner string, movement domain.Movement) {
	if s.events == nil {
		return
	}

	l := zerolog.Ctx(ctx)

	e := event{
		ctx:      l.WithContext(context.Background()),
		owner:    owner,
		movement: movement,
	}

	select {
	case s.events <- e:
	default:
		l.Warn().
			Str("owner", owner).
			Int64("movement_id", movement.ID).
			Msg("notification queue full, event dropped")
	}
}
