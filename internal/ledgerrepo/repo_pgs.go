// Package ledgerrepo executes ledger operations as single database
// transactions.
//
// Every operation locks the rows of all accounts it touches before reading
// any balance, mutates balances, appends movements, and commits as one
// atomic unit. When two accounts are involved the locks are acquired in
// ascending account id order regardless of transfer direction, so any set
// of concurrent operations requests locks in one global order and deadlock
// is structurally impossible.
package ledgerrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerbank/ledger-api/internal/accountrepo"
	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/ledgerbank/ledger-api/internal/movementrepo"
	"github.com/ledgerbank/ledger-api/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates ledger repository layer logic.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns ledger RepoPGS with a connection to start transactions.
func NewRepoPGS(conn *sql.DB) *RepoPGS {
	return &RepoPGS{conn: conn}
}

// execTx runs fn within a database transaction.
//
// Rollback on any error discards all tentative mutations; row locks are
// released only at commit or rollback.
func (r *RepoPGS) execTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.Error().Err(rbErr).Send()
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

// Deposit credits the account and appends one Credit movement.
func (r *RepoPGS) Deposit(ctx context.Context, arg domain.OperationParams) (domain.OperationResult, error) {
	var result domain.OperationResult

	err := r.execTx(ctx, func(tx *sql.Tx) error {
		accountRepo := accountrepo.NewRepoPGS(tx)
		movementRepo := movementrepo.NewRepoPGS(tx)

		if _, err := accountRepo.LockForUpdate(ctx, arg.AccountID); err != nil {
			return err
		}

		account, err := accountRepo.AddBalance(ctx, arg.Amount, arg.AccountID)
		if err != nil {
			return err
		}

		movement, err := movementRepo.Create(ctx, domain.CreateMovementParams{
			AccountID:   arg.AccountID,
			Kind:        domain.Credit,
			Amount:      arg.Amount,
			Description: arg.Description,
		})
		if err != nil {
			return err
		}

		result.Account, result.Movement = account, movement

		return nil
	})

	return result, err
}

// Withdraw debits the account and appends one Debit movement.
//
// The sufficiency check runs on the balance read from the locked row; it
// fails with domain.ErrInsufficientBalance and zero side effects when the
// balance is below the amount.
func (r *RepoPGS) Withdraw(ctx context.Context, arg domain.OperationParams) (domain.OperationResult, error) {
	var result domain.OperationResult

	err := r.execTx(ctx, func(tx *sql.Tx) error {
		accountRepo := accountrepo.NewRepoPGS(tx)
		movementRepo := movementrepo.NewRepoPGS(tx)

		locked, err := accountRepo.LockForUpdate(ctx, arg.AccountID)
		if err != nil {
			return err
		}

		if err := checkSufficientBalance(ctx, locked, arg.Amount); err != nil {
			return err
		}

		account, err := accountRepo.AddBalance(ctx, "-"+arg.Amount, arg.AccountID)
		if err != nil {
			return err
		}

		movement, err := movementRepo.Create(ctx, domain.CreateMovementParams{
			AccountID:   arg.AccountID,
			Kind:        domain.Debit,
			Amount:      arg.Amount,
			Description: arg.Description,
		})
		if err != nil {
			return err
		}

		result.Account, result.Movement = account, movement

		return nil
	})

	return result, err
}

// Transfer moves money between two accounts.
//
// Both rows are locked before the sufficiency check. The debit leg on the
// source and the credit leg on the destination share one transfer id and
// reference each other as counterparties; either both exist or neither does.
func (r *RepoPGS) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferTxResult, error) {
	var result domain.TransferTxResult

	err := r.execTx(ctx, func(tx *sql.Tx) error {
		accountRepo := accountrepo.NewRepoPGS(tx)
		movementRepo := movementrepo.NewRepoPGS(tx)

		// Lock in ascending id order regardless of transfer direction.
		var fromLocked, toLocked domain.Account

		var err error

		if arg.FromAccountID < arg.ToAccountID {
			fromLocked, toLocked, err = lockBoth(ctx, accountRepo, arg.FromAccountID, arg.ToAccountID)
		} else {
			toLocked, fromLocked, err = lockBoth(ctx, accountRepo, arg.ToAccountID, arg.FromAccountID)
		}

		if err != nil {
			return err
		}

		if err := checkSufficientBalance(ctx, fromLocked, arg.Amount); err != nil {
			return err
		}

		fromAccount, err := accountRepo.AddBalance(ctx, "-"+arg.Amount, arg.FromAccountID)
		if err != nil {
			return err
		}

		toAccount, err := accountRepo.AddBalance(ctx, arg.Amount, arg.ToAccountID)
		if err != nil {
			return err
		}

		transferID := uuid.NewString()

		fromMovement, err := movementRepo.Create(ctx, domain.CreateMovementParams{
			AccountID:      arg.FromAccountID,
			Kind:           domain.Debit,
			Amount:         arg.Amount,
			Description:    fmt.Sprintf("transfer to %s", toLocked.Owner),
			CounterpartyID: &toAccount.ID,
			TransferID:     transferID,
		})
		if err != nil {
			return err
		}

		toMovement, err := movementRepo.Create(ctx, domain.CreateMovementParams{
			AccountID:      arg.ToAccountID,
			Kind:           domain.Credit,
			Amount:         arg.Amount,
			Description:    fmt.Sprintf("transfer from %s", fromLocked.Owner),
			CounterpartyID: &fromAccount.ID,
			TransferID:     transferID,
		})
		if err != nil {
			return err
		}

		result.FromAccount, result.ToAccount = fromAccount, toAccount
		result.FromMovement, result.ToMovement = fromMovement, toMovement

		return nil
	})

	return result, err
}

func lockBoth(ctx context.Context, r *accountrepo.RepoPGS, firstID, secondID int32) (domain.Account, domain.Account, error) {
	first, err := r.LockForUpdate(ctx, firstID)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	second, err := r.LockForUpdate(ctx, secondID)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	return first, second, nil
}

func checkSufficientBalance(ctx context.Context, account domain.Account, amount string) error {
	l := zerolog.Ctx(ctx)

	balance, err := decimal.NewFromString(account.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if balance.LessThan(amountDecimal) {
		return domain.ErrInsufficientBalance
	}

	return nil
}
