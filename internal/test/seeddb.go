// Package test provides shared test helpers.
package test

import (
	"context"
	"testing"

	"github.com/ledgerbank/ledger-api/internal/accountrepo"
	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/ledgerbank/ledger-api/internal/movementrepo"
	"github.com/ledgerbank/ledger-api/internal/userrepo"
	"github.com/ledgerbank/ledger-api/pkg/dbpkg"
	"github.com/ledgerbank/ledger-api/pkg/passpkg"
	"github.com/ledgerbank/ledger-api/pkg/randompkg"
)

// SeedUser creates random User inside a test transaction.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(32))
	if err != nil {
		t.Fatalf("passpkg.Hash(randompkg.String(32)) returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
	}

	userRepo := userrepo.NewRepoPGS(tx)
	user, err := userRepo.Create(context.Background(), arg)

	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedAccount creates an Account with the given balance inside a test transaction.
func SeedAccount(t *testing.T, tx dbpkg.SQLInterface, owner, balance string) domain.Account {
	t.Helper()

	accountRepo := accountrepo.NewRepoPGS(tx)

	account, err := accountRepo.Create(context.Background(), owner, balance)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %v, %v) returned error: %v",
			owner, balance, err)
	}

	return account
}

// SeedAccountWith1000Balance creates an Account with 1000 on balance inside a test transaction.
func SeedAccountWith1000Balance(t *testing.T, tx dbpkg.SQLInterface, owner string) domain.Account {
	t.Helper()

	return SeedAccount(t, tx, owner, "1000")
}

// SeedMovement creates a Movement inside a test transaction.
func SeedMovement(t *testing.T, tx dbpkg.SQLInterface, arg domain.CreateMovementParams) domain.Movement {
	t.Helper()

	movementRepo := movementrepo.NewRepoPGS(tx)

	movement, err := movementRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("movementRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return movement
}

// SeedCredits creates credit Movements with random amounts inside a test transaction.
func SeedCredits(t *testing.T, tx dbpkg.SQLInterface, count, accountID int32) []domain.Movement {
	t.Helper()

	movements := make([]domain.Movement, count)

	for i := range movements {
		movements[i] = SeedMovement(t, tx, domain.CreateMovementParams{
			AccountID:   accountID,
			Kind:        domain.Credit,
			Amount:      randompkg.MoneyAmountBetween(1, 1000),
			Description: "deposit",
		})
	}

	return movements
}
