package test

import (
	"time"

	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/ledgerbank/ledger-api/pkg/randompkg"
)

// RandomAccount returns an in-memory Account owned by the given user.
func RandomAccount(owner string) domain.Account {
	return domain.Account{
		ID:        int32(randompkg.Intn(1000)) + 1,
		Owner:     owner,
		Balance:   randompkg.MoneyAmountBetween(100, 10_000),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// RandomMovement returns an in-memory Movement for the given account.
func RandomMovement(accountID int32, kind domain.Kind, description string) domain.Movement {
	return domain.Movement{
		ID:          randompkg.Intn(1000) + 1,
		AccountID:   accountID,
		Kind:        kind,
		Amount:      randompkg.MoneyAmountBetween(1, 1000),
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}
