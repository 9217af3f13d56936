package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates a non-positive or malformed amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSameAccount indicates a transfer where source and destination are the same account.
	ErrSameAccount = errors.New("source and destination accounts are the same")
)

// Kind discriminates between the two movement directions.
type Kind string

// Movement kinds.
const (
	Credit Kind = "C"
	Debit  Kind = "D"
)

// Movement is an immutable record of a single credit or debit applied to
// one account. Movements are append-only: there is no update or delete path.
//
// The two legs of a transfer share one TransferID and reference each other
// through CounterpartyID.
type Movement struct {
	ID             int64     `json:"id"`
	AccountID      int32     `json:"account_id"`
	Kind           Kind      `json:"kind"`
	Amount         string    `json:"amount"` // always positive
	Description    string    `json:"description"`
	CounterpartyID *int32    `json:"counterparty_id,omitempty"`
	TransferID     string    `json:"transfer_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateMovementParams is the input data to append one movement.
type CreateMovementParams struct {
	AccountID      int32
	Kind           Kind
	Amount         string
	Description    string
	CounterpartyID *int32
	TransferID     string
}
