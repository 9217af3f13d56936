package domain

// OperationParams is the input data for a single-account ledger operation.
type OperationParams struct {
	AccountID   int32  `json:"account_id"`
	Amount      string `json:"amount"` // must be positive
	Description string `json:"description"`
}

// TransferParams is the input data for a transfer between two accounts.
type TransferParams struct {
	FromAccountID int32  `json:"from_account_id"`
	ToAccountID   int32  `json:"to_account_id"`
	Amount        string `json:"amount"` // must be positive
}

// OperationResult is the outcome of a committed single-account operation.
type OperationResult struct {
	Account  Account  `json:"account"`
	Movement Movement `json:"movement"`
}

// TransferTxResult is the outcome of a committed transfer.
type TransferTxResult struct {
	FromAccount  Account  `json:"from_account"`
	ToAccount    Account  `json:"to_account"`
	FromMovement Movement `json:"from_movement"`
	ToMovement   Movement `json:"to_movement"`
}
