// Package movementrepo manages repository layer of movements.
//
// Movements are append-only: the repository exposes no update or delete.
package movementrepo

import (
	"context"
	"database/sql"

	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/ledgerbank/ledger-api/pkg/dbpkg"
	"github.com/ledgerbank/ledger-api/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates movement repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns movement RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO
    movements (account_id, kind, amount, description, counterparty_id, transfer_id)
VALUES
    ($1, $2, $3, $4, $5, $6)
RETURNING id, account_id, kind, amount, description, counterparty_id, transfer_id, created_at
`

// Create appends the movement and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateMovementParams) (domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	var counterparty sql.NullInt32
	if arg.CounterpartyID != nil {
		counterparty = sql.NullInt32{Int32: *arg.CounterpartyID, Valid: true}
	}

	var transferID sql.NullString
	if arg.TransferID != "" {
		transferID = sql.NullString{String: arg.TransferID, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.AccountID,
		arg.Kind,
		arg.Amount,
		arg.Description,
		counterparty,
		transferID,
	)

	m, err := scanMovement(row)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "movements_account_id_fkey", "movements_counterparty_id_fkey":
				return m, domain.ErrAccountNotFound
			case "movements_amount_check":
				return m, domain.ErrInvalidAmount
			}
		}

		return m, errorspkg.ErrInternal
	}

	return m, nil
}

const listByAccountQuery = `
SELECT id, account_id, kind, amount, description, counterparty_id, transfer_id, created_at
FROM movements
WHERE account_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

// ListByAccount returns the account's movements, most recent first.
func (r *RepoPGS) ListByAccount(ctx context.Context, accountID int32, limit, offset int32) ([]domain.Movement, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByAccountQuery, accountID, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Movement{}

	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const sumByAccountQuery = `
SELECT COALESCE(SUM(CASE WHEN kind = 'C' THEN amount ELSE -amount END), 0)
FROM movements
WHERE account_id = $1
`

// SumByAccount returns credits minus debits over the account's movements.
// For every account outside an in-flight transaction the result equals the
// account's balance.
func (r *RepoPGS) SumByAccount(ctx context.Context, accountID int32) (string, error) {
	l := zerolog.Ctx(ctx)

	var sum string

	err := r.db.QueryRowContext(ctx, sumByAccountQuery, accountID).Scan(&sum)
	if err != nil {
		l.Error().Err(err).Send()
		return "", errorspkg.ErrInternal
	}

	return sum, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMovement(row scanner) (domain.Movement, error) {
	var (
		m            domain.Movement
		counterparty sql.NullInt32
		transferID   sql.NullString
	)

	err := row.Scan(
		&m.ID,
		&m.AccountID,
		&m.Kind,
		&m.Amount,
		&m.Description,
		&counterparty,
		&transferID,
		&m.CreatedAt,
	)
	if err != nil {
		return m, err
	}

	if counterparty.Valid {
		m.CounterpartyID = &counterparty.Int32
	}

	if transferID.Valid {
		m.TransferID = transferID.String
	}

	return m, nil
}
