package account

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the accounts table. position keeps the insertion order,
// which is the order accounts are listed and written back in.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	position    BIGINT NOT NULL,
	username    TEXT PRIMARY KEY,
	password    TEXT NOT NULL,
	role        TEXT NOT NULL,
	customer_id BIGINT
)`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	Position   int64         `db:"position"`
	Username   string        `db:"username"`
	Password   string        `db:"password"`
	Role       string        `db:"role"`
	CustomerID sql.NullInt64 `db:"customer_id"`
}

func (r *Repository) GetAccounts(ctx context.Context) ([]Account, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, getAccountsQuery); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(rows))
	for _, rw := range rows {
		role, err := ParseRole(rw.Role)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", rw.Username, err)
		}
		var customerID *int64
		if rw.CustomerID.Valid {
			customerID = &rw.CustomerID.Int64
		}
		accounts = append(accounts, New(rw.Username, rw.Password, role, customerID))
	}
	return accounts, nil
}

const getAccountsQuery = `SELECT position, username, password, role, customer_id FROM accounts ORDER BY position`

func (r *Repository) ReplaceAccounts(ctx context.Context, tx *sqlx.Tx, accounts []Account) error {
	if _, err := tx.ExecContext(ctx, deleteAccountsQuery); err != nil {
		return err
	}
	for i, acc := range accounts {
		rw := row{
			Position: int64(i),
			Username: acc.Username,
			Password: acc.Password,
			Role:     acc.Role.String(),
		}
		if acc.CustomerID != nil {
			rw.CustomerID = sql.NullInt64{Int64: *acc.CustomerID, Valid: true}
		}
		if _, err := tx.NamedExecContext(ctx, insertAccountQuery, rw); err != nil {
			return fmt.Errorf("insert account %q: %w", acc.Username, err)
		}
	}
	return nil
}

const deleteAccountsQuery = `DELETE FROM accounts`

const insertAccountQuery = `INSERT INTO accounts (position, username, password, role, customer_id)
VALUES (:position, :username, :password, :role, :customer_id)`
