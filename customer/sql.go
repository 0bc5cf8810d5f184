package customer

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id      BIGINT PRIMARY KEY,
	name             TEXT NOT NULL,
	email            TEXT NOT NULL,
	iban             TEXT NOT NULL,
	delivery_address TEXT NOT NULL
)`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	err := r.db.SelectContext(ctx, &customers, getCustomersQuery)
	return customers, err
}

const getCustomersQuery = `SELECT customer_id, name, email, iban, delivery_address FROM customers ORDER BY customer_id`

func (r *Repository) ReplaceCustomers(ctx context.Context, tx *sqlx.Tx, customers []Customer) error {
	if _, err := tx.ExecContext(ctx, deleteCustomersQuery); err != nil {
		return err
	}
	for _, c := range customers {
		if _, err := tx.NamedExecContext(ctx, insertCustomerQuery, c); err != nil {
			return fmt.Errorf("insert customer %d: %w", c.ID, err)
		}
	}
	return nil
}

const deleteCustomersQuery = "DELETE FROM customers"

const insertCustomerQuery = `INSERT INTO customers (customer_id, name, email, iban, delivery_address)
VALUES (:customer_id, :name, :email, :iban, :delivery_address)`
