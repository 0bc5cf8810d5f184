package bike

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the bikes table.
const Schema = `
CREATE TABLE IF NOT EXISTS bikes (
	bike_id   BIGINT PRIMARY KEY,
	bike_type TEXT NOT NULL,
	status    TEXT NOT NULL,
	available BOOLEAN NOT NULL
)`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID        int64  `db:"bike_id"`
	Type      string `db:"bike_type"`
	Status    string `db:"status"`
	Available bool   `db:"available"`
}

func (r row) bike() (Bike, error) {
	t, err := ParseType(r.Type)
	if err != nil {
		return Bike{}, fmt.Errorf("bike %d: %w", r.ID, err)
	}
	s, err := ParseStatus(r.Status)
	if err != nil {
		return Bike{}, fmt.Errorf("bike %d: %w", r.ID, err)
	}
	return Bike{ID: r.ID, Type: t, Status: s, Available: r.Available}, nil
}

func (r *Repository) GetBikes(ctx context.Context) ([]Bike, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, getBikes); err != nil {
		return nil, err
	}

	bikes := make([]Bike, 0, len(rows))
	for _, rw := range rows {
		b, err := rw.bike()
		if err != nil {
			return nil, err
		}
		bikes = append(bikes, b)
	}
	return bikes, nil
}

const getBikes = `SELECT bike_id, bike_type, status, available FROM bikes ORDER BY bike_id`

// ReplaceBikes rewrites the whole table inside tx.
func (r *Repository) ReplaceBikes(ctx context.Context, tx *sqlx.Tx, bikes []Bike) error {
	if _, err := tx.ExecContext(ctx, deleteBikes); err != nil {
		return err
	}
	for _, b := range bikes {
		rw := row{ID: b.ID, Type: b.Type.String(), Status: b.Status.String(), Available: b.Available}
		if _, err := tx.NamedExecContext(ctx, insertBike, rw); err != nil {
			return fmt.Errorf("insert bike %d: %w", b.ID, err)
		}
	}
	return nil
}

const deleteBikes = `DELETE FROM bikes`

const insertBike = `INSERT INTO bikes (bike_id, bike_type, status, available)
VALUES (:bike_id, :bike_type, :status, :available)`
