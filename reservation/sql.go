package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/semanticallynull/bikerental/bike"
)

const Schema = `
CREATE TABLE IF NOT EXISTS reservations (
	reservation_id BIGINT PRIMARY KEY,
	customer_id    BIGINT NOT NULL,
	bike_id        BIGINT NOT NULL,
	bike_type      TEXT NOT NULL,
	start          TEXT NOT NULL,
	"end"          TEXT NOT NULL,
	location_type  TEXT NOT NULL,
	address        TEXT NOT NULL,
	status         TEXT NOT NULL,
	total_price    DOUBLE PRECISION NOT NULL
)`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID           int64   `db:"reservation_id"`
	CustomerID   int64   `db:"customer_id"`
	BikeID       int64   `db:"bike_id"`
	BikeType     string  `db:"bike_type"`
	Start        string  `db:"start"`
	End          string  `db:"end"`
	LocationType string  `db:"location_type"`
	Address      string  `db:"address"`
	Status       string  `db:"status"`
	TotalPrice   float64 `db:"total_price"`
}

func toRow(r Reservation) row {
	return row{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		BikeID:       r.BikeID,
		BikeType:     r.BikeType.String(),
		Start:        r.Start.In(time.Local).Format(TimeLayout),
		End:          r.End.In(time.Local).Format(TimeLayout),
		LocationType: r.Location.String(),
		Address:      r.Address,
		Status:       string(r.Status),
		TotalPrice:   r.TotalPrice,
	}
}

func (rw row) reservation() (Reservation, error) {
	res := Reservation{
		ID:         rw.ID,
		CustomerID: rw.CustomerID,
		BikeID:     rw.BikeID,
		Address:    rw.Address,
		TotalPrice: rw.TotalPrice,
	}
	var err error
	if res.BikeType, err = bike.ParseType(rw.BikeType); err != nil {
		return Reservation{}, fmt.Errorf("reservation %d: %w", rw.ID, err)
	}
	if res.Start, err = time.ParseInLocation(TimeLayout, rw.Start, time.Local); err != nil {
		return Reservation{}, fmt.Errorf("reservation %d: start: %w", rw.ID, err)
	}
	if res.End, err = time.ParseInLocation(TimeLayout, rw.End, time.Local); err != nil {
		return Reservation{}, fmt.Errorf("reservation %d: end: %w", rw.ID, err)
	}
	if res.Location, err = ParseLocation(rw.LocationType); err != nil {
		return Reservation{}, fmt.Errorf("reservation %d: %w", rw.ID, err)
	}
	if res.Status, err = ParseStatus(rw.Status); err != nil {
		return Reservation{}, fmt.Errorf("reservation %d: %w", rw.ID, err)
	}
	return res, nil
}

// GetReservations returns every reservation ordered by id.
func (r *Repository) GetReservations(ctx context.Context) ([]Reservation, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, getReservationsQuery); err != nil {
		return nil, err
	}

	reservations := make([]Reservation, 0, len(rows))
	for _, rw := range rows {
		res, err := rw.reservation()
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}

const getReservationsQuery = `
SELECT reservation_id, customer_id, bike_id, bike_type, start, "end", location_type, address, status, total_price
FROM reservations
ORDER BY reservation_id
`

func (r *Repository) ReplaceReservations(ctx context.Context, tx *sqlx.Tx, reservations []Reservation) error {
	if _, err := tx.ExecContext(ctx, deleteReservationsQuery); err != nil {
		return err
	}
	for _, res := range reservations {
		if _, err := tx.NamedExecContext(ctx, insertReservationQuery, toRow(res)); err != nil {
			return fmt.Errorf("insert reservation %d: %w", res.ID, err)
		}
	}
	return nil
}

const deleteReservationsQuery = `DELETE FROM reservations`

const insertReservationQuery = `
INSERT INTO reservations (reservation_id, customer_id, bike_id, bike_type, start, "end", location_type, address, status, total_price)
VALUES (:reservation_id, :customer_id, :bike_id, :bike_type, :start, :end, :location_type, :address, :status, :total_price)
`
