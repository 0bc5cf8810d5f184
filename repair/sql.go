package repair

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const Schema = `
CREATE TABLE IF NOT EXISTS repairs (
	repair_id      BIGINT PRIMARY KEY,
	reservation_id BIGINT NOT NULL,
	bike_id        BIGINT NOT NULL,
	defect_type    TEXT NOT NULL,
	description    TEXT NOT NULL
)`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetRepairs(ctx context.Context) ([]Repair, error) {
	var repairs []Repair
	err := r.db.SelectContext(ctx, &repairs, getRepairsQuery)
	return repairs, err
}

const getRepairsQuery = `SELECT repair_id, reservation_id, bike_id, defect_type, description FROM repairs ORDER BY repair_id`

func (r *Repository) ReplaceRepairs(ctx context.Context, tx *sqlx.Tx, repairs []Repair) error {
	if _, err := tx.ExecContext(ctx, deleteRepairsQuery); err != nil {
		return err
	}
	for _, rep := range repairs {
		if _, err := tx.NamedExecContext(ctx, insertRepairQuery, rep); err != nil {
			return fmt.Errorf("insert repair %d: %w", rep.ID, err)
		}
	}
	return nil
}

const deleteRepairsQuery = `DELETE FROM repairs`

const insertRepairQuery = `INSERT INTO repairs (repair_id, reservation_id, bike_id, defect_type, description)
VALUES (:repair_id, :reservation_id, :bike_id, :defect_type, :description)`
