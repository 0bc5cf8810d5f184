// Package sqlstore keeps store snapshots in a SQL database, either Postgres
// through pgx or a SQLite file through modernc.org/sqlite.
package sqlstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/customer"
	"github.com/semanticallynull/bikerental/repair"
	"github.com/semanticallynull/bikerental/reservation"
	"github.com/semanticallynull/bikerental/store"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB is a store.Backend on top of one database.
type DB struct {
	db     *sqlx.DB
	logger *slog.Logger

	customers    *customer.Repository
	bikes        *bike.Repository
	reservations *reservation.Repository
	repairs      *repair.Repository
	accounts     *account.Repository
}

var _ store.Backend = (*DB)(nil)

// Open connects to dsn and creates the tables that do not exist yet. For
// SQLite, dsn is a file path; its directory is created if needed.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn += "?_pragma=busy_timeout(5000)"
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	d := New(db, logger)
	if err := d.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func New(db *sqlx.DB, logger *slog.Logger) *DB {
	return &DB{
		db:           db,
		logger:       logger,
		customers:    customer.NewRepository(db),
		bikes:        bike.NewRepository(db),
		reservations: reservation.NewRepository(db),
		repairs:      repair.NewRepository(db),
		accounts:     account.NewRepository(db),
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates every table that does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, schema := range []string{
		customer.Schema,
		bike.Schema,
		reservation.Schema,
		repair.Schema,
		account.Schema,
	} {
		if _, err := d.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// Save replaces the contents of all tables with snap in one transaction.
func (d *DB) Save(ctx context.Context, snap store.Snapshot) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := d.customers.ReplaceCustomers(ctx, tx, snap.Customers); err != nil {
		return fmt.Errorf("customers: %w", err)
	}
	if err := d.bikes.ReplaceBikes(ctx, tx, snap.Bikes); err != nil {
		return fmt.Errorf("bikes: %w", err)
	}
	if err := d.reservations.ReplaceReservations(ctx, tx, snap.Reservations); err != nil {
		return fmt.Errorf("reservations: %w", err)
	}
	if err := d.repairs.ReplaceRepairs(ctx, tx, snap.Repairs); err != nil {
		return fmt.Errorf("repairs: %w", err)
	}
	if err := d.accounts.ReplaceAccounts(ctx, tx, snap.Accounts); err != nil {
		return fmt.Errorf("accounts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	d.logger.Debug("snapshot written", "driver", d.db.DriverName())
	return nil
}

func (d *DB) Load(ctx context.Context) (store.Snapshot, error) {
	var (
		snap store.Snapshot
		err  error
	)
	if snap.Customers, err = d.customers.GetCustomers(ctx); err != nil {
		return store.Snapshot{}, fmt.Errorf("customers: %w", err)
	}
	if snap.Bikes, err = d.bikes.GetBikes(ctx); err != nil {
		return store.Snapshot{}, fmt.Errorf("bikes: %w", err)
	}
	if snap.Reservations, err = d.reservations.GetReservations(ctx); err != nil {
		return store.Snapshot{}, fmt.Errorf("reservations: %w", err)
	}
	if snap.Repairs, err = d.repairs.GetRepairs(ctx); err != nil {
		return store.Snapshot{}, fmt.Errorf("repairs: %w", err)
	}
	if snap.Accounts, err = d.accounts.GetAccounts(ctx); err != nil {
		return store.Snapshot{}, fmt.Errorf("accounts: %w", err)
	}
	return snap, nil
}
