// Package csvstore keeps store snapshots as five CSV files in one directory.
//
// Every save rewrites all files. Each file is written next to its final
// location first and renamed into place, so a crash mid-save leaves either
// the old or the new file, never half of one.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/semanticallynull/bikerental/store"
)

const (
	CustomersFile    = "customers.csv"
	BikesFile        = "bikes.csv"
	ReservationsFile = "reservations.csv"
	RepairsFile      = "repairs.csv"
	AccountsFile     = "accounts.csv"
)

// ErrMissingColumn is returned when a file lacks a column that has no default.
var ErrMissingColumn = errors.New("missing required column")

// Dir is a store.Backend writing to a directory on disk.
type Dir struct {
	path   string
	logger *slog.Logger
}

var _ store.Backend = (*Dir)(nil)

func New(path string, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dir{path: path, logger: logger}
}

func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) Save(ctx context.Context, snap store.Snapshot) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	files := []struct {
		name    string
		header  []string
		records [][]string
	}{
		{CustomersFile, customerColumns.header(), encodeCustomers(snap.Customers)},
		{BikesFile, bikeColumns.header(), encodeBikes(snap.Bikes)},
		{ReservationsFile, reservationColumns.header(), encodeReservations(snap.Reservations)},
		{RepairsFile, repairColumns.header(), encodeRepairs(snap.Repairs)},
		{AccountsFile, accountColumns.header(), encodeAccounts(snap.Accounts)},
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.writeFile(f.name, f.header, f.records); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	d.logger.Debug("csv files written", "dir", d.path)
	return nil
}

func (d *Dir) Load(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot

	loaders := []struct {
		name   string
		schema schema
		decode func(*sheet) error
	}{
		{CustomersFile, customerColumns, func(s *sheet) (err error) {
			snap.Customers, err = decodeCustomers(s)
			return err
		}},
		{BikesFile, bikeColumns, func(s *sheet) (err error) {
			snap.Bikes, err = decodeBikes(s)
			return err
		}},
		{ReservationsFile, reservationColumns, func(s *sheet) (err error) {
			snap.Reservations, err = decodeReservations(s)
			return err
		}},
		{RepairsFile, repairColumns, func(s *sheet) (err error) {
			snap.Repairs, err = decodeRepairs(s)
			return err
		}},
		{AccountsFile, accountColumns, func(s *sheet) (err error) {
			snap.Accounts, err = decodeAccounts(s)
			return err
		}},
	}

	for _, l := range loaders {
		if err := ctx.Err(); err != nil {
			return store.Snapshot{}, err
		}
		s, err := d.readFile(l.name, l.schema)
		if errors.Is(err, fs.ErrNotExist) {
			d.logger.Debug("csv file absent, loading empty", "file", l.name)
			continue
		}
		if err != nil {
			return store.Snapshot{}, fmt.Errorf("%s: %w", l.name, err)
		}
		if err := l.decode(s); err != nil {
			return store.Snapshot{}, fmt.Errorf("%s: %w", l.name, err)
		}
	}

	return snap, nil
}

func (d *Dir) writeFile(name string, header []string, records [][]string) error {
	tmp, err := os.CreateTemp(d.path, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.path, name))
}

func (d *Dir) readFile(name string, sc schema) (*sheet, error) {
	f, err := os.Open(filepath.Join(d.path, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &sheet{schema: sc}, nil
	}
	if err != nil {
		return nil, err
	}

	s, err := newSheet(sc, header)
	if err != nil {
		return nil, err
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		s.rows = append(s.rows, rec)
	}
	return s, nil
}
