package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/semanticallynull/bikerental/csvstore"
	"github.com/semanticallynull/bikerental/internal/config"
	"github.com/semanticallynull/bikerental/internal/o11y"
	"github.com/semanticallynull/bikerental/sqlstore"
	"github.com/semanticallynull/bikerental/store"
)

const (
	backendCSV = "csv"
	backendSQL = "sql"
)

// Globals are the flags shared by every command.
type Globals struct {
	Backend   string `name:"backend" env:"BACKEND" enum:"csv,sql" default:"csv" help:"Where the data is kept (csv or sql)."`
	DataDir   string `name:"data-dir" env:"DATA_DIR" default:"data" help:"Directory with the CSV files."`
	SQLDriver string `name:"sql-driver" env:"SQL_DRIVER" enum:"sqlite,pgx" default:"sqlite" help:"Database driver for the sql backend."`
	DSN       string `name:"dsn" env:"DATABASE_URL" default:"data/bikerental.db" help:"SQLite file or Postgres URL for the sql backend."`
	RatesFile string `name:"rates-file" env:"RATES_FILE" type:"existingfile" help:"TOML file with daily rates per bike type."`
	LogLevel  string `name:"log-level" env:"LOG_LEVEL" default:"info"`
	LogFormat string `name:"log-format" env:"LOG_FORMAT" enum:"json,text" default:"json"`
}

var cli struct {
	Globals

	Serve   serveCmd   `cmd:"" default:"1" help:"Run the HTTP API."`
	Seed    seedCmd    `cmd:"" help:"Add the demo data to empty collections."`
	Fleet   fleetCmd   `cmd:"" help:"Print the number of bikes per type."`
	Account accountCmd `cmd:"" help:"Manage accounts."`
	Export  exportCmd  `cmd:"" help:"Copy all data from one backend to the other."`
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	kctx := kong.Parse(&cli,
		kong.Name("bikerental"),
		kong.Description("Bike rental reservations."),
		kong.UsageOnError(),
	)
	kctx.BindTo(ctx, (*context.Context)(nil))
	return kctx.Run(&cli.Globals)
}

func (g *Globals) logger() (*slog.Logger, error) {
	return o11y.NewLogger(o11y.Config{LogLevel: g.LogLevel, LogFormat: g.LogFormat, Output: os.Stderr})
}

// openStore builds a store with the configured rates and loads it from the
// configured backend. The returned close func releases the backend.
func (g *Globals) openStore(ctx context.Context, logger *slog.Logger, opts ...store.Option) (*store.Store, store.Backend, func(), error) {
	rates, err := config.LoadRates(g.RatesFile)
	if err != nil {
		return nil, nil, nil, err
	}

	backend, closeBackend, err := g.open(ctx, g.Backend, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	opts = append([]store.Option{store.WithLogger(logger), store.WithRates(rates)}, opts...)
	s := store.New(opts...)
	if err := s.Load(ctx, backend); err != nil {
		closeBackend()
		return nil, nil, nil, err
	}
	return s, backend, closeBackend, nil
}

func (g *Globals) open(ctx context.Context, kind string, logger *slog.Logger) (store.Backend, func(), error) {
	switch kind {
	case backendCSV:
		return csvstore.New(g.DataDir, logger), func() {}, nil
	case backendSQL:
		db, err := sqlstore.Open(ctx, g.SQLDriver, g.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", kind)
}
