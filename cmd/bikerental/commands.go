package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/api"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/internal/o11y"
	"github.com/semanticallynull/bikerental/store"
)

type serveCmd struct {
	Port int `name:"port" env:"PORT" default:"8080"`

	JWTSecret string        `name:"jwt-secret" env:"JWT_SECRET" required:"" help:"HMAC key for signing login tokens."`
	Issuer    string        `name:"issuer" env:"JWT_ISSUER" default:"bikerental"`
	Audience  string        `name:"audience" env:"AUDIENCE" default:"bikerental-api"`
	TokenTTL  time.Duration `name:"token-ttl" env:"TOKEN_TTL" default:"12h"`

	MetricsUsername string `name:"metrics-username" env:"METRICS_USERNAME"`
	MetricsPassword string `name:"metrics-password" env:"METRICS_PASSWORD"`

	OTLPEndpoint string  `name:"otlp-endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" help:"host:port of an OTLP/HTTP collector."`
	SampleRatio  float64 `name:"sample-ratio" env:"OTEL_SAMPLE_RATIO" default:"1"`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	obs, cleanup, err := o11y.Setup(ctx, o11y.Config{
		ServiceName:  "bikerental",
		LogLevel:     g.LogLevel,
		LogFormat:    g.LogFormat,
		OTLPEndpoint: cmd.OTLPEndpoint,
		SampleRatio:  cmd.SampleRatio,
	})
	defer cleanup()
	if err != nil {
		return err
	}
	logger := obs.Logger

	s, backend, closeBackend, err := g.openStore(ctx, logger, store.WithObserver(o11y.NewStoreMetrics(obs.Registry)))
	if err != nil {
		return err
	}
	defer closeBackend()

	s.EnsureDemoData()
	if err := s.Save(ctx, backend); err != nil {
		return err
	}

	a, err := api.New(s, backend, obs, api.Config{
		JWTSecret:       cmd.JWTSecret,
		Issuer:          cmd.Issuer,
		Audience:        cmd.Audience,
		TokenTTL:        cmd.TokenTTL,
		MetricsUsername: cmd.MetricsUsername,
		MetricsPassword: cmd.MetricsPassword,
	})
	if err != nil {
		return err
	}

	serv := http.Server{
		Addr:              fmt.Sprintf(":%d", cmd.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", serv.Addr, "backend", g.Backend)
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := serv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return a.Save(shutdownCtx)
}

type seedCmd struct{}

func (cmd *seedCmd) Run(ctx context.Context, g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	s, backend, closeBackend, err := g.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	s.EnsureDemoData()
	if err := s.Save(ctx, backend); err != nil {
		return err
	}
	fmt.Printf("%d customers, %d bikes, %d accounts\n", len(s.Customers()), len(s.Bikes()), len(s.Accounts()))
	return nil
}

type fleetCmd struct {
	JSON bool `name:"json" help:"Print JSON instead of a table."`
}

func (cmd *fleetCmd) Run(ctx context.Context, g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	s, _, closeBackend, err := g.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	return printFleet(os.Stdout, s.FleetSummary(), cmd.JSON)
}

func printFleet(w io.Writer, summary map[bike.Type]store.FleetCount, asJSON bool) error {
	if asJSON {
		byKey := make(map[string]store.FleetCount, len(summary))
		for t, fc := range summary {
			byKey[t.String()] = fc
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(byKey)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tTOTAL\tRESERVABLE\tDEFECT")
	for _, t := range bike.Types {
		fc := summary[t]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", t.Label(), fc.Total, fc.Reservable, fc.Defect)
	}
	return tw.Flush()
}

type accountCmd struct {
	Add  accountAddCmd  `cmd:"" help:"Add a login. The password is read from the terminal or stdin."`
	List accountListCmd `cmd:"" help:"List logins."`
}

type accountAddCmd struct {
	Username string `arg:""`
	Role     string `arg:"" help:"RENTER, ADMIN or MECHANIC."`
	Customer *int64 `name:"customer" help:"Customer id, required for renters."`
	Replace  bool   `name:"replace" help:"Overwrite an existing login with the same username."`
}

func (cmd *accountAddCmd) Run(ctx context.Context, g *Globals) error {
	role, err := account.ParseRole(strings.ToUpper(cmd.Role))
	if err != nil {
		return err
	}
	if role == account.Renter && cmd.Customer == nil {
		return errors.New("renters need --customer")
	}

	logger, err := g.logger()
	if err != nil {
		return err
	}
	s, backend, closeBackend, err := g.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	if role == account.Renter {
		if _, ok := s.Customer(*cmd.Customer); !ok {
			return fmt.Errorf("%w: %d", store.ErrUnknownCustomer, *cmd.Customer)
		}
	}

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if cmd.Replace {
		s.AddAccount(cmd.Username, password, role, cmd.Customer)
	} else if _, err := s.RegisterAccount(cmd.Username, password, role, cmd.Customer); err != nil {
		return err
	}
	return s.Save(ctx, backend)
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type accountListCmd struct{}

func (cmd *accountListCmd) Run(ctx context.Context, g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	s, _, closeBackend, err := g.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE\tCUSTOMER")
	for _, acc := range s.Accounts() {
		customer := "-"
		if acc.CustomerID != nil {
			customer = fmt.Sprint(*acc.CustomerID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", acc.Username, acc.Role.Label(), customer)
	}
	return tw.Flush()
}

type exportCmd struct {
	To string `arg:"" enum:"csv,sql" help:"Backend to write to (csv or sql)."`
}

// Run copies everything in --backend to the other backend, replacing what
// the target holds.
func (cmd *exportCmd) Run(ctx context.Context, g *Globals) error {
	if cmd.To == g.Backend {
		return fmt.Errorf("source and target are both %s", g.Backend)
	}

	logger, err := g.logger()
	if err != nil {
		return err
	}
	s, _, closeSource, err := g.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	target, closeTarget, err := g.open(ctx, cmd.To, logger)
	if err != nil {
		return err
	}
	defer closeTarget()

	if err := s.Save(ctx, target); err != nil {
		return err
	}
	fmt.Printf("exported %d customers, %d bikes, %d reservations, %d repairs, %d accounts to %s\n",
		len(s.Customers()), len(s.Bikes()), len(s.AllReservations()), len(s.AllRepairs()), len(s.Accounts()), cmd.To)
	return nil
}
