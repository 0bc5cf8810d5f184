package store

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/customer"
	"github.com/semanticallynull/bikerental/repair"
	"github.com/semanticallynull/bikerental/reservation"
)

const tracerName = "github.com/semanticallynull/bikerental/store"

// Snapshot is the complete store state, every collection in insertion order.
type Snapshot struct {
	Customers    []customer.Customer
	Bikes        []bike.Bike
	Reservations []reservation.Reservation
	Repairs      []repair.Repair
	Accounts     []account.Account
}

// Backend persists whole snapshots.
type Backend interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Customers:    s.customers.values(),
		Bikes:        s.bikes.values(),
		Reservations: s.reservations.values(),
		Repairs:      s.repairs.values(),
		Accounts:     s.Accounts(),
	}
}

// Restore replaces all state with snap and recomputes the id counters as one
// past the highest id of each collection.
func (s *Store) Restore(snap Snapshot) {
	s.reset()

	for _, c := range snap.Customers {
		s.customers.put(c.ID, c)
		s.next.customer = max(s.next.customer, c.ID+1)
	}
	for _, b := range snap.Bikes {
		s.bikes.put(b.ID, b)
		s.next.bike = max(s.next.bike, b.ID+1)
	}
	for _, r := range snap.Reservations {
		s.reservations.put(r.ID, r)
		s.next.reservation = max(s.next.reservation, r.ID+1)
	}
	for _, r := range snap.Repairs {
		s.repairs.put(r.ID, r)
		s.next.repair = max(s.next.repair, r.ID+1)
	}
	for _, a := range snap.Accounts {
		s.accounts.put(a.Username, a.Clone())
	}

	s.logger.Info("store restored",
		"customers", s.customers.len(),
		"bikes", s.bikes.len(),
		"reservations", s.reservations.len(),
		"repairs", s.repairs.len(),
		"accounts", s.accounts.len(),
	)
}

// Save writes the whole state to b. The live store is not touched.
func (s *Store) Save(ctx context.Context, b Backend) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "store.Save")
	defer span.End()

	snap := s.Snapshot()
	span.SetAttributes(snapshotAttributes(snap)...)

	if err := b.Save(ctx, snap); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		s.logger.Error("save failed", "error", err)
		return fmt.Errorf("saving store: %w", err)
	}

	s.logger.Info("store saved")
	return nil
}

// Load replaces the state with what b holds. If b fails the store keeps its
// current state.
func (s *Store) Load(ctx context.Context, b Backend) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "store.Load")
	defer span.End()

	snap, err := b.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		s.logger.Error("load failed", "error", err)
		return fmt.Errorf("loading store: %w", err)
	}
	span.SetAttributes(snapshotAttributes(snap)...)

	s.Restore(snap)
	return nil
}

func snapshotAttributes(snap Snapshot) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("store.customers", len(snap.Customers)),
		attribute.Int("store.bikes", len(snap.Bikes)),
		attribute.Int("store.reservations", len(snap.Reservations)),
		attribute.Int("store.repairs", len(snap.Repairs)),
		attribute.Int("store.accounts", len(snap.Accounts)),
	}
}
