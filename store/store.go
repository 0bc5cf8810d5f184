// Package store is the single source of truth for customers, the bike fleet,
// reservations, repair tickets and accounts. Every change to those goes
// through a Store method so the fleet availability rules hold at all times.
//
// A Store is not safe for concurrent use; callers that share one between
// goroutines serialize access themselves.
package store

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/customer"
	"github.com/semanticallynull/bikerental/repair"
	"github.com/semanticallynull/bikerental/reservation"
)

type Store struct {
	customers    table[int64, customer.Customer]
	bikes        table[int64, bike.Bike]
	reservations table[int64, reservation.Reservation]
	repairs      table[int64, repair.Repair]
	accounts     table[string, account.Account]

	next counters

	rates    Rates
	logger   *slog.Logger
	now      func() time.Time
	observer Observer
}

// counters hold the next id to hand out per entity type.
type counters struct {
	customer    int64
	bike        int64
	reservation int64
	repair      int64
}

func initialCounters() counters {
	return counters{customer: 1, bike: 1, reservation: 1, repair: 1}
}

// Observer is told about completed workflow steps, e.g. to count them.
type Observer interface {
	ReservationCreated(reservation.Reservation)
	DefectReported(repair.Repair)
	BikeRepaired(bike.Bike)
}

type noopObserver struct{}

func (noopObserver) ReservationCreated(reservation.Reservation) {}
func (noopObserver) DefectReported(repair.Repair)               {}
func (noopObserver) BikeRepaired(bike.Bike)                     {}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithRates(r Rates) Option {
	return func(s *Store) { s.rates = r.clone() }
}

// WithClock replaces time.Now for the current-reservation filter.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

func New(opts ...Option) *Store {
	s := &Store{
		rates:    DefaultRates.clone(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		observer: noopObserver{},
	}
	s.reset()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) reset() {
	s.customers = newTable[int64, customer.Customer]()
	s.bikes = newTable[int64, bike.Bike]()
	s.reservations = newTable[int64, reservation.Reservation]()
	s.repairs = newTable[int64, repair.Repair]()
	s.accounts = newTable[string, account.Account]()
	s.next = initialCounters()
}

// Rates returns a copy of the daily price table.
func (s *Store) Rates() Rates {
	return s.rates.clone()
}

// --- customers ---

func (s *Store) AddCustomer(name string, opts ...customer.Option) customer.Customer {
	c := customer.Customer{ID: s.next.customer, Name: name}
	for _, opt := range opts {
		opt(&c)
	}
	s.customers.put(c.ID, c)
	s.next.customer++

	s.logger.Info("customer added", "customer_id", c.ID)
	return c
}

func (s *Store) Customer(id int64) (customer.Customer, bool) {
	c, ok := s.customers.get(id)
	if !ok {
		return customer.Customer{}, false
	}
	return *c, true
}

func (s *Store) Customers() []customer.Customer {
	return s.customers.values()
}

// UpdateCustomerProfile changes the non-nil fields of p on the customer.
func (s *Store) UpdateCustomerProfile(id int64, p customer.Profile) (customer.Customer, error) {
	c, ok := s.customers.get(id)
	if !ok {
		return customer.Customer{}, fmt.Errorf("%w: %d", ErrUnknownCustomer, id)
	}
	*c = p.Apply(*c)

	s.logger.Info("customer profile updated", "customer_id", id)
	return *c, nil
}

// --- fleet ---

func (s *Store) AddBike(t bike.Type, status bike.Status) bike.Bike {
	b := bike.Bike{ID: s.next.bike, Type: t, Status: status, Available: true}
	s.bikes.put(b.ID, b)
	s.next.bike++

	s.logger.Info("bike added", "bike_id", b.ID, "bike_type", t.String(), "status", status.String())
	return b
}

func (s *Store) Bike(id int64) (bike.Bike, bool) {
	b, ok := s.bikes.get(id)
	if !ok {
		return bike.Bike{}, false
	}
	return *b, true
}

func (s *Store) Bikes() []bike.Bike {
	return s.bikes.values()
}

// FindAvailableBike returns the first bike of type t, in the order bikes were
// added, that is OK and not held by anything.
func (s *Store) FindAvailableBike(t bike.Type) (bike.Bike, bool) {
	b := s.findAvailableBike(t)
	if b == nil {
		return bike.Bike{}, false
	}
	return *b, true
}

func (s *Store) findAvailableBike(t bike.Type) *bike.Bike {
	var found *bike.Bike
	s.bikes.each(func(b *bike.Bike) bool {
		if b.Type == t && b.Reservable() {
			found = b
			return false
		}
		return true
	})
	return found
}

// MarkBikeOK puts a bike back in the pool regardless of open tickets.
func (s *Store) MarkBikeOK(id int64) error {
	b, ok := s.bikes.get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBike, id)
	}
	b.Status = bike.OK
	b.Available = true

	s.logger.Info("bike marked ok", "bike_id", id)
	return nil
}

// FleetCount summarizes the bikes of one type.
type FleetCount struct {
	Total      int `json:"total"`
	Reservable int `json:"reservable"`
	Defect     int `json:"defect"`
}

func (s *Store) FleetSummary() map[bike.Type]FleetCount {
	summary := make(map[bike.Type]FleetCount, len(bike.Types))
	for _, t := range bike.Types {
		summary[t] = FleetCount{}
	}
	s.bikes.each(func(b *bike.Bike) bool {
		fc := summary[b.Type]
		fc.Total++
		if b.Reservable() {
			fc.Reservable++
		}
		if b.Status == bike.Defect {
			fc.Defect++
		}
		summary[b.Type] = fc
		return true
	})
	return summary
}

// --- reservations ---

// CalculatePrice returns what a rental of type t from start to end costs.
func (s *Store) CalculatePrice(t bike.Type, start, end time.Time) float64 {
	return s.rates.Price(t, start, end)
}

// CreateReservation claims the first free bike of type t for the customer and
// freezes the price. end is not checked against start; an inverted range is
// billed as one day.
func (s *Store) CreateReservation(
	customerID int64,
	t bike.Type,
	start, end time.Time,
	location reservation.Location,
	address string,
) (reservation.Reservation, error) {
	if _, ok := s.customers.get(customerID); !ok {
		return reservation.Reservation{}, fmt.Errorf("%w: %d", ErrUnknownCustomer, customerID)
	}

	b := s.findAvailableBike(t)
	if b == nil {
		s.logger.Warn("no bike available", "bike_type", t.String(), "customer_id", customerID)
		return reservation.Reservation{}, fmt.Errorf("%w: %s", ErrNoBikeAvailable, t.Label())
	}

	res := reservation.Reservation{
		ID:         s.next.reservation,
		CustomerID: customerID,
		BikeID:     b.ID,
		BikeType:   t,
		Start:      start,
		End:        end,
		Location:   location,
		Address:    reservation.DeliveryAddress(location, address),
		Status:     reservation.StatusPlanned,
		TotalPrice: s.rates.Price(t, start, end),
	}

	b.Available = false
	s.reservations.put(res.ID, res)
	s.next.reservation++

	s.logger.Info("reservation created",
		"reservation_id", res.ID,
		"customer_id", customerID,
		"bike_id", b.ID,
		"total_price", res.TotalPrice,
	)
	s.observer.ReservationCreated(res)
	return res, nil
}

func (s *Store) Reservation(id int64) (reservation.Reservation, bool) {
	r, ok := s.reservations.get(id)
	if !ok {
		return reservation.Reservation{}, false
	}
	return *r, true
}

// ReservationsForCustomer lists the customer's reservations in creation order.
// With onlyCurrentAndFuture set, reservations that ended before now are left
// out; running rentals are kept.
func (s *Store) ReservationsForCustomer(customerID int64, onlyCurrentAndFuture bool) []reservation.Reservation {
	now := s.now()
	var out []reservation.Reservation
	s.reservations.each(func(r *reservation.Reservation) bool {
		if r.CustomerID != customerID {
			return true
		}
		if onlyCurrentAndFuture && r.EndedBefore(now) {
			return true
		}
		out = append(out, *r)
		return true
	})
	return out
}

func (s *Store) AllReservations() []reservation.Reservation {
	return s.reservations.values()
}

// UpdateReservation reschedules a reservation and recomputes its price. The
// bike stays the same.
func (s *Store) UpdateReservation(
	id int64,
	start, end time.Time,
	location reservation.Location,
	address string,
) (reservation.Reservation, error) {
	r, ok := s.reservations.get(id)
	if !ok {
		return reservation.Reservation{}, fmt.Errorf("%w: %d", ErrUnknownReservation, id)
	}
	r.Start = start
	r.End = end
	r.Location = location
	r.Address = reservation.DeliveryAddress(location, address)
	r.TotalPrice = s.rates.Price(r.BikeType, start, end)

	s.logger.Info("reservation updated", "reservation_id", id, "total_price", r.TotalPrice)
	return *r, nil
}

func (s *Store) SetReservationStatus(id int64, status reservation.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	r, ok := s.reservations.get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownReservation, id)
	}
	r.Status = status

	s.logger.Info("reservation status changed", "reservation_id", id, "status", string(status))
	return nil
}

// DeleteReservation removes a reservation. Its bike goes back in the pool
// only if it is still OK; a defective bike stays held for repair.
func (s *Store) DeleteReservation(id int64) error {
	r, ok := s.reservations.get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownReservation, id)
	}
	bikeID := r.BikeID
	s.reservations.remove(id)

	released := false
	if b, ok := s.bikes.get(bikeID); ok && b.Status == bike.OK {
		b.Available = true
		released = true
	}

	s.logger.Info("reservation deleted", "reservation_id", id, "bike_id", bikeID, "bike_released", released)
	return nil
}

// --- repairs ---

// ReportDefect opens a repair ticket for the reservation's bike and takes the
// bike out of the pool.
func (s *Store) ReportDefect(reservationID int64, defectType, description string) (repair.Repair, error) {
	r, ok := s.reservations.get(reservationID)
	if !ok {
		return repair.Repair{}, fmt.Errorf("%w: %d", ErrUnknownReservation, reservationID)
	}
	b, ok := s.bikes.get(r.BikeID)
	if !ok {
		return repair.Repair{}, fmt.Errorf("%w: %d", ErrUnknownBike, r.BikeID)
	}

	rep := repair.Repair{
		ID:            s.next.repair,
		ReservationID: reservationID,
		BikeID:        b.ID,
		DefectType:    defectType,
		Description:   description,
	}

	b.Status = bike.Defect
	b.Available = false
	s.repairs.put(rep.ID, rep)
	s.next.repair++

	s.logger.Info("defect reported",
		"repair_id", rep.ID,
		"reservation_id", reservationID,
		"bike_id", b.ID,
		"defect_type", defectType,
	)
	s.observer.DefectReported(rep)
	return rep, nil
}

func (s *Store) Repair(id int64) (repair.Repair, bool) {
	r, ok := s.repairs.get(id)
	if !ok {
		return repair.Repair{}, false
	}
	return *r, true
}

func (s *Store) AllRepairs() []repair.Repair {
	return s.repairs.values()
}

// FixBikeFromRepair returns the ticket's bike to the pool. The ticket itself
// is kept unchanged as history.
func (s *Store) FixBikeFromRepair(repairID int64) error {
	rep, ok := s.repairs.get(repairID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRepair, repairID)
	}
	b, ok := s.bikes.get(rep.BikeID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBike, rep.BikeID)
	}
	b.Status = bike.OK
	b.Available = true

	s.logger.Info("bike repaired", "repair_id", repairID, "bike_id", b.ID)
	s.observer.BikeRepaired(*b)
	return nil
}

// --- accounts ---

// AddAccount stores an account, replacing any account with the same username.
func (s *Store) AddAccount(username, password string, role account.Role, customerID *int64) account.Account {
	acc := account.New(username, password, role, customerID)
	s.accounts.put(username, acc)

	s.logger.Info("account stored", "username", username, "role", role.String())
	return acc.Clone()
}

// RegisterAccount is AddAccount for new users: it refuses a username that is
// already in use and a renter linked to a customer that does not exist.
func (s *Store) RegisterAccount(username, password string, role account.Role, customerID *int64) (account.Account, error) {
	if _, ok := s.accounts.get(username); ok {
		return account.Account{}, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}
	if role == account.Renter && customerID != nil {
		if _, ok := s.customers.get(*customerID); !ok {
			return account.Account{}, fmt.Errorf("%w: %d", ErrUnknownCustomer, *customerID)
		}
	}
	return s.AddAccount(username, password, role, customerID), nil
}

func (s *Store) Account(username string) (account.Account, bool) {
	acc, ok := s.accounts.get(username)
	if !ok {
		return account.Account{}, false
	}
	return acc.Clone(), true
}

func (s *Store) Accounts() []account.Account {
	out := s.accounts.values()
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// Authenticate returns the account only when the username exists, the
// password matches and the account has the requested role.
func (s *Store) Authenticate(username, password string, role account.Role) (account.Account, bool) {
	acc, err := s.AuthenticateReason(username, password, role)
	return acc, err == nil
}

// AuthenticateReason is Authenticate with the failed check as error:
// ErrUnknownUser, ErrWrongPassword or ErrWrongRole, tested in that order.
func (s *Store) AuthenticateReason(username, password string, role account.Role) (account.Account, error) {
	acc, ok := s.accounts.get(username)
	if !ok {
		return account.Account{}, ErrUnknownUser
	}
	if acc.Password != password {
		return account.Account{}, ErrWrongPassword
	}
	if acc.Role != role {
		return account.Account{}, ErrWrongRole
	}
	return acc.Clone(), nil
}
