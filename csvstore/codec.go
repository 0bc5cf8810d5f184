package csvstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/customer"
	"github.com/semanticallynull/bikerental/repair"
	"github.com/semanticallynull/bikerental/reservation"
)

// Older files only carry the id and name of each customer.
var customerColumns = schema{
	required("customer_id"),
	required("name"),
	optional("email", ""),
	optional("iban", ""),
	optional("delivery_address", ""),
}

var bikeColumns = schema{
	required("bike_id"),
	required("bike_type"),
	required("status"),
	required("available"),
}

// Files written before reservations had a lifecycle lack the status column.
var reservationColumns = schema{
	required("reservation_id"),
	required("customer_id"),
	required("bike_id"),
	required("bike_type"),
	required("start"),
	required("end"),
	required("location_type"),
	required("address"),
	optional("status", string(reservation.StatusPlanned)),
	required("total_price"),
}

var repairColumns = schema{
	required("repair_id"),
	required("reservation_id"),
	required("bike_id"),
	required("defect_type"),
	required("description"),
}

var accountColumns = schema{
	required("username"),
	required("password"),
	required("role"),
	required("customer_id"),
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid id %q", name, s)
	}
	return id, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseBool(name, s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("%s: expected 0 or 1, got %q", name, s)
}

// formatTime writes t as local wall-clock time, the zone parseTime reads it back in.
func formatTime(t time.Time) string {
	return t.In(time.Local).Format(reservation.TimeLayout)
}

func parseTime(name, s string) (time.Time, error) {
	t, err := time.ParseInLocation(reservation.TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid time %q", name, s)
	}
	return t, nil
}

// --- customers ---

func encodeCustomers(cs []customer.Customer) [][]string {
	out := make([][]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, []string{formatID(c.ID), c.Name, c.Email, c.IBAN, c.DeliveryAddress})
	}
	return out
}

func decodeCustomers(s *sheet) ([]customer.Customer, error) {
	var out []customer.Customer
	err := s.each(func(cell func(string) string) error {
		id, err := parseID("customer_id", cell("customer_id"))
		if err != nil {
			return err
		}
		out = append(out, customer.Customer{
			ID:              id,
			Name:            cell("name"),
			Email:           cell("email"),
			IBAN:            cell("iban"),
			DeliveryAddress: cell("delivery_address"),
		})
		return nil
	})
	return out, err
}

// --- bikes ---

func encodeBikes(bs []bike.Bike) [][]string {
	out := make([][]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, []string{formatID(b.ID), b.Type.String(), b.Status.String(), formatBool(b.Available)})
	}
	return out
}

func decodeBikes(s *sheet) ([]bike.Bike, error) {
	var out []bike.Bike
	err := s.each(func(cell func(string) string) error {
		id, err := parseID("bike_id", cell("bike_id"))
		if err != nil {
			return err
		}
		t, err := bike.ParseType(cell("bike_type"))
		if err != nil {
			return err
		}
		st, err := bike.ParseStatus(cell("status"))
		if err != nil {
			return err
		}
		available, err := parseBool("available", cell("available"))
		if err != nil {
			return err
		}
		out = append(out, bike.Bike{ID: id, Type: t, Status: st, Available: available})
		return nil
	})
	return out, err
}

// --- reservations ---

func encodeReservations(rs []reservation.Reservation) [][]string {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, []string{
			formatID(r.ID),
			formatID(r.CustomerID),
			formatID(r.BikeID),
			r.BikeType.String(),
			formatTime(r.Start),
			formatTime(r.End),
			r.Location.String(),
			r.Address,
			string(r.Status),
			strconv.FormatFloat(r.TotalPrice, 'f', -1, 64),
		})
	}
	return out
}

func decodeReservations(s *sheet) ([]reservation.Reservation, error) {
	var out []reservation.Reservation
	err := s.each(func(cell func(string) string) error {
		var (
			r   reservation.Reservation
			err error
		)
		if r.ID, err = parseID("reservation_id", cell("reservation_id")); err != nil {
			return err
		}
		if r.CustomerID, err = parseID("customer_id", cell("customer_id")); err != nil {
			return err
		}
		if r.BikeID, err = parseID("bike_id", cell("bike_id")); err != nil {
			return err
		}
		if r.BikeType, err = bike.ParseType(cell("bike_type")); err != nil {
			return err
		}
		if r.Start, err = parseTime("start", cell("start")); err != nil {
			return err
		}
		if r.End, err = parseTime("end", cell("end")); err != nil {
			return err
		}
		if r.Location, err = reservation.ParseLocation(cell("location_type")); err != nil {
			return err
		}
		if r.Status, err = reservation.ParseStatus(cell("status")); err != nil {
			return err
		}
		if r.TotalPrice, err = strconv.ParseFloat(cell("total_price"), 64); err != nil {
			return fmt.Errorf("total_price: invalid amount %q", cell("total_price"))
		}
		r.Address = reservation.DeliveryAddress(r.Location, cell("address"))

		out = append(out, r)
		return nil
	})
	return out, err
}

// --- repairs ---

func encodeRepairs(rs []repair.Repair) [][]string {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, []string{formatID(r.ID), formatID(r.ReservationID), formatID(r.BikeID), r.DefectType, r.Description})
	}
	return out
}

func decodeRepairs(s *sheet) ([]repair.Repair, error) {
	var out []repair.Repair
	err := s.each(func(cell func(string) string) error {
		var (
			r   repair.Repair
			err error
		)
		if r.ID, err = parseID("repair_id", cell("repair_id")); err != nil {
			return err
		}
		if r.ReservationID, err = parseID("reservation_id", cell("reservation_id")); err != nil {
			return err
		}
		if r.BikeID, err = parseID("bike_id", cell("bike_id")); err != nil {
			return err
		}
		r.DefectType = cell("defect_type")
		r.Description = cell("description")

		out = append(out, r)
		return nil
	})
	return out, err
}

// --- accounts ---

func encodeAccounts(as []account.Account) [][]string {
	out := make([][]string, 0, len(as))
	for _, a := range as {
		var customerID string
		if a.CustomerID != nil {
			customerID = formatID(*a.CustomerID)
		}
		out = append(out, []string{a.Username, a.Password, a.Role.String(), customerID})
	}
	return out
}

func decodeAccounts(s *sheet) ([]account.Account, error) {
	var out []account.Account
	err := s.each(func(cell func(string) string) error {
		role, err := account.ParseRole(cell("role"))
		if err != nil {
			return err
		}
		var customerID *int64
		if raw := cell("customer_id"); raw != "" {
			id, err := parseID("customer_id", raw)
			if err != nil {
				return err
			}
			customerID = &id
		}
		out = append(out, account.New(cell("username"), cell("password"), role, customerID))
		return nil
	})
	return out, err
}
