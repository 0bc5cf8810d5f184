package reservation

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/semanticallynull/bikerental/bike"
)

// TimeLayout is the minute-precision format used for start and end times
// everywhere they are written out.
const TimeLayout = "2006-01-02 15:04"

type Status string

const (
	StatusPlanned   Status = "PLANNED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var statusLabels = map[Status]string{
	StatusPlanned:   "Gepland",
	StatusActive:    "Actief",
	StatusCompleted: "Afgerond",
	StatusCancelled: "Geannuleerd",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid reservation status %q", s)
	}
	return st, nil
}

// Location is how the bike reaches the customer.
type Location int

const (
	Pickup Location = iota
	Delivery
)

func (l Location) String() string {
	switch l {
	case Pickup:
		return "PICKUP"
	case Delivery:
		return "DELIVERY"
	}
	return fmt.Sprintf("Location(%d)", int(l))
}

func (l Location) Label() string {
	switch l {
	case Pickup:
		return "Ophalen"
	case Delivery:
		return "Bezorgen"
	}
	return l.String()
}

// ParseLocation accepts the persisted key, including the OPHALEN and
// BEZORGEN keys of older data files.
func ParseLocation(s string) (Location, error) {
	switch s {
	case "PICKUP", "OPHALEN":
		return Pickup, nil
	case "DELIVERY", "BEZORGEN":
		return Delivery, nil
	}
	return 0, fmt.Errorf("invalid location type %q", s)
}

func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Location) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseLocation(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Reservation claims one bike for a customer over a period of time.
type Reservation struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customerId"`
	BikeID     int64     `json:"bikeId"`
	BikeType   bike.Type `json:"bikeType"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Location   Location  `json:"location"`
	// Address is only set for deliveries.
	Address    string  `json:"address"`
	Status     Status  `json:"status"`
	TotalPrice float64 `json:"totalPrice"`
}

// EndedBefore reports whether the rental period was over at now.
// A rental that started earlier but is still running has not ended.
func (r Reservation) EndedBefore(now time.Time) bool {
	return r.End.Before(now)
}

// DeliveryAddress returns address when the location needs one and the
// empty string otherwise.
func DeliveryAddress(l Location, address string) string {
	if l != Delivery {
		return ""
	}
	return address
}
