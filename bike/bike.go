// Package bike holds the fleet: bike types, their condition and availability.
package bike

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Type is the closed set of bike kinds in the fleet.
type Type int

const (
	City Type = iota
	EBike
)

// Types lists every bike type in display order.
var Types = []Type{City, EBike}

var typeKeys = [...]string{"CITY_BIKE", "E_BIKE"}
var typeLabels = [...]string{"Stadsfiets", "E-bike"}

// String returns the persisted key of the type.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeKeys) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeKeys[t]
}

// Label is the user-facing name of the type.
func (t Type) Label() string {
	if t < 0 || int(t) >= len(typeLabels) {
		return t.String()
	}
	return typeLabels[t]
}

func (t Type) Valid() bool {
	return t >= 0 && int(t) < len(typeKeys)
}

// ParseType accepts a persisted key. STADSFIETS is the key written by
// older data files and maps to City.
func ParseType(s string) (Type, error) {
	switch s {
	case "CITY_BIKE", "STADSFIETS":
		return City, nil
	case "E_BIKE":
		return EBike, nil
	}
	return 0, fmt.Errorf("invalid bike type %q", s)
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Status is the mechanical condition of a bike.
type Status int

const (
	OK Status = iota
	Defect
)

var statusKeys = [...]string{"OK", "DEFECT"}
var statusLabels = [...]string{"OK", "Defect"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusKeys) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusKeys[s]
}

func (s Status) Label() string {
	if s < 0 || int(s) >= len(statusLabels) {
		return s.String()
	}
	return statusLabels[s]
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "OK":
		return OK, nil
	case "DEFECT":
		return Defect, nil
	}
	return 0, fmt.Errorf("invalid bike status %q", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	v, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Bike is a single rentable bike in the fleet.
type Bike struct {
	ID     int64  `json:"id"`
	Type   Type   `json:"type"`
	Status Status `json:"status"`
	// Available is false while a reservation or an open defect holds the bike.
	Available bool `json:"available"`
}

// Reservable reports whether the bike can be claimed by a new reservation.
func (b Bike) Reservable() bool {
	return b.Status == OK && b.Available
}

