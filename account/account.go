package account

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Role decides which part of the application an account can use.
type Role int

const (
	Renter Role = iota
	Admin
	Mechanic
)

var Roles = []Role{Renter, Admin, Mechanic}

func (r Role) String() string {
	switch r {
	case Renter:
		return "RENTER"
	case Admin:
		return "ADMIN"
	case Mechanic:
		return "MECHANIC"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Label() string {
	switch r {
	case Renter:
		return "Huurder"
	case Admin:
		return "Beheerder"
	case Mechanic:
		return "Monteur"
	}
	return r.String()
}

// ParseRole accepts the persisted key and the Dutch keys used by older data files.
func ParseRole(s string) (Role, error) {
	switch s {
	case "RENTER", "HUURDER":
		return Renter, nil
	case "ADMIN", "BEHEERDER":
		return Admin, nil
	case "MECHANIC", "MONTEUR":
		return Mechanic, nil
	}
	return 0, fmt.Errorf("invalid role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Account is a login. Passwords are kept as entered.
type Account struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
	// CustomerID links a renter to its customer record. It is nil for
	// every other role.
	CustomerID *int64 `json:"customerId,omitempty"`
}

// New builds an account, dropping the customer link for roles that cannot have one.
func New(username, password string, role Role, customerID *int64) Account {
	acc := Account{Username: username, Password: password, Role: role}
	if role == Renter && customerID != nil {
		id := *customerID
		acc.CustomerID = &id
	}
	return acc
}

// Clone returns a copy that shares no memory with a.
func (a Account) Clone() Account {
	return New(a.Username, a.Password, a.Role, a.CustomerID)
}
