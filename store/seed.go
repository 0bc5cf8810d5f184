package store

import (
	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
)

const demoBikesPerType = 5

// EnsureDemoData fills empty collections with a small demo setup so a fresh
// installation can be logged into. Collections that already hold rows are
// left alone.
func (s *Store) EnsureDemoData() {
	if s.customers.len() == 0 {
		s.AddCustomer("Dima")
		s.AddCustomer("Anna")
	}

	if s.bikes.len() == 0 {
		for _, t := range bike.Types {
			for range demoBikesPerType {
				s.AddBike(t, bike.OK)
			}
		}
	}

	if s.accounts.len() == 0 {
		var renterOf *int64
		if first := s.customers.values(); len(first) > 0 {
			id := first[0].ID
			renterOf = &id
		}
		s.AddAccount("huur1", "test", account.Renter, renterOf)
		s.AddAccount("admin1", "admin", account.Admin, nil)
		s.AddAccount("monteur1", "monteur", account.Mechanic, nil)
	}
}
