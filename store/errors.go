package store

import "errors"

var (
	ErrUnknownCustomer    = errors.New("unknown customer")
	ErrUnknownReservation = errors.New("unknown reservation")
	ErrUnknownRepair      = errors.New("unknown repair")
	ErrUnknownBike        = errors.New("unknown bike")
	ErrNoBikeAvailable    = errors.New("no bike of this type is OK and free")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidStatus      = errors.New("invalid reservation status")
)

// Reasons an authentication attempt fails, in the order they are checked.
var (
	ErrUnknownUser   = errors.New("unknown username")
	ErrWrongPassword = errors.New("wrong password")
	ErrWrongRole     = errors.New("account does not have this role")
)
