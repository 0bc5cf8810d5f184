package customer

// Customer is a person who rents bikes.
type Customer struct {
	ID              int64  `db:"customer_id" json:"id"`
	Name            string `db:"name" json:"name"`
	Email           string `db:"email" json:"email"`
	IBAN            string `db:"iban" json:"iban"`
	DeliveryAddress string `db:"delivery_address" json:"deliveryAddress"`
}

// Option sets one of the optional customer fields at registration.
type Option func(*Customer)

func WithEmail(email string) Option {
	return func(c *Customer) { c.Email = email }
}

func WithIBAN(iban string) Option {
	return func(c *Customer) { c.IBAN = iban }
}

func WithDeliveryAddress(address string) Option {
	return func(c *Customer) { c.DeliveryAddress = address }
}

// Profile holds the editable part of a customer. Nil fields are left as they are.
type Profile struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	IBAN            *string `json:"iban"`
	DeliveryAddress *string `json:"deliveryAddress"`
}

// Apply returns c with the non-nil profile fields copied over.
func (p Profile) Apply(c Customer) Customer {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.IBAN != nil {
		c.IBAN = *p.IBAN
	}
	if p.DeliveryAddress != nil {
		c.DeliveryAddress = *p.DeliveryAddress
	}
	return c
}
