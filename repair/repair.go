// Package repair holds the defect tickets raised against reserved bikes.
// Tickets are an audit log: once written they are never changed.
package repair

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

type Repair struct {
	ID            int64  `db:"repair_id" json:"id"`
	ReservationID int64  `db:"reservation_id" json:"reservationId"`
	BikeID        int64  `db:"bike_id" json:"bikeId"`
	DefectType    string `db:"defect_type" json:"defectType"`
	Description   string `db:"description" json:"description"`
}

// Reference is the code printed on the ticket and encoded in its QR label.
func (r Repair) Reference() string {
	return fmt.Sprintf("REP-%06d/BIKE-%d", r.ID, r.BikeID)
}

// QRCode renders the ticket reference as a PNG of size x size pixels.
func (r Repair) QRCode(size int) ([]byte, error) {
	return qrcode.Encode(r.Reference(), qrcode.Medium, size)
}
