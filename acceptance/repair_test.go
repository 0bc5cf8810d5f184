package acceptance

import (
	"bytes"
	"fmt"
	"image/png"
	"net/http"
	"testing"

	"github.com/semanticallynull/bikerental/bike"
)

func TestReportDefect_ByOwningRenter(t *testing.T) {
	ts := NewTestServer(t)
	res := ts.CreateTestReservation(t, "CITY_BIKE", "2099-06-01 10:00", "2099-06-02 10:00")

	body := map[string]string{"defectType": "Flat tire", "description": "Voorband lek"}
	w := ts.POST(fmt.Sprintf("/reservations/%d/defects", res.ID), body, ts.Renter(t))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var rep repairResponse
	decode(t, w, &rep)
	if rep.ID != 1 || rep.ReservationID != res.ID || rep.BikeID != res.BikeID {
		t.Errorf("unexpected repair: %+v", rep)
	}
	want := fmt.Sprintf("REP-000001/BIKE-%d", res.BikeID)
	if rep.Reference != want {
		t.Errorf("expected reference %s, got %s", want, rep.Reference)
	}

	b, _ := ts.Store.Bike(res.BikeID)
	if b.Status != bike.Defect || b.Available {
		t.Errorf("expected bike %d to be defective and held, got %+v", b.ID, b)
	}
}

func TestReportDefect_OtherRenterForbidden(t *testing.T) {
	ts := NewTestServer(t)
	res := ts.CreateTestReservation(t, "CITY_BIKE", "2099-06-01 10:00", "2099-06-02 10:00")

	register := map[string]string{"name": "Eva", "username": "eva", "password": "geheim"}
	if w := ts.POST("/register", register, nil); w.Code != http.StatusCreated {
		t.Fatalf("failed to register: %d %s", w.Code, w.Body.String())
	}
	eva := ts.Login(t, "eva", "geheim", "RENTER")

	w := ts.POST(fmt.Sprintf("/reservations/%d/defects", res.ID), map[string]string{"defectType": "Flat tire"}, eva)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d: %s", http.StatusForbidden, w.Code, w.Body.String())
	}
	if n := len(ts.Store.AllRepairs()); n != 0 {
		t.Errorf("expected no repairs, got %d", n)
	}
}

func TestReportDefect_Refused(t *testing.T) {
	ts := NewTestServer(t)
	res := ts.CreateTestReservation(t, "CITY_BIKE", "2099-06-01 10:00", "2099-06-02 10:00")

	tests := []struct {
		name    string
		path    string
		body    map[string]string
		headers map[string]string
		want    int
	}{
		{"unknown reservation", "/reservations/99/defects", map[string]string{"defectType": "Flat tire"}, ts.Admin(t), http.StatusNotFound},
		{"missing defect type", fmt.Sprintf("/reservations/%d/defects", res.ID), map[string]string{}, ts.Admin(t), http.StatusBadRequest},
		{"mechanic", fmt.Sprintf("/reservations/%d/defects", res.ID), map[string]string{"defectType": "Flat tire"}, ts.Mechanic(t), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.POST(tt.path, tt.body, tt.headers)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestFixRepair_ReturnsBikeToPool(t *testing.T) {
	ts := NewTestServer(t)
	mechanic := ts.Mechanic(t)
	res := ts.CreateTestReservation(t, "E_BIKE", "2099-06-01 10:00", "2099-06-02 10:00")
	ts.POST(fmt.Sprintf("/reservations/%d/defects", res.ID), map[string]string{"defectType": "Battery"}, ts.Renter(t))

	var repairs []repairResponse
	decode(t, ts.GET("/repairs", mechanic), &repairs)
	if len(repairs) != 1 || repairs[0].DefectType != "Battery" {
		t.Fatalf("expected one battery repair, got %+v", repairs)
	}

	w := ts.POST("/repairs/1/fix", nil, mechanic)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, w.Code, w.Body.String())
	}
	b, _ := ts.Store.Bike(res.BikeID)
	if !b.Reservable() {
		t.Errorf("expected bike %d to be reservable again, got %+v", b.ID, b)
	}

	// The ticket stays as history.
	decode(t, ts.GET("/repairs", mechanic), &repairs)
	if len(repairs) != 1 {
		t.Errorf("expected the repair to be kept, got %d", len(repairs))
	}

	if w := ts.POST("/repairs/1/fix", nil, ts.Admin(t)); w.Code != http.StatusForbidden {
		t.Errorf("expected admins to be refused, got %d", w.Code)
	}
	if w := ts.POST("/repairs/99/fix", nil, mechanic); w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRepairQR(t *testing.T) {
	ts := NewTestServer(t)
	mechanic := ts.Mechanic(t)
	res := ts.CreateTestReservation(t, "CITY_BIKE", "2099-06-01 10:00", "2099-06-02 10:00")
	ts.POST(fmt.Sprintf("/reservations/%d/defects", res.ID), map[string]string{"defectType": "Chain"}, ts.Admin(t))

	w := ts.GET("/repairs/1/qr?size=128", mechanic)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	if dx := img.Bounds().Dx(); dx != 128 {
		t.Errorf("expected a 128px image, got %d", dx)
	}

	if w := ts.GET("/repairs/1/qr?size=5000", mechanic); w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if w := ts.GET("/repairs/2/qr", mechanic); w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestUpdateProfile_SavedImmediately(t *testing.T) {
	ts := NewTestServer(t)
	renter := ts.Renter(t)

	w := ts.PUT("/me/profile", map[string]string{"deliveryAddress": "Singel 5", "iban": "NL91ABNA0417164300"}, renter)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	saved := ts.Reload(t)
	cust, found := saved.Customer(1)
	if !found {
		t.Fatal("expected customer 1 to be saved")
	}
	if cust.Name != "Dima" {
		t.Errorf("expected name to be kept, got %s", cust.Name)
	}
	if cust.DeliveryAddress != "Singel 5" || cust.IBAN != "NL91ABNA0417164300" {
		t.Errorf("expected profile edit to be saved, got %+v", cust)
	}

	if w := ts.PUT("/me/profile", map[string]string{"name": ""}, renter); w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
