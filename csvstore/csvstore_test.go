package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/reservation"
	"github.com/semanticallynull/bikerental/store"
)

var dump = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func populatedStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	s.EnsureDemoData()

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)
	end := time.Date(2025, 1, 4, 9, 30, 0, 0, time.Local)

	res, err := s.CreateReservation(2, bike.EBike, start, end, reservation.Delivery, "Dorpsweg 12, \"achterom\"")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetReservationStatus(res.ID, reservation.StatusActive); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReportDefect(res.ID, "Flat tire", "rear tire, punctured\non the ride home"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateReservation(1, bike.City, start, end, reservation.Pickup, ""); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	src := populatedStore(t)

	if err := src.Save(ctx, New(dir, nil)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	dst := store.New()
	if err := dst.Load(ctx, New(dir, nil)); err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	want, got := dump.Sdump(src.Snapshot()), dump.Sdump(dst.Snapshot())
	if want != got {
		t.Errorf("snapshot mismatch\nwant: %s\ngot:  %s", want, got)
	}

	// counters resume above the loaded ids
	if c := dst.AddCustomer("Eva"); c.ID != 3 {
		t.Errorf("expected customer id 3, got %d", c.ID)
	}
	if b := dst.AddBike(bike.City, bike.OK); b.ID != 11 {
		t.Errorf("expected bike id 11, got %d", b.ID)
	}
}

func TestSave_WritesExactHeaders(t *testing.T) {
	dir := t.TempDir()
	s := store.New()
	s.EnsureDemoData()

	if err := s.Save(context.Background(), New(dir, nil)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	tests := map[string]string{
		CustomersFile:    "customer_id,name,email,iban,delivery_address",
		BikesFile:        "bike_id,bike_type,status,available",
		ReservationsFile: "reservation_id,customer_id,bike_id,bike_type,start,end,location_type,address,status,total_price",
		RepairsFile:      "repair_id,reservation_id,bike_id,defect_type,description",
		AccountsFile:     "username,password,role,customer_id",
	}
	for name, header := range tests {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		first, _, _ := strings.Cut(string(b), "\n")
		if first != header {
			t.Errorf("%s: expected header %q, got %q", name, header, first)
		}
	}

	bikes, _ := os.ReadFile(filepath.Join(dir, BikesFile))
	if !strings.Contains(string(bikes), "\n1,CITY_BIKE,OK,1\n") {
		t.Errorf("expected storage keys and 0/1 availability, got:\n%s", bikes)
	}
	accounts, _ := os.ReadFile(filepath.Join(dir, AccountsFile))
	if !strings.Contains(string(accounts), "\nadmin1,admin,ADMIN,\n") {
		t.Errorf("expected empty customer id for admin, got:\n%s", accounts)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 5 {
		t.Errorf("expected only the five data files, got %d entries", len(entries))
	}
}

func TestLoad_MissingFilesLoadEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CustomersFile, "customer_id,name,email,iban,delivery_address\n4,Anna,,,\n")

	snap, err := New(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snap.Customers) != 1 || snap.Customers[0].ID != 4 {
		t.Errorf("expected customer 4, got %+v", snap.Customers)
	}
	if len(snap.Bikes)+len(snap.Reservations)+len(snap.Repairs)+len(snap.Accounts) != 0 {
		t.Errorf("expected the other collections to be empty")
	}
}

func TestLoad_LegacyReservationsDefaultToPlanned(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ReservationsFile,
		"reservation_id,customer_id,bike_id,bike_type,start,end,location_type,address,total_price\n"+
			"1,1,1,STADSFIETS,2025-01-01 10:00,2025-01-02 10:00,OPHALEN,,15.0\n"+
			"2,1,6,E_BIKE,2025-02-01 09:00,2025-02-03 09:00,BEZORGEN,Dorpsweg 12,50.0\n")
	writeFile(t, dir, AccountsFile, "username,password,role,customer_id\nhuur1,test,HUURDER,1\nadmin1,admin,BEHEERDER,\n")

	snap, err := New(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snap.Reservations) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(snap.Reservations))
	}
	for _, r := range snap.Reservations {
		if r.Status != reservation.StatusPlanned {
			t.Errorf("reservation %d: expected PLANNED, got %s", r.ID, r.Status)
		}
	}

	first, second := snap.Reservations[0], snap.Reservations[1]
	if first.BikeType != bike.City || first.Location != reservation.Pickup {
		t.Errorf("expected legacy keys to map to city/pickup, got %s/%s", first.BikeType, first.Location)
	}
	if second.Location != reservation.Delivery || second.Address != "Dorpsweg 12" || second.TotalPrice != 50 {
		t.Errorf("unexpected delivery reservation %+v", second)
	}
	if !first.Start.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)) {
		t.Errorf("unexpected start %s", first.Start)
	}

	if snap.Accounts[0].Role != account.Renter || snap.Accounts[1].Role != account.Admin {
		t.Errorf("expected legacy roles to be parsed, got %+v", snap.Accounts)
	}
	if snap.Accounts[1].CustomerID != nil {
		t.Errorf("expected no customer link for admin")
	}
}

func TestLoad_ColumnOrderDoesNotMatter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BikesFile, "available,status,bike_type,bike_id\n0,DEFECT,E_BIKE,3\n")

	snap, err := New(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := bike.Bike{ID: 3, Type: bike.EBike, Status: bike.Defect, Available: false}
	if len(snap.Bikes) != 1 || snap.Bikes[0] != want {
		t.Errorf("expected %+v, got %+v", want, snap.Bikes)
	}
}

func TestLoad_MissingRequiredColumnFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BikesFile, "bike_id,bike_type,available\n1,CITY_BIKE,1\n")

	_, err := New(dir, nil).Load(context.Background())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), BikesFile) || !strings.Contains(err.Error(), "status") {
		t.Errorf("expected file and column in error, got %q", err)
	}
}

func TestLoad_MalformedValueNamesTheRow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BikesFile, "bike_id,bike_type,status,available\n1,CITY_BIKE,OK,1\n2,TANDEM,OK,1\n")

	_, err := New(dir, nil).Load(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("expected row number in error, got %q", err)
	}
}

func TestLoad_FailureKeepsStoreState(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RepairsFile, "repair_id,reservation_id\n1,1\n")

	s := populatedStore(t)
	before := dump.Sdump(s.Snapshot())

	if err := s.Load(context.Background(), New(dir, nil)); err == nil {
		t.Fatal("expected an error")
	}
	if dump.Sdump(s.Snapshot()) != before {
		t.Errorf("expected store to be unchanged")
	}
}

func TestSave_UnwritableDirectory(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	writeFile(t, parent, "file", "not a directory")

	s := populatedStore(t)
	if err := s.Save(context.Background(), New(filepath.Join(blocker, "data"), nil)); err == nil {
		t.Fatal("expected an error")
	}
	if len(s.AllReservations()) != 2 {
		t.Errorf("expected store to stay usable")
	}
}

func TestLoad_DirectoryWrittenByOlderVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CustomersFile, "customer_id,name\n1,Dima\n2,Anna\n")
	writeFile(t, dir, BikesFile, "bike_id,bike_type,status,available\n1,STADSFIETS,OK,0\n2,E_BIKE,DEFECT,0\n3,E_BIKE,OK,1\n")
	writeFile(t, dir, ReservationsFile,
		"reservation_id,customer_id,bike_id,bike_type,start,end,location_type,address,total_price\n"+
			"1,2,1,STADSFIETS,2025-01-01 10:00,2025-01-02 10:00,OPHALEN,,15.0\n"+
			"2,1,2,E_BIKE,2025-01-05 10:00,2025-01-07 10:00,BEZORGEN,Kade 3,50.0\n")
	writeFile(t, dir, RepairsFile, "repair_id,reservation_id,bike_id,defect_type,description\n1,2,2,Flat tire,rear wheel\n")
	writeFile(t, dir, AccountsFile, "username,password,role,customer_id\nhuur1,test,HUURDER,1\nadmin1,admin,BEHEERDER,\nmonteur1,monteur,MONTEUR,\n")

	s := store.New()
	if err := s.Load(context.Background(), New(dir, nil)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cust, found := s.Customer(2)
	if !found || cust.Name != "Anna" || cust.Email != "" || cust.IBAN != "" || cust.DeliveryAddress != "" {
		t.Errorf("expected Anna with empty optional fields, got %+v", cust)
	}
	if n := len(s.Bikes()); n != 3 {
		t.Errorf("expected 3 bikes, got %d", n)
	}
	if r := s.AllRepairs(); len(r) != 1 || r[0].BikeID != 2 {
		t.Errorf("expected the repair to load, got %+v", r)
	}
	if _, ok := s.Authenticate("monteur1", "monteur", account.Mechanic); !ok {
		t.Errorf("expected monteur1 to log in as mechanic")
	}

	// Counters continue after the loaded ids.
	if c := s.AddCustomer("Eva"); c.ID != 3 {
		t.Errorf("expected next customer id 3, got %d", c.ID)
	}
	res, err := s.CreateReservation(1, bike.EBike, time.Now(), time.Now().Add(time.Hour), reservation.Pickup, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != 3 || res.BikeID != 3 {
		t.Errorf("expected reservation 3 on bike 3, got %d on %d", res.ID, res.BikeID)
	}

	// Saving rewrites the customers file in the current layout.
	if err := s.Save(context.Background(), New(dir, nil)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, CustomersFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "customer_id,name,email,iban,delivery_address\n") {
		t.Errorf("expected the full header after saving, got %q", data)
	}
}

func TestSaveLoad_NonLocalTimesKeepTheirInstant(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, zone)
	end := time.Date(2025, 3, 3, 8, 0, 0, 0, zone)

	s := store.New()
	s.EnsureDemoData()
	res, err := s.CreateReservation(1, bike.City, start, end, reservation.Pickup, "")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := s.Save(context.Background(), New(dir, nil)); err != nil {
		t.Fatal(err)
	}
	loaded := store.New()
	if err := loaded.Load(context.Background(), New(dir, nil)); err != nil {
		t.Fatal(err)
	}

	got, found := loaded.Reservation(res.ID)
	if !found {
		t.Fatalf("expected reservation %d", res.ID)
	}
	if !got.Start.Equal(start) || !got.End.Equal(end) {
		t.Errorf("expected %s - %s, got %s - %s", start, end, got.Start, got.End)
	}
}
