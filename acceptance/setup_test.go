package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/semanticallynull/bikerental/api"
	"github.com/semanticallynull/bikerental/csvstore"
	"github.com/semanticallynull/bikerental/internal/o11y"
	"github.com/semanticallynull/bikerental/store"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "bikerental-test"
	testAudience = "bikerental-api"
)

type TestServer struct {
	Store   *store.Store
	Backend *csvstore.Dir
	API     *api.API
	Router  *gin.Engine
}

// NewTestServer serves a store seeded with the demo data: customers Dima (1)
// and Anna (2), bikes 1-5 city and 6-10 e-bike, and the accounts huur1,
// admin1 and monteur1.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	obs := &o11y.Observability{Logger: logger, Registry: reg}

	s := store.New(store.WithLogger(logger), store.WithObserver(o11y.NewStoreMetrics(reg)))
	s.EnsureDemoData()

	backend := csvstore.New(t.TempDir(), logger)

	a, err := api.New(s, backend, obs, api.Config{
		JWTSecret:       testSecret,
		Issuer:          testIssuer,
		Audience:        testAudience,
		TokenTTL:        time.Hour,
		MetricsUsername: "prom",
		MetricsPassword: "scrape",
	})
	if err != nil {
		t.Fatalf("failed to create api: %v", err)
	}

	return &TestServer{
		Store:   s,
		Backend: backend,
		API:     a,
		Router:  a.Router(),
	}
}

func (ts *TestServer) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

// Helper methods for making requests
func (ts *TestServer) GET(path string, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodGet, path, nil, headers)
}

func (ts *TestServer) POST(path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPost, path, body, headers)
}

func (ts *TestServer) PUT(path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPut, path, body, headers)
}

func (ts *TestServer) DELETE(path string, headers map[string]string) *httptest.ResponseRecorder {
	return ts.do(http.MethodDelete, path, nil, headers)
}

type loginResponse struct {
	Token      string `json:"token"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	RoleLabel  string `json:"roleLabel"`
	CustomerID *int64 `json:"customerId"`
}

// Login logs in and returns the Authorization header for the token.
func (ts *TestServer) Login(t *testing.T, username, password, role string) map[string]string {
	t.Helper()
	w := ts.POST("/login", map[string]string{"username": username, "password": password, "role": role}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login as %s failed with %d: %s", username, w.Code, w.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal login response: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + resp.Token}
}

func (ts *TestServer) Renter(t *testing.T) map[string]string {
	t.Helper()
	return ts.Login(t, "huur1", "test", "RENTER")
}

func (ts *TestServer) Admin(t *testing.T) map[string]string {
	t.Helper()
	return ts.Login(t, "admin1", "admin", "ADMIN")
}

func (ts *TestServer) Mechanic(t *testing.T) map[string]string {
	t.Helper()
	return ts.Login(t, "monteur1", "monteur", "MECHANIC")
}

type reservationResponse struct {
	ID           int64   `json:"id"`
	CustomerID   int64   `json:"customerId"`
	CustomerName string  `json:"customerName"`
	BikeID       int64   `json:"bikeId"`
	BikeType     string  `json:"bikeType"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Location     string  `json:"location"`
	Address      string  `json:"address"`
	Status       string  `json:"status"`
	StatusLabel  string  `json:"statusLabel"`
	TotalPrice   float64 `json:"totalPrice"`
}

type bikeResponse struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Available  bool   `json:"available"`
	Reservable bool   `json:"reservable"`
}

type repairResponse struct {
	ID            int64  `json:"id"`
	ReservationID int64  `json:"reservationId"`
	BikeID        int64  `json:"bikeId"`
	DefectType    string `json:"defectType"`
	Description   string `json:"description"`
	Reference     string `json:"reference"`
}

// CreateTestReservation books a bike for the renter huur1 (customer 1).
func (ts *TestServer) CreateTestReservation(t *testing.T, bikeType, start, end string) reservationResponse {
	t.Helper()
	body := map[string]string{
		"bikeType": bikeType,
		"start":    start,
		"end":      end,
		"location": "PICKUP",
	}
	w := ts.POST("/me/reservations", body, ts.Renter(t))
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create test reservation: %d %s", w.Code, w.Body.String())
	}
	var resp reservationResponse
	decode(t, w, &resp)
	return resp
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v (%s)", err, w.Body.String())
	}
}

func (ts *TestServer) Reload(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	if err := s.Load(context.Background(), ts.Backend); err != nil {
		t.Fatalf("failed to load saved store: %v", err)
	}
	return s
}
