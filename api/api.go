package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/internal/middleware"
	"github.com/semanticallynull/bikerental/internal/o11y"
	"github.com/semanticallynull/bikerental/store"
)

type Config struct {
	JWTSecret string
	Issuer    string
	Audience  string
	TokenTTL  time.Duration

	MetricsUsername string
	MetricsPassword string
}

// API serves one store. The store is single-actor, so every handler holds mu
// while it uses it.
type API struct {
	r       *gin.Engine
	mu      sync.Mutex
	s       *store.Store
	backend store.Backend
	logger  *slog.Logger
	tokens  *tokenIssuer
}

// New builds the router. backend may be nil, in which case profile edits are
// not saved eagerly.
func New(s *store.Store, backend store.Backend, obs *o11y.Observability, cfg Config) (*API, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	a := &API{
		r:       gin.New(),
		s:       s,
		backend: backend,
		logger:  obs.Logger,
		tokens: &tokenIssuer{
			secret:   []byte(cfg.JWTSecret),
			issuer:   cfg.Issuer,
			audience: cfg.Audience,
			ttl:      cfg.TokenTTL,
		},
	}

	obs.Registry.MustRegister(o11y.NewFleetCollector(a.fleetSummary))

	auth, err := middleware.JWT([]byte(cfg.JWTSecret), cfg.Issuer, cfg.Audience, obs.Logger)
	if err != nil {
		return nil, fmt.Errorf("setting up token validation: %w", err)
	}

	a.r.Use(
		gin.Recovery(),
		middleware.Tracing("bikerental"),
		middleware.Logging(obs.Logger),
		middleware.Metrics(obs.Registry),
	)

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	a.r.POST("/login", a.loginHandler)
	a.r.POST("/register", a.registerHandler)
	a.r.GET("/bikes/types", a.bikeTypesHandler)

	metrics := a.r.Group("/metrics")
	if cfg.MetricsUsername != "" {
		metrics.Use(gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}))
	}
	metrics.GET("", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))

	protected := a.r.Group("/")
	protected.Use(auth)

	renter := protected.Group("/me", middleware.RequireRole(account.Renter))
	{
		renter.GET("/reservations", a.myReservationsHandler)
		renter.POST("/reservations", a.createMyReservationHandler)
		renter.GET("/profile", a.myProfileHandler)
		renter.PUT("/profile", a.updateMyProfileHandler)
	}

	protected.POST("/reservations/:id/defects",
		middleware.RequireRole(account.Renter, account.Admin), a.reportDefectHandler)

	admin := protected.Group("/", middleware.RequireRole(account.Admin))
	{
		admin.GET("/reservations", a.reservationsHandler)
		admin.POST("/reservations", a.createReservationHandler)
		admin.PUT("/reservations/:id", a.updateReservationHandler)
		admin.PUT("/reservations/:id/status", a.setReservationStatusHandler)
		admin.DELETE("/reservations/:id", a.deleteReservationHandler)

		admin.GET("/customers", a.customersHandler)
		admin.POST("/customers", a.createCustomerHandler)

		admin.GET("/bikes", a.bikesHandler)
		admin.POST("/bikes", a.createBikeHandler)
		admin.POST("/bikes/:id/ok", a.markBikeOKHandler)
		admin.GET("/fleet", a.fleetHandler)
	}

	repairs := protected.Group("/repairs")
	{
		repairs.GET("", middleware.RequireRole(account.Mechanic, account.Admin), a.repairsHandler)
		repairs.GET("/:id/qr", middleware.RequireRole(account.Mechanic, account.Admin), a.repairQRHandler)
		repairs.POST("/:id/fix", middleware.RequireRole(account.Mechanic), a.fixRepairHandler)
	}

	return a, nil
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// Save writes the store to the backend, if there is one.
func (a *API) Save(ctx context.Context) error {
	if a.backend == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s.Save(ctx, a.backend)
}

func (a *API) fleetSummary() map[bike.Type]store.FleetCount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s.FleetSummary()
}
