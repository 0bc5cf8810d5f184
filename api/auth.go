package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/customer"
	"github.com/semanticallynull/bikerental/internal/middleware"
	"github.com/semanticallynull/bikerental/store"
)

type tokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

type tokenClaims struct {
	middleware.Claims
	jwt.RegisteredClaims
}

func (ti *tokenIssuer) issue(acc account.Account, now time.Time) (string, time.Time, error) {
	expires := now.Add(ti.ttl)
	claims := tokenClaims{
		Claims: middleware.Claims{
			Role:       acc.Role.String(),
			CustomerID: acc.CustomerID,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acc.Username,
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	return token, expires, err
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type loginResponse struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	RoleLabel  string    `json:"roleLabel"`
	CustomerID *int64    `json:"customerId,omitempty"`
}

func (a *API) loginHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	role, err := account.ParseRole(req.Role)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	a.mu.Lock()
	acc, err := a.s.AuthenticateReason(req.Username, req.Password, role)
	a.mu.Unlock()
	if err != nil {
		// the reason is only logged; callers see one generic answer
		logger.InfoContext(c, "login refused", "username", req.Username, "role", role.String(), "reason", err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"code": "INVALID_CREDENTIALS", "message": "Unknown username, wrong password or wrong role"})
		return
	}

	token, expires, err := a.tokens.issue(acc, time.Now())
	if err != nil {
		logger.ErrorContext(c, "failed to sign token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:      token,
		ExpiresAt:  expires,
		Username:   acc.Username,
		Role:       acc.Role.String(),
		RoleLabel:  acc.Role.Label(),
		CustomerID: acc.CustomerID,
	})
}

type registerRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email"`
	IBAN            string `json:"iban"`
	DeliveryAddress string `json:"deliveryAddress"`
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

type registerResponse struct {
	Customer customer.Customer `json:"customer"`
	Username string            `json:"username"`
}

// registerHandler creates a customer and a renter account for it. The
// username is checked first so a taken name leaves no orphan customer.
func (a *API) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.s.Account(req.Username); taken {
		storeError(c, store.ErrUsernameTaken)
		return
	}

	cust := a.s.AddCustomer(req.Name,
		customer.WithEmail(req.Email),
		customer.WithIBAN(req.IBAN),
		customer.WithDeliveryAddress(req.DeliveryAddress),
	)
	acc, err := a.s.RegisterAccount(req.Username, req.Password, account.Renter, &cust.ID)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{Customer: cust, Username: acc.Username})
}

// currentCustomer returns the customer id of the calling renter.
func currentCustomer(c *gin.Context) (int64, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return 0, false
	}
	if id.CustomerID == nil {
		forbidden(c, "account is not linked to a customer")
		return 0, false
	}
	return *id.CustomerID, true
}

var errNotOwner = errors.New("reservation belongs to another customer")
