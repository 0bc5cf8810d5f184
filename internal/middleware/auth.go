package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	adapter "github.com/gwatts/gin-adapter"

	"github.com/semanticallynull/bikerental/account"
)

// Claims are the application claims carried next to the registered ones.
type Claims struct {
	Role       string `json:"role"`
	CustomerID *int64 `json:"customer_id,omitempty"`
}

// Validate rejects tokens with a role this application does not know.
func (c *Claims) Validate(context.Context) error {
	if _, err := account.ParseRole(c.Role); err != nil {
		return err
	}
	return nil
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Username   string
	Role       account.Role
	CustomerID *int64
}

// JWT validates HS256 bearer tokens signed with secret for the given issuer
// and audience. Requests without a valid token are rejected with 401.
func JWT(secret []byte, issuer, audience string, logger *slog.Logger) (gin.HandlerFunc, error) {
	v, err := validator.New(
		func(context.Context) (interface{}, error) { return secret, nil },
		validator.HS256,
		issuer,
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &Claims{} }),
	)
	if err != nil {
		return nil, err
	}

	m := jwtmiddleware.New(v.ValidateToken,
		jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.DebugContext(r.Context(), "token rejected", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
				_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"Authentication required"}`))
				return
			}
			_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"Invalid token"}`))
		}),
	)

	return adapter.Wrap(m.CheckJWT), nil
}

// GetIdentity extracts the caller from the validated token in the Gin context.
func GetIdentity(c *gin.Context) (Identity, bool) {
	claims, ok := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok {
		return Identity{}, false
	}
	custom, ok := claims.CustomClaims.(*Claims)
	if !ok {
		return Identity{}, false
	}
	role, err := account.ParseRole(custom.Role)
	if err != nil {
		return Identity{}, false
	}
	return Identity{
		Username:   claims.RegisteredClaims.Subject,
		Role:       role,
		CustomerID: custom.CustomerID,
	}, true
}

// RequireRole lets the request through only for callers with one of roles.
// It must run after JWT.
func RequireRole(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
			return
		}
		if !slices.Contains(roles, id.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "message": "Not allowed for role " + id.Role.Label()})
			return
		}
		c.Next()
	}
}
