package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/bikerental/internal/middleware"
	"github.com/semanticallynull/bikerental/reservation"
	"github.com/semanticallynull/bikerental/store"
)

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": msg})
}

func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "message": msg})
}

// storeError writes the response for an error returned by the store.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownCustomer),
		errors.Is(err, store.ErrUnknownReservation),
		errors.Is(err, store.ErrUnknownRepair),
		errors.Is(err, store.ErrUnknownBike):
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": err.Error()})
	case errors.Is(err, store.ErrNoBikeAvailable):
		c.JSON(http.StatusConflict, gin.H{"code": "NO_BIKE_AVAILABLE", "message": err.Error()})
	case errors.Is(err, store.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"code": "USERNAME_TAKEN", "message": err.Error()})
	case errors.Is(err, store.ErrInvalidStatus):
		badRequest(c, err.Error())
	default:
		middleware.GetLogger(c).ErrorContext(c, "unexpected store error", "error", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive number")
		return 0, false
	}
	return id, true
}

// parsePeriod reads start and end in reservation.TimeLayout, local time.
func parsePeriod(c *gin.Context, start, end string) (time.Time, time.Time, bool) {
	s, err := time.ParseInLocation(reservation.TimeLayout, start, time.Local)
	if err != nil {
		badRequest(c, "start must look like 2025-01-01 10:00")
		return time.Time{}, time.Time{}, false
	}
	e, err := time.ParseInLocation(reservation.TimeLayout, end, time.Local)
	if err != nil {
		badRequest(c, "end must look like 2025-01-01 10:00")
		return time.Time{}, time.Time{}, false
	}
	return s, e, true
}
