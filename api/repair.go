package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/bikerental/internal/middleware"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

func (a *API) repairsHandler(c *gin.Context) {
	a.mu.Lock()
	repairs := a.s.AllRepairs()
	a.mu.Unlock()

	responses := make([]repairResponse, 0, len(repairs))
	for _, r := range repairs {
		responses = append(responses, toRepairResponse(r))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) fixRepairHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	a.mu.Lock()
	err := a.s.FixBikeFromRepair(id)
	a.mu.Unlock()
	if err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// repairQRHandler renders the ticket reference as a PNG label for the bike.
func (a *API) repairQRHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	size := defaultQRSize
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > maxQRSize {
			badRequest(c, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	a.mu.Lock()
	rep, found := a.s.Repair(id)
	a.mu.Unlock()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "repair not found"})
		return
	}

	png, err := rep.QRCode(size)
	if err != nil {
		middleware.GetLogger(c).ErrorContext(c, "failed to render qr code", "repair_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
