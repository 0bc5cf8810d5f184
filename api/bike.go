package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/bikerental/bike"
)

type bikeResponse struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	TypeLabel   string `json:"typeLabel"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
	Available   bool   `json:"available"`
	Reservable  bool   `json:"reservable"`
}

func toBikeResponse(b bike.Bike) bikeResponse {
	return bikeResponse{
		ID:          b.ID,
		Type:        b.Type.String(),
		TypeLabel:   b.Type.Label(),
		Status:      b.Status.String(),
		StatusLabel: b.Status.Label(),
		Available:   b.Available,
		Reservable:  b.Reservable(),
	}
}

type bikeTypeResponse struct {
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	DailyRate float64 `json:"dailyRate"`
}

func (a *API) bikeTypesHandler(c *gin.Context) {
	a.mu.Lock()
	rates := a.s.Rates()
	a.mu.Unlock()

	responses := make([]bikeTypeResponse, 0, len(bike.Types))
	for _, t := range bike.Types {
		responses = append(responses, bikeTypeResponse{Type: t.String(), Label: t.Label(), DailyRate: rates[t]})
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) bikesHandler(c *gin.Context) {
	a.mu.Lock()
	bikes := a.s.Bikes()
	a.mu.Unlock()

	responses := make([]bikeResponse, 0, len(bikes))
	for _, b := range bikes {
		responses = append(responses, toBikeResponse(b))
	}
	c.JSON(http.StatusOK, responses)
}

type createBikeRequest struct {
	Type   string `json:"type" binding:"required"`
	Status string `json:"status"`
}

func (a *API) createBikeHandler(c *gin.Context) {
	var req createBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	t, err := bike.ParseType(req.Type)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	status := bike.OK
	if req.Status != "" {
		if status, err = bike.ParseStatus(req.Status); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	a.mu.Lock()
	b := a.s.AddBike(t, status)
	a.mu.Unlock()

	c.JSON(http.StatusCreated, toBikeResponse(b))
}

func (a *API) markBikeOKHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	a.mu.Lock()
	err := a.s.MarkBikeOK(id)
	b, _ := a.s.Bike(id)
	a.mu.Unlock()
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBikeResponse(b))
}

type fleetResponse struct {
	Type       string `json:"type"`
	Label      string `json:"label"`
	Total      int    `json:"total"`
	Reservable int    `json:"reservable"`
	Defect     int    `json:"defect"`
}

func (a *API) fleetHandler(c *gin.Context) {
	summary := a.fleetSummary()

	responses := make([]fleetResponse, 0, len(bike.Types))
	for _, t := range bike.Types {
		fc := summary[t]
		responses = append(responses, fleetResponse{
			Type:       t.String(),
			Label:      t.Label(),
			Total:      fc.Total,
			Reservable: fc.Reservable,
			Defect:     fc.Defect,
		})
	}
	c.JSON(http.StatusOK, responses)
}
