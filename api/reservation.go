package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/bikerental/account"
	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/internal/middleware"
	"github.com/semanticallynull/bikerental/repair"
	"github.com/semanticallynull/bikerental/reservation"
)

type reservationResponse struct {
	ID            int64   `json:"id"`
	CustomerID    int64   `json:"customerId"`
	CustomerName  string  `json:"customerName,omitempty"`
	BikeID        int64   `json:"bikeId"`
	BikeType      string  `json:"bikeType"`
	BikeTypeLabel string  `json:"bikeTypeLabel"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Location      string  `json:"location"`
	LocationLabel string  `json:"locationLabel"`
	Address       string  `json:"address,omitempty"`
	Status        string  `json:"status"`
	StatusLabel   string  `json:"statusLabel"`
	TotalPrice    float64 `json:"totalPrice"`
}

func toReservationResponse(r reservation.Reservation, customerName string) reservationResponse {
	return reservationResponse{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		CustomerName:  customerName,
		BikeID:        r.BikeID,
		BikeType:      r.BikeType.String(),
		BikeTypeLabel: r.BikeType.Label(),
		Start:         r.Start.In(time.Local).Format(reservation.TimeLayout),
		End:           r.End.In(time.Local).Format(reservation.TimeLayout),
		Location:      r.Location.String(),
		LocationLabel: r.Location.Label(),
		Address:       r.Address,
		Status:        string(r.Status),
		StatusLabel:   r.Status.Label(),
		TotalPrice:    r.TotalPrice,
	}
}

type periodRequest struct {
	Start    string `json:"start" binding:"required"`
	End      string `json:"end" binding:"required"`
	Location string `json:"location" binding:"required"`
	Address  string `json:"address"`
}

type createReservationRequest struct {
	periodRequest
	BikeType string `json:"bikeType" binding:"required"`
	// CustomerID is only read on the admin route.
	CustomerID int64 `json:"customerId"`
}

func (a *API) myReservationsHandler(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	all := c.Query("all") == "true"

	a.mu.Lock()
	reservations := a.s.ReservationsForCustomer(customerID, !all)
	a.mu.Unlock()

	responses := make([]reservationResponse, 0, len(reservations))
	for _, r := range reservations {
		responses = append(responses, toReservationResponse(r, ""))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) createMyReservationHandler(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	a.createReservation(c, func(*createReservationRequest) int64 { return customerID })
}

func (a *API) createReservationHandler(c *gin.Context) {
	a.createReservation(c, func(req *createReservationRequest) int64 { return req.CustomerID })
}

func (a *API) createReservation(c *gin.Context, customerOf func(*createReservationRequest) int64) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	bt, err := bike.ParseType(req.BikeType)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	loc, err := reservation.ParseLocation(req.Location)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if loc == reservation.Delivery && req.Address == "" {
		badRequest(c, "address is required for delivery")
		return
	}
	start, end, ok := parsePeriod(c, req.Start, req.End)
	if !ok {
		return
	}

	a.mu.Lock()
	res, err := a.s.CreateReservation(customerOf(&req), bt, start, end, loc, req.Address)
	a.mu.Unlock()
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReservationResponse(res, ""))
}

func (a *API) reservationsHandler(c *gin.Context) {
	a.mu.Lock()
	reservations := a.s.AllReservations()
	names := make(map[int64]string)
	for _, cust := range a.s.Customers() {
		names[cust.ID] = cust.Name
	}
	a.mu.Unlock()

	responses := make([]reservationResponse, 0, len(reservations))
	for _, r := range reservations {
		responses = append(responses, toReservationResponse(r, names[r.CustomerID]))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) updateReservationHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	loc, err := reservation.ParseLocation(req.Location)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if loc == reservation.Delivery && req.Address == "" {
		badRequest(c, "address is required for delivery")
		return
	}
	start, end, ok := parsePeriod(c, req.Start, req.End)
	if !ok {
		return
	}

	a.mu.Lock()
	res, err := a.s.UpdateReservation(id, start, end, loc, req.Address)
	a.mu.Unlock()
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(res, ""))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (a *API) setReservationStatusHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	a.mu.Lock()
	err := a.s.SetReservationStatus(id, reservation.Status(req.Status))
	a.mu.Unlock()
	if err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) deleteReservationHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	a.mu.Lock()
	err := a.s.DeleteReservation(id)
	a.mu.Unlock()
	if err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type defectRequest struct {
	DefectType  string `json:"defectType" binding:"required"`
	Description string `json:"description"`
}

// reportDefectHandler is open to admins for any reservation and to renters
// for their own.
func (a *API) reportDefectHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req defectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	caller, _ := middleware.GetIdentity(c)

	a.mu.Lock()
	defer a.mu.Unlock()

	if caller.Role == account.Renter {
		res, found := a.s.Reservation(id)
		if found && (caller.CustomerID == nil || *caller.CustomerID != res.CustomerID) {
			forbidden(c, errNotOwner.Error())
			return
		}
	}

	rep, err := a.s.ReportDefect(id, req.DefectType, req.Description)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRepairResponse(rep))
}

type repairResponse struct {
	repair.Repair
	Reference string `json:"reference"`
}

func toRepairResponse(r repair.Repair) repairResponse {
	return repairResponse{Repair: r, Reference: r.Reference()}
}
