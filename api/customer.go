package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/bikerental/customer"
	"github.com/semanticallynull/bikerental/internal/middleware"
)

type createCustomerRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email"`
	IBAN            string `json:"iban"`
	DeliveryAddress string `json:"deliveryAddress"`
}

func (a *API) customersHandler(c *gin.Context) {
	a.mu.Lock()
	customers := a.s.Customers()
	a.mu.Unlock()

	c.JSON(http.StatusOK, customers)
}

func (a *API) createCustomerHandler(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	a.mu.Lock()
	cust := a.s.AddCustomer(req.Name,
		customer.WithEmail(req.Email),
		customer.WithIBAN(req.IBAN),
		customer.WithDeliveryAddress(req.DeliveryAddress),
	)
	a.mu.Unlock()

	c.JSON(http.StatusCreated, cust)
}

func (a *API) myProfileHandler(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	a.mu.Lock()
	cust, found := a.s.Customer(customerID)
	a.mu.Unlock()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "customer not found"})
		return
	}
	c.JSON(http.StatusOK, cust)
}

// updateMyProfileHandler edits the caller's customer record and saves the
// store straight away. A failed save is logged; the edit stays in memory and
// goes out with the next save.
func (a *API) updateMyProfileHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	var p customer.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	if p.Name != nil && *p.Name == "" {
		badRequest(c, "name cannot be empty")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cust, err := a.s.UpdateCustomerProfile(customerID, p)
	if err != nil {
		storeError(c, err)
		return
	}
	if a.backend != nil {
		if err := a.s.Save(c.Request.Context(), a.backend); err != nil {
			logger.ErrorContext(c, "failed to save after profile update", "customer_id", customerID, "error", err)
		}
	}

	c.JSON(http.StatusOK, cust)
}
