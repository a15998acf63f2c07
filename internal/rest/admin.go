package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"apeBeacon/business/admin"
	"apeBeacon/domain"
	"apeBeacon/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AdminService interface {
		Login(ctx context.Context, username, password string) (string, error)
		CreateCustomer(ctx context.Context, id, displayName string, sites []string) (domain.Customer, error)
		GetCustomer(ctx context.Context, id string) (domain.Customer, error)
		AddSite(ctx context.Context, customerID, site string) (domain.CustomerSite, error)
		AddContent(ctx context.Context, c domain.Content) (domain.Content, error)
	}

	AdminHandler struct {
		adminService AdminService
		validator    *validator.Validate
		timeout      time.Duration
	}

	AdminLoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	CustomerCreateRequest struct {
		ID          string   `json:"id" validate:"required,max=64"`
		DisplayName string   `json:"display_name" validate:"required"`
		Sites       []string `json:"sites" validate:"dive,required"`
	}

	SiteAddRequest struct {
		Domain string `json:"domain" validate:"required"`
	}

	ContentAddRequest struct {
		ID      string  `json:"id" validate:"omitempty,max=64"`
		Slot    string  `json:"slot"`
		Content string  `json:"content" validate:"required"`
		Styles  string  `json:"styles"`
		Score   float64 `json:"score" validate:"gte=0"`
	}
)

func NewAdminHandler(adminService AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		validator:    validator.New(),
		timeout:      10 * time.Second,
	}
}

// POST /api/v1/admin/login
func (h *AdminHandler) Login(c echo.Context) error {
	var req AdminLoginRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	token, err := h.adminService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return c.JSON(adminErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
	})
}

// POST /api/v1/admin/customers
func (h *AdminHandler) CreateCustomer(c echo.Context) error {
	var req CustomerCreateRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	customer, err := h.adminService.CreateCustomer(ctx, req.ID, req.DisplayName, req.Sites)
	if err != nil {
		logger.Error("Failed to create customer", "error", err)
		return c.JSON(adminErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(customer))
}

// GET /api/v1/admin/customers/:id
func (h *AdminHandler) GetCustomer(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	customer, err := h.adminService.GetCustomer(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(adminErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(customer))
}

// POST /api/v1/admin/customers/:id/sites
func (h *AdminHandler) AddSite(c echo.Context) error {
	var req SiteAddRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	site, err := h.adminService.AddSite(ctx, c.Param("id"), req.Domain)
	if err != nil {
		logger.Error("Failed to add site", "customer_id", c.Param("id"), "error", err)
		return c.JSON(adminErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(site))
}

// POST /api/v1/admin/customers/:id/content
func (h *AdminHandler) AddContent(c echo.Context) error {
	var req ContentAddRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	item, err := h.adminService.AddContent(ctx, domain.Content{
		ID:         req.ID,
		CustomerID: c.Param("id"),
		Slot:       req.Slot,
		Body:       req.Content,
		Styles:     req.Styles,
		Score:      req.Score,
	})
	if err != nil {
		logger.Error("Failed to add content", "customer_id", c.Param("id"), "error", err)
		return c.JSON(adminErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(item))
}

func adminErrorStatus(err error) int {
	switch {
	case errors.Is(err, admin.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, admin.ErrLoginDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, admin.ErrInvalidSite):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCustomerExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
