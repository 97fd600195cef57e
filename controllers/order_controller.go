package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/models"
	"github.com/wigworks/wig-atelier-api/services"
)

// OrderController exposes the order lifecycle over HTTP. All endpoints are
// artisan-authenticated; the heavy lifting lives in services.OrderService.
type OrderController struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderController creates an OrderController with its dependencies
func NewOrderController(db *gorm.DB, orders *services.OrderService) *OrderController {
	return &OrderController{db: db, orders: orders}
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	CustomerName      *string          `json:"customer_name"`
	CustomerContact   *string          `json:"customer_contact"`
	CharacterName     string           `json:"character_name" binding:"required"`
	SourceWork        *string          `json:"source_work"`
	ReferenceImages   []string         `json:"reference_images"`
	HeadCircumference *string          `json:"head_circumference"`
	HeadNotes         *string          `json:"head_notes"`
	Requirements      *string          `json:"requirements"`
	WigSource         string           `json:"wig_source" binding:"omitempty,oneof=client_sends stylist_buys"`
	Price             *decimal.Decimal `json:"price"`
	Deposit           *decimal.Decimal `json:"deposit"`
	Balance           *decimal.Decimal `json:"balance"`
	Deadline          *string          `json:"deadline"` // YYYY-MM-DD
}

// UpdateOrderRequest represents the request body for updating an order
type UpdateOrderRequest struct {
	CustomerName      *string          `json:"customer_name"`
	CustomerContact   *string          `json:"customer_contact"`
	CharacterName     *string          `json:"character_name"`
	SourceWork        *string          `json:"source_work"`
	ReferenceImages   []string         `json:"reference_images"`
	HeadCircumference *string          `json:"head_circumference"`
	HeadNotes         *string          `json:"head_notes"`
	Requirements      *string          `json:"requirements"`
	ProductionNotes   *string          `json:"production_notes"`
	Deadline          *string          `json:"deadline"` // YYYY-MM-DD
	Price             *decimal.Decimal `json:"price"`
	Deposit           *decimal.Decimal `json:"deposit"`
	Balance           *decimal.Decimal `json:"balance"`
}

// SetStatusRequest represents the request body for a direct status change
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PaymentProofRequest carries an optional payment screenshot S3 key
type PaymentProofRequest struct {
	Screenshot *string `json:"screenshot"`
}

// ConfirmWigReceivedRequest carries the inbound wig base tracking number
type ConfirmWigReceivedRequest struct {
	TrackingNo *string `json:"tracking_no"`
}

// ShipOrderRequest represents the request body for shipping an order
type ShipOrderRequest struct {
	ShippingCompany *string         `json:"shipping_company"`
	ShippingNo      *string         `json:"shipping_no"`
	Checklist       map[string]bool `json:"checklist"`
}

// AddNoteRequest represents the request body for adding an order note
type AddNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

// parseDeadline converts a YYYY-MM-DD string into a datatypes.Date
func parseDeadline(raw *string) (*datatypes.Date, bool) {
	if raw == nil {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, false
	}
	d := datatypes.Date(t)
	return &d, true
}

// CreateOrder handles POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	deadline, ok := parseDeadline(req.Deadline)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "deadline must be YYYY-MM-DD")
		return
	}

	order, err := ctrl.orders.CreateOrder(user.ID, services.CreateOrderInput{
		CustomerName:      req.CustomerName,
		CustomerContact:   req.CustomerContact,
		CharacterName:     req.CharacterName,
		SourceWork:        req.SourceWork,
		ReferenceImages:   req.ReferenceImages,
		HeadCircumference: req.HeadCircumference,
		HeadNotes:         req.HeadNotes,
		Requirements:      req.Requirements,
		WigSource:         req.WigSource,
		Price:             req.Price,
		Deposit:           req.Deposit,
		Balance:           req.Balance,
		Deadline:          deadline,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	status := c.Query("status")
	if status != "" && !models.IsOrderStatus(status) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := ctrl.orders.ListOrders(user.ID, services.ListOrdersInput{
		Status: status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	counts, err := ctrl.orders.CountByStatus(user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"list": orders,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
		"status_count": counts,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	order, err := ctrl.orders.GetOrder(user.ID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// UpdateOrder handles PUT /api/v1/orders/:id
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	deadline, valid := parseDeadline(req.Deadline)
	if !valid {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "deadline must be YYYY-MM-DD")
		return
	}

	order, err := ctrl.orders.UpdateOrder(user.ID, c.Param("id"), services.UpdateOrderInput{
		CustomerName:      req.CustomerName,
		CustomerContact:   req.CustomerContact,
		CharacterName:     req.CharacterName,
		SourceWork:        req.SourceWork,
		ReferenceImages:   req.ReferenceImages,
		HeadCircumference: req.HeadCircumference,
		HeadNotes:         req.HeadNotes,
		Requirements:      req.Requirements,
		ProductionNotes:   req.ProductionNotes,
		Deadline:          deadline,
		Price:             req.Price,
		Deposit:           req.Deposit,
		Balance:           req.Balance,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// SetStatus handles PUT /api/v1/orders/:id/status
func (ctrl *OrderController) SetStatus(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	if !models.IsOrderStatus(req.Status) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status")
		return
	}

	order, err := ctrl.orders.SetStatus(user.ID, c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// ConfirmDeposit handles POST /api/v1/orders/:id/confirm-deposit
func (ctrl *OrderController) ConfirmDeposit(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req PaymentProofRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, err := ctrl.orders.ConfirmDeposit(user.ID, c.Param("id"), req.Screenshot)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// ConfirmWigReceived handles POST /api/v1/orders/:id/confirm-wig-received
func (ctrl *OrderController) ConfirmWigReceived(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req ConfirmWigReceivedRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, err := ctrl.orders.ConfirmWigReceived(user.ID, c.Param("id"), req.TrackingNo)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// ConfirmBalance handles POST /api/v1/orders/:id/confirm-balance
func (ctrl *OrderController) ConfirmBalance(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req PaymentProofRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, err := ctrl.orders.ConfirmBalance(user.ID, c.Param("id"), req.Screenshot)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// Ship handles POST /api/v1/orders/:id/ship
func (ctrl *OrderController) Ship(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, err := ctrl.orders.Ship(user.ID, c.Param("id"), services.ShipOrderInput{
		ShippingCompany: req.ShippingCompany,
		ShippingNo:      req.ShippingNo,
		Checklist:       req.Checklist,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// Complete handles POST /api/v1/orders/:id/complete
func (ctrl *OrderController) Complete(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	order, err := ctrl.orders.Complete(user.ID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// AddNote handles POST /api/v1/orders/:id/notes
func (ctrl *OrderController) AddNote(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Note content is required")
		return
	}

	order, err := ctrl.orders.AddNote(user.ID, c.Param("id"), req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// DeadlineAlerts handles GET /api/v1/orders/deadline-alerts
func (ctrl *OrderController) DeadlineAlerts(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	alerts, err := ctrl.orders.DeadlineAlerts(user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, alerts)
}
