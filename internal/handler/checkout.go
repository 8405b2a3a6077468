package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paygw/internal/service"
)

// CheckoutHandler handles HTTP requests for the checkout flow.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
	engine          service.Reconciler
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *service.CheckoutService, engine service.Reconciler) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		engine:          engine,
	}
}

// InitiateCheckoutRequest is the HTTP request body for initiating a checkout.
type InitiateCheckoutRequest struct {
	Component   string `json:"component"`
	PaymentArea string `json:"paymentarea"`
	ItemID      int    `json:"itemid"`
	UserID      int    `json:"userid"`
}

// CheckoutConfigResponse is the config bag handed to the browser checkout.
type CheckoutConfigResponse struct {
	ClientID          string  `json:"clientid"`
	BrandName         string  `json:"brandname"`
	Cost              float64 `json:"cost"`
	Currency          string  `json:"currency"`
	Environment       string  `json:"environment"`
	Language          string  `json:"language"`
	Token             string  `json:"token"`
	TokenizerLocation string  `json:"tokenizerlocation"`
	TID               string  `json:"tid"`
}

// InitiateCheckout handles POST /v1/checkout
func (h *CheckoutHandler) InitiateCheckout(c *gin.Context) {
	var req InitiateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cfg, err := h.checkoutService.InitiateCheckout(c.Request.Context(), req.Component, req.PaymentArea, req.ItemID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CheckoutConfigResponse{
		ClientID:          cfg.ClientID,
		BrandName:         cfg.BrandName,
		Cost:              cfg.Cost,
		Currency:          cfg.Currency,
		Environment:       cfg.Environment,
		Language:          cfg.Language,
		Token:             cfg.Token,
		TokenizerLocation: cfg.TokenizerLocation,
		TID:               cfg.TID,
	})
}

// CompleteTransactionRequest is the HTTP request body for reconciling a
// transaction after the provider reported back.
type CompleteTransactionRequest struct {
	Component     string `json:"component"`
	PaymentArea   string `json:"paymentarea"`
	ItemID        int    `json:"itemid"`
	TID           string `json:"tid"`
	Token         string `json:"token"`
	Customer      string `json:"customer"`
	IsCheckStatus bool   `json:"ischeckstatus"`
	UserID        int    `json:"userid"`
}

// CompleteTransactionResponse is the structured reconciliation outcome.
type CompleteTransactionResponse struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CompleteTransaction handles POST /v1/checkout/complete
func (h *CheckoutHandler) CompleteTransaction(c *gin.Context) {
	var req CompleteTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.TID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "tid is required"})
		return
	}

	result := h.engine.Reconcile(c.Request.Context(), service.ReconcileRequest{
		Component:     req.Component,
		PaymentArea:   req.PaymentArea,
		ItemID:        req.ItemID,
		TID:           req.TID,
		Token:         req.Token,
		Customer:      req.Customer,
		IsCheckStatus: req.IsCheckStatus,
		UserID:        req.UserID,
	})

	respondJSON(c, http.StatusOK, CompleteTransactionResponse{
		URL:     result.URL,
		Success: result.Success,
		Message: result.Message,
	})
}

// RedirectURLResponse carries the provider-hosted payment page location.
type RedirectURLResponse struct {
	URL string `json:"url"`
}

// GetRedirectURL handles GET /v1/checkout/redirect
func (h *CheckoutHandler) GetRedirectURL(c *gin.Context) {
	component := c.Query("component")
	paymentArea := c.Query("paymentarea")
	tid := c.Query("tid")

	itemID, err := strconv.Atoi(c.Query("itemid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "itemid must be an integer"})
		return
	}

	url, err := h.checkoutService.PaymentPageURL(c.Request.Context(), component, paymentArea, itemID, tid)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RedirectURLResponse{URL: url})
}

// LandingResponse echoes the reconciliation context back to the browser,
// which invokes the complete endpoint client-side.
type LandingResponse struct {
	Component     string `json:"component"`
	PaymentArea   string `json:"paymentarea"`
	ItemID        int    `json:"itemid"`
	TID           string `json:"tid"`
	Token         string `json:"token"`
	Customer      string `json:"customer"`
	IsCheckStatus bool   `json:"ischeckstatus"`
}

// Landing handles GET /v1/checkout/landing
func (h *CheckoutHandler) Landing(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Query("itemid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "itemid must be an integer"})
		return
	}

	isCheckStatus, _ := strconv.ParseBool(c.DefaultQuery("ischeckstatus", "false"))

	respondJSON(c, http.StatusOK, LandingResponse{
		Component:     c.Query("component"),
		PaymentArea:   c.Query("paymentarea"),
		ItemID:        itemID,
		TID:           c.Query("tid"),
		Token:         c.Query("token"),
		Customer:      c.Query("customer"),
		IsCheckStatus: isCheckStatus,
	})
}
