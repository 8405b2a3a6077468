package service

import (
	"context"
	"log"
	"strings"

	"paygw/internal/gateway"
)

// ReconcileRequest is a payment confirmation to reconcile: either the
// browser redirect coming back from the provider or a scheduled status
// re-check. Both paths carry the same transaction id.
type ReconcileRequest struct {
	Component     string
	PaymentArea   string
	ItemID        int
	TID           string
	Token         string
	Customer      string
	IsCheckStatus bool
	UserID        int
}

// ReconcileResult is the structured outcome of a reconciliation. The engine
// always returns one; no error crosses this boundary.
type ReconcileResult struct {
	URL     string
	Success bool
	Message string
}

// ReconciliationEngine decides the outcome of a payment confirmation and
// updates the ledger at most once per transaction id.
type ReconciliationEngine struct {
	ledger      OrderLedger
	payables    PayableSource
	provider    gateway.Provider
	delivery    DeliveryService
	events      EventSink
	gatewayName string
	surcharge   float64
}

// NewReconciliationEngine creates a new ReconciliationEngine.
func NewReconciliationEngine(
	ledger OrderLedger,
	payables PayableSource,
	provider gateway.Provider,
	delivery DeliveryService,
	events EventSink,
	gatewayName string,
	surcharge float64,
) *ReconciliationEngine {
	return &ReconciliationEngine{
		ledger:      ledger,
		payables:    payables,
		provider:    provider,
		delivery:    delivery,
		events:      events,
		gatewayName: gatewayName,
		surcharge:   surcharge,
	}
}

// Reconcile processes a payment confirmation. Side effects (billing row,
// payment record, order transition, delivery) happen only on the
// approved-and-not-duplicate path, and at most once per tid.
func (e *ReconciliationEngine) Reconcile(ctx context.Context, req ReconcileRequest) (result ReconcileResult) {
	// The caller always gets a structured result, even if a collaborator
	// panics mid-flight.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("recovered panic during reconciliation of %s: %v", req.TID, r)
			result = e.fail(ctx, req, "", MsgInternalError)
		}
	}()

	payable, err := e.payables.Payable(ctx, req.Component, req.PaymentArea, req.ItemID)
	if err != nil {
		return e.fail(ctx, req, "", MsgInternalError)
	}
	successURL := payable.SuccessURL

	// Duplicate short-circuit: a completed billing payment for this
	// combination means a retry or a race we already won. Answer success
	// without touching the provider or the ledger again.
	existing, err := e.ledger.FindBillingPayment(ctx, req.Component, req.ItemID, req.UserID)
	if err != nil {
		return e.fail(ctx, req, successURL, MsgInternalError)
	}
	if existing != nil {
		return ReconcileResult{URL: successURL, Success: true, Message: MsgPaymentAlreadyExists}
	}

	amount := RoundedCost(payable.Amount, e.surcharge)

	orderDetails, err := e.queryProvider(ctx, req, payable.Currency, amount, successURL)
	if err != nil || orderDetails == nil {
		// Unreachable and unparseable look the same from here.
		return e.fail(ctx, req, successURL, MsgCannotFetchOrderDetails)
	}

	// The status field arrives in a different slot per path, but the
	// accepted set is one rule, identical in sandbox and live mode.
	status := orderDetails.Status
	if req.IsCheckStatus {
		status = orderDetails.Param("STATUS")
	}
	if !gateway.Approved(status) {
		return e.fail(ctx, req, successURL, MsgPaymentError)
	}

	return e.completePayment(ctx, req, payable.AccountID, payable.Currency, amount, orderDetails, successURL)
}

// queryProvider performs the single branch point between the direct-payment
// and status-check flows.
func (e *ReconciliationEngine) queryProvider(ctx context.Context, req ReconcileRequest, currency string, amount float64, successURL string) (*gateway.ProviderResult, error) {
	if req.IsCheckStatus {
		return e.provider.CheckStatusByTID(ctx, req.TID)
	}

	return e.provider.SubmitTokenPayment(ctx, gateway.PaymentRequest{
		Amount:     amount,
		Currency:   currency,
		Token:      req.Token,
		TID:        req.TID,
		SuccessURL: successURL,
	})
}

// completePayment runs the approved path: guard re-checks, the atomic
// ledger write, events, and delivery.
func (e *ReconciliationEngine) completePayment(ctx context.Context, req ReconcileRequest, accountID, currency string, amount float64, orderDetails *gateway.ProviderResult, successURL string) ReconcileResult {
	// Guard the race between two concurrent reconciliations: the order
	// must still be open and no payment record may exist for this tid.
	order, err := e.ledger.FindOrder(ctx, req.TID)
	if err != nil || order == nil {
		return e.fail(ctx, req, successURL, MsgInternalError)
	}

	record, err := e.ledger.FindPaymentByProviderOrderID(ctx, req.TID)
	if err != nil || record != nil {
		return e.fail(ctx, req, successURL, MsgInternalError)
	}

	brandRaw := orderDetails.Param("BRAND")
	if brandRaw == "" {
		brandRaw = orderDetails.Brand
	}

	// The losing side of a race fails here on the provider_order_id
	// uniqueness and falls through to the internal-error outcome. The
	// winner's record survives untouched.
	paymentID, err := e.ledger.CompletePayment(ctx, CompletePaymentParams{
		TID:         req.TID,
		Component:   req.Component,
		PaymentArea: req.PaymentArea,
		ItemID:      req.ItemID,
		UserID:      req.UserID,
		Amount:      amount,
		Currency:    currency,
		AccountID:   accountID,
		Gateway:     e.gatewayName,
		BrandRaw:    brandRaw,
	})
	if err != nil {
		return e.fail(ctx, req, successURL, MsgInternalError)
	}

	_ = e.events.Publish(ctx, newEvent(EventPaymentCompleted, req.UserID, req.TID, "", map[string]interface{}{
		"orderid": req.TID,
	}))
	_ = e.events.Publish(ctx, newEvent(EventPaymentSuccessful, req.UserID, req.TID, MsgPaymentSuccessful, map[string]interface{}{
		"orderid": req.TID,
	}))

	// Delivery failure does not roll back the payment: the charge already
	// succeeded. Operators act on the delivery_error event.
	delivered, err := e.delivery.Deliver(ctx, req.Component, req.PaymentArea, req.ItemID, paymentID, req.UserID)
	if err != nil || !delivered {
		_ = e.events.Publish(ctx, newEvent(EventDeliveryError, req.UserID, req.TID, MsgPaymentSuccessful, map[string]interface{}{
			"orderid":   req.TID,
			"paymentid": paymentID,
		}))
	}

	return ReconcileResult{URL: successURL, Success: true, Message: MsgPaymentSuccessful}
}

// fail emits the payment_error event and derives the failure redirect by
// marking the success URL as failed.
func (e *ReconciliationEngine) fail(ctx context.Context, req ReconcileRequest, successURL, message string) ReconcileResult {
	_ = e.events.Publish(ctx, newEvent(EventPaymentError, req.UserID, req.TID, message, map[string]interface{}{
		"orderid":     req.TID,
		"itemid":      req.ItemID,
		"component":   req.Component,
		"paymentarea": req.PaymentArea,
	}))

	return ReconcileResult{
		URL:     FailureURL(successURL),
		Success: false,
		Message: message,
	}
}

// FailureURL turns a success redirect into its "payment not successful"
// variant.
func FailureURL(successURL string) string {
	return strings.Replace(successURL, "success=1", "success=0", 1)
}
