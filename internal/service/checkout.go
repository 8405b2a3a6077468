package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"paygw/internal/domain"
	"paygw/internal/gateway"
	"paygw/internal/redis"
)

// CheckoutSettings carries the deployment-level gateway settings the
// checkout flow hands to the browser and the provider.
type CheckoutSettings struct {
	ClientID     string
	BrandName    string
	Environment  string
	Language     string
	Surcharge    float64
	RecheckDelay time.Duration
	BaseURL      string
}

// CheckoutConfig is the config bag the browser-side checkout needs to
// tokenize a card and drive the payment.
type CheckoutConfig struct {
	ClientID          string
	BrandName         string
	Cost              float64
	Currency          string
	Environment       string
	Language          string
	Token             string
	TokenizerLocation string
	TID               string
}

// CheckoutService initiates checkout sessions and builds the
// provider-hosted redirect payment page.
type CheckoutService struct {
	ledger    OrderLedger
	payables  PayableSource
	provider  gateway.Provider
	events    EventSink
	scheduler ConfirmationScheduler
	settings  CheckoutSettings
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	ledger OrderLedger,
	payables PayableSource,
	provider gateway.Provider,
	events EventSink,
	scheduler ConfirmationScheduler,
	settings CheckoutSettings,
) *CheckoutService {
	return &CheckoutService{
		ledger:    ledger,
		payables:  payables,
		provider:  provider,
		events:    events,
		scheduler: scheduler,
		settings:  settings,
	}
}

// InitiateCheckout opens an order for the item, requests a card tokenizer
// from the provider, and schedules the status re-check safety net.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, component, paymentArea string, itemID, userID int) (*CheckoutConfig, error) {
	if component == "" {
		return nil, ErrInvalidComponent
	}
	if paymentArea == "" {
		return nil, ErrInvalidPaymentArea
	}
	if itemID <= 0 {
		return nil, ErrInvalidItemID
	}
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}

	payable, err := s.payables.Payable(ctx, component, paymentArea, itemID)
	if err != nil {
		return nil, err
	}

	cost := RoundedCost(payable.Amount, s.settings.Surcharge)

	tokenizer, err := s.provider.CreateTokenizer(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenizerUnavailable, err)
	}

	tid := NewTID()

	now := time.Now()
	if err := s.ledger.OpenOrder(ctx, &domain.OpenOrder{
		TID:          tid,
		Component:    component,
		PaymentArea:  paymentArea,
		ItemID:       itemID,
		UserID:       userID,
		Price:        cost,
		Status:       domain.OrderStatusPending,
		TimeCreated:  now,
		TimeModified: now,
	}); err != nil {
		return nil, err
	}

	_ = s.events.Publish(ctx, newEvent(EventPaymentAdded, userID, tid, "open order added", map[string]interface{}{
		"component": component,
		"itemid":    itemID,
	}))

	_ = s.scheduler.ScheduleStatusRecheck(ctx, redis.RecheckTask{
		TID:         tid,
		Component:   component,
		PaymentArea: paymentArea,
		ItemID:      itemID,
		UserID:      userID,
		Customer:    s.settings.ClientID,
	}, s.settings.RecheckDelay)

	return &CheckoutConfig{
		ClientID:          s.settings.ClientID,
		BrandName:         s.settings.BrandName,
		Cost:              cost,
		Currency:          payable.Currency,
		Environment:       s.settings.Environment,
		Language:          s.settings.Language,
		Token:             tokenizer.Token,
		TokenizerLocation: tokenizer.Location,
		TID:               tid,
	}, nil
}

// PaymentPageURL builds the provider-hosted payment page for a redirect
// payment. Success, error, and confirmation callbacks all point back to the
// local checkout landing with ischeckstatus set.
func (s *CheckoutService) PaymentPageURL(ctx context.Context, component, paymentArea string, itemID int, tid string) (string, error) {
	if tid == "" {
		return "", ErrInvalidTID
	}

	payable, err := s.payables.Payable(ctx, component, paymentArea, itemID)
	if err != nil {
		return "", err
	}

	landing := s.landingURL(component, paymentArea, itemID, tid)

	return s.provider.PaymentPageURL(ctx, gateway.PaymentPageRequest{
		TID:             tid,
		Price:           RoundedCost(payable.Amount, s.settings.Surcharge),
		SuccessURL:      landing,
		ErrorURL:        landing,
		ConfirmationURL: landing,
	})
}

// landingURL builds the local checkout landing URL for a transaction.
func (s *CheckoutService) landingURL(component, paymentArea string, itemID int, tid string) string {
	params := url.Values{}
	params.Set("token", "")
	params.Set("customer", s.settings.ClientID)
	params.Set("itemid", strconv.Itoa(itemID))
	params.Set("component", component)
	params.Set("paymentarea", paymentArea)
	params.Set("tid", tid)
	params.Set("ischeckstatus", "true")

	return s.settings.BaseURL + "/v1/checkout/landing?" + params.Encode()
}

// NewTID generates a transaction id: eight random bytes hex-encoded with
// the current unix timestamp appended. Unique per checkout attempt, never
// reused.
func NewTID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)

	return hex.EncodeToString(b) + strconv.FormatInt(time.Now().Unix(), 10)
}
