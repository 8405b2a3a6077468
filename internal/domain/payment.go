package domain

import "time"

// PaymentRecord is the gateway-specific record of a completed payment.
// ProviderOrderID is the transaction id as reported back by the provider
// and is unique: it is the duplicate-processing guard.
type PaymentRecord struct {
	ID              string
	PaymentID       string
	ProviderOrderID string
	Brand           string
	BrandRaw        string
}

// BillingPayment is a row in the generic billing ledger. The gateway
// references it through PaymentRecord.PaymentID but does not own it.
type BillingPayment struct {
	ID          string
	AccountID   string
	Component   string
	PaymentArea string
	ItemID      int
	UserID      int
	Amount      float64
	Currency    string
	Gateway     string
	TimeCreated time.Time
}
