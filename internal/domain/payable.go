package domain

// Payable describes the payment context for a purchasable item: what the
// buyer owes, in which currency, and which billing account receives it.
type Payable struct {
	Component   string
	PaymentArea string
	ItemID      int
	Amount      float64
	Currency    string
	AccountID   string
	SuccessURL  string
}
