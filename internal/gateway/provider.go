package gateway

import "context"

// ProviderResult is the outcome the provider reports for a payment
// submission or a status check. It is consumed immediately, never stored.
type ProviderResult struct {
	Status string
	Brand  string
	Params map[string]string
}

// Param returns a named parameter from the provider's raw parameter bag.
func (r *ProviderResult) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// Approved reports whether the provider status counts as a successful
// payment. The accepted set is the same in sandbox and live mode.
func Approved(status string) bool {
	return status == "OK" || status == "BILLED"
}

// PaymentRequest carries everything needed to submit a tokenized payment.
type PaymentRequest struct {
	Amount     float64
	Currency   string
	Token      string
	TID        string
	SuccessURL string
}

// Tokenizer holds the credit-card tokenizer handle the browser needs to
// collect card data.
type Tokenizer struct {
	Token    string
	Location string
}

// PaymentPageRequest describes the provider-hosted payment page to build.
// All three callback URLs point back to the local checkout landing.
type PaymentPageRequest struct {
	TID             string
	Price           float64
	SuccessURL      string
	ErrorURL        string
	ConfirmationURL string
}

// Provider abstracts the payment processor. A nil result with a nil error
// signals an unreachable or unparseable provider response; callers treat it
// as a declined-class outcome, not a crash.
type Provider interface {
	// SubmitTokenPayment submits a direct tokenized payment.
	SubmitTokenPayment(ctx context.Context, req PaymentRequest) (*ProviderResult, error)

	// CheckStatusByTID queries the current state of a transaction.
	CheckStatusByTID(ctx context.Context, tid string) (*ProviderResult, error)

	// CreateTokenizer requests a card tokenizer for a new checkout session.
	CreateTokenizer(ctx context.Context) (*Tokenizer, error)

	// PaymentPageURL builds the provider-hosted redirect payment page.
	PaymentPageURL(ctx context.Context, req PaymentPageRequest) (string, error)
}
