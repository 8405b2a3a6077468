package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SandboxProvider is an in-process provider used in sandbox deployments and
// tests. Every submission is approved with a VISA brand.
type SandboxProvider struct {
	BaseURL string
}

// NewSandboxProvider creates a sandbox provider.
func NewSandboxProvider(baseURL string) *SandboxProvider {
	return &SandboxProvider{BaseURL: baseURL}
}

// SubmitTokenPayment approves the payment.
func (p *SandboxProvider) SubmitTokenPayment(ctx context.Context, req PaymentRequest) (*ProviderResult, error) {
	return &ProviderResult{
		Status: "OK",
		Brand:  "VISA",
		Params: map[string]string{
			"STATUS": "OK",
			"BRAND":  "VISA",
			"TID":    req.TID,
		},
	}, nil
}

// CheckStatusByTID reports the transaction as billed.
func (p *SandboxProvider) CheckStatusByTID(ctx context.Context, tid string) (*ProviderResult, error) {
	return &ProviderResult{
		Status: "BILLED",
		Brand:  "VISA",
		Params: map[string]string{
			"STATUS": "BILLED",
			"BRAND":  "VISA",
			"TID":    tid,
		},
	}, nil
}

// CreateTokenizer hands out a fake tokenizer handle.
func (p *SandboxProvider) CreateTokenizer(ctx context.Context) (*Tokenizer, error) {
	token := uuid.New().String()
	return &Tokenizer{
		Token:    token,
		Location: fmt.Sprintf("%s/sandbox/tokenizer/%s", p.BaseURL, token),
	}, nil
}

// PaymentPageURL returns a fake hosted payment page location.
func (p *SandboxProvider) PaymentPageURL(ctx context.Context, req PaymentPageRequest) (string, error) {
	return fmt.Sprintf("%s/sandbox/pay/%s", p.BaseURL, req.TID), nil
}

var _ Provider = (*SandboxProvider)(nil)
