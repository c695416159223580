// Package gatewaytest provides an in-memory gateway.Provider for tests.
package gatewaytest

import (
	"context"
	"sync"

	"majibill_backend/internals/features/payments/gateway"
)

type Provider struct {
	mu sync.Mutex

	ProviderName  string
	InitErr       error
	Verifications map[string]*gateway.Verification
	VerifyErr     error
	Event         *gateway.Event
	WebhookErr    error

	Initialized []gateway.InitializeRequest
	Verified    []string
}

func New() *Provider {
	return &Provider{ProviderName: "fake", Verifications: map[string]*gateway.Verification{}}
}

func (p *Provider) Name() string { return p.ProviderName }

func (p *Provider) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Initialized = append(p.Initialized, req)
	if p.InitErr != nil {
		return nil, p.InitErr
	}
	return &gateway.InitializeResult{
		AuthorizationURL: "https://pay.test/" + req.Reference,
		AccessCode:       "code-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (p *Provider) Verify(_ context.Context, reference string) (*gateway.Verification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Verified = append(p.Verified, reference)
	if p.VerifyErr != nil {
		return nil, p.VerifyErr
	}
	if v, ok := p.Verifications[reference]; ok {
		return v, nil
	}
	return &gateway.Verification{Reference: reference, Status: gateway.ChargePending}, nil
}

func (p *Provider) ParseWebhook(_ []byte, _ func(string) string) (*gateway.Event, error) {
	if p.WebhookErr != nil {
		return nil, p.WebhookErr
	}
	if p.Event == nil {
		return nil, gateway.ErrBadPayload
	}
	return p.Event, nil
}

// SetVerification makes Verify return v for its reference.
func (p *Provider) SetVerification(v gateway.Verification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Verifications[v.Reference] = &v
}
