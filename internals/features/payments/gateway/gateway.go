// Package gateway wraps the mobile-money providers behind one interface:
// initialize a charge, verify it, and authenticate inbound webhooks.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"majibill_backend/internals/helpers/apperr"
)

type ChargeStatus string

const (
	ChargeSuccess   ChargeStatus = "success"
	ChargeFailed    ChargeStatus = "failed"
	ChargeAbandoned ChargeStatus = "abandoned"
	ChargePending   ChargeStatus = "pending"
)

// Terminal failure as opposed to a charge still in flight.
func (s ChargeStatus) Failed() bool { return s == ChargeFailed || s == ChargeAbandoned }

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

var (
	ErrInvalidSignature = apperr.Validation("GATEWAY_BAD_SIGNATURE", "invalid webhook signature")
	ErrBadPayload       = apperr.Validation("GATEWAY_BAD_PAYLOAD", "unreadable gateway payload")
	ErrUnavailable      = apperr.Transient("GATEWAY_UNAVAILABLE", "payment gateway unavailable")
	ErrRejected         = apperr.Transient("GATEWAY_REJECTED", "payment gateway rejected the request")
	ErrUnknownProvider  = apperr.NotFound("GATEWAY_UNKNOWN", "unknown payment provider")
)

type InitializeRequest struct {
	Email       string
	Phone       string
	Amount      decimal.Decimal // major units; providers convert
	Reference   string
	CallbackURL string
	Description string
	Metadata    map[string]any
	Channels    []string
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type Verification struct {
	Reference string
	Status    ChargeStatus
	Amount    decimal.Decimal
	Channel   string
	Fees      *decimal.Decimal
	GatewayID string
	Message   string
}

// Event is an authenticated webhook. Type is normalised to the charge.* names.
type Event struct {
	Type      string
	Reference string
	Amount    decimal.Decimal
	Channel   string
	GatewayID string
	Signature string
}

type Provider interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
	// ParseWebhook authenticates the raw body and decodes it.
	ParseWebhook(body []byte, header func(string) string) (*Event, error)
}

// GenReference builds SUB-<TIER>-yyyymmdd-hhmmss-XXXXXXXX.
func GenReference(prefix, tier string, now time.Time) string {
	u := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return strings.ToUpper(prefix) + "-" + strings.ToUpper(tier) + "-" + now.UTC().Format("20060102-150405") + "-" + u
}

// Registry resolves providers by name for the public callback routes.
type Registry map[string]Provider

func NewRegistry(providers ...Provider) Registry {
	r := Registry{}
	for _, p := range providers {
		if p != nil {
			r[p.Name()] = p
		}
	}
	return r
}

func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownProvider.Withf("unknown payment provider %q", name)
	}
	return p, nil
}

func timeoutFor(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < def {
			return left
		}
	}
	return def
}
