package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"majibill_backend/internals/configs"
)

const PaystackName = "paystack"

var hundred = decimal.NewFromInt(100)

type Paystack struct {
	secretKey string
	baseURL   string
	currency  string
	timeout   time.Duration
}

func NewPaystack(cfg configs.PaystackConfig) *Paystack {
	currency := cfg.Currency
	if currency == "" {
		currency = "KES"
	}
	return &Paystack{
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		currency:  currency,
		timeout:   30 * time.Second,
	}
}

func (p *Paystack) Name() string { return PaystackName }

type paystackEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type paystackInitResponse struct {
	paystackEnvelope
	Data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackTransaction struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Channel         string `json:"channel"`
	Fees            *int64 `json:"fees"`
	GatewayResponse string `json:"gateway_response"`
}

type paystackVerifyResponse struct {
	paystackEnvelope
	Data paystackTransaction `json:"data"`
}

type paystackWebhook struct {
	Event string              `json:"event"`
	Data  paystackTransaction `json:"data"`
}

func (p *Paystack) do(ctx context.Context, agent *fiber.Agent, out any) error {
	agent.Set(fiber.HeaderAuthorization, "Bearer "+p.secretKey)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(timeoutFor(ctx, p.timeout))

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return ErrUnavailable.Wrap(errors.Join(errs...))
	}
	if code >= 500 {
		return ErrUnavailable.Withf("payment gateway unavailable: http %d", code)
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return ErrBadPayload.Wrap(fmt.Errorf("http %d: %w", code, err))
	}
	return nil
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	channels := req.Channels
	if len(channels) == 0 {
		channels = []string{"mobile_money", "card"}
	}
	payload := fiber.Map{
		"email":        req.Email,
		"amount":       req.Amount.Mul(hundred).Round(0).IntPart(),
		"currency":     p.currency,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"metadata":     req.Metadata,
		"channels":     channels,
	}

	agent := fiber.Post(p.baseURL + "/transaction/initialize")
	agent.JSONEncoder(sonic.Marshal)
	agent.JSON(payload)

	var resp paystackInitResponse
	if err := p.do(ctx, agent, &resp); err != nil {
		return nil, err
	}
	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return nil, ErrRejected.Withf("payment gateway rejected the request: %s", resp.Message)
	}
	return &InitializeResult{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        resp.Data.Reference,
	}, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	agent := fiber.Get(p.baseURL + "/transaction/verify/" + url.PathEscape(reference))

	var resp paystackVerifyResponse
	if err := p.do(ctx, agent, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, ErrRejected.Withf("payment gateway rejected the request: %s", resp.Message)
	}
	return p.toVerification(resp.Data), nil
}

func (p *Paystack) toVerification(tx paystackTransaction) *Verification {
	v := &Verification{
		Reference: tx.Reference,
		Status:    mapPaystackStatus(tx.Status),
		Amount:    decimal.NewFromInt(tx.Amount).Div(hundred),
		Channel:   tx.Channel,
		Message:   tx.GatewayResponse,
	}
	if tx.ID != 0 {
		v.GatewayID = fmt.Sprintf("%d", tx.ID)
	}
	if tx.Fees != nil {
		f := decimal.NewFromInt(*tx.Fees).Div(hundred)
		v.Fees = &f
	}
	return v
}

func mapPaystackStatus(s string) ChargeStatus {
	switch strings.ToLower(s) {
	case "success":
		return ChargeSuccess
	case "failed", "reversed":
		return ChargeFailed
	case "abandoned":
		return ChargeAbandoned
	default: // ongoing, pending, processing, queued
		return ChargePending
	}
}

// ParseWebhook checks X-Paystack-Signature: hex HMAC-SHA512 of the raw body keyed by the secret.
func (p *Paystack) ParseWebhook(body []byte, header func(string) string) (*Event, error) {
	sig := strings.TrimSpace(header("X-Paystack-Signature"))
	if sig == "" || p.secretKey == "" {
		return nil, ErrInvalidSignature
	}
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(sig))) {
		return nil, ErrInvalidSignature
	}

	var wh paystackWebhook
	if err := sonic.Unmarshal(body, &wh); err != nil {
		return nil, ErrBadPayload.Wrap(err)
	}
	v := p.toVerification(wh.Data)
	return &Event{
		Type:      wh.Event,
		Reference: v.Reference,
		Amount:    v.Amount,
		Channel:   v.Channel,
		GatewayID: v.GatewayID,
		Signature: sig,
	}, nil
}
