package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/bytedance/sonic"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"

	"majibill_backend/internals/configs"
)

const MidtransName = "midtrans"

// Midtrans uses Snap for the hosted payment page and the Core API for status checks.
type Midtrans struct {
	serverKey string
	snap      snap.Client
	core      coreapi.Client
}

func NewMidtrans(cfg configs.MidtransConfig) *Midtrans {
	env := midtrans.Sandbox
	if cfg.UseProd {
		env = midtrans.Production
	}
	m := &Midtrans{serverKey: cfg.ServerKey}
	m.snap.New(cfg.ServerKey, env)
	m.core.New(cfg.ServerKey, env)
	return m
}

func (m *Midtrans) Name() string { return MidtransName }

func (m *Midtrans) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrUnavailable.Wrap(err)
	}
	gross := req.Amount.Round(0).IntPart()
	name := req.Description
	if name == "" {
		name = "Subscription"
	}
	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: req.Email,
			Phone: req.Phone,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.Reference,
			Price: gross,
			Qty:   1,
			Name:  truncate(name, 50),
		}},
		CustomField1: truncate(req.Description, 40),
	}

	resp, merr := m.snap.CreateTransaction(sreq)
	if merr != nil {
		return nil, ErrUnavailable.Wrap(merr)
	}
	return &InitializeResult{
		AuthorizationURL: resp.RedirectURL,
		AccessCode:       resp.Token,
		Reference:        req.Reference,
	}, nil
}

func (m *Midtrans) Verify(ctx context.Context, reference string) (*Verification, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrUnavailable.Wrap(err)
	}
	resp, merr := m.core.CheckTransaction(reference)
	if merr != nil {
		return nil, ErrUnavailable.Wrap(merr)
	}
	amount, _ := decimal.NewFromString(resp.GrossAmount)
	return &Verification{
		Reference: resp.OrderID,
		Status:    MapMidtransStatus(resp.TransactionStatus, resp.FraudStatus),
		Amount:    amount,
		Channel:   resp.PaymentType,
		GatewayID: resp.TransactionID,
		Message:   resp.StatusMessage,
	}, nil
}

// MapMidtransStatus folds Midtrans transaction/fraud status into a charge status.
func MapMidtransStatus(transactionStatus, fraudStatus string) ChargeStatus {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "accept", "":
			return ChargeSuccess
		case "challenge":
			return ChargePending
		}
		return ChargeFailed
	case "settlement":
		return ChargeSuccess
	case "deny", "failure":
		return ChargeFailed
	case "cancel", "expire":
		return ChargeAbandoned
	}
	return ChargePending
}

type midtransNotif struct {
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// ParseWebhook verifies signature_key = SHA512(order_id + status_code + gross_amount + server key).
func (m *Midtrans) ParseWebhook(body []byte, _ func(string) string) (*Event, error) {
	var n midtransNotif
	if err := sonic.Unmarshal(body, &n); err != nil {
		return nil, ErrBadPayload.Wrap(err)
	}
	if n.SignatureKey == "" || m.serverKey == "" {
		return nil, ErrInvalidSignature
	}
	want := MidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, m.serverKey)
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(n.SignatureKey))) != 1 {
		return nil, ErrInvalidSignature
	}

	amount, _ := decimal.NewFromString(n.GrossAmount)
	ev := &Event{
		Reference: n.OrderID,
		Amount:    amount,
		Channel:   n.PaymentType,
		GatewayID: n.TransactionID,
		Signature: n.SignatureKey,
	}
	switch st := MapMidtransStatus(n.TransactionStatus, n.FraudStatus); {
	case st == ChargeSuccess:
		ev.Type = EventChargeSuccess
	case st.Failed():
		ev.Type = EventChargeFailed
	default:
		ev.Type = "midtrans." + strings.ToLower(n.TransactionStatus)
	}
	return ev, nil
}

func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
