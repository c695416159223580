// Package sms talks to the bulk SMS provider.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"majibill_backend/internals/configs"
	"majibill_backend/internals/helpers/apperr"
)

var (
	ErrNotConfigured = apperr.Validation("SMS_NOT_CONFIGURED", "sms service not configured")
	ErrUnavailable   = apperr.Transient("SMS_UNAVAILABLE", "sms provider unavailable")
	ErrRejected      = apperr.Transient("SMS_REJECTED", "sms provider rejected the message")
)

// Sender delivers one message. Retries are the caller's concern.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

type Client struct {
	apiURL   string
	apiKey   string
	senderID string
	timeout  time.Duration
}

func NewClient(cfg configs.SMSConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:   cfg.APIURL,
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
		timeout:  timeout,
	}
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	SenderID  string `json:"sender_id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send posts the message. Only a response body with status "success" counts.
func (c *Client) Send(ctx context.Context, to, message string) error {
	if c.apiKey == "" || c.apiURL == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return ErrUnavailable.Wrap(err)
	}

	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(c.apiURL)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.JSONEncoder(sonic.Marshal)
	agent.JSON(sendRequest{
		Recipient: strings.TrimPrefix(to, "+"),
		SenderID:  c.senderID,
		Type:      "plain",
		Message:   message,
	})
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return ErrUnavailable.Wrap(errors.Join(errs...))
	}

	var resp sendResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return ErrRejected.Wrap(fmt.Errorf("http %d: undecodable body", code))
	}
	if resp.Status != "success" {
		reason := resp.Message
		if reason == "" {
			reason = fmt.Sprintf("http %d status %q", code, resp.Status)
		}
		return ErrRejected.Withf("sms provider rejected the message: %s", reason)
	}
	return nil
}
