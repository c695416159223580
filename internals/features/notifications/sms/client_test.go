package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majibill_backend/internals/configs"
)

func newTestClient(url string) *Client {
	return NewClient(configs.SMSConfig{APIURL: url, APIKey: "k-123", SenderID: "MAJI", Timeout: 2 * time.Second})
}

func TestSendSuccess(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","message":"queued"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "+254712345678", "hello")
	require.NoError(t, err)

	assert.Equal(t, "Bearer k-123", auth)
	assert.Equal(t, "254712345678", got.Recipient)
	assert.Equal(t, "MAJI", got.SenderID)
	assert.Equal(t, "hello", got.Message)
}

func TestSendRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"error","message":"Invalid phone number"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "+254712345678", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Invalid phone number")
}

func TestSendHTTP200WithoutSuccessIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "+254712345678", "hello")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestSendNotConfigured(t *testing.T) {
	c := NewClient(configs.SMSConfig{APIURL: "http://localhost"})
	assert.ErrorIs(t, c.Send(context.Background(), "+254712345678", "x"), ErrNotConfigured)
}
