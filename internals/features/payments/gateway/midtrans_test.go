package gateway

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majibill_backend/internals/configs"
)

func midtransBody(orderID, status, fraud, gross, sig string) []byte {
	return []byte(fmt.Sprintf(`{"order_id":%q,"status_code":"200","gross_amount":%q,"transaction_status":%q,"fraud_status":%q,"signature_key":%q,"transaction_id":"tx-1","payment_type":"gopay"}`,
		orderID, gross, status, fraud, sig))
}

func TestMidtransWebhook(t *testing.T) {
	m := NewMidtrans(configs.MidtransConfig{ServerKey: "SB-key"})
	sig := MidtransSignature("SUB-PRO-1", "200", "1000.00", "SB-key")

	ev, err := m.ParseWebhook(midtransBody("SUB-PRO-1", "settlement", "", "1000.00", sig), nil)
	require.NoError(t, err)
	assert.Equal(t, EventChargeSuccess, ev.Type)
	assert.Equal(t, "SUB-PRO-1", ev.Reference)
	assert.Equal(t, "1000", ev.Amount.String())

	ev, err = m.ParseWebhook(midtransBody("SUB-PRO-1", "deny", "", "1000.00", sig), nil)
	require.NoError(t, err)
	assert.Equal(t, EventChargeFailed, ev.Type)

	ev, err = m.ParseWebhook(midtransBody("SUB-PRO-1", "pending", "", "1000.00", sig), nil)
	require.NoError(t, err)
	assert.Equal(t, "midtrans.pending", ev.Type)

	_, err = m.ParseWebhook(midtransBody("SUB-PRO-1", "settlement", "", "1.00", sig), nil)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMapMidtransStatus(t *testing.T) {
	assert.Equal(t, ChargeSuccess, MapMidtransStatus("capture", "accept"))
	assert.Equal(t, ChargePending, MapMidtransStatus("capture", "challenge"))
	assert.Equal(t, ChargeFailed, MapMidtransStatus("capture", "deny"))
	assert.Equal(t, ChargeAbandoned, MapMidtransStatus("expire", ""))
	assert.Equal(t, ChargePending, MapMidtransStatus("pending", ""))
}
