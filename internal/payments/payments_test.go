package payments

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("whsec_test")
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	sig := Sign(payload, secret)
	require.True(t, VerifySignature(payload, sig, secret))
	require.False(t, VerifySignature(payload, sig, []byte("other")))
	require.False(t, VerifySignature([]byte("tampered"), sig, secret))
	require.False(t, VerifySignature(payload, "not-hex", secret))
}

func TestParseEvent(t *testing.T) {
	secret := []byte("whsec_test")
	ev := Event{
		ID:   "evt_1",
		Type: EventCheckoutCompleted,
		Data: SessionData{SessionID: "cs_1", CartID: 3, CustomerEmail: "a@b.c", AmountTotal: 99.5},
	}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := ParseEvent(payload, Sign(payload, secret), secret)
	require.NoError(t, err)
	require.Equal(t, ev, got)

	_, err = ParseEvent(payload, Sign(payload, []byte("other")), secret)
	require.ErrorContains(t, err, "signature mismatch")

	garbage := []byte("{")
	_, err = ParseEvent(garbage, Sign(garbage, secret), secret)
	require.ErrorContains(t, err, "payload")
}
