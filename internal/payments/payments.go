// Package payments talks to the external payment provider and verifies
// its webhook callbacks. The provider is an opaque collaborator: it gets
// the checkout session metadata and later posts a signed event back.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const SignatureHeader = "X-Webhook-Signature"

const EventCheckoutCompleted = "checkout.session.completed"

type Event struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data SessionData `json:"data"`
}

// SessionData mirrors the checkout session metadata the provider
// carries verbatim and hands back in the completion event.
type SessionData struct {
	SessionID       string  `json:"sessionId"`
	CartID          uint    `json:"cartId"`
	CustomerEmail   string  `json:"customerEmail"`
	AmountTotal     float64 `json:"amountTotal"`
	ShippingDetails string  `json:"shippingDetails"`
	ShippingPhone   string  `json:"shippingPhone"`
	ShippingCity    string  `json:"shippingCity"`
	ShippingPostal  string  `json:"shippingPostal"`
}

// Sign computes the hex HMAC-SHA256 of a raw payload.
func Sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook body against its signature header
// value in constant time.
func VerifySignature(payload []byte, signature string, secret []byte) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// ParseEvent verifies and decodes a webhook payload.
func ParseEvent(payload []byte, signature string, secret []byte) (Event, error) {
	var ev Event
	if !VerifySignature(payload, signature, secret) {
		return ev, fmt.Errorf("webhook signature mismatch")
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("webhook payload: %w", err)
	}
	return ev, nil
}

// Client creates checkout sessions with the provider over HTTP.
type Client struct {
	URL    string
	Secret []byte
	HTTP   *http.Client
}

func NewClient(url string, secret []byte) *Client {
	return &Client{
		URL:    url,
		Secret: secret,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

type SessionResponse struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// CreateSession registers the session with the provider and returns
// the hosted checkout URL. A nil client means payments are disabled.
func (p *Client) CreateSession(ctx context.Context, data SessionData) (SessionResponse, error) {
	var out SessionResponse
	if p == nil {
		out.SessionID = data.SessionID
		return out, nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return out, fmt.Errorf("payments: marshal session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(body, p.Secret))

	res, err := p.HTTP.Do(req)
	if err != nil {
		return out, fmt.Errorf("payments: create session: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return out, fmt.Errorf("payments: create session: status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("payments: decode session: %w", err)
	}
	return out, nil
}
