// Package sessions parks pending card-checkout sessions in redis until
// the payment provider's webhook completes or the TTL expires.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("checkout session not found")

type CheckoutSession struct {
	ID              string  `json:"id"`
	CartID          uint    `json:"cartId"`
	CustomerEmail   string  `json:"customerEmail"`
	AmountTotal     float64 `json:"amountTotal"`
	ShippingDetails string  `json:"shippingDetails"`
	ShippingPhone   string  `json:"shippingPhone"`
	ShippingCity    string  `json:"shippingCity"`
	ShippingPostal  string  `json:"shippingPostal"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(addr string, ttl time.Duration) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func key(id string) string {
	return fmt.Sprintf("checkout:session:%s", id)
}

// Save parks a session. A nil store is a no-op so checkout works
// without redis in tests.
func (s *Store) Save(ctx context.Context, session CheckoutSession) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sessions: marshal: %w", err)
	}
	return s.client.Set(ctx, key(session.ID), data, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, id string) (CheckoutSession, error) {
	var session CheckoutSession
	if s == nil {
		return session, ErrNotFound
	}
	data, err := s.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return session, ErrNotFound
	}
	if err != nil {
		return session, err
	}
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return session, fmt.Errorf("sessions: unmarshal: %w", err)
	}
	return session, nil
}

// Consume removes a completed session so a replayed webhook cannot
// resolve it again.
func (s *Store) Consume(ctx context.Context, id string) error {
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, key(id)).Err()
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
