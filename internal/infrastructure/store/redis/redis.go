// Package redis implements the credential store on Redis, for deployments
// where the gateway runs on an ephemeral filesystem. The key layout mirrors
// the file backend: token, refresh_token, user, under a single prefix.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

const (
	defaultTimeout = 5 * time.Second

	keyPrefix       = "console:credential:"
	keyToken        = keyPrefix + "token"
	keyRefreshToken = keyPrefix + "refresh_token"
	keyUser         = keyPrefix + "user"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
// A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Store persists the credential across the three contract keys. Writes use a
// transactional pipeline so all keys change in one round trip.
type Store struct {
	client *redis.Client
}

// NewStore creates a Store wrapping the given Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Write persists all credential fields together.
func (s *Store) Write(ctx context.Context, cred domain.Credential) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyToken, cred.AccessToken, 0)
	pipe.Set(ctx, keyRefreshToken, cred.RefreshToken, 0)
	if cred.User != nil {
		raw, err := json.Marshal(cred.User)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		pipe.Set(ctx, keyUser, raw, 0)
	} else {
		pipe.Del(ctx, keyUser)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Read returns whatever subset of the credential is present. Missing keys
// are not errors; an undecodable profile surfaces as ErrMalformedCredential
// with the token fields intact.
func (s *Store) Read(ctx context.Context) (domain.Credential, error) {
	vals, err := s.client.MGet(ctx, keyToken, keyRefreshToken, keyUser).Result()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("read credential: %w", err)
	}

	var cred domain.Credential
	if tok, ok := vals[0].(string); ok {
		cred.AccessToken = tok
	}
	if ref, ok := vals[1].(string); ok {
		cred.RefreshToken = ref
	}
	if raw, ok := vals[2].(string); ok && raw != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return cred, fmt.Errorf("%w: %v", domain.ErrMalformedCredential, err)
		}
		cred.User = &user
	}
	return cred, nil
}

// Clear removes every credential key. Idempotent: deleting absent keys is a
// no-op in Redis.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, keyToken, keyRefreshToken, keyUser).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
