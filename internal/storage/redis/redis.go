package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "bookly:revoked:"

// RevocationRepo keeps revoked token ids as expiring redis keys.
type RevocationRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RevocationRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RevocationRepo{
		client: client,
	}, nil
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *redis.Client) *RevocationRepo {
	return &RevocationRepo{client: client}
}

// SetRevoked stores id with the given ttl. Setting an existing id only refreshes its ttl.
func (r *RevocationRepo) SetRevoked(ctx context.Context, id string, ttl time.Duration) error {
	const op = "storage.redis.SetRevoked"

	if err := r.client.Set(ctx, revokedPrefix+id, "", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RevocationRepo) IsRevoked(ctx context.Context, id string) (bool, error) {
	const op = "storage.redis.IsRevoked"

	n, err := r.client.Exists(ctx, revokedPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (r *RevocationRepo) Close() error {
	return r.client.Close()
}
