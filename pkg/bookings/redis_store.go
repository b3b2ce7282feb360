package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// RedisStore implements Store on a Redis hash per owner, for setups
// where bookings must survive the client host (e.g. a shared kiosk).
// Records are stored field-by-field under the canonical slot key, in
// the same YAML encoding the file store uses.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a booking store backed by an existing Redis client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, ErrInvalidConfig
	}
	return &RedisStore{
		client:    client,
		keyPrefix: "hallbook:bookings:",
	}, nil
}

// NewRedisStoreFromURL connects to Redis using a connection URL in the
// format "redis://:password@localhost:6379/0" and verifies the server
// is reachable before returning.
func NewRedisStoreFromURL(ctx context.Context, connectionURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(connectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return NewRedisStore(client)
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(owner string) string {
	return s.keyPrefix + owner
}

// Load reads the owner's hash. A missing key yields an empty map.
func (s *RedisStore) Load(ctx context.Context, owner string) (map[string]Booking, error) {
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	fields, err := s.client.HGetAll(ctx, s.key(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	records := make(map[string]Booking, len(fields))
	for slot, raw := range fields {
		var b Booking
		if err := yaml.Unmarshal([]byte(raw), &b); err != nil {
			return nil, errors.Join(ErrCorruptStore, err)
		}
		records[slot] = b
	}
	return records, nil
}

// Save replaces the owner's hash with the given mapping in one
// transaction so readers never observe a partial record.
func (s *RedisStore) Save(ctx context.Context, owner string, records map[string]Booking) error {
	if owner == "" {
		return ErrInvalidOwner
	}

	fields := make(map[string]string, len(records))
	for slot, b := range records {
		raw, err := yaml.Marshal(b)
		if err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
		fields[slot] = string(raw)
	}

	key := s.key(owner)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}
