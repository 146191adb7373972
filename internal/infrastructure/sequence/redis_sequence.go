package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-core/internal/domain/repository"
)

var _ repository.SequenceRepository = (*RedisSequence)(nil)

// KeyPrefix prefijo de las claves de contador en Redis.
const KeyPrefix = "seq:"

// RedisSequence numeración de documentos con INCR atómico; compartida entre réplicas del servicio.
type RedisSequence struct {
	client *redis.Client
}

// NewRedisSequence crea el cliente contra addr.
func NewRedisSequence(addr, password string, db int) *RedisSequence {
	return &RedisSequence{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *RedisSequence) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSequence) Close() error {
	return s.client.Close()
}

// Next incrementa y devuelve el contador del ámbito (1 en el primer uso).
func (s *RedisSequence) Next(ctx context.Context, scope string) (int64, error) {
	n, err := s.client.Incr(ctx, KeyPrefix+scope).Result()
	if err != nil {
		return 0, fmt.Errorf("secuencia %s: %w", scope, err)
	}
	return n, nil
}
