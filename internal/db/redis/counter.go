package redis

import (
	"context"

	"github.com/kbindex/kbindex/internal/db"
)

// IncrBy atomically increments a counter and returns the new value.
func (s *Store) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	cmd := s.b().Incrby().Key(key).Increment(n).Build()
	v, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return v, nil
}
