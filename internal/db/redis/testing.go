package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an existing client, for use with rueidis mocks.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}
