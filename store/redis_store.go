package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/icecave/quarry/metrics"
	"github.com/icecave/quarry/query"
)

// RedisStore is a Store that appends JSON-encoded records to a Redis list.
type RedisStore struct {
	Client *redis.Client

	// Collection is the key of the list. If it is empty, DefaultCollection is
	// used.
	Collection string
}

// Insert appends a record for q to the collection.
func (s *RedisStore) Insert(ctx context.Context, q query.Query, when time.Time) error {
	doc, err := json.Marshal(NewRecord(q, when))
	if err != nil {
		return fmt.Errorf("unable to encode query record: %w", err)
	}

	if err := s.Client.RPush(ctx, s.collection(), doc).Err(); err != nil {
		return fmt.Errorf("unable to insert query record into %s: %w", s.collection(), err)
	}

	metrics.QueriesStored.Inc()

	return nil
}

// Records returns every record in the collection, oldest first.
func (s *RedisStore) Records(ctx context.Context) ([]Record, error) {
	docs, err := s.Client.LRange(ctx, s.collection(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("unable to read query records from %s: %w", s.collection(), err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		var r Record
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("unable to decode query record: %w", err)
		}
		records = append(records, r)
	}

	return records, nil
}

// Ping checks that the Redis server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.Client.Close()
}

func (s *RedisStore) collection() string {
	if s.Collection == "" {
		return DefaultCollection
	}

	return s.Collection
}
