// Package repository provides the storage and transport adapters behind the
// domain interfaces: the Redis result store, the ClickHouse run archive and
// the Kafka decision publisher.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeScope/internal/domain/models"
	domrepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/cache"
)

const latestPointer = "latest"

// RedisResultStore persists completed run results keyed by (subject, date).
// A same-day rerun overwrites; the latest pointer always names the most
// recent dated entry.
type RedisResultStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewRedisResultStore(c cache.Service, ttl time.Duration) domrepo.ResultStore {
	return &RedisResultStore{cache: c, ttl: ttl}
}

func entryKey(subject, date string) string {
	return fmt.Sprintf("analysis:%s:%s", subject, date)
}

func (s *RedisResultStore) Put(ctx context.Context, entry *models.CacheEntry) error {
	if entry == nil || entry.Subject == "" || entry.Date == "" {
		return fmt.Errorf("result store: incomplete entry")
	}
	if err := s.cache.Set(ctx, entryKey(entry.Subject, entry.Date), entry, s.ttl); err != nil {
		return fmt.Errorf("result store: put entry: %w", err)
	}
	if err := s.cache.Set(ctx, entryKey(entry.Subject, latestPointer), entry.Date, s.ttl); err != nil {
		return fmt.Errorf("result store: put pointer: %w", err)
	}
	return nil
}

func (s *RedisResultStore) Get(ctx context.Context, subject string) (*models.CacheEntry, error) {
	var date string
	err := s.cache.Get(ctx, entryKey(subject, latestPointer), &date)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("result store: get pointer: %w", err)
	}

	var entry models.CacheEntry
	err = s.cache.Get(ctx, entryKey(subject, date), &entry)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("result store: get entry: %w", err)
	}
	return &entry, nil
}
