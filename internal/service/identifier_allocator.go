package service

import (
	"context"
	"fmt"

	"lunar-cancer-care/internal/domain/repository"
	"lunar-cancer-care/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RedisCounterKeyPrefix prefixes the Redis keys backing identifier sequences.
const RedisCounterKeyPrefix = "counter:"

// IdentifierAllocator hands out display identifiers such as PAT0007 for one sequence.
// Every call consumes a value; values are never reused, so a failed insert leaves a gap.
type IdentifierAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

// FormatIdentifier renders seq zero-padded to four digits behind prefix.
// Sequences past 9999 simply grow wider.
func FormatIdentifier(prefix string, seq int64) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

type counterAllocator struct {
	db          *gorm.DB
	log         *logrus.Logger
	counterRepo repository.CounterRepository
	collector   *metrics.Collector
	sequence    string
	prefix      string
}

// NewCounterAllocator allocates from the counters table with an atomic upsert.
func NewCounterAllocator(
	db *gorm.DB,
	log *logrus.Logger,
	counterRepo repository.CounterRepository,
	collector *metrics.Collector,
	sequence, prefix string,
) IdentifierAllocator {
	return &counterAllocator{
		db:          db,
		log:         log,
		counterRepo: counterRepo,
		collector:   collector,
		sequence:    sequence,
		prefix:      prefix,
	}
}

func (a *counterAllocator) Allocate(ctx context.Context) (string, error) {
	seq, err := a.counterRepo.Increment(ctx, a.db, a.sequence)
	if err != nil {
		a.log.Errorf("Failed to increment counter %s: %+v", a.sequence, err)
		return "", fmt.Errorf("increment counter %s: %w", a.sequence, err)
	}

	observeAllocation(a.collector, a.sequence)
	return FormatIdentifier(a.prefix, seq), nil
}

type redisAllocator struct {
	redisClient *redis.Client
	log         *logrus.Logger
	collector   *metrics.Collector
	sequence    string
	prefix      string
}

// NewRedisAllocator allocates with INCR on counter:<sequence>. Redis must run
// with persistence enabled or sequences restart after a flush.
func NewRedisAllocator(
	redisClient *redis.Client,
	log *logrus.Logger,
	collector *metrics.Collector,
	sequence, prefix string,
) IdentifierAllocator {
	return &redisAllocator{
		redisClient: redisClient,
		log:         log,
		collector:   collector,
		sequence:    sequence,
		prefix:      prefix,
	}
}

func (a *redisAllocator) Allocate(ctx context.Context) (string, error) {
	seq, err := a.redisClient.Incr(ctx, RedisCounterKeyPrefix+a.sequence).Result()
	if err != nil {
		a.log.Errorf("Failed to INCR counter %s: %+v", a.sequence, err)
		return "", fmt.Errorf("redis incr counter %s: %w", a.sequence, err)
	}

	observeAllocation(a.collector, a.sequence)
	return FormatIdentifier(a.prefix, seq), nil
}

func observeAllocation(collector *metrics.Collector, sequence string) {
	if collector == nil {
		return
	}
	collector.IdentifiersAllocated.WithLabelValues(sequence).Inc()
}
