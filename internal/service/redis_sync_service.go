package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// raiseCounterScript sets KEYS[1] to ARGV[1] unless it already holds a larger
// value, and returns the resulting value. Concurrent INCRs are never lost.
var raiseCounterScript = redis.NewScript(`
	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	local floor = tonumber(ARGV[1])
	if floor > current then
		redis.call('SET', KEYS[1], floor)
		return floor
	end
	return current
`)

const (
	// Batch size for scanning stored identifiers
	syncBatchSize = 500

	redisSyncTimeout = 5 * time.Second
)

// SequenceSource names an identifier sequence and the table holding the
// identifiers it produced.
type SequenceSource struct {
	Sequence string
	Prefix   string
	Model    interface{}
}

// RedisSyncService keeps the Redis identifier counters ahead of everything
// already persisted in PostgreSQL.
type RedisSyncService struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewRedisSyncService(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *RedisSyncService {
	return &RedisSyncService{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

// SyncOnStartup raises every counter:<sequence> key to the highest value seen
// in the counters table or among stored identifiers. Call it before accepting
// traffic when identifiers are allocated from Redis.
func (s *RedisSyncService) SyncOnStartup(ctx context.Context, sources ...SequenceSource) error {
	s.log.Info("Starting Redis counter sync from database...")
	startTime := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, redisSyncTimeout)
	defer cancel()
	if err := s.redisClient.Ping(pingCtx).Err(); err != nil {
		s.log.Warnf("Redis is not available, skipping sync: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	for _, src := range sources {
		high, err := s.highWaterMark(ctx, src)
		if err != nil {
			return err
		}

		value, err := raiseCounterScript.Run(ctx, s.redisClient, []string{RedisCounterKeyPrefix + src.Sequence}, high).Int64()
		if err != nil {
			s.log.Errorf("Failed to raise Redis counter %s: %+v", src.Sequence, err)
			return fmt.Errorf("raise redis counter %s: %w", src.Sequence, err)
		}

		s.log.WithFields(logrus.Fields{
			"sequence": src.Sequence,
			"stored":   high,
			"counter":  value,
		}).Info("Redis counter synced")
	}

	s.log.Infof("Redis counter sync completed in %v", time.Since(startTime))
	return nil
}

// highWaterMark returns the largest sequence value the database knows about.
// Identifiers that do not parse as prefix + number are ignored.
func (s *RedisSyncService) highWaterMark(ctx context.Context, src SequenceSource) (int64, error) {
	var high int64

	var counter entity.Counter
	err := s.db.WithContext(ctx).Where("name = ?", src.Sequence).Limit(1).Find(&counter).Error
	if err != nil {
		s.log.Errorf("Failed to read counter %s: %+v", src.Sequence, err)
		return 0, fmt.Errorf("read counter %s: %w", src.Sequence, err)
	}
	high = counter.Seq

	offset := 0
	for {
		var ids []string
		err := s.db.WithContext(ctx).Model(src.Model).
			Where("id LIKE ? ESCAPE '\\'", repository.EscapeLike(src.Prefix)+"%").
			Order("id").
			Limit(syncBatchSize).
			Offset(offset).
			Pluck("id", &ids).Error
		if err != nil {
			s.log.Errorf("Failed to scan identifiers at offset %d: %+v", offset, err)
			return 0, fmt.Errorf("scan identifiers at offset %d: %w", offset, err)
		}

		for _, id := range ids {
			n, err := strconv.ParseInt(strings.TrimPrefix(id, src.Prefix), 10, 64)
			if err == nil && n > high {
				high = n
			}
		}

		if len(ids) < syncBatchSize {
			break
		}
		offset += syncBatchSize

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
	}

	return high, nil
}
