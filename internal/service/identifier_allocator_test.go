package service

import (
	"context"
	"sync"
	"testing"

	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/repository"
	"lunar-cancer-care/internal/testutil"
	"lunar-cancer-care/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatIdentifier(t *testing.T) {
	assert.Equal(t, "PAT0001", FormatIdentifier("PAT", 1))
	assert.Equal(t, "PAT0007", FormatIdentifier("PAT", 7))
	assert.Equal(t, "PAT9999", FormatIdentifier("PAT", 9999))
	assert.Equal(t, "PAT10000", FormatIdentifier("PAT", 10000))
}

func newRedisAllocatorForTest(t *testing.T, collector *metrics.Collector) (IdentifierAllocator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAllocator(client, testutil.NewTestLogger(), collector, entity.CounterPatientID, "PAT"), mr
}

func newCounterAllocatorForTest(t *testing.T, collector *metrics.Collector) IdentifierAllocator {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewCounterAllocator(db, testutil.NewTestLogger(), repository.NewCounterRepository(), collector, entity.CounterPatientID, "PAT")
}

func TestAllocators_SequentialStepOfOne(t *testing.T) {
	backends := map[string]func(t *testing.T) IdentifierAllocator{
		"counter table": func(t *testing.T) IdentifierAllocator { return newCounterAllocatorForTest(t, nil) },
		"redis": func(t *testing.T) IdentifierAllocator {
			a, _ := newRedisAllocatorForTest(t, nil)
			return a
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			allocator := build(t)
			ctx := context.Background()

			for _, want := range []string{"PAT0001", "PAT0002", "PAT0003"} {
				got, err := allocator.Allocate(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestAllocators_ConcurrentCallsNeverCollide(t *testing.T) {
	backends := map[string]func(t *testing.T) IdentifierAllocator{
		"counter table": func(t *testing.T) IdentifierAllocator { return newCounterAllocatorForTest(t, nil) },
		"redis": func(t *testing.T) IdentifierAllocator {
			a, _ := newRedisAllocatorForTest(t, nil)
			return a
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			allocator := build(t)

			const n = 50
			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				ids = make(map[string]bool)
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					id, err := allocator.Allocate(context.Background())
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					assert.False(t, ids[id], "duplicate identifier %s", id)
					ids[id] = true
				}()
			}
			wg.Wait()

			assert.Len(t, ids, n)
		})
	}
}

func TestRedisAllocator_UsesCounterKeyAndCountsAllocations(t *testing.T) {
	collector := metrics.NewCollector("test")
	allocator, mr := newRedisAllocatorForTest(t, collector)

	_, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	_, err = allocator.Allocate(context.Background())
	require.NoError(t, err)

	value, err := mr.Get(RedisCounterKeyPrefix + entity.CounterPatientID)
	require.NoError(t, err)
	assert.Equal(t, "2", value)
	assert.Equal(t, float64(2), promtest.ToFloat64(collector.IdentifiersAllocated.WithLabelValues(entity.CounterPatientID)))
}

func TestRedisAllocator_UnavailableStore(t *testing.T) {
	allocator, mr := newRedisAllocatorForTest(t, nil)
	mr.Close()

	id, err := allocator.Allocate(context.Background())
	assert.Error(t, err)
	assert.Empty(t, id)
}
