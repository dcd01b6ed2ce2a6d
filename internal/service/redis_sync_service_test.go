package service

import (
	"context"
	"testing"

	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSyncService_RaisesCountersToStoredHighWater(t *testing.T) {
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	// Staff imported with explicit ids, one of them not in STF<n> form
	for _, id := range []string{"STF0003", "STF0041", "STFLEGACY"} {
		require.NoError(t, db.Create(&entity.Staff{ID: id, FirstName: "x", LastName: "y", Role: entity.RoleNurse, Status: entity.StaffStatusActive}).Error)
	}
	require.NoError(t, db.Create(&entity.Counter{Name: entity.CounterStaffID, Seq: 12}).Error)
	require.NoError(t, mr.Set(RedisCounterKeyPrefix+entity.CounterPatientID, "99"))

	svc := NewRedisSyncService(db, client, testutil.NewTestLogger())
	err := svc.SyncOnStartup(context.Background(),
		SequenceSource{Sequence: entity.CounterStaffID, Prefix: "STF", Model: &entity.Staff{}},
		SequenceSource{Sequence: entity.CounterPatientID, Prefix: "PAT", Model: &entity.Patient{}},
	)
	require.NoError(t, err)

	staff, err := mr.Get(RedisCounterKeyPrefix + entity.CounterStaffID)
	require.NoError(t, err)
	assert.Equal(t, "41", staff)

	// A counter already ahead of the database is left alone
	patients, err := mr.Get(RedisCounterKeyPrefix + entity.CounterPatientID)
	require.NoError(t, err)
	assert.Equal(t, "99", patients)

	allocator := NewRedisAllocator(client, testutil.NewTestLogger(), nil, entity.CounterStaffID, "STF")
	id, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "STF0042", id)
}

func TestRedisSyncService_PrefixWildcardsAreLiteral(t *testing.T) {
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	// "7100000" would match an unescaped "7_%" pattern and parse as a number
	for _, id := range []string{"7_0005", "7100000"} {
		require.NoError(t, db.Create(&entity.Staff{ID: id, FirstName: "x", LastName: "y", Role: entity.RoleNurse, Status: entity.StaffStatusActive}).Error)
	}

	svc := NewRedisSyncService(db, client, testutil.NewTestLogger())
	require.NoError(t, svc.SyncOnStartup(context.Background(),
		SequenceSource{Sequence: "ward_code", Prefix: "7_", Model: &entity.Staff{}},
	))

	value, err := mr.Get(RedisCounterKeyPrefix + "ward_code")
	require.NoError(t, err)
	assert.Equal(t, "5", value)
}

func TestRedisSyncService_RedisDown(t *testing.T) {
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	err := NewRedisSyncService(db, client, testutil.NewTestLogger()).SyncOnStartup(context.Background())
	assert.Error(t, err)
}
