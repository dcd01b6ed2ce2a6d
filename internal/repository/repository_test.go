package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPatient(t *testing.T, db *gorm.DB, id, first, last, status string) {
	t.Helper()
	p := &entity.Patient{
		ID:            id,
		FirstName:     first,
		LastName:      last,
		DateOfBirth:   time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:        entity.GenderFemale,
		Phone:         "+254712345678",
		Diagnosis:     "Breast Cancer",
		DiagnosisDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Stage:         "2",
		TreatmentPlan: entity.TreatmentChemo,
		Status:        status,
	}
	require.NoError(t, NewPatientRepository().Create(context.Background(), db, p))
}

func TestCounterRepository_IncrementIsSequential(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCounterRepository()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Increment(ctx, db, entity.CounterPatientID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Independent sequences do not share values
	got, err := repo.Increment(ctx, db, entity.CounterStaffID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestCounterRepository_ConcurrentIncrementsAreDistinct(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCounterRepository()

	const n = 40
	var wg sync.WaitGroup
	results := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := repo.Increment(context.Background(), db, entity.CounterPatientID)
			assert.NoError(t, err)
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for seq := range results {
		assert.False(t, seen[seq], "duplicate value %d", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}

func TestPatientRepository_FindByIDMissingReturnsNil(t *testing.T) {
	db := testutil.NewTestDB(t)

	patient, err := NewPatientRepository().FindByID(context.Background(), db, "PAT9999")
	require.NoError(t, err)
	assert.Nil(t, patient)
}

func TestPatientRepository_SearchEscapesWildcards(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedPatient(t, db, "PAT0001", "Ann", "O_Neil", entity.PatientStatusActive)
	seedPatient(t, db, "PAT0002", "Ann", "Otieno", entity.PatientStatusActive)
	seedPatient(t, db, "PAT0003", "Ben", "100%Real", entity.PatientStatusActive)

	repo := NewPatientRepository()
	ctx := context.Background()

	patients, total, err := repo.Search(ctx, db, &entity.PatientFilter{Search: "o_", SortColumn: "id", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, patients, 1)
	assert.Equal(t, "PAT0001", patients[0].ID)

	_, total, err = repo.Search(ctx, db, &entity.PatientFilter{Search: "%", SortColumn: "id", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestPatientRepository_SearchFiltersAndPages(t *testing.T) {
	db := testutil.NewTestDB(t)
	for i := 1; i <= 7; i++ {
		status := entity.PatientStatusActive
		if i%2 == 0 {
			status = entity.PatientStatusInactive
		}
		seedPatient(t, db, fmt.Sprintf("PAT%04d", i), "Mary", fmt.Sprintf("Wanjiru%d", i), status)
	}

	repo := NewPatientRepository()
	ctx := context.Background()

	filter := &entity.PatientFilter{
		Search:     "MARY",
		Status:     entity.PatientStatusActive,
		SortColumn: "id",
		Limit:      3,
		Offset:     3,
	}
	patients, total, err := repo.Search(ctx, db, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, patients, 1)
	assert.Equal(t, "PAT0007", patients[0].ID)

	filter.Offset = 30
	patients, total, err = repo.Search(ctx, db, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Empty(t, patients)
}

func TestPatientRepository_DeleteReportsAffectedRows(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedPatient(t, db, "PAT0001", "John", "Doe", entity.PatientStatusActive)

	repo := NewPatientRepository()
	ctx := context.Background()

	affected, err := repo.Delete(ctx, db, "PAT0001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.Delete(ctx, db, "PAT0001")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestStaffRepository_FindAllFiltersByRole(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewStaffRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, &entity.Staff{ID: "STF0001", FirstName: "Amina", LastName: "Otieno", Role: entity.RoleDoctor, Status: entity.StaffStatusActive}))
	require.NoError(t, repo.Create(ctx, db, &entity.Staff{ID: "STF0002", FirstName: "Brian", LastName: "Kamau", Role: entity.RoleNurse, Status: entity.StaffStatusActive}))
	require.NoError(t, repo.Create(ctx, db, &entity.Staff{ID: "STF0003", FirstName: "Cate", LastName: "Achieng", Role: entity.RoleDoctor, Status: entity.StaffStatusActive}))

	doctors, total, err := repo.FindAll(ctx, db, entity.RoleDoctor, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, doctors, 2)
	assert.Equal(t, "Achieng", doctors[0].LastName)

	byIDs, err := repo.FindByIDs(ctx, db, []string{"STF0001", "STF0002", "STF0404"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestAuditLogRepository_NewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAuditLogRepository()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, action := range []string{entity.AuditActionPatientCreate, entity.AuditActionPatientUpdate} {
		require.NoError(t, repo.Create(db, &entity.AuditLog{
			Action:    action,
			Metadata:  entity.JSON{"entity_id": "PAT0001"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, total, err := repo.FindAll(db, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, entity.AuditActionPatientUpdate, logs[0].Action)
	assert.Equal(t, "PAT0001", logs[0].Metadata["entity_id"])

	missing, err := repo.FindByID(db, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
