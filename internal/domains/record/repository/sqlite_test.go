package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observatory-backend/internal/domains/record/model"
	"observatory-backend/internal/infrastructure/database"
)

// fixedClock trả t0, t0+1s, t0+2s, ...
func fixedClock(t0 time.Time) Clock {
	n := 0
	return func() time.Time {
		t := t0.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 123_456_789, time.UTC)

func newTestRepo(t *testing.T) RecordRepository {
	t.Helper()
	repo, _ := newTestRepoWithDB(t)
	return repo
}

func newTestRepoWithDB(t *testing.T) (RecordRepository, *database.SQLiteDB) {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db.DB, WithClock(fixedClock(t0))), db
}

// rejectObservatoryNamed làm mọi INSERT observatory có tên name bị abort
func rejectObservatoryNamed(t *testing.T, db *database.SQLiteDB, name string) {
	t.Helper()
	_, err := db.DB.ExecContext(context.Background(), fmt.Sprintf(`
		CREATE TRIGGER reject_observatory BEFORE INSERT ON observatories
		WHEN NEW.observatory_name = '%s'
		BEGIN
			SELECT RAISE(ABORT, 'observatory rejected');
		END
	`, name))
	require.NoError(t, err)
}

func marsRecord() *model.Record {
	return &model.Record{
		TargetBodyName: "Mars",
		CenterBodyName: "Sun",
		Epoch:          "2024-01-01T00:00:00Z",
		OrbitalElements: &model.OrbitalElements{
			SemiMajorAxisAU:           1.523679,
			Eccentricity:              0.0934,
			InclinationDeg:            1.85,
			LongitudeAscendingNodeDeg: 49.558,
			ArgumentOfPeriapsisDeg:    286.502,
			MeanAnomalyDeg:            19.412,
		},
		Payload: "p1",
		Owner:   "AL",
		Observatories: []model.Observatory{
			{Latitude: 61.05, Longitude: 25.66, Name: "Nyrölä"},
			{Latitude: -24.6, Longitude: -70.4, Name: "Paranal", Weather: &model.WeatherSample{
				TemperatureKelvin: 253.15, CloudinessPercent: 0, BackgroundLightVolume: 10.5,
			}},
		},
	}
}

func TestSQLiteRecordRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Create(ctx, marsRecord())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	want := marsRecord()
	want.ID = 1
	want.TimeReceived = t0.Truncate(time.Millisecond)
	assert.Equal(t, want, got)
}

func TestSQLiteRecordRepository_GetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Create(ctx, marsRecord())
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ToResponse(), second.ToResponse())
}

func TestSQLiteRecordRepository_StateVectorOnly(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	rec := &model.Record{
		TargetBodyName: "Ceres",
		CenterBodyName: "Sun",
		Epoch:          "J2000",
		StateVector: &model.StateVector{
			PositionAU:       [3]float64{2.1, -1.3, 0.4},
			VelocityAUPerDay: [3]float64{0.004, 0.008, -0.0002},
		},
		Payload: "sv",
		Owner:   "BO",
	}
	id, err := repo.Create(ctx, rec)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.OrbitalElements)
	assert.Equal(t, rec.StateVector, got.StateVector)
	assert.Empty(t, got.Observatories)
}

func TestSQLiteRecordRepository_GetNotFound(t *testing.T) {
	_, err := newTestRepo(t).GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrRecordNotFound)
}

func TestSQLiteRecordRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = repo.Create(ctx, marsRecord())
	require.NoError(t, err)
	second := marsRecord()
	second.TargetBodyName = "Phobos"
	second.CenterBodyName = "Mars"
	second.Observatories = nil
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	records, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Len(t, records[0].Observatories, 2)
	assert.Equal(t, "Nyrölä", records[0].Observatories[0].Name)
	assert.Equal(t, "Phobos", records[1].TargetBodyName)
	assert.Empty(t, records[1].Observatories)
}

func TestSQLiteRecordRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Create(ctx, marsRecord())
	require.NoError(t, err)

	reason := "correction"
	changed := marsRecord()
	changed.ID = id
	changed.Payload = "p2"
	changed.Owner = "SOMEONE-ELSE"
	changed.UpdateReason = &reason
	changed.Observatories = []model.Observatory{{Latitude: 19.82, Longitude: -155.47, Name: "Mauna Kea"}}
	require.NoError(t, repo.Update(ctx, changed))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "p2", got.Payload)
	assert.Equal(t, "AL", got.Owner, "owner is immutable")
	assert.Equal(t, t0.Truncate(time.Millisecond), got.TimeReceived, "time received is immutable")
	require.NotNil(t, got.UpdateReason)
	assert.Equal(t, "correction", *got.UpdateReason)
	require.NotNil(t, got.Edited)
	assert.Equal(t, t0.Add(time.Second).Truncate(time.Millisecond), *got.Edited)
	require.Len(t, got.Observatories, 1)
	assert.Equal(t, "Mauna Kea", got.Observatories[0].Name)
}

func TestSQLiteRecordRepository_UpdateDefaultsReason(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Create(ctx, marsRecord())
	require.NoError(t, err)

	blank := "   "
	changed := marsRecord()
	changed.ID = id
	changed.UpdateReason = &blank
	require.NoError(t, repo.Update(ctx, changed))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.UpdateReasonNotAvailable, *got.UpdateReason)
}

func TestSQLiteRecordRepository_UpdateNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	missing := marsRecord()
	missing.ID = 99
	assert.ErrorIs(t, repo.Update(ctx, missing), model.ErrRecordNotFound)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteRecordRepository_IDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLiteRepository(db.DB)

	id1, err := repo.Create(ctx, marsRecord())
	require.NoError(t, err)

	_, err = db.DB.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id1)
	require.NoError(t, err)

	id2, err := repo.Create(ctx, marsRecord())
	require.NoError(t, err)
	assert.Greater(t, id2, id1)
}

func TestSQLiteRecordRepository_CreateRollsBackOnObservatoryFailure(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepoWithDB(t)
	rejectObservatoryNamed(t, db, "Paranal")

	_, err := repo.Create(ctx, marsRecord())
	require.Error(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	var orphans int
	require.NoError(t, db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM observatories`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestSQLiteRecordRepository_UpdateRollsBackOnObservatoryFailure(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepoWithDB(t)

	id, err := repo.Create(ctx, marsRecord())
	require.NoError(t, err)
	rejectObservatoryNamed(t, db, "Broken")

	changed := marsRecord()
	changed.ID = id
	changed.Payload = "p2"
	changed.Observatories = []model.Observatory{
		{Latitude: 19.82, Longitude: -155.47, Name: "Mauna Kea"},
		{Latitude: 1, Longitude: 2, Name: "Broken"},
	}
	require.Error(t, repo.Update(ctx, changed))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Payload)
	assert.Nil(t, got.Edited)
	require.Len(t, got.Observatories, 2)
	assert.Equal(t, "Nyrölä", got.Observatories[0].Name)
	assert.Equal(t, "Paranal", got.Observatories[1].Name)
}

func TestSQLiteRecordRepository_ConcurrentReadersSeeWholeObservatorySets(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	sets := map[string][]model.Observatory{
		"north": {
			{Latitude: 61.05, Longitude: 25.66, Name: "north-1"},
			{Latitude: 60.17, Longitude: 24.94, Name: "north-2"},
		},
		"south": {
			{Latitude: -24.6, Longitude: -70.4, Name: "south-1"},
			{Latitude: -30.17, Longitude: -70.8, Name: "south-2"},
			{Latitude: -29.26, Longitude: -70.73, Name: "south-3"},
		},
	}

	initial := marsRecord()
	initial.Payload = "north"
	initial.Observatories = sets["north"]
	id, err := repo.Create(ctx, initial)
	require.NoError(t, err)

	var (
		done  atomic.Bool
		torn  atomic.Int64
		reads atomic.Int64
		wg    sync.WaitGroup
	)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				got, err := repo.GetByID(ctx, id)
				if !assert.NoError(t, err) {
					return
				}
				reads.Add(1)
				if !assert.ObjectsAreEqual(sets[got.Payload], got.Observatories) {
					torn.Add(1)
				}
				if done.Load() {
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		payload := "north"
		if i%2 == 0 {
			payload = "south"
		}
		changed := marsRecord()
		changed.ID = id
		changed.Payload = payload
		changed.Observatories = sets[payload]
		require.NoError(t, repo.Update(ctx, changed))
	}
	done.Store(true)
	wg.Wait()

	assert.Positive(t, reads.Load())
	assert.Zero(t, torn.Load())
}
