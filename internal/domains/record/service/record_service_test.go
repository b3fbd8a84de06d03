package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observatory-backend/internal/domains/record/model"
	"observatory-backend/internal/domains/record/repository"
	"observatory-backend/internal/domains/user"
	"observatory-backend/internal/infrastructure/database"
	"observatory-backend/internal/infrastructure/weather"
)

type stubResolver map[string]string

func (r stubResolver) Nickname(_ context.Context, username string) (string, error) {
	switch username {
	case "broken":
		return "", errors.New("connection reset")
	case "nonick":
		return "", user.ErrNicknameMissing
	}
	nick, ok := r[username]
	if !ok {
		return "", user.ErrUserNotFound
	}
	return nick, nil
}

type countingWeather struct {
	calls int
}

func (w *countingWeather) Lookup(context.Context, float64, float64) weather.Sample {
	w.calls++
	return weather.DefaultSample
}

type countingRecorder map[string]int

func (r countingRecorder) IncRecordOperation(operation, outcome string) {
	r[operation+"/"+outcome]++
}

type fixture struct {
	svc      ServiceInterface
	db       *database.SQLiteDB
	weather  *countingWeather
	recorder countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, weather: &countingWeather{}, recorder: countingRecorder{}}
	f.svc = NewRecordService(
		repository.NewSQLiteRepository(db.DB),
		stubResolver{"alice": "AL", "bob": "BO"},
		f.weather,
		f.recorder,
	)
	return f
}

func parse(t *testing.T, body string) *model.RecordRequest {
	t.Helper()
	req, err := model.ParseRecordRequest([]byte(body))
	require.NoError(t, err)
	return req
}

const marsBody = `{
	"target_body_name": "Mars",
	"center_body_name": "Sun",
	"epoch": "2024-01-01T00:00:00Z",
	"orbital_elements": {
		"semi_major_axis_au": 1.52, "eccentricity": 0.09, "inclination_deg": 1.85,
		"longitude_ascending_node_deg": 49.5, "argument_of_periapsis_deg": 286.5, "mean_anomaly_deg": 19.4
	},
	"metadata": {
		"record_payload": "p1",
		"observatory": [
			{"latitude": 61.05, "longitude": 25.66, "observatory_name": "Nyrölä", "observatory_weather": true},
			{"latitude": 60.2, "longitude": 24.9, "observatory_name": "Helsinki"}
		]
	}
}`

func assertRecordError(t *testing.T, err error, code string) {
	t.Helper()
	recErr, ok := model.AsRecordError(err)
	require.True(t, ok, "expected *RecordError, got %v", err)
	assert.Equal(t, code, recErr.Code)
}

func TestCreateRecord_AutoFillsOwnerAndEnriches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateRecord(ctx, "AL", parse(t, marsBody))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 1, f.weather.calls)

	got, err := f.svc.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "AL", got.Metadata.RecordOwner)
	require.Len(t, got.Metadata.Observatory, 2)
	require.NotNil(t, got.Metadata.Observatory[0].Weather)
	assert.Equal(t, 253.15, got.Metadata.Observatory[0].Weather.TemperatureKelvin)
	assert.Nil(t, got.Metadata.Observatory[1].Weather)
	assert.Equal(t, 1, f.recorder["create/ok"])
}

func TestCreateRecord_OwnerMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := parse(t, `{"target_body_name":"Mars","center_body_name":"Sun","epoch":"e",
		"state_vector":{"position_au":[1,2,3],"velocity_au_per_day":[4,5,6]},
		"metadata":{"record_payload":"p","record_owner":"BO"}}`)

	_, err := f.svc.CreateRecord(ctx, "AL", req)
	assertRecordError(t, err, model.ErrCodeForbidden)
	assert.ErrorIs(t, err, model.ErrForbidden)

	records, err := f.svc.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateRecord_BlankOwnerIsAutoFilled(t *testing.T) {
	for name, owner := range map[string]string{"empty": `""`, "spaces": `"   "`} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			req := parse(t, `{"target_body_name":"Mars","center_body_name":"Sun","epoch":"e",
				"state_vector":{"position_au":[1,2,3],"velocity_au_per_day":[4,5,6]},
				"metadata":{"record_payload":"p","record_owner":`+owner+`}}`)

			id, err := f.svc.CreateRecord(ctx, "AL", req)
			require.NoError(t, err)

			got, err := f.svc.GetRecord(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "AL", got.Metadata.RecordOwner)
		})
	}
}

// deadlineWeather chỉ trả lời khi ctx hết hạn, giống provider bị treo
type deadlineWeather struct {
	calls int
}

func (w *deadlineWeather) Lookup(ctx context.Context, _, _ float64) weather.Sample {
	w.calls++
	<-ctx.Done()
	return weather.DefaultSample
}

func TestCreateRecord_WeatherEnrichmentSharesOneDeadline(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	slow := &deadlineWeather{}
	svc := NewRecordService(
		repository.NewSQLiteRepository(db.DB),
		stubResolver{"alice": "AL"},
		slow,
		nil,
		WithEnrichBudget(50*time.Millisecond),
	)

	const count = 40
	entries := make([]string, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"latitude":%d,"longitude":%d,"observatory_name":"obs-%d","observatory_weather":true}`, i, i, i))
	}
	req := parse(t, `{"target_body_name":"Mars","center_body_name":"Sun","epoch":"e",
		"state_vector":{"position_au":[1,2,3],"velocity_au_per_day":[4,5,6]},
		"metadata":{"record_payload":"p","observatory":[`+strings.Join(entries, ",")+`]}}`)

	start := time.Now()
	id, err := svc.CreateRecord(context.Background(), "AL", req)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, count, slow.calls)

	got, err := svc.GetRecord(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, got.Metadata.Observatory, count)
	for _, o := range got.Metadata.Observatory {
		require.NotNil(t, o.Weather)
		assert.Equal(t, 253.15, o.Weather.TemperatureKelvin)
	}
}

func TestCreateRecord_MatchingOwnerAccepted(t *testing.T) {
	f := newFixture(t)

	req := parse(t, `{"target_body_name":"Mars","center_body_name":"Sun","epoch":"e",
		"state_vector":{"position_au":[1,2,3],"velocity_au_per_day":[4,5,6]},
		"metadata":{"record_payload":"p","record_owner":"AL"}}`)

	_, err := f.svc.CreateRecord(context.Background(), "AL", req)
	assert.NoError(t, err)
}

func TestUpdateRecord_ByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateRecord(ctx, "AL", parse(t, marsBody))
	require.NoError(t, err)
	before, err := f.svc.GetRecord(ctx, id)
	require.NoError(t, err)

	updated, err := f.svc.UpdateRecord(ctx, "AL", id, parse(t, `{
		"target_body_name":"Mars","center_body_name":"Sun","epoch":"e2",
		"state_vector":{"position_au":[1,2,3],"velocity_au_per_day":[4,5,6]},
		"metadata":{"record_payload":"p2","update_reason":"correction","record_owner":"BO"}}`))
	require.NoError(t, err)

	assert.Equal(t, "e2", updated.Epoch)
	assert.Nil(t, updated.OrbitalElements)
	assert.NotNil(t, updated.StateVector)
	assert.Equal(t, "AL", updated.Metadata.RecordOwner)
	assert.Equal(t, "correction", *updated.Metadata.UpdateReason)
	assert.NotNil(t, updated.Metadata.Edited)
	assert.Equal(t, before.Metadata.RecordTimeReceived, updated.Metadata.RecordTimeReceived)
	assert.Empty(t, updated.Metadata.Observatory)
}

func TestUpdateRecord_NotOwnerLeavesRecordUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateRecord(ctx, "AL", parse(t, marsBody))
	require.NoError(t, err)
	before, err := f.svc.GetRecord(ctx, id)
	require.NoError(t, err)

	_, err = f.svc.UpdateRecord(ctx, "BO", id, parse(t, marsBody))
	assertRecordError(t, err, model.ErrCodeForbidden)
	assert.Equal(t, model.MsgNotOwner, err.(*model.RecordError).Message)

	after, err := f.svc.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, f.recorder["update/forbidden"])
}

func TestUpdateRecord_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateRecord(context.Background(), "AL", 7, parse(t, marsBody))
	assertRecordError(t, err, model.ErrCodeRecordNotFound)
	assert.Equal(t, 0, f.weather.calls)
}

func TestGetRecord_NotFound(t *testing.T) {
	_, err := newFixture(t).svc.GetRecord(context.Background(), 1)
	assertRecordError(t, err, model.ErrCodeRecordNotFound)
}

func TestResolveOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nick, err := f.svc.ResolveOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "AL", nick)

	_, err = f.svc.ResolveOwner(ctx, "nonick")
	assertRecordError(t, err, model.ErrCodeOwnerUnresolved)

	_, err = f.svc.ResolveOwner(ctx, "ghost")
	assertRecordError(t, err, model.ErrCodeOwnerUnresolved)

	_, err = f.svc.ResolveOwner(ctx, "broken")
	assertRecordError(t, err, model.ErrCodeStoreUnavailable)
}

func TestStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Close())

	_, err := f.svc.ListRecords(context.Background())
	assertRecordError(t, err, model.ErrCodeStoreUnavailable)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = f.svc.CreateRecord(context.Background(), "AL", parse(t, marsBody))
	assertRecordError(t, err, model.ErrCodeStoreUnavailable)
	assert.Equal(t, 1, f.recorder["create/error"])
}
