package records

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crackedoura/backend/internal/logging"
	"github.com/crackedoura/backend/internal/schema"
	"github.com/crackedoura/backend/internal/storage"
)

func setupSession(t *testing.T) (*storage.Session, context.Context) {
	t.Helper()
	sc, err := storage.Open(storage.Options{DataDir: t.TempDir(), Schema: schema.Default(), Logger: logging.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Close() })

	ctx := context.Background()
	require.NoError(t, sc.InitSchema(ctx))

	sess, err := sc.AcquireSession(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess, ctx
}

func TestSettings(t *testing.T) {
	sess, ctx := setupSession(t)

	s, err := GetSettings(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, Settings{DailySyncTime: DefaultSyncTime}, s)

	require.NoError(t, SaveSettings(ctx, sess, Settings{DailySyncTime: "06:30", Email: "me@example.com"}))
	s, err = GetSettings(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "06:30", s.DailySyncTime)
	assert.Equal(t, "me@example.com", s.Email)

	require.NoError(t, SaveSettings(ctx, sess, Settings{DailySyncTime: "21:15"}))
	s, err = GetSettings(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, Settings{DailySyncTime: "21:15"}, s)

	err = SaveSettings(ctx, sess, Settings{DailySyncTime: "25:99"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLayout(t *testing.T) {
	sess, ctx := setupSession(t)

	_, err := GetLayout(ctx, sess, DefaultLayout)
	assert.ErrorIs(t, err, ErrNotFound)

	layout := json.RawMessage(`{"widgets":[{"id":"sleep","x":0,"y":0}]}`)
	require.NoError(t, SaveLayout(ctx, sess, DefaultLayout, layout))

	got, err := GetLayout(ctx, sess, DefaultLayout)
	require.NoError(t, err)
	assert.JSONEq(t, string(layout), string(got))

	require.NoError(t, SaveLayout(ctx, sess, DefaultLayout, json.RawMessage(`{"widgets":[]}`)))
	got, err = GetLayout(ctx, sess, DefaultLayout)
	require.NoError(t, err)
	assert.JSONEq(t, `{"widgets":[]}`, string(got))

	assert.ErrorIs(t, SaveLayout(ctx, sess, DefaultLayout, json.RawMessage(`{broken`)), ErrInvalid)
	assert.ErrorIs(t, SaveLayout(ctx, sess, "", json.RawMessage(`{}`)), ErrInvalid)
}

func TestDays(t *testing.T) {
	sess, ctx := setupSession(t)

	recs := []DayRecord{
		{Day: "2026-03-01", Metric: "sleep", Payload: json.RawMessage(`{"score":81}`)},
		{Day: "2026-03-01", Metric: "activity", Payload: json.RawMessage(`{"steps":9000}`)},
		{Day: "2026-03-02", Metric: "sleep", Payload: json.RawMessage(`{"score":77}`)},
	}
	require.NoError(t, UpsertDays(ctx, sess, recs))

	day, err := GetDay(ctx, sess, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "activity", day[0].Metric)
	assert.Equal(t, "sleep", day[1].Metric)
	assert.JSONEq(t, `{"score":81}`, string(day[1].Payload))

	// Upsert replaces the payload for an existing day and metric.
	require.NoError(t, UpsertDays(ctx, sess, []DayRecord{
		{Day: "2026-03-01", Metric: "sleep", Payload: json.RawMessage(`{"score":90}`)},
	}))
	day, err = GetDay(ctx, sess, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.JSONEq(t, `{"score":90}`, string(day[1].Payload))

	empty, err := GetDay(ctx, sess, "2020-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = GetDay(ctx, sess, "03/01/2026")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpsertDays_IsAtomic(t *testing.T) {
	sess, ctx := setupSession(t)

	err := UpsertDays(ctx, sess, []DayRecord{
		{Day: "2026-03-01", Metric: "sleep", Payload: json.RawMessage(`{}`)},
		{Day: "2026-03-01", Metric: "", Payload: json.RawMessage(`{}`)},
	})
	assert.ErrorIs(t, err, ErrInvalid)

	day, err := GetDay(ctx, sess, "2026-03-01")
	require.NoError(t, err)
	assert.Empty(t, day)
}

func seedDays(t *testing.T, ctx context.Context, sess *storage.Session) {
	t.Helper()
	require.NoError(t, UpsertDays(ctx, sess, []DayRecord{
		{Day: "2025-03-01", Metric: "sleep", Payload: json.RawMessage(`{"score":81,"contributors":{"rem":70}}`)},
		{Day: "2025-03-02", Metric: "sleep", Payload: json.RawMessage(`{"score":74,"contributors":{"rem":65}}`)},
		{Day: "2025-03-03", Metric: "sleep", Payload: json.RawMessage(`{"contributors":{"rem":90}}`)},
		{Day: "2025-03-04", Metric: "sleep", Payload: json.RawMessage(`{"score":88,"contributors":{"rem":72}}`)},
		{Day: "2025-03-02", Metric: "activity", Payload: json.RawMessage(`{"score":60,"steps":9000}`)},
	}))
}

func TestQueryRange(t *testing.T) {
	sess, ctx := setupSession(t)
	seedDays(t, ctx, sess)

	tests := []struct {
		name       string
		path       string
		start, end string
		want       []Point
	}{
		{
			name: "empty range", path: "sleep.score", start: "2024-01-01", end: "2024-12-31",
			want: []Point{},
		},
		{
			name: "single day", path: "sleep.score", start: "2025-03-02", end: "2025-03-02",
			want: []Point{{Date: "2025-03-02", Value: json.RawMessage(`74`)}},
		},
		{
			name: "inclusive ends skip missing field", path: "sleep.score", start: "2025-03-01", end: "2025-03-04",
			want: []Point{
				{Date: "2025-03-01", Value: json.RawMessage(`81`)},
				{Date: "2025-03-02", Value: json.RawMessage(`74`)},
				{Date: "2025-03-04", Value: json.RawMessage(`88`)},
			},
		},
		{
			name: "nested field with open bounds", path: "sleep.contributors.rem",
			want: []Point{
				{Date: "2025-03-01", Value: json.RawMessage(`70`)},
				{Date: "2025-03-02", Value: json.RawMessage(`65`)},
				{Date: "2025-03-03", Value: json.RawMessage(`90`)},
				{Date: "2025-03-04", Value: json.RawMessage(`72`)},
			},
		},
		{
			name: "whole payload", path: "activity", start: "2025-03-02",
			want: []Point{{Date: "2025-03-02", Value: json.RawMessage(`{"score":60,"steps":9000}`)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryRange(ctx, sess, tt.path, tt.start, tt.end)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Date, got[i].Date)
				assert.JSONEq(t, string(tt.want[i].Value), string(got[i].Value))
			}
		})
	}
}

func TestQueryRange_RejectsInvalidInput(t *testing.T) {
	sess, ctx := setupSession(t)

	for _, tc := range []struct{ path, start, end string }{
		{"", "", ""},
		{"sleep..score", "", ""},
		{"sleep.score')", "", ""},
		{"sleep.score", "03/01/2025", ""},
		{"sleep.score", "", "2025-13-01"},
		{"sleep.score", "2025-03-04", "2025-03-01"},
	} {
		_, err := QueryRange(ctx, sess, tc.path, tc.start, tc.end)
		assert.ErrorIs(t, err, ErrInvalid, "%+v", tc)
	}
}

func TestFields(t *testing.T) {
	sess, ctx := setupSession(t)

	fields, err := Fields(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, fields)

	seedDays(t, ctx, sess)
	fields, err = Fields(ctx, sess)
	require.NoError(t, err)

	assert.Equal(t, map[string][]Field{
		"activity": {{Name: "score"}, {Name: "steps"}},
		"sleep":    {{Name: "contributors", IsJSON: true}, {Name: "score"}},
	}, fields)
}
