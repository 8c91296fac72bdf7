// Package records reads and writes the backend's tables. Every function
// works on a session owned by the caller and never closes it.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crackedoura/backend/internal/storage"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for values that fail validation
	ErrInvalid = errors.New("invalid value")
)

const (
	// DefaultSyncTime is reported until settings are saved.
	DefaultSyncTime = "08:00"
	// DefaultLayout names the dashboard layout used by the UI.
	DefaultLayout = "default"

	dayFormat      = "2006-01-02"
	syncTimeFormat = "15:04"

	firstDay = "0000-01-01"
	lastDay  = "9999-12-31"
)

// Settings holds user preferences.
type Settings struct {
	DailySyncTime string `db:"daily_sync_time" json:"daily_sync_time"`
	Email         string `db:"email" json:"email,omitempty"`
}

// DayRecord is one metric payload for one calendar day.
type DayRecord struct {
	Day     string          `json:"day"`
	Metric  string          `json:"metric"`
	Payload json.RawMessage `json:"payload"`
}

// Point is one day's value of a queried field.
type Point struct {
	Date  string          `json:"date"`
	Value json.RawMessage `json:"value"`
}

// Field describes a top-level key found in a metric's payloads.
type Field struct {
	Name   string `json:"name"`
	IsJSON bool   `json:"is_json"`
}

type dayRow struct {
	Day     string `db:"day"`
	Metric  string `db:"metric"`
	Payload string `db:"payload"`
}

// GetSettings returns the stored settings, or defaults when none were saved.
func GetSettings(ctx context.Context, sess *storage.Session) (Settings, error) {
	var s Settings
	err := sess.Get(ctx, &s, "SELECT daily_sync_time, COALESCE(email, '') AS email FROM settings WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{DailySyncTime: DefaultSyncTime}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return s, nil
}

// SaveSettings validates and stores s.
func SaveSettings(ctx context.Context, sess *storage.Session, s Settings) error {
	if _, err := time.Parse(syncTimeFormat, s.DailySyncTime); err != nil {
		return fmt.Errorf("%w: daily_sync_time %q must be HH:MM", ErrInvalid, s.DailySyncTime)
	}
	query := `
		INSERT INTO settings (id, daily_sync_time, email, updated_at)
		VALUES (1, ?, NULLIF(?, ''), CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			daily_sync_time = excluded.daily_sync_time,
			email = excluded.email,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := sess.Exec(ctx, query, s.DailySyncTime, s.Email); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// GetLayout returns the JSON layout stored under name.
func GetLayout(ctx context.Context, sess *storage.Session, name string) (json.RawMessage, error) {
	var layout string
	err := sess.Get(ctx, &layout, "SELECT layout FROM dashboard_layouts WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", name, err)
	}
	return json.RawMessage(layout), nil
}

// SaveLayout stores a JSON layout under name, replacing any previous one.
func SaveLayout(ctx context.Context, sess *storage.Session, name string, layout json.RawMessage) error {
	if name == "" {
		return fmt.Errorf("%w: layout name is empty", ErrInvalid)
	}
	if !json.Valid(layout) {
		return fmt.Errorf("%w: layout is not valid JSON", ErrInvalid)
	}
	query := `
		INSERT INTO dashboard_layouts (name, layout, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			layout = excluded.layout,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := sess.Exec(ctx, query, name, string(layout)); err != nil {
		return fmt.Errorf("failed to save layout %s: %w", name, err)
	}
	return nil
}

// GetDay returns every metric stored for day (YYYY-MM-DD), ordered by metric.
func GetDay(ctx context.Context, sess *storage.Session, day string) ([]DayRecord, error) {
	if err := validateDay(day); err != nil {
		return nil, err
	}
	var rows []dayRow
	err := sess.Select(ctx, &rows, "SELECT day, metric, payload FROM daily_data WHERE day = ? ORDER BY metric", day)
	if err != nil {
		return nil, fmt.Errorf("failed to read day %s: %w", day, err)
	}
	out := make([]DayRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, DayRecord{Day: r.Day, Metric: r.Metric, Payload: json.RawMessage(r.Payload)})
	}
	return out, nil
}

// UpsertDays stores recs atomically. Either all records are written or none.
func UpsertDays(ctx context.Context, sess *storage.Session, recs []DayRecord) error {
	for _, r := range recs {
		if err := validateDay(r.Day); err != nil {
			return err
		}
		if r.Metric == "" {
			return fmt.Errorf("%w: metric is empty for %s", ErrInvalid, r.Day)
		}
		if !json.Valid(r.Payload) {
			return fmt.Errorf("%w: payload for %s/%s is not valid JSON", ErrInvalid, r.Day, r.Metric)
		}
	}

	tx, err := sess.Beginx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO daily_data (day, metric, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(day, metric) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`
	for _, r := range recs {
		if _, err := tx.ExecContext(ctx, query, r.Day, r.Metric, string(r.Payload)); err != nil {
			return fmt.Errorf("failed to store %s/%s: %w", r.Day, r.Metric, err)
		}
	}
	return tx.Commit()
}

// QueryRange returns the value at path for every day in [start, end], ordered
// by day. path is a metric optionally followed by dot-separated payload keys,
// e.g. "sleep.score"; a bare metric returns whole payloads. Empty bounds are
// open. Days whose payload lacks the field are skipped.
func QueryRange(ctx context.Context, sess *storage.Session, path, start, end string) ([]Point, error) {
	metric, jsonPath, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if start == "" {
		start = firstDay
	} else if err := validateDay(start); err != nil {
		return nil, err
	}
	if end == "" {
		end = lastDay
	} else if err := validateDay(end); err != nil {
		return nil, err
	}
	if start > end {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalid, start, end)
	}

	var rows []struct {
		Date  string `db:"date"`
		Value string `db:"value"`
	}
	query := `
		SELECT day AS date, payload -> ? AS value
		FROM daily_data
		WHERE metric = ? AND day >= ? AND day <= ? AND (payload -> ?) IS NOT NULL
		ORDER BY day
	`
	if err := sess.Select(ctx, &rows, query, jsonPath, metric, start, end, jsonPath); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", path, err)
	}
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		out = append(out, Point{Date: r.Date, Value: json.RawMessage(r.Value)})
	}
	return out, nil
}

// Fields lists, per metric, the top-level keys present in stored payloads.
// A key is marked JSON when any payload holds an object or array under it.
func Fields(ctx context.Context, sess *storage.Session) (map[string][]Field, error) {
	var rows []struct {
		Metric string `db:"metric"`
		Name   string `db:"name"`
		IsJSON int    `db:"is_json"`
	}
	query := `
		SELECT d.metric AS metric, j.key AS name, MAX(j.type IN ('object', 'array')) AS is_json
		FROM daily_data d, json_each(d.payload) j
		WHERE json_type(d.payload) = 'object'
		GROUP BY d.metric, j.key
		ORDER BY d.metric, j.key
	`
	if err := sess.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	out := make(map[string][]Field)
	for _, r := range rows {
		out[r.Metric] = append(out[r.Metric], Field{Name: r.Name, IsJSON: r.IsJSON != 0})
	}
	return out, nil
}

// splitPath turns "sleep.contributors.rem" into ("sleep", "$.contributors.rem").
func splitPath(path string) (string, string, error) {
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if !isKey(p) {
			return "", "", fmt.Errorf("%w: path %q", ErrInvalid, path)
		}
	}
	jsonPath := "$"
	if len(parts) > 1 {
		jsonPath += "." + strings.Join(parts[1:], ".")
	}
	return parts[0], jsonPath, nil
}

func isKey(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func validateDay(day string) error {
	if _, err := time.Parse(dayFormat, day); err != nil {
		return fmt.Errorf("%w: day %q must be YYYY-MM-DD", ErrInvalid, day)
	}
	return nil
}
