package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/nac-tco/internal/tco"
)

// SQLiteStore caches organization profiles and summaries of past runs.
// It stores inputs only; results can always be recomputed.
type SQLiteStore struct {
	db    *sqlx.DB
	clock func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	profile_id   TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	organization TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	profile_id    TEXT NOT NULL DEFAULT '',
	device_count  INTEGER NOT NULL,
	industry      TEXT NOT NULL DEFAULT '',
	years         INTEGER NOT NULL,
	best_vendor   TEXT NOT NULL DEFAULT '',
	best_tco      REAL NOT NULL DEFAULT 0,
	ranking       TEXT NOT NULL DEFAULT '[]',
	warnings      INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_profile ON runs (profile_id, created_at);
`

type Profile struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Organization tco.Organization `json:"organization"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type Run struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id,omitempty"`
	DeviceCount int       `json:"device_count"`
	Industry    string    `json:"industry"`
	Years       int       `json:"years"`
	BestVendor  string    `json:"best_vendor"`
	BestTCO     float64   `json:"best_tco"`
	Ranking     []string  `json:"ranking"`
	Warnings    int       `json:"warnings"`
	CreatedAt   time.Time `json:"created_at"`
}

type profileRow struct {
	ID           string `db:"profile_id"`
	Name         string `db:"name"`
	Organization string `db:"organization"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

type runRow struct {
	ID          string  `db:"run_id"`
	ProfileID   string  `db:"profile_id"`
	DeviceCount int     `db:"device_count"`
	Industry    string  `db:"industry"`
	Years       int     `db:"years"`
	BestVendor  string  `db:"best_vendor"`
	BestTCO     float64 `db:"best_tco"`
	Ranking     string  `db:"ranking"`
	Warnings    int     `db:"warnings"`
	CreatedAt   string  `db:"created_at"`
}

type Option func(*SQLiteStore)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(s *SQLiteStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &SQLiteStore{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveProfile inserts a new profile, or replaces the one with the given id.
func (s *SQLiteStore) SaveProfile(ctx context.Context, id string, org tco.Organization) (Profile, error) {
	blob, err := json.Marshal(org)
	if err != nil {
		return Profile{}, fmt.Errorf("encode organization: %w", err)
	}
	now := s.clock().UTC()
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	created := now
	var existing string
	err = s.db.GetContext(ctx, &existing, "SELECT created_at FROM profiles WHERE profile_id = ?", id)
	switch {
	case err == nil:
		created = parseTime(existing)
	case !errors.Is(err, sql.ErrNoRows):
		return Profile{}, fmt.Errorf("lookup profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO profiles (profile_id, name, organization, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(org.Name), string(blob), formatTime(created), formatTime(now))
	if err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return Profile{ID: id, Name: strings.TrimSpace(org.Name), Organization: org, CreatedAt: created, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row, "SELECT profile_id, name, organization, created_at, updated_at FROM profiles WHERE profile_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, tco.NewNotFoundError("profile", id)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return row.decode()
}

// ListProfiles returns profiles most recently updated first.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	var rows []profileRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT profile_id, name, organization, created_at, updated_at FROM profiles ORDER BY updated_at DESC, profile_id"); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]Profile, 0, len(rows))
	for _, row := range rows {
		p, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE profile_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tco.NewNotFoundError("profile", id)
	}
	return nil
}

// RecordRun stores a summary of a calculation. profileID may be empty for
// ad-hoc requests.
func (s *SQLiteStore) RecordRun(ctx context.Context, profileID string, res *tco.Result) (Run, error) {
	if res == nil {
		return Run{}, errors.New("record run: nil result")
	}
	run := Run{
		ID:          uuid.NewString(),
		ProfileID:   profileID,
		DeviceCount: res.Profile.DeviceCount,
		Industry:    res.Profile.Industry.ID,
		Years:       res.Profile.YearsToProject,
		Ranking:     append([]string(nil), res.Comparison.Ranking...),
		Warnings:    len(res.Warnings),
		CreatedAt:   s.clock().UTC(),
	}
	if len(run.Ranking) > 0 {
		run.BestVendor = run.Ranking[0]
		run.BestTCO = res.Comparison.TCO[run.BestVendor]
	}
	ranking, err := json.Marshal(run.Ranking)
	if err != nil {
		return Run{}, fmt.Errorf("encode ranking: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (run_id, profile_id, device_count, industry, years, best_vendor, best_tco, ranking, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProfileID, run.DeviceCount, run.Industry, run.Years, run.BestVendor, run.BestTCO, string(ranking), run.Warnings, formatTime(run.CreatedAt))
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// ListRuns returns the newest runs first, optionally for one profile.
func (s *SQLiteStore) ListRuns(ctx context.Context, profileID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT run_id, profile_id, device_count, industry, years, best_vendor, best_tco, ranking, warnings, created_at FROM runs"
	args := []any{}
	if profileID != "" {
		query += " WHERE profile_id = ?"
		args = append(args, profileID)
	}
	query += " ORDER BY created_at DESC, run_id LIMIT ?"
	args = append(args, limit)

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]Run, 0, len(rows))
	for _, row := range rows {
		r := Run{
			ID:          row.ID,
			ProfileID:   row.ProfileID,
			DeviceCount: row.DeviceCount,
			Industry:    row.Industry,
			Years:       row.Years,
			BestVendor:  row.BestVendor,
			BestTCO:     row.BestTCO,
			Warnings:    row.Warnings,
			CreatedAt:   parseTime(row.CreatedAt),
		}
		if err := json.Unmarshal([]byte(row.Ranking), &r.Ranking); err != nil {
			return nil, fmt.Errorf("decode run %s ranking: %w", row.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (r profileRow) decode() (Profile, error) {
	var org tco.Organization
	if err := json.Unmarshal([]byte(r.Organization), &org); err != nil {
		return Profile{}, fmt.Errorf("decode profile %s: %w", r.ID, err)
	}
	return Profile{
		ID:           r.ID,
		Name:         r.Name,
		Organization: org,
		CreatedAt:    parseTime(r.CreatedAt),
		UpdatedAt:    parseTime(r.UpdatedAt),
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
