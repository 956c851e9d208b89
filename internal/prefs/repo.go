// Package prefs stores and serves per-user travel preferences. The repo
// holds the SQL and type mapping; the service holds validation and home
// address geocoding. No reconciliation logic lives here.
package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripperbot/tripper/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo defines the persistence operations for user preferences.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type Repo interface {
	// Get retrieves one user's preferences.
	// Returns domain.ErrNotFound when the user has never stored any.
	Get(ctx context.Context, userID string) (domain.Preferences, error)

	// Upsert inserts or overwrites the user's preferences and returns the
	// persisted record with DB-maintained timestamps populated.
	Upsert(ctx context.Context, p domain.Preferences) (domain.Preferences, error)

	// Delete removes a user's preferences. Returns domain.ErrNotFound if
	// none were stored.
	Delete(ctx context.Context, userID string) error
}

// pgRepo is the Postgres implementation of Repo.
type pgRepo struct {
	db db
}

// NewRepo constructs a Repo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRepo(db db) Repo {
	return &pgRepo{db: db}
}

const prefsColumns = `user_id, home_address, home_lat, home_lng, excluded_modes,
		max_walking_m, max_bicycling_m, created_at, updated_at`

// Get retrieves one user's preferences by primary key.
func (r *pgRepo) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	const q = `
		SELECT ` + prefsColumns + `
		FROM user_prefs
		WHERE user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID})
	result, err := scanPrefs(row)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("prefs.Repo.Get: %w", err)
	}
	return result, nil
}

// Upsert inserts or overwrites preferences keyed by user_id.
func (r *pgRepo) Upsert(ctx context.Context, p domain.Preferences) (domain.Preferences, error) {
	const q = `
		INSERT INTO user_prefs (user_id, home_address, home_lat, home_lng,
			excluded_modes, max_walking_m, max_bicycling_m)
		VALUES (@user_id, @home_address, @home_lat, @home_lng,
			@excluded_modes, @max_walking_m, @max_bicycling_m)
		ON CONFLICT (user_id) DO UPDATE
		SET home_address    = EXCLUDED.home_address,
		    home_lat        = EXCLUDED.home_lat,
		    home_lng        = EXCLUDED.home_lng,
		    excluded_modes  = EXCLUDED.excluded_modes,
		    max_walking_m   = EXCLUDED.max_walking_m,
		    max_bicycling_m = EXCLUDED.max_bicycling_m,
		    updated_at      = now()
		RETURNING ` + prefsColumns

	modes := make([]string, 0, len(p.ExcludedModes))
	for _, m := range p.ExcludedModes {
		modes = append(modes, string(m))
	}

	args := pgx.NamedArgs{
		"user_id":         p.UserID,
		"home_address":    p.HomeAddress,
		"home_lat":        p.HomeLat,
		"home_lng":        p.HomeLng,
		"excluded_modes":  modes,
		"max_walking_m":   p.MaxWalkingMeters,   // nil becomes NULL
		"max_bicycling_m": p.MaxBicyclingMeters, // nil becomes NULL
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanPrefs(row)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("prefs.Repo.Upsert: %w", err)
	}
	return result, nil
}

// Delete removes one user's preferences by primary key.
func (r *pgRepo) Delete(ctx context.Context, userID string) error {
	const q = `DELETE FROM user_prefs WHERE user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return fmt.Errorf("prefs.Repo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("prefs.Repo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPrefs maps a single database row into domain.Preferences.
// It handles the text[] mode list and the two nullable caps.
func scanPrefs(s scanner) (domain.Preferences, error) {
	var (
		p         domain.Preferences
		modes     []string
		walking   pgtype.Int4
		bicycling pgtype.Int4
	)

	err := s.Scan(&p.UserID, &p.HomeAddress, &p.HomeLat, &p.HomeLng, &modes,
		&walking, &bicycling, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Preferences{}, domain.ErrNotFound
		}
		return domain.Preferences{}, err
	}

	for _, m := range modes {
		p.ExcludedModes = append(p.ExcludedModes, domain.Mode(m))
	}
	if walking.Valid {
		v := int(walking.Int32)
		p.MaxWalkingMeters = &v
	}
	if bicycling.Valid {
		v := int(bicycling.Int32)
		p.MaxBicyclingMeters = &v
	}

	return p, nil
}
