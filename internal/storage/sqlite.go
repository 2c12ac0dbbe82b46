// Package storage caches resolved server endpoints in SQLite so repeated
// queries of the same GUID skip the Battlelog round trip.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/woozymasta/bfquery/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// PutEndpoint stores or refreshes a resolved endpoint keyed by platform and GUID.
func (r *Repository) PutEndpoint(ep models.Endpoint) error {
	query := `
	INSERT INTO endpoints (platform, guid, name, ip, port, game_id, resolved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(platform, guid) DO UPDATE SET
		name        = excluded.name,
		ip          = excluded.ip,
		port        = excluded.port,
		game_id     = excluded.game_id,
		resolved_at = excluded.resolved_at;
	`

	// game_id is kept as text, it may not fit a signed 64 bit integer
	_, err := r.db.Exec(query,
		ep.Platform, ep.GUID, ep.Name, ep.IP, ep.Port,
		strconv.FormatUint(ep.GameID, 10), ep.ResolvedAt.Unix(),
	)

	return err
}

// GetEndpoint returns the cached endpoint if it was resolved within maxAge.
// It returns nil without error when nothing usable is cached.
func (r *Repository) GetEndpoint(platform, guid string, maxAge time.Duration) (*models.Endpoint, error) {
	row := r.db.QueryRow(`
		SELECT platform, guid, name, ip, port, game_id, resolved_at
		FROM endpoints
		WHERE platform = ? AND guid = ?
	`, platform, guid)

	ep, err := scanEndpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	if time.Since(ep.ResolvedAt) > maxAge {
		return nil, nil
	}

	if _, err := r.db.Exec(`UPDATE endpoints SET hits = hits + 1 WHERE platform = ? AND guid = ?`, platform, guid); err != nil {
		return nil, err
	}

	return ep, nil
}

// ListEndpoints returns every cached endpoint, most recently resolved first.
func (r *Repository) ListEndpoints() ([]models.Endpoint, error) {
	rows, err := r.db.Query(`
		SELECT platform, guid, name, ip, port, game_id, resolved_at
		FROM endpoints
		ORDER BY resolved_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var endpoints []models.Endpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, *ep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return endpoints, nil
}

// DeleteStale removes endpoints resolved more than maxAge ago.
func (r *Repository) DeleteStale(maxAge time.Duration) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM endpoints WHERE resolved_at < ?`, time.Now().Add(-maxAge).Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(s scanner) (*models.Endpoint, error) {
	var (
		ep         models.Endpoint
		gameID     string
		resolvedAt int64
	)

	if err := s.Scan(&ep.Platform, &ep.GUID, &ep.Name, &ep.IP, &ep.Port, &gameID, &resolvedAt); err != nil {
		return nil, err
	}
	ep.ResolvedAt = time.Unix(resolvedAt, 0)

	id, err := strconv.ParseUint(gameID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cached game id %q: %w", gameID, err)
	}
	ep.GameID = id

	return &ep, nil
}
