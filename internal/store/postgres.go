package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wildwar/wildwar-server-go/internal/config"
)

const matchResultsSchema = `
CREATE TABLE IF NOT EXISTS match_results (
	match_id    TEXT PRIMARY KEY,
	player_ids  TEXT[] NOT NULL,
	winner_id   TEXT NOT NULL,
	draw        BOOLEAN NOT NULL,
	turns       INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
)`

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects, verifies the connection, and ensures the results
// table exists.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("store: parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, matchResultsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}

	logger.Info("match result store initialized",
		zap.Int32("max_conns", cfg.MaxConns),
	)
	return &Postgres{pool: pool, logger: logger}, nil
}

// SaveResult implements Store.
func (p *Postgres) SaveResult(ctx context.Context, result MatchResult) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO match_results (match_id, player_ids, winner_id, draw, turns, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (match_id) DO NOTHING`,
		result.MatchID,
		result.PlayerIDs,
		result.WinnerID,
		result.Draw,
		result.Turns,
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("store: save result %s: %w", result.MatchID, err)
	}
	return nil
}

// RecentResults implements Store, newest first.
func (p *Postgres) RecentResults(ctx context.Context, limit int) ([]MatchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT match_id, player_ids, winner_id, draw, turns, started_at, finished_at
		FROM match_results
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query results: %w", err)
	}
	defer rows.Close()

	var results []MatchResult
	for rows.Next() {
		var r MatchResult
		if err := rows.Scan(&r.MatchID, &r.PlayerIDs, &r.WinnerID, &r.Draw, &r.Turns, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("store: scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate results: %w", err)
	}
	return results, nil
}

// Close implements Store.
func (p *Postgres) Close() {
	p.pool.Close()
}
