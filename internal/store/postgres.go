package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS compositions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	format     TEXT NOT NULL,
	width      DOUBLE PRECISION NOT NULL,
	height     DOUBLE PRECISION NOT NULL,
	frame_rate DOUBLE PRECISION NOT NULL,
	frames     DOUBLE PRECISION NOT NULL,
	data       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores records in a compositions table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and creates the table if needed.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Put(ctx context.Context, rec *Record) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO compositions (id, name, format, width, height, frame_rate, frames, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, format = EXCLUDED.format, width = EXCLUDED.width,
			height = EXCLUDED.height, frame_rate = EXCLUDED.frame_rate,
			frames = EXCLUDED.frames, data = EXCLUDED.data`,
		rec.ID, rec.Name, string(rec.Format), rec.Width, rec.Height, rec.FrameRate, rec.Frames, rec.Data, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("put composition: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	var format string
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, format, width, height, frame_rate, frames, data, created_at
		FROM compositions WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &format, &rec.Width, &rec.Height, &rec.FrameRate, &rec.Frames, &rec.Data, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get composition: %w", err)
	}
	rec.Format = Format(format)
	return &rec, nil
}

func (p *Postgres) List(ctx context.Context) ([]Record, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, format, width, height, frame_rate, frames, created_at
		FROM compositions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list compositions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		var format string
		err := row.Scan(&rec.ID, &rec.Name, &format, &rec.Width, &rec.Height, &rec.FrameRate, &rec.Frames, &rec.CreatedAt)
		rec.Format = Format(format)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("list compositions: %w", err)
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM compositions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete composition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
