package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/cookiebreaks/internal/model"
)

// NewBreak описывает перерыв, который нужно добавить в расписание.
type NewBreak struct {
	Time     time.Time
	Location string
	Holiday  bool
}

// ListBreaks возвращает перерывы, отсортированные по времени.
func (r *PostgresRepository) ListBreaks(ctx context.Context, filters model.BreakFilters, now time.Time) ([]model.Break, error) {
	query, args := buildBreaksQuery(filters, now)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select breaks: %w", err)
	}
	defer rows.Close()

	res := make([]model.Break, 0)
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, fmt.Errorf("scan break: %w", err)
		}
		res = append(res, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// AnnounceBreak отмечает перерыв объявленным. Повторное объявление не меняет исходную отметку.
func (r *PostgresRepository) AnnounceBreak(ctx context.Context, id int64, at time.Time) (model.Break, error) {
	b, err := scanBreak(r.pool.QueryRow(ctx,
		`UPDATE breaks SET break_announced = COALESCE(break_announced, $2)
		 WHERE id = $1
		 RETURNING `+breakColumns,
		id, at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Break{}, ErrBreakNotFound
		}
		return model.Break{}, fmt.Errorf("announce break: %w", err)
	}
	return b, nil
}

// ReimburseHost сохраняет стоимость перерыва в копейках и отмечает возмещение ведущему.
func (r *PostgresRepository) ReimburseHost(ctx context.Context, id int64, costCents int64, at time.Time) (model.Break, error) {
	b, err := scanBreak(r.pool.QueryRow(ctx,
		`UPDATE breaks SET cost_cents = $2, host_reimbursed = COALESCE(host_reimbursed, $3)
		 WHERE id = $1
		 RETURNING `+breakColumns,
		id, costCents, at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Break{}, ErrBreakNotFound
		}
		return model.Break{}, fmt.Errorf("reimburse host: %w", err)
	}
	return b, nil
}

// SetHost назначает ведущего перерыва.
func (r *PostgresRepository) SetHost(ctx context.Context, id int64, host string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE breaks SET break_host = $2 WHERE id = $1`,
		id, host,
	)
	if err != nil {
		return fmt.Errorf("set host: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrBreakNotFound
	}
	return nil
}

// InsertBreaks добавляет перерывы, пропуская уже существующие на то же время.
// Возвращает количество добавленных записей.
func (r *PostgresRepository) InsertBreaks(ctx context.Context, breaks []NewBreak) (int64, error) {
	if len(breaks) == 0 {
		return 0, nil
	}

	var inserted int64
	err := r.withRetry(ctx, func() error {
		batch := &pgx.Batch{}
		for _, b := range breaks {
			batch.Queue(
				`INSERT INTO breaks (break_time, location, holiday) VALUES ($1, $2, $3)
				 ON CONFLICT (break_time) DO NOTHING`,
				b.Time, b.Location, b.Holiday,
			)
		}

		inserted = 0
		br := r.pool.SendBatch(ctx, batch)
		defer br.Close()

		for range breaks {
			cmdTag, err := br.Exec()
			if err != nil {
				return fmt.Errorf("insert break: %w", err)
			}
			inserted += cmdTag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
