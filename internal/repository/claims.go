package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/cookiebreaks/internal/model"
)

// ClaimForBreaks создаёт заявку на возмещение по перерывам, которые уже возмещены ведущему
// и ещё не включены в заявку. Остальные идентификаторы пропускаются.
func (r *PostgresRepository) ClaimForBreaks(ctx context.Context, breakIDs []int64, at time.Time) (int64, error) {
	var claimID int64
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		rows, err := tx.Query(ctx,
			`SELECT id, cost_cents FROM breaks
			 WHERE id = ANY($1) AND host_reimbursed IS NOT NULL AND admin_claimed IS NULL
			 ORDER BY id
			 FOR UPDATE`,
			breakIDs,
		)
		if err != nil {
			return fmt.Errorf("select claimable breaks: %w", err)
		}

		var (
			ids   []int64
			total int64
		)
		for rows.Next() {
			var (
				id    int64
				cents *int64
			)
			if err := rows.Scan(&id, &cents); err != nil {
				rows.Close()
				return fmt.Errorf("scan break: %w", err)
			}
			ids = append(ids, id)
			if cents != nil {
				total += *cents
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		if len(ids) == 0 {
			return ErrNothingToClaim
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO claims (claim_date, amount_cents) VALUES ($1, $2) RETURNING id`,
			at, total,
		).Scan(&claimID)
		if err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO claim_breaks (claim_id, break_id) SELECT $1, UNNEST($2::BIGINT[])`,
			claimID, ids,
		)
		if err != nil {
			return fmt.Errorf("insert claim breaks: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE breaks SET admin_claimed = $2 WHERE id = ANY($1)`,
			ids, at,
		)
		if err != nil {
			return fmt.Errorf("mark breaks claimed: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return claimID, nil
}

// ClaimReimbursed отмечает заявку и все её перерывы возмещёнными.
// Повторная отметка не меняет исходные даты.
func (r *PostgresRepository) ClaimReimbursed(ctx context.Context, claimID int64, at time.Time) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		cmdTag, err := tx.Exec(ctx,
			`UPDATE claims SET claim_reimbursed = COALESCE(claim_reimbursed, $2) WHERE id = $1`,
			claimID, at,
		)
		if err != nil {
			return fmt.Errorf("update claim: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrClaimNotFound
		}

		_, err = tx.Exec(ctx,
			`UPDATE breaks SET admin_reimbursed = COALESCE(admin_reimbursed, $2)
			 WHERE id IN (SELECT break_id FROM claim_breaks WHERE claim_id = $1)`,
			claimID, at,
		)
		if err != nil {
			return fmt.Errorf("mark breaks reimbursed: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ListClaims возвращает заявки вместе с входящими в них перерывами.
func (r *PostgresRepository) ListClaims(ctx context.Context, filters model.ClaimFilters) ([]model.Claim, error) {
	query, args := buildClaimsQuery(filters)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select claims: %w", err)
	}
	defer rows.Close()

	claims := make([]model.Claim, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var (
			c     model.Claim
			cents int64
		)
		if err := rows.Scan(&c.ID, &c.Date, &cents, &c.Reimbursed); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		c.Amount = FromCents(cents)
		c.Breaks = make([]model.Break, 0)

		index[c.ID] = len(claims)
		ids = append(ids, c.ID)
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	rows.Close()

	if len(claims) == 0 {
		return claims, nil
	}

	breakRows, err := r.pool.Query(ctx,
		`SELECT cb.claim_id, b.id, b.break_time, b.location, b.holiday, b.break_host, b.break_announced,
		        b.cost_cents, b.host_reimbursed, b.admin_claimed, b.admin_reimbursed
		 FROM claim_breaks cb
		 JOIN breaks b ON b.id = cb.break_id
		 WHERE cb.claim_id = ANY($1)
		 ORDER BY b.break_time`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("select claim breaks: %w", err)
	}
	defer breakRows.Close()

	for breakRows.Next() {
		var claimID int64
		b, err := scanBreak(prefixedScanner{row: breakRows, prefix: []any{&claimID}})
		if err != nil {
			return nil, fmt.Errorf("scan claim break: %w", err)
		}
		if i, ok := index[claimID]; ok {
			claims[i].Breaks = append(claims[i].Breaks, b)
		}
	}
	if err := breakRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return claims, nil
}

// prefixedScanner читает дополнительные колонки перед колонками перерыва.
type prefixedScanner struct {
	row    scanner
	prefix []any
}

func (p prefixedScanner) Scan(dest ...any) error {
	return p.row.Scan(append(p.prefix, dest...)...)
}
