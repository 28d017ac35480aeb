package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/cookiebreaks/internal/model"
)

const breakColumns = `id, break_time, location, holiday, break_host, break_announced,
	cost_cents, host_reimbursed, admin_claimed, admin_reimbursed`

type queryBuilder struct {
	where []string
	args  []any
}

func (q *queryBuilder) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// isSet добавляет условие на заполненность колонки-отметки.
func (q *queryBuilder) isSet(column string, want *bool) {
	if want == nil {
		return
	}
	if *want {
		q.where = append(q.where, column+" IS NOT NULL")
	} else {
		q.where = append(q.where, column+" IS NULL")
	}
}

// buildBreaksQuery строит запрос выборки перерывов по фильтрам.
// Прошедшими считаются перерывы, время которых меньше now.
func buildBreaksQuery(f model.BreakFilters, now time.Time) (string, []any) {
	q := &queryBuilder{}

	if f.Past != nil {
		op := ">="
		if *f.Past {
			op = "<"
		}
		q.where = append(q.where, "break_time "+op+" "+q.arg(now))
	}
	if f.Holiday != nil {
		q.where = append(q.where, "holiday = "+q.arg(*f.Holiday))
	}
	q.isSet("break_host", f.Hosted)
	q.isSet("host_reimbursed", f.HostReimbursed)
	q.isSet("admin_claimed", f.AdminClaimed)
	q.isSet("admin_reimbursed", f.AdminReimbursed)

	var sb strings.Builder
	sb.WriteString("SELECT " + breakColumns + " FROM breaks")
	if len(q.where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(q.where, " AND "))
	}
	sb.WriteString(" ORDER BY break_time ASC")
	if f.Number != nil {
		sb.WriteString(" LIMIT " + q.arg(*f.Number))
	}

	return sb.String(), q.args
}

// buildClaimsQuery строит запрос выборки заявок по фильтрам.
func buildClaimsQuery(f model.ClaimFilters) (string, []any) {
	q := &queryBuilder{}
	q.isSet("claim_reimbursed", f.Reimbursed)

	var sb strings.Builder
	sb.WriteString("SELECT id, claim_date, amount_cents, claim_reimbursed FROM claims")
	if len(q.where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(q.where, " AND "))
	}
	sb.WriteString(" ORDER BY claim_date ASC, id ASC")

	return sb.String(), q.args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBreak(row scanner) (model.Break, error) {
	var (
		b     model.Break
		host  *string
		cents *int64
	)
	err := row.Scan(
		&b.ID, &b.Time, &b.Location, &b.Holiday, &host, &b.Announced,
		&cents, &b.HostReimbursed, &b.AdminClaimed, &b.AdminReimbursed,
	)
	if err != nil {
		return model.Break{}, err
	}

	if host != nil {
		b.Host = *host
	}
	if cents != nil {
		v := FromCents(*cents)
		b.Cost = &v
	}

	return b, nil
}
