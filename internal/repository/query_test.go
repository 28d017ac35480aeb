package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/stretchr/testify/assert"
)

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func TestBuildBreaksQuery(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filters   model.BreakFilters
		wantWhere string
		wantTail  string
		wantArgs  []any
	}{
		{
			name:     "no filters",
			wantTail: " ORDER BY break_time ASC",
		},
		{
			name:      "upcoming",
			filters:   model.BreakFilters{Past: boolPtr(false)},
			wantWhere: " WHERE break_time >= $1",
			wantTail:  " ORDER BY break_time ASC",
			wantArgs:  []any{now},
		},
		{
			name: "past hosted and limited",
			filters: model.BreakFilters{
				Past:   boolPtr(true),
				Hosted: boolPtr(true),
				Number: intPtr(5),
			},
			wantWhere: " WHERE break_time < $1 AND break_host IS NOT NULL",
			wantTail:  " ORDER BY break_time ASC LIMIT $2",
			wantArgs:  []any{now, 5},
		},
		{
			name: "milestones",
			filters: model.BreakFilters{
				Holiday:         boolPtr(false),
				HostReimbursed:  boolPtr(true),
				AdminClaimed:    boolPtr(false),
				AdminReimbursed: boolPtr(false),
			},
			wantWhere: " WHERE holiday = $1 AND host_reimbursed IS NOT NULL AND admin_claimed IS NULL AND admin_reimbursed IS NULL",
			wantTail:  " ORDER BY break_time ASC",
			wantArgs:  []any{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildBreaksQuery(tt.filters, now)

			assert.Equal(t, "SELECT "+breakColumns+" FROM breaks"+tt.wantWhere+tt.wantTail, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildClaimsQuery(t *testing.T) {
	query, args := buildClaimsQuery(model.ClaimFilters{})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)

	query, _ = buildClaimsQuery(model.ClaimFilters{Reimbursed: boolPtr(false)})
	assert.Contains(t, query, "WHERE claim_reimbursed IS NULL")
}

type fakeRow struct {
	values []any
}

func (f fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = f.values[i].(int64)
		case *time.Time:
			*p = f.values[i].(time.Time)
		case *string:
			*p = f.values[i].(string)
		case *bool:
			*p = f.values[i].(bool)
		case **string:
			*p, _ = f.values[i].(*string)
		case **int64:
			*p, _ = f.values[i].(*int64)
		case **time.Time:
			*p, _ = f.values[i].(*time.Time)
		}
	}
	return nil
}

func TestScanBreak(t *testing.T) {
	at := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	host := "alice"
	cents := int64(1250)

	b, err := scanBreak(fakeRow{values: []any{
		int64(7), at, "Room 1", false, &host, &at, &cents, (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil),
	}})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, "alice", b.Host)
	if assert.NotNil(t, b.Cost) {
		assert.InDelta(t, 12.5, *b.Cost, 1e-9)
	}
	assert.Equal(t, model.StageAnnounced, b.Stage())
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(1999), ToCents(19.99))
	assert.Equal(t, int64(10), ToCents(0.1))
	assert.InDelta(t, 19.99, FromCents(1999), 1e-9)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.True(t, isRetryable(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}))
	assert.False(t, isRetryable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.True(t, isRetryable(errors.New("dial tcp: connection refused")))
	assert.False(t, isRetryable(ErrNothingToClaim))
}
