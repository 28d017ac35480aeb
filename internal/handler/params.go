package handler

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/mmeshcher/cookiebreaks/internal/validation"
)

type queryDecoder interface {
	decode(v url.Values) error
}

// parseQuery разбирает параметры строки запроса в dst и проверяет их тегами validate.
func parseQuery(v url.Values, dst queryDecoder) error {
	if err := dst.decode(v); err != nil {
		return err
	}
	return validation.Struct(dst)
}

type breakQuery struct {
	BreakID int64 `validate:"gt=0"`
}

func (q *breakQuery) decode(v url.Values) error {
	return parseInt64(v, "break_id", &q.BreakID)
}

type reimburseQuery struct {
	BreakID int64   `validate:"gt=0"`
	Cost    float64 `validate:"gte=0,lte=1000000"`
}

func (q *reimburseQuery) decode(v url.Values) error {
	if err := parseInt64(v, "break_id", &q.BreakID); err != nil {
		return err
	}
	raw := v.Get("cost")
	if raw == "" {
		return fmt.Errorf("cost is required")
	}
	cost, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return fmt.Errorf("invalid cost %q", raw)
	}
	q.Cost = cost
	return nil
}

type hostQuery struct {
	BreakID  int64  `validate:"gt=0"`
	HostName string `validate:"required"`
}

func (q *hostQuery) decode(v url.Values) error {
	q.HostName = v.Get("host_name")
	return parseInt64(v, "break_id", &q.BreakID)
}

type claimQuery struct {
	ClaimID int64 `validate:"gt=0"`
}

func (q *claimQuery) decode(v url.Values) error {
	return parseInt64(v, "claim_id", &q.ClaimID)
}

type testQuery struct {
	Num int `validate:"gte=1,lte=52"`
}

func (q *testQuery) decode(v url.Values) error {
	var n int64
	if err := parseInt64(v, "num", &n); err != nil {
		return err
	}
	q.Num = int(n)
	return nil
}

type breakFiltersQuery struct {
	Number  *int `validate:"omitempty,gte=1"`
	filters model.BreakFilters
}

func (q *breakFiltersQuery) decode(v url.Values) error {
	if raw := v.Get("number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		q.Number = &n
	}
	q.filters.Number = q.Number

	bools := []struct {
		name string
		dst  **bool
	}{
		{"past", &q.filters.Past},
		{"hosted", &q.filters.Hosted},
		{"holiday", &q.filters.Holiday},
		{"host_reimbursed", &q.filters.HostReimbursed},
		{"admin_claimed", &q.filters.AdminClaimed},
		{"admin_reimbursed", &q.filters.AdminReimbursed},
	}
	for _, b := range bools {
		val, err := parseOptionalBool(v, b.name)
		if err != nil {
			return err
		}
		*b.dst = val
	}
	return nil
}

func parseBreakFilters(v url.Values) (model.BreakFilters, error) {
	var q breakFiltersQuery
	if err := parseQuery(v, &q); err != nil {
		return model.BreakFilters{}, err
	}
	return q.filters, nil
}

func parseClaimFilters(v url.Values) (model.ClaimFilters, error) {
	reimbursed, err := parseOptionalBool(v, "reimbursed")
	if err != nil {
		return model.ClaimFilters{}, err
	}
	return model.ClaimFilters{Reimbursed: reimbursed}, nil
}

func parseInt64(v url.Values, name string, dst *int64) error {
	raw := v.Get(name)
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q", name, raw)
	}
	*dst = n
	return nil
}

func parseOptionalBool(v url.Values, name string) (*bool, error) {
	raw := v.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &b, nil
}
