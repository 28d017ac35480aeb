// Package breaks содержит общую логику клиента: нормализацию ответов API
// и слияние списков перерывов по идентификатору.
package breaks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/cookiebreaks/internal/model"
)

// ErrInvalidDate возвращается, если непустая строка даты не разбирается ни одним из поддерживаемых форматов.
var ErrInvalidDate = errors.New("invalid date")

// RawBreak описывает перерыв в том виде, в котором его возвращает API.
type RawBreak struct {
	ID              int64    `json:"id"`
	Host            *string  `json:"host"`
	BreakTime       string   `json:"break_time"`
	Location        string   `json:"location"`
	Holiday         bool     `json:"holiday"`
	Cost            *float64 `json:"cost"`
	BreakAnnounced  *string  `json:"break_announced,omitempty"`
	HostReimbursed  *string  `json:"host_reimbursed,omitempty"`
	AdminClaimed    *string  `json:"admin_claimed,omitempty"`
	AdminReimbursed *string  `json:"admin_reimbursed,omitempty"`
}

// RawClaim описывает заявку на возмещение в том виде, в котором её возвращает API.
type RawClaim struct {
	ID              int64      `json:"id"`
	ClaimDate       string     `json:"claim_date"`
	BreaksClaimed   []RawBreak `json:"breaks_claimed"`
	ClaimAmount     float64    `json:"claim_amount"`
	ClaimReimbursed *string    `json:"claim_reimbursed,omitempty"`
}

// Бэкенд на Python отдаёт «наивные» даты без смещения, их считаем UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime разбирает обязательную дату.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseOptionalTime разбирает необязательную дату: nil и пустая строка означают «не задано».
func ParseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}

	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Normalize преобразует сырой ответ API в model.Break.
func Normalize(raw RawBreak) (model.Break, error) {
	breakTime, err := ParseTime(raw.BreakTime)
	if err != nil {
		return model.Break{}, fmt.Errorf("break %d: break_time: %w", raw.ID, err)
	}

	b := model.Break{
		ID:       raw.ID,
		Time:     breakTime,
		Location: raw.Location,
		Holiday:  raw.Holiday,
	}

	if raw.Host != nil {
		b.Host = *raw.Host
	}
	if raw.Cost != nil {
		cost := *raw.Cost
		b.Cost = &cost
	}

	milestones := []struct {
		name string
		src  *string
		dst  **time.Time
	}{
		{"break_announced", raw.BreakAnnounced, &b.Announced},
		{"host_reimbursed", raw.HostReimbursed, &b.HostReimbursed},
		{"admin_claimed", raw.AdminClaimed, &b.AdminClaimed},
		{"admin_reimbursed", raw.AdminReimbursed, &b.AdminReimbursed},
	}

	for _, m := range milestones {
		t, err := ParseOptionalTime(m.src)
		if err != nil {
			return model.Break{}, fmt.Errorf("break %d: %s: %w", raw.ID, m.name, err)
		}
		*m.dst = t
	}

	return b, nil
}

// NormalizeAll нормализует список перерывов, останавливаясь на первой ошибке.
func NormalizeAll(raws []RawBreak) ([]model.Break, error) {
	res := make([]model.Break, 0, len(raws))
	for _, raw := range raws {
		b, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, nil
}

// NormalizeClaim преобразует сырую заявку API в model.Claim.
func NormalizeClaim(raw RawClaim) (model.Claim, error) {
	date, err := ParseTime(raw.ClaimDate)
	if err != nil {
		return model.Claim{}, fmt.Errorf("claim %d: claim_date: %w", raw.ID, err)
	}

	reimbursed, err := ParseOptionalTime(raw.ClaimReimbursed)
	if err != nil {
		return model.Claim{}, fmt.Errorf("claim %d: claim_reimbursed: %w", raw.ID, err)
	}

	claimed, err := NormalizeAll(raw.BreaksClaimed)
	if err != nil {
		return model.Claim{}, fmt.Errorf("claim %d: %w", raw.ID, err)
	}

	return model.Claim{
		ID:         raw.ID,
		Date:       date,
		Breaks:     claimed,
		Amount:     raw.ClaimAmount,
		Reimbursed: reimbursed,
	}, nil
}

// NormalizeClaims нормализует список заявок.
func NormalizeClaims(raws []RawClaim) ([]model.Claim, error) {
	res := make([]model.Claim, 0, len(raws))
	for _, raw := range raws {
		c, err := NormalizeClaim(raw)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}
