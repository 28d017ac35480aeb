// Package model содержит доменные сущности сервиса cookie breaks.
package model

import "time"

// User представляет зарегистрированного пользователя на стороне сервера.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
}

// Session описывает аутентифицированного пользователя на стороне клиента.
type Session struct {
	User  string
	Admin bool
	Token string
}

// Stage описывает этап жизненного цикла перерыва.
type Stage string

const (
	StageUnannounced    Stage = "unannounced"
	StageAnnounced      Stage = "announced"
	StageHostReimbursed Stage = "host_reimbursed"
	StageAdminClaimed   Stage = "admin_claimed"
	StageSuccess        Stage = "success"
)

// Break описывает один перерыв на печенье и отметки этапов его возмещения.
// Отметка этапа равна nil, пока этап не достигнут.
type Break struct {
	ID              int64
	Host            string
	Time            time.Time
	Location        string
	Holiday         bool
	Cost            *float64
	Announced       *time.Time
	HostReimbursed  *time.Time
	AdminClaimed    *time.Time
	AdminReimbursed *time.Time
}

// Stage возвращает последний достигнутый этап жизненного цикла перерыва.
func (b Break) Stage() Stage {
	switch {
	case b.AdminReimbursed != nil:
		return StageSuccess
	case b.AdminClaimed != nil:
		return StageAdminClaimed
	case b.HostReimbursed != nil:
		return StageHostReimbursed
	case b.Announced != nil:
		return StageAnnounced
	default:
		return StageUnannounced
	}
}

// Claim описывает поданную заявку на возмещение расходов за несколько перерывов.
type Claim struct {
	ID         int64
	Date       time.Time
	Breaks     []Break
	Amount     float64
	Reimbursed *time.Time
}

// BreakFilters содержит необязательные фильтры выборки перерывов.
type BreakFilters struct {
	Number          *int
	Past            *bool
	Hosted          *bool
	Holiday         *bool
	HostReimbursed  *bool
	AdminClaimed    *bool
	AdminReimbursed *bool
}

// ClaimFilters содержит необязательные фильтры выборки заявок.
type ClaimFilters struct {
	Reimbursed *bool
}
