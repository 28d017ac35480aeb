package handler

import (
	"time"

	"github.com/mmeshcher/cookiebreaks/internal/model"
)

type breakResponse struct {
	ID              int64      `json:"id"`
	BreakTime       time.Time  `json:"break_time"`
	Location        string     `json:"location"`
	Holiday         bool       `json:"holiday"`
	Host            *string    `json:"host"`
	BreakAnnounced  *time.Time `json:"break_announced"`
	Cost            *float64   `json:"cost"`
	HostReimbursed  *time.Time `json:"host_reimbursed"`
	AdminClaimed    *time.Time `json:"admin_claimed"`
	AdminReimbursed *time.Time `json:"admin_reimbursed"`
}

func toBreakResponse(b model.Break) breakResponse {
	resp := breakResponse{
		ID:              b.ID,
		BreakTime:       b.Time,
		Location:        b.Location,
		Holiday:         b.Holiday,
		BreakAnnounced:  b.Announced,
		Cost:            b.Cost,
		HostReimbursed:  b.HostReimbursed,
		AdminClaimed:    b.AdminClaimed,
		AdminReimbursed: b.AdminReimbursed,
	}
	if b.Host != "" {
		host := b.Host
		resp.Host = &host
	}
	return resp
}

func toBreakResponses(list []model.Break) []breakResponse {
	resp := make([]breakResponse, 0, len(list))
	for _, b := range list {
		resp = append(resp, toBreakResponse(b))
	}
	return resp
}

type claimResponse struct {
	ID              int64           `json:"id"`
	ClaimDate       time.Time       `json:"claim_date"`
	BreaksClaimed   []breakResponse `json:"breaks_claimed"`
	ClaimAmount     float64         `json:"claim_amount"`
	ClaimReimbursed *time.Time      `json:"claim_reimbursed"`
}

func toClaimResponses(claims []model.Claim) []claimResponse {
	resp := make([]claimResponse, 0, len(claims))
	for _, c := range claims {
		resp = append(resp, claimResponse{
			ID:              c.ID,
			ClaimDate:       c.Date,
			BreaksClaimed:   toBreakResponses(c.Breaks),
			ClaimAmount:     c.Amount,
			ClaimReimbursed: c.Reimbursed,
		})
	}
	return resp
}
