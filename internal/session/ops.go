// Package session реализует пользовательские операции клиента cookie breaks.
//
// Функции пакета выполняют запрос и возвращают Outcome с описанием изменений
// состояния; применяет их Manager или вызывающий код.
package session

import (
	"context"
	"errors"

	"github.com/mmeshcher/cookiebreaks/internal/breaks"
	"github.com/mmeshcher/cookiebreaks/internal/client"
	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/mmeshcher/cookiebreaks/internal/state"
	"github.com/mmeshcher/cookiebreaks/internal/validation"
)

// API описывает методы HTTP-клиента, используемые операциями.
type API interface {
	Endpoints() client.Endpoints
	Login(ctx context.Context, username, password string) (*client.LoginResult, error)
	Breaks(ctx context.Context, creds client.Credentials, filters model.BreakFilters) ([]model.Break, error)
	Announce(ctx context.Context, creds client.Credentials, breakID int64) (model.Break, error)
	Reimburse(ctx context.Context, creds client.Credentials, breakID int64, cost float64) (model.Break, error)
	SetHost(ctx context.Context, creds client.Credentials, breakID int64, host string) ([]model.Break, error)
	Me(ctx context.Context, creds client.Credentials) (*client.Me, error)
	Claims(ctx context.Context, creds client.Credentials, filters model.ClaimFilters) ([]model.Claim, error)
	ClaimBreaks(ctx context.Context, creds client.Credentials, breakIDs []int64) ([]model.Claim, error)
	CompleteClaim(ctx context.Context, creds client.Credentials, claimID int64) ([]model.Claim, error)
}

// ErrNotLoggedIn возвращается операциями, требующими сессии, если сессии нет.
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials возвращает возможность аутентификации для сессии или nil, если сессии нет.
func Credentials(sess *model.Session) client.Credentials {
	if sess == nil || sess.Token == "" {
		return nil
	}
	return client.BearerToken(sess.Token)
}

// Login обменивает логин и пароль на токен и получает начальный список перерывов.
func Login(ctx context.Context, api API, username, password string) Outcome {
	if err := validation.Credentials(username, password); err != nil {
		return rejected(err, err.Error())
	}

	res, err := api.Login(ctx, username, password)
	if err != nil {
		return failed(err, StatusLoginFailed)
	}

	list := res.Breaks
	if !res.BreaksIncluded {
		list, err = api.Breaks(ctx, res.Token, model.BreakFilters{})
		if err != nil {
			return failed(err, StatusLoginFailed)
		}
	}

	return succeeded(
		state.SessionSet{Session: model.Session{
			User:  username,
			Admin: res.Admin,
			Token: string(res.Token),
		}},
		state.BreaksReplaced{Breaks: list},
	)
}

// Logout сбрасывает сессию. Запрос к серверу не выполняется.
func Logout() Outcome {
	return succeeded(state.SessionCleared{})
}

// ListBreaks запрашивает полный список перерывов и заменяет им текущий.
func ListBreaks(ctx context.Context, api API, sess *model.Session, filters model.BreakFilters) Outcome {
	list, err := api.Breaks(ctx, Credentials(sess), filters)
	if err != nil {
		return failed(err, StatusListFailed)
	}
	return succeeded(state.BreaksReplaced{Breaks: list})
}

// Announce объявляет перерыв и вливает обновлённую запись в список.
func Announce(ctx context.Context, api API, sess *model.Session, breakID int64) Outcome {
	creds := Credentials(sess)
	if creds == nil {
		return rejected(ErrNotLoggedIn, StatusNotLoggedIn)
	}

	b, err := api.Announce(ctx, creds, breakID)
	if err != nil {
		return transportOrUnsupported(err, StatusAnnounceFailed)
	}
	return succeeded(state.BreaksMerged{Updates: []model.Break{b}})
}

// Reimburse отмечает возмещение ведущему и вливает обновлённую запись в список.
func Reimburse(ctx context.Context, api API, sess *model.Session, breakID int64, cost float64) Outcome {
	creds := Credentials(sess)
	if creds == nil {
		return rejected(ErrNotLoggedIn, StatusNotLoggedIn)
	}
	if err := validation.Cost(cost); err != nil {
		return rejected(err, err.Error())
	}

	b, err := api.Reimburse(ctx, creds, breakID, cost)
	if err != nil {
		return transportOrUnsupported(err, StatusReimburseFailed)
	}
	return succeeded(state.BreaksMerged{Updates: []model.Break{b}})
}

// SetHost назначает ведущего и вливает возвращённые предстоящие перерывы в список.
func SetHost(ctx context.Context, api API, sess *model.Session, breakID int64, host string) Outcome {
	creds := Credentials(sess)
	if creds == nil {
		return rejected(ErrNotLoggedIn, StatusNotLoggedIn)
	}
	if err := validation.Host(host); err != nil {
		return rejected(err, err.Error())
	}

	list, err := api.SetHost(ctx, creds, breakID, host)
	if err != nil {
		return transportOrUnsupported(err, StatusHostFailed)
	}
	return succeeded(state.BreaksMerged{Updates: list})
}

// ListClaims запрашивает заявки на возмещение и заменяет ими текущий список.
func ListClaims(ctx context.Context, api API, sess *model.Session, filters model.ClaimFilters) Outcome {
	creds := Credentials(sess)
	if creds == nil {
		return rejected(ErrNotLoggedIn, StatusNotLoggedIn)
	}

	claims, err := api.Claims(ctx, creds, filters)
	if err != nil {
		return transportOrUnsupported(err, StatusClaimsFailed)
	}
	return succeeded(state.ClaimsReplaced{Claims: claims})
}

// ClaimBreaks подаёт заявку на возмещение за перерывы.
func ClaimBreaks(ctx context.Context, api API, sess *model.Session, breakIDs []int64) Outcome {
	creds := Credentials(sess)
	if creds == nil {
		return rejected(ErrNotLoggedIn, StatusNotLoggedIn)
	}
	if err := validation.BreakIDs(breakIDs); err != nil {
		return rejected(err, err.Error())
	}

	claims, err := api.ClaimBreaks(ctx, creds, breakIDs)
	if err != nil {
		return transportOrUnsupported(err, StatusClaimFailed)
	}
	return claimsChanged(claims)
}

// CompleteClaim отмечает заявку как оплаченную.
func CompleteClaim(ctx context.Context, api API, sess *model.Session, claimID int64) Outcome {
	creds := Credentials(sess)
	if creds == nil {
		return rejected(ErrNotLoggedIn, StatusNotLoggedIn)
	}

	claims, err := api.CompleteClaim(ctx, creds, claimID)
	if err != nil {
		return transportOrUnsupported(err, StatusCompleteFailed)
	}
	return claimsChanged(claims)
}

func claimsChanged(claims []model.Claim) Outcome {
	return succeeded(
		state.ClaimsReplaced{Claims: claims},
		state.BreaksMerged{Updates: breaks.BreaksFromClaims(claims)},
	)
}

func transportOrUnsupported(err error, status string) Outcome {
	if errors.Is(err, client.ErrUnsupported) {
		return rejected(err, StatusUnsupported)
	}
	return failed(err, status)
}
