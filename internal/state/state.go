// Package state содержит состояние клиента и описания его изменений.
//
// Операции клиента не меняют состояние напрямую: они возвращают значения Change,
// которые применяются к State функцией Reduce или хранилищем Store.
package state

import (
	"maps"

	"github.com/mmeshcher/cookiebreaks/internal/breaks"
	"github.com/mmeshcher/cookiebreaks/internal/model"
)

// State описывает состояние клиента. Срезы и карты в State после публикации не изменяются.
type State struct {
	Session     *model.Session
	Breaks      []model.Break
	Claims      []model.Claim
	Status      string
	Loading     bool
	CardLoading map[int64]bool
}

// LoggedIn сообщает, есть ли активная сессия.
func (s State) LoggedIn() bool {
	return s.Session != nil && s.Session.Token != ""
}

// IsCardLoading сообщает, выполняется ли действие над перерывом с указанным идентификатором.
func (s State) IsCardLoading(breakID int64) bool {
	return s.CardLoading[breakID]
}

// Change описывает одно изменение состояния.
type Change interface {
	apply(State) State
}

// SessionSet устанавливает сессию пользователя.
type SessionSet struct {
	Session model.Session
}

func (c SessionSet) apply(s State) State {
	sess := c.Session
	s.Session = &sess
	return s
}

// SessionCleared сбрасывает сессию и связанные с ней данные.
type SessionCleared struct{}

func (SessionCleared) apply(s State) State {
	s.Session = nil
	s.Breaks = nil
	s.Claims = nil
	return s
}

// BreaksReplaced заменяет список перерывов целиком.
type BreaksReplaced struct {
	Breaks []model.Break
}

func (c BreaksReplaced) apply(s State) State {
	s.Breaks = append([]model.Break(nil), c.Breaks...)
	return s
}

// BreaksMerged заменяет перерывы с совпадающими идентификаторами.
// Слияние выполняется с тем списком, который актуален в момент применения.
type BreaksMerged struct {
	Updates []model.Break
}

func (c BreaksMerged) apply(s State) State {
	s.Breaks = breaks.MergeByID(s.Breaks, c.Updates)
	return s
}

// ClaimsReplaced заменяет список заявок целиком.
type ClaimsReplaced struct {
	Claims []model.Claim
}

func (c ClaimsReplaced) apply(s State) State {
	s.Claims = append([]model.Claim(nil), c.Claims...)
	return s
}

// StatusSet устанавливает сообщение для пользователя. Пустая строка сбрасывает сообщение.
type StatusSet struct {
	Status string
}

func (c StatusSet) apply(s State) State {
	s.Status = c.Status
	return s
}

// LoadingSet устанавливает общий флаг загрузки.
type LoadingSet struct {
	On bool
}

func (c LoadingSet) apply(s State) State {
	s.Loading = c.On
	return s
}

// CardLoadingSet устанавливает флаг загрузки для одного перерыва.
type CardLoadingSet struct {
	BreakID int64
	On      bool
}

func (c CardLoadingSet) apply(s State) State {
	next := maps.Clone(s.CardLoading)
	if next == nil {
		next = make(map[int64]bool)
	}
	if c.On {
		next[c.BreakID] = true
	} else {
		delete(next, c.BreakID)
	}
	s.CardLoading = next
	return s
}

// Reduce применяет изменения к состоянию по порядку и возвращает новое состояние.
func Reduce(s State, changes ...Change) State {
	for _, c := range changes {
		if c == nil {
			continue
		}
		s = c.apply(s)
	}
	return s
}
