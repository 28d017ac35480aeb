package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/cookiebreaks/internal/client"
	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/mmeshcher/cookiebreaks/internal/state"
	"github.com/mmeshcher/cookiebreaks/internal/validation"
)

// Manager выполняет операции и применяет их результаты к хранилищу состояния.
// Флаги загрузки устанавливаются перед запросом и сбрасываются после него при любом исходе.
type Manager struct {
	api    API
	store  *state.Store
	logger *zap.Logger
}

// NewManager создаёт Manager. logger может быть nil.
func NewManager(api API, store *state.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:    api,
		store:  store,
		logger: logger,
	}
}

// State возвращает текущее состояние клиента.
func (m *Manager) State() state.State {
	return m.store.Snapshot()
}

func (m *Manager) run(ctx context.Context, op string, start, finish state.Change, fn func(context.Context, state.State) Outcome) Outcome {
	m.store.Dispatch(start)
	defer m.store.Dispatch(finish)

	out := fn(ctx, m.store.Snapshot())
	m.store.Dispatch(out.Changes...)

	if !out.OK() {
		m.logger.Warn("operation failed",
			zap.String("op", op),
			zap.Stringer("kind", out.Kind),
			zap.Error(out.Err),
		)
	}
	return out
}

func (m *Manager) page(ctx context.Context, op string, fn func(context.Context, state.State) Outcome) Outcome {
	return m.run(ctx, op, state.LoadingSet{On: true}, state.LoadingSet{On: false}, fn)
}

func (m *Manager) card(ctx context.Context, op string, breakID int64, fn func(context.Context, state.State) Outcome) Outcome {
	return m.run(ctx, op,
		state.CardLoadingSet{BreakID: breakID, On: true},
		state.CardLoadingSet{BreakID: breakID, On: false},
		fn,
	)
}

// Login выполняет вход. Ошибки валидации не включают флаг загрузки и не отправляют запрос.
func (m *Manager) Login(ctx context.Context, username, password string) Outcome {
	if err := validation.Credentials(username, password); err != nil {
		out := rejected(err, err.Error())
		m.store.Dispatch(out.Changes...)
		return out
	}

	return m.page(ctx, "login", func(ctx context.Context, _ state.State) Outcome {
		return Login(ctx, m.api, username, password)
	})
}

// Logout сбрасывает сессию.
func (m *Manager) Logout() Outcome {
	out := Logout()
	m.store.Dispatch(out.Changes...)
	return out
}

// ListBreaks заменяет список перерывов актуальным.
func (m *Manager) ListBreaks(ctx context.Context, filters model.BreakFilters) Outcome {
	return m.page(ctx, "list breaks", func(ctx context.Context, st state.State) Outcome {
		return ListBreaks(ctx, m.api, st.Session, filters)
	})
}

// Announce объявляет перерыв.
func (m *Manager) Announce(ctx context.Context, breakID int64) Outcome {
	return m.card(ctx, "announce", breakID, func(ctx context.Context, st state.State) Outcome {
		return Announce(ctx, m.api, st.Session, breakID)
	})
}

// Reimburse отмечает возмещение ведущему.
func (m *Manager) Reimburse(ctx context.Context, breakID int64, cost float64) Outcome {
	return m.card(ctx, "reimburse", breakID, func(ctx context.Context, st state.State) Outcome {
		return Reimburse(ctx, m.api, st.Session, breakID, cost)
	})
}

// SetHost назначает ведущего перерыва.
func (m *Manager) SetHost(ctx context.Context, breakID int64, host string) Outcome {
	return m.card(ctx, "set host", breakID, func(ctx context.Context, st state.State) Outcome {
		return SetHost(ctx, m.api, st.Session, breakID, host)
	})
}

// ListClaims заменяет список заявок актуальным.
func (m *Manager) ListClaims(ctx context.Context, filters model.ClaimFilters) Outcome {
	return m.page(ctx, "list claims", func(ctx context.Context, st state.State) Outcome {
		return ListClaims(ctx, m.api, st.Session, filters)
	})
}

// ClaimBreaks подаёт заявку на возмещение.
func (m *Manager) ClaimBreaks(ctx context.Context, breakIDs []int64) Outcome {
	return m.page(ctx, "claim breaks", func(ctx context.Context, st state.State) Outcome {
		return ClaimBreaks(ctx, m.api, st.Session, breakIDs)
	})
}

// CompleteClaim отмечает заявку как оплаченную.
func (m *Manager) CompleteClaim(ctx context.Context, claimID int64) Outcome {
	return m.page(ctx, "complete claim", func(ctx context.Context, st state.State) Outcome {
		return CompleteClaim(ctx, m.api, st.Session, claimID)
	})
}

// Me возвращает данные текущего пользователя с точки зрения сервера.
func (m *Manager) Me(ctx context.Context) (*client.Me, error) {
	creds := Credentials(m.store.Snapshot().Session)
	if creds == nil {
		return nil, ErrNotLoggedIn
	}
	return m.api.Me(ctx, creds)
}
