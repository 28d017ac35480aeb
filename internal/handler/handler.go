// Package handler содержит HTTP-обработчики API сервера cookie breaks.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mmeshcher/cookiebreaks/internal/middleware"
	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/mmeshcher/cookiebreaks/internal/repository"
	"github.com/mmeshcher/cookiebreaks/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	AuthenticateUser(ctx context.Context, username, password string) (*model.User, error)
	Breaks(ctx context.Context, filters model.BreakFilters, admin bool) ([]model.Break, error)
	Announce(ctx context.Context, breakID int64) (model.Break, error)
	Reimburse(ctx context.Context, breakID int64, cost float64) (model.Break, error)
	SetHost(ctx context.Context, breakID int64, host string, admin bool) ([]model.Break, error)
	Claims(ctx context.Context, filters model.ClaimFilters) ([]model.Claim, error)
	Claim(ctx context.Context, breakIDs []int64) ([]model.Claim, error)
	CompleteClaim(ctx context.Context, claimID int64) ([]model.Claim, error)
	AddUpcomingBreaks(ctx context.Context, weeks int) (int64, error)
}

// TokenIssuer выпускает токены доступа.
type TokenIssuer interface {
	Issue(username string, admin bool) (string, time.Time, error)
}

// Handler реализует HTTP-обработчики API сервера cookie breaks.
type Handler struct {
	service        Service
	tokens         TokenIssuer
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	registry       *prometheus.Registry
	metrics        *middleware.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// Если registry равен nil, метрики не собираются.
func NewHandler(s Service, tokens TokenIssuer, logger *zap.Logger, auth *middleware.AuthMiddleware, registry *prometheus.Registry) *Handler {
	h := &Handler{
		service:        s,
		tokens:         tokens,
		logger:         logger,
		authMiddleware: auth,
		registry:       registry,
	}
	if registry != nil {
		h.metrics = middleware.NewMetrics(registry)
	}
	return h
}

type tokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	Admin       bool             `json:"admin"`
	Breaks      *[]breakResponse `json:"breaks,omitempty"`
}

// LoginV1 выдаёт токен, сохраняет его в cookie и возвращает перерывы с учётом прав пользователя.
func (h *Handler) LoginV1(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

// LoginV2 выдаёт токен без списка перерывов.
func (h *Handler) LoginV2(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, withBreaks bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var filters model.BreakFilters
	if withBreaks {
		f, err := parseBreakFilters(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filters = f
	}

	user, err := h.service.AuthenticateUser(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Incorrect username or password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.Username, user.Admin)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err), zap.String("username", user.Username))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Admin:       user.Admin,
	}

	if withBreaks {
		list, err := h.service.Breaks(r.Context(), filters, user.Admin)
		if err != nil {
			h.logger.Error("list breaks on login error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		breaks := toBreakResponses(list)
		resp.Breaks = &breaks

		h.authMiddleware.SetAuthCookie(w, token, expiresAt)
	}

	writeJSON(w, http.StatusOK, resp)
}

type meResponse struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Me возвращает данные текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{Username: claims.Username(), Admin: claims.Admin})
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	return ok && claims.Admin
}

// GetBreaks возвращает список перерывов по фильтрам из строки запроса.
func (h *Handler) GetBreaks(w http.ResponseWriter, r *http.Request) {
	filters, err := parseBreakFilters(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.service.Breaks(r.Context(), filters, isAdmin(r))
	if err != nil {
		h.logger.Error("get breaks error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toBreakResponses(list))
}

// Announce отмечает перерыв объявленным.
func (h *Handler) Announce(w http.ResponseWriter, r *http.Request) {
	var q breakQuery
	if err := parseQuery(r.URL.Query(), &q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.service.Announce(r.Context(), q.BreakID)
	if err != nil {
		h.breakError(w, "announce break error", q.BreakID, err)
		return
	}

	writeJSON(w, http.StatusOK, toBreakResponse(b))
}

// Reimburse сохраняет стоимость перерыва и отмечает возмещение ведущему.
func (h *Handler) Reimburse(w http.ResponseWriter, r *http.Request) {
	var q reimburseQuery
	if err := parseQuery(r.URL.Query(), &q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.service.Reimburse(r.Context(), q.BreakID, q.Cost)
	if err != nil {
		h.breakError(w, "reimburse host error", q.BreakID, err)
		return
	}

	writeJSON(w, http.StatusOK, toBreakResponse(b))
}

// SetHost назначает ведущего перерыва и возвращает предстоящие перерывы.
func (h *Handler) SetHost(w http.ResponseWriter, r *http.Request) {
	var q hostQuery
	if err := parseQuery(r.URL.Query(), &q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.service.SetHost(r.Context(), q.BreakID, q.HostName, isAdmin(r))
	if err != nil {
		h.breakError(w, "set host error", q.BreakID, err)
		return
	}

	writeJSON(w, http.StatusOK, toBreakResponses(list))
}

// AddTestBreaks добавляет в расписание перерывы на ближайшие num недель.
func (h *Handler) AddTestBreaks(w http.ResponseWriter, r *http.Request) {
	var q testQuery
	if err := parseQuery(r.URL.Query(), &q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.service.AddUpcomingBreaks(r.Context(), q.Num); err != nil {
		h.logger.Error("add upcoming breaks error", zap.Error(err), zap.Int("num", q.Num))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	notReimbursed := false
	list, err := h.service.Breaks(r.Context(), model.BreakFilters{HostReimbursed: &notReimbursed}, true)
	if err != nil {
		h.logger.Error("get breaks error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toBreakResponses(list))
}

func (h *Handler) breakError(w http.ResponseWriter, msg string, breakID int64, err error) {
	switch {
	case errors.Is(err, repository.ErrBreakNotFound):
		http.Error(w, "Break does not exist", http.StatusNotFound)
	case errors.Is(err, service.ErrNegativeCost), errors.Is(err, service.ErrInvalidCost),
		errors.Is(err, service.ErrEmptyHost):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(msg, zap.Error(err), zap.Int64("breakID", breakID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// GetClaims возвращает заявки на возмещение.
func (h *Handler) GetClaims(w http.ResponseWriter, r *http.Request) {
	filters, err := parseClaimFilters(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	claims, err := h.service.Claims(r.Context(), filters)
	if err != nil {
		h.logger.Error("get claims error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toClaimResponses(claims))
}

// Claim создаёт заявку на возмещение по списку идентификаторов перерывов из тела запроса.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var ids []int64
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil || len(ids) == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	claims, err := h.service.Claim(r.Context(), ids)
	if err != nil {
		if errors.Is(err, repository.ErrNothingToClaim) {
			http.Error(w, "No reimbursed unclaimed breaks", http.StatusConflict)
			return
		}
		h.logger.Error("claim breaks error", zap.Error(err), zap.Int64s("breakIDs", ids))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toClaimResponses(claims))
}

// CompleteClaim отмечает заявку возмещённой.
func (h *Handler) CompleteClaim(w http.ResponseWriter, r *http.Request) {
	var q claimQuery
	if err := parseQuery(r.URL.Query(), &q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	claims, err := h.service.CompleteClaim(r.Context(), q.ClaimID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			http.Error(w, "Claim does not exist", http.StatusNotFound)
			return
		}
		h.logger.Error("complete claim error", zap.Error(err), zap.Int64("claimID", q.ClaimID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toClaimResponses(claims))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
