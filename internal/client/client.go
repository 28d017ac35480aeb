// Package client предоставляет HTTP-клиент для REST API сервиса cookie breaks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/cookiebreaks/internal/breaks"
	"github.com/mmeshcher/cookiebreaks/internal/model"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBodyLen = 512
	requestIDHeader = "X-Request-Id"
)

// Credentials добавляет к запросу данные аутентификации.
type Credentials interface {
	Authorize(req *http.Request)
}

// BearerToken передаёт токен доступа в заголовке Authorization.
type BearerToken string

// Authorize устанавливает заголовок Authorization: Bearer.
func (t BearerToken) Authorize(req *http.Request) {
	if t == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+string(t))
}

// StatusError возвращается, если сервер ответил кодом вне диапазона 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, e.Body)
}

// Client инкапсулирует HTTP-взаимодействие с API cookie breaks.
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
	logger     *zap.Logger
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет используемый http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout задаёт таймаут запросов.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger задаёт логгер клиента.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEndpoints задаёт набор эндпоинтов вместо набора по умолчанию (API v1).
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		c.endpoints = e
	}
}

// NewClient создаёт клиент API по указанному адресу.
func NewClient(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	v1, _ := EndpointsFor(APIv1)

	c := &Client{
		baseURL:   base,
		endpoints: v1,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoints возвращает набор эндпоинтов клиента.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// LoginResult содержит результат обмена логина и пароля на токен.
type LoginResult struct {
	Token  BearerToken
	Admin  bool
	Breaks []model.Break
	// BreaksIncluded равен true, если сервер вернул список перерывов вместе с токеном.
	BreaksIncluded bool
}

type tokenResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	Admin       bool               `json:"admin"`
	Breaks      *[]breaks.RawBreak `json:"breaks,omitempty"`
}

// Login обменивает логин и пароль на токен доступа.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "")
	form.Set("client_id", "")
	form.Set("client_secret", "")

	var resp tokenResponse
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        c.endpoints.Token,
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login: empty access token")
	}

	res := &LoginResult{
		Token: BearerToken(resp.AccessToken),
		Admin: resp.Admin,
	}

	if resp.Breaks != nil {
		list, err := breaks.NormalizeAll(*resp.Breaks)
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		res.Breaks = list
		res.BreaksIncluded = true
	}

	return res, nil
}

// Breaks запрашивает полный список перерывов. creds может быть nil.
func (c *Client) Breaks(ctx context.Context, creds Credentials, filters model.BreakFilters) ([]model.Break, error) {
	var raws []breaks.RawBreak
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.endpoints.Breaks,
		query:  breakFiltersQuery(filters),
		creds:  creds,
	}, &raws)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}

	list, err := breaks.NormalizeAll(raws)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	return list, nil
}

// Announce объявляет перерыв и возвращает его обновлённую версию.
func (c *Client) Announce(ctx context.Context, creds Credentials, breakID int64) (model.Break, error) {
	path, err := c.endpoints.require(c.endpoints.Announce, "announce break")
	if err != nil {
		return model.Break{}, err
	}

	q := url.Values{}
	q.Set("break_id", strconv.FormatInt(breakID, 10))

	return c.postBreak(ctx, "announce break", path, q, creds)
}

// Reimburse отмечает возмещение расходов ведущему и возвращает обновлённый перерыв.
func (c *Client) Reimburse(ctx context.Context, creds Credentials, breakID int64, cost float64) (model.Break, error) {
	path, err := c.endpoints.require(c.endpoints.Reimburse, "reimburse host")
	if err != nil {
		return model.Break{}, err
	}

	q := url.Values{}
	q.Set("break_id", strconv.FormatInt(breakID, 10))
	q.Set("cost", strconv.FormatFloat(cost, 'f', -1, 64))

	return c.postBreak(ctx, "reimburse host", path, q, creds)
}

func (c *Client) postBreak(ctx context.Context, action, path string, q url.Values, creds Credentials) (model.Break, error) {
	var raw breaks.RawBreak
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		query:  q,
		creds:  creds,
	}, &raw)
	if err != nil {
		return model.Break{}, fmt.Errorf("%s: %w", action, err)
	}

	b, err := breaks.Normalize(raw)
	if err != nil {
		return model.Break{}, fmt.Errorf("%s: %w", action, err)
	}
	return b, nil
}

// SetHost назначает ведущего перерыва и возвращает список предстоящих перерывов.
func (c *Client) SetHost(ctx context.Context, creds Credentials, breakID int64, host string) ([]model.Break, error) {
	path, err := c.endpoints.require(c.endpoints.Host, "set host")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("break_id", strconv.FormatInt(breakID, 10))
	q.Set("host_name", host)

	var raws []breaks.RawBreak
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		query:  q,
		creds:  creds,
	}, &raws)
	if err != nil {
		return nil, fmt.Errorf("set host: %w", err)
	}

	list, err := breaks.NormalizeAll(raws)
	if err != nil {
		return nil, fmt.Errorf("set host: %w", err)
	}
	return list, nil
}

// Me описывает текущего пользователя с точки зрения сервера.
type Me struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Me запрашивает данные текущего пользователя.
func (c *Client) Me(ctx context.Context, creds Credentials) (*Me, error) {
	path, err := c.endpoints.require(c.endpoints.Me, "current user")
	if err != nil {
		return nil, err
	}

	var me Me
	if err := c.do(ctx, request{method: http.MethodGet, path: path, creds: creds}, &me); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &me, nil
}

// Claims запрашивает список заявок на возмещение.
func (c *Client) Claims(ctx context.Context, creds Credentials, filters model.ClaimFilters) ([]model.Claim, error) {
	path, err := c.endpoints.require(c.endpoints.Claims, "list claims")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if filters.Reimbursed != nil {
		q.Set("reimbursed", strconv.FormatBool(*filters.Reimbursed))
	}

	return c.claimsRequest(ctx, "list claims", request{
		method: http.MethodGet,
		path:   path,
		query:  q,
		creds:  creds,
	})
}

// ClaimBreaks подаёт заявку на возмещение за указанные перерывы и возвращает все заявки.
func (c *Client) ClaimBreaks(ctx context.Context, creds Credentials, breakIDs []int64) ([]model.Claim, error) {
	path, err := c.endpoints.require(c.endpoints.Claim, "claim breaks")
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(breakIDs)
	if err != nil {
		return nil, fmt.Errorf("claim breaks: encode body: %w", err)
	}

	return c.claimsRequest(ctx, "claim breaks", request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(body),
		contentType: "application/json",
		creds:       creds,
	})
}

// CompleteClaim отмечает заявку как оплаченную и возвращает все заявки.
func (c *Client) CompleteClaim(ctx context.Context, creds Credentials, claimID int64) ([]model.Claim, error) {
	path, err := c.endpoints.require(c.endpoints.ClaimSuccess, "complete claim")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("claim_id", strconv.FormatInt(claimID, 10))

	return c.claimsRequest(ctx, "complete claim", request{
		method: http.MethodPost,
		path:   path,
		query:  q,
		creds:  creds,
	})
}

func (c *Client) claimsRequest(ctx context.Context, action string, req request) ([]model.Claim, error) {
	var raws []breaks.RawClaim
	if err := c.do(ctx, req, &raws); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	claims, err := breaks.NormalizeClaims(raws)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return claims, nil
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	creds       Credentials
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("client not configured")
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	if r.creds != nil {
		r.creds.Authorize(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func breakFiltersQuery(f model.BreakFilters) url.Values {
	q := url.Values{}
	if f.Number != nil {
		q.Set("number", strconv.Itoa(*f.Number))
	}

	bools := []struct {
		key string
		val *bool
	}{
		{"past", f.Past},
		{"hosted", f.Hosted},
		{"holiday", f.Holiday},
		{"host_reimbursed", f.HostReimbursed},
		{"admin_claimed", f.AdminClaimed},
		{"admin_reimbursed", f.AdminReimbursed},
	}
	for _, b := range bools {
		if b.val != nil {
			q.Set(b.key, strconv.FormatBool(*b.val))
		}
	}

	return q
}
