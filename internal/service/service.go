// Package service реализует бизнес-логику сервера cookie breaks.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/cookiebreaks/internal/auth"
	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/mmeshcher/cookiebreaks/internal/repository"
	"github.com/mmeshcher/cookiebreaks/internal/validation"
)

var (
	// ErrInvalidCredentials возвращается при неверном имени пользователя или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNegativeCost возвращается при попытке сохранить отрицательную стоимость перерыва.
	ErrNegativeCost = errors.New("cost cannot be negative")
	// ErrInvalidCost возвращается для нечисловой или слишком большой стоимости.
	ErrInvalidCost = errors.New("cost is not a valid amount")
	// ErrEmptyHost возвращается при попытке назначить пустое имя ведущего.
	ErrEmptyHost = errors.New("host cannot be empty")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, username, passwordHash string, admin bool) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListBreaks(ctx context.Context, filters model.BreakFilters, now time.Time) ([]model.Break, error)
	AnnounceBreak(ctx context.Context, id int64, at time.Time) (model.Break, error)
	ReimburseHost(ctx context.Context, id int64, costCents int64, at time.Time) (model.Break, error)
	SetHost(ctx context.Context, id int64, host string) error
	InsertBreaks(ctx context.Context, breaks []repository.NewBreak) (int64, error)
	ClaimForBreaks(ctx context.Context, breakIDs []int64, at time.Time) (int64, error)
	ClaimReimbursed(ctx context.Context, claimID int64, at time.Time) error
	ListClaims(ctx context.Context, filters model.ClaimFilters) ([]model.Claim, error)
}

// Service содержит бизнес-логику сервера cookie breaks.
type Service struct {
	repo     Repository
	schedule Schedule
	logger   *zap.Logger
	now      func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием и расписанием перерывов.
func NewService(repo Repository, schedule Schedule, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// EnsureAdmin создаёт администратора, если его ещё нет. Пустое имя пропускается.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	if password == "" {
		return fmt.Errorf("admin %q has no password", username)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.repo.CreateUser(ctx, username, hash, true)
	if err != nil && !errors.Is(err, repository.ErrUserExists) {
		return err
	}
	return nil
}

// AuthenticateUser проверяет имя и пароль пользователя и возвращает его.
func (s *Service) AuthenticateUser(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Breaks возвращает перерывы по фильтрам. Для не-администраторов стоимость и отметки этапов скрыты.
func (s *Service) Breaks(ctx context.Context, filters model.BreakFilters, admin bool) ([]model.Break, error) {
	breaks, err := s.repo.ListBreaks(ctx, filters, s.now())
	if err != nil {
		return nil, err
	}
	return MaskBreaks(breaks, admin), nil
}

// Announce отмечает перерыв объявленным.
func (s *Service) Announce(ctx context.Context, breakID int64) (model.Break, error) {
	return s.repo.AnnounceBreak(ctx, breakID, s.now())
}

// Reimburse сохраняет стоимость перерыва и отмечает возмещение ведущему.
func (s *Service) Reimburse(ctx context.Context, breakID int64, cost float64) (model.Break, error) {
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost > validation.MaxCost {
		return model.Break{}, ErrInvalidCost
	}
	if cost < 0 {
		return model.Break{}, ErrNegativeCost
	}
	return s.repo.ReimburseHost(ctx, breakID, repository.ToCents(cost), s.now())
}

// SetHost назначает ведущего и возвращает список предстоящих перерывов.
func (s *Service) SetHost(ctx context.Context, breakID int64, host string, admin bool) ([]model.Break, error) {
	if host == "" {
		return nil, ErrEmptyHost
	}
	if err := s.repo.SetHost(ctx, breakID, host); err != nil {
		return nil, err
	}

	upcoming := false
	return s.Breaks(ctx, model.BreakFilters{Past: &upcoming}, admin)
}

// Claims возвращает заявки на возмещение.
func (s *Service) Claims(ctx context.Context, filters model.ClaimFilters) ([]model.Claim, error) {
	return s.repo.ListClaims(ctx, filters)
}

// Claim создаёт заявку по указанным перерывам и возвращает все заявки.
func (s *Service) Claim(ctx context.Context, breakIDs []int64) ([]model.Claim, error) {
	if _, err := s.repo.ClaimForBreaks(ctx, breakIDs, s.now()); err != nil {
		return nil, err
	}
	return s.repo.ListClaims(ctx, model.ClaimFilters{})
}

// CompleteClaim отмечает заявку возмещённой и возвращает все заявки.
func (s *Service) CompleteClaim(ctx context.Context, claimID int64) ([]model.Claim, error) {
	if err := s.repo.ClaimReimbursed(ctx, claimID, s.now()); err != nil {
		return nil, err
	}
	return s.repo.ListClaims(ctx, model.ClaimFilters{})
}

// AddUpcomingBreaks добавляет в расписание недостающие перерывы на ближайшие weeks недель.
func (s *Service) AddUpcomingBreaks(ctx context.Context, weeks int) (int64, error) {
	times := s.schedule.Upcoming(s.now(), weeks)

	breaks := make([]repository.NewBreak, 0, len(times))
	for _, t := range times {
		breaks = append(breaks, repository.NewBreak{
			Time:     t,
			Location: s.schedule.Place,
		})
	}

	return s.repo.InsertBreaks(ctx, breaks)
}

// RunBreakScheduler пополняет расписание перерывов до отмены ctx.
// Первый проход выполняется сразу. Если расписание отключено, возвращается немедленно.
func (s *Service) RunBreakScheduler(ctx context.Context, interval time.Duration) {
	if s.schedule.WeeksAhead <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.fillSchedule(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) fillSchedule(ctx context.Context) {
	n, err := s.AddUpcomingBreaks(ctx, s.schedule.WeeksAhead)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("failed to add upcoming breaks", zap.Error(err))
		}
		return
	}
	if n > 0 {
		s.logger.Info("added upcoming breaks", zap.Int64("count", n))
	}
}

// MaskBreaks скрывает стоимость и отметки этапов, если пользователь не администратор.
func MaskBreaks(breaks []model.Break, admin bool) []model.Break {
	if admin {
		return breaks
	}
	res := make([]model.Break, len(breaks))
	for i, b := range breaks {
		res[i] = MaskBreak(b, false)
	}
	return res
}

// MaskBreak скрывает стоимость и отметки этапов перерыва, если пользователь не администратор.
func MaskBreak(b model.Break, admin bool) model.Break {
	if admin {
		return b
	}
	b.Cost = nil
	b.Announced = nil
	b.HostReimbursed = nil
	b.AdminClaimed = nil
	b.AdminReimbursed = nil
	return b
}
