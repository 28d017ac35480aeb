package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/mmeshcher/cookiebreaks/internal/auth"
	"github.com/mmeshcher/cookiebreaks/internal/model"
	"github.com/mmeshcher/cookiebreaks/internal/repository"
)

type stubRepo struct {
	mu sync.Mutex

	createUserErr error
	createdAdmin  bool

	getUser    *model.User
	getUserErr error

	breaks      []model.Break
	listFilters model.BreakFilters

	setHostErr error

	reimbursedCents int64

	inserted []repository.NewBreak

	claimErr    error
	claimedIDs  []int64
	completeErr error
	claims      []model.Claim
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, username, passwordHash string, admin bool) (int64, error) {
	s.createdAdmin = admin
	return 1, s.createUserErr
}

func (s *stubRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser, s.getUserErr
}

func (s *stubRepo) ListBreaks(ctx context.Context, filters model.BreakFilters, now time.Time) ([]model.Break, error) {
	s.listFilters = filters
	return s.breaks, nil
}

func (s *stubRepo) AnnounceBreak(ctx context.Context, id int64, at time.Time) (model.Break, error) {
	return model.Break{ID: id, Announced: &at}, nil
}

func (s *stubRepo) ReimburseHost(ctx context.Context, id int64, costCents int64, at time.Time) (model.Break, error) {
	s.reimbursedCents = costCents
	cost := repository.FromCents(costCents)
	return model.Break{ID: id, Cost: &cost, HostReimbursed: &at}, nil
}

func (s *stubRepo) SetHost(ctx context.Context, id int64, host string) error {
	return s.setHostErr
}

func (s *stubRepo) InsertBreaks(ctx context.Context, breaks []repository.NewBreak) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, breaks...)
	return int64(len(breaks)), nil
}

func (s *stubRepo) insertedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func (s *stubRepo) ClaimForBreaks(ctx context.Context, breakIDs []int64, at time.Time) (int64, error) {
	s.claimedIDs = breakIDs
	return 1, s.claimErr
}

func (s *stubRepo) ClaimReimbursed(ctx context.Context, claimID int64, at time.Time) error {
	return s.completeErr
}

func (s *stubRepo) ListClaims(ctx context.Context, filters model.ClaimFilters) ([]model.Claim, error) {
	return s.claims, nil
}

func testSchedule() Schedule {
	return Schedule{
		Weekday:    time.Thursday,
		Hour:       15,
		Location:   time.UTC,
		Place:      "Common room",
		WeeksAhead: 2,
	}
}

func TestEnsureAdmin_IgnoresExisting(t *testing.T) {
	repo := &stubRepo{createUserErr: repository.ErrUserExists}
	svc := NewService(repo, testSchedule(), nil)

	if err := svc.EnsureAdmin(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("EnsureAdmin error: %v", err)
	}
	if !repo.createdAdmin {
		t.Fatalf("admin flag not passed to repository")
	}
}

func TestEnsureAdmin_RequiresPassword(t *testing.T) {
	svc := NewService(&stubRepo{}, testSchedule(), nil)

	if err := svc.EnsureAdmin(context.Background(), "admin", ""); err == nil {
		t.Fatalf("expected error for empty admin password")
	}
}

func TestAuthenticateUser_InvalidCredentials(t *testing.T) {
	hash, err := auth.HashPassword("correct")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{
		getUser: &model.User{ID: 1, Username: "user", PasswordHash: hash},
	}
	svc := NewService(repo, testSchedule(), nil)

	if _, err := svc.AuthenticateUser(context.Background(), "user", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	u, err := svc.AuthenticateUser(context.Background(), "user", "correct")
	if err != nil {
		t.Fatalf("AuthenticateUser error: %v", err)
	}
	if u.Username != "user" {
		t.Fatalf("username = %q, want user", u.Username)
	}
}

func TestAuthenticateUser_UnknownUser(t *testing.T) {
	repo := &stubRepo{getUserErr: repository.ErrUserNotFound}
	svc := NewService(repo, testSchedule(), nil)

	if _, err := svc.AuthenticateUser(context.Background(), "ghost", "pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestBreaks_MasksForNonAdmins(t *testing.T) {
	at := time.Now()
	cost := 12.5
	repo := &stubRepo{
		breaks: []model.Break{{ID: 1, Host: "alice", Cost: &cost, Announced: &at, HostReimbursed: &at}},
	}
	svc := NewService(repo, testSchedule(), nil)

	res, err := svc.Breaks(context.Background(), model.BreakFilters{}, false)
	if err != nil {
		t.Fatalf("Breaks error: %v", err)
	}
	if res[0].Cost != nil || res[0].Announced != nil || res[0].HostReimbursed != nil {
		t.Fatalf("break not masked: %+v", res[0])
	}
	if res[0].Host != "alice" {
		t.Fatalf("host should stay visible, got %q", res[0].Host)
	}
	if repo.breaks[0].Cost == nil {
		t.Fatalf("masking modified repository data")
	}

	res, err = svc.Breaks(context.Background(), model.BreakFilters{}, true)
	if err != nil {
		t.Fatalf("Breaks error: %v", err)
	}
	if res[0].Cost == nil || *res[0].Cost != 12.5 {
		t.Fatalf("admin should see cost, got %+v", res[0])
	}
}

func TestReimburse_Validation(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, testSchedule(), nil)

	if _, err := svc.Reimburse(context.Background(), 1, -1); !errors.Is(err, ErrNegativeCost) {
		t.Fatalf("expected ErrNegativeCost, got %v", err)
	}
	for _, cost := range []float64{math.NaN(), math.Inf(1), 1e300} {
		if _, err := svc.Reimburse(context.Background(), 1, cost); !errors.Is(err, ErrInvalidCost) {
			t.Fatalf("Reimburse(%v): expected ErrInvalidCost, got %v", cost, err)
		}
	}
	if repo.reimbursedCents != 0 {
		t.Fatalf("repository called with invalid cost: %d", repo.reimbursedCents)
	}

	b, err := svc.Reimburse(context.Background(), 1, 19.99)
	if err != nil {
		t.Fatalf("Reimburse error: %v", err)
	}
	if repo.reimbursedCents != 1999 {
		t.Fatalf("cents = %d, want 1999", repo.reimbursedCents)
	}
	if b.HostReimbursed == nil {
		t.Fatalf("host reimbursed not set")
	}
}

func TestSetHost_ReturnsUpcoming(t *testing.T) {
	repo := &stubRepo{breaks: []model.Break{{ID: 3}}}
	svc := NewService(repo, testSchedule(), nil)

	if _, err := svc.SetHost(context.Background(), 3, "", false); !errors.Is(err, ErrEmptyHost) {
		t.Fatalf("expected ErrEmptyHost, got %v", err)
	}

	res, err := svc.SetHost(context.Background(), 3, "bob", false)
	if err != nil {
		t.Fatalf("SetHost error: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("unexpected breaks: %+v", res)
	}
	if repo.listFilters.Past == nil || *repo.listFilters.Past {
		t.Fatalf("SetHost must list upcoming breaks, filters = %+v", repo.listFilters)
	}
}

func TestSetHost_PropagatesNotFound(t *testing.T) {
	repo := &stubRepo{setHostErr: repository.ErrBreakNotFound}
	svc := NewService(repo, testSchedule(), nil)

	if _, err := svc.SetHost(context.Background(), 99, "bob", false); !errors.Is(err, repository.ErrBreakNotFound) {
		t.Fatalf("expected ErrBreakNotFound, got %v", err)
	}
}

func TestClaim_ReturnsAllClaims(t *testing.T) {
	repo := &stubRepo{claims: []model.Claim{{ID: 1, Amount: 10}}}
	svc := NewService(repo, testSchedule(), nil)

	res, err := svc.Claim(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if len(res) != 1 || len(repo.claimedIDs) != 2 {
		t.Fatalf("unexpected claim result %+v, ids %v", res, repo.claimedIDs)
	}

	repo.claimErr = repository.ErrNothingToClaim
	if _, err := svc.Claim(context.Background(), []int64{5}); !errors.Is(err, repository.ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
}

func TestCompleteClaim_PropagatesNotFound(t *testing.T) {
	repo := &stubRepo{completeErr: repository.ErrClaimNotFound}
	svc := NewService(repo, testSchedule(), nil)

	if _, err := svc.CompleteClaim(context.Background(), 9); !errors.Is(err, repository.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestAddUpcomingBreaks(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, testSchedule(), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC) }

	n, err := svc.AddUpcomingBreaks(context.Background(), 2)
	if err != nil {
		t.Fatalf("AddUpcomingBreaks error: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	want := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	if !repo.inserted[0].Time.Equal(want) {
		t.Fatalf("first break = %v, want %v", repo.inserted[0].Time, want)
	}
	if repo.inserted[0].Location != "Common room" {
		t.Fatalf("location = %q", repo.inserted[0].Location)
	}
}

func TestRunBreakScheduler_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, testSchedule(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		svc.RunBreakScheduler(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(time.Second)
	for repo.insertedCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("scheduler did not run")
		case <-done:
			t.Fatalf("scheduler returned before cancel")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop after cancel")
	}
}

func TestRunBreakScheduler_Disabled(t *testing.T) {
	repo := &stubRepo{}
	schedule := testSchedule()
	schedule.WeeksAhead = 0
	svc := NewService(repo, schedule, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	svc.RunBreakScheduler(ctx, time.Millisecond)
	if ctx.Err() != nil {
		t.Fatalf("disabled scheduler blocked until timeout")
	}

	if repo.insertedCount() != 0 {
		t.Fatalf("disabled scheduler inserted breaks")
	}
}
