package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/cookiebreaks/internal/model"
)

func TestReduce_Session(t *testing.T) {
	s := Reduce(State{}, SessionSet{Session: model.Session{User: "alice", Admin: true, Token: "t"}})
	require.True(t, s.LoggedIn())
	assert.Equal(t, "alice", s.Session.User)

	s = Reduce(s,
		BreaksReplaced{Breaks: []model.Break{{ID: 1}}},
		ClaimsReplaced{Claims: []model.Claim{{ID: 2}}},
		SessionCleared{},
	)
	assert.False(t, s.LoggedIn())
	assert.Nil(t, s.Breaks)
	assert.Nil(t, s.Claims)
}

func TestReduce_BreaksMergedUsesCurrentList(t *testing.T) {
	s := Reduce(State{},
		BreaksReplaced{Breaks: []model.Break{{ID: 1, Host: "a"}, {ID: 2, Host: "b"}}},
		BreaksMerged{Updates: []model.Break{{ID: 2, Host: "B"}}},
	)

	assert.Equal(t, []model.Break{{ID: 1, Host: "a"}, {ID: 2, Host: "B"}}, s.Breaks)
}

func TestReduce_DoesNotShareSlices(t *testing.T) {
	src := []model.Break{{ID: 1, Host: "a"}}
	s := Reduce(State{}, BreaksReplaced{Breaks: src})

	src[0].Host = "mutated"
	assert.Equal(t, "a", s.Breaks[0].Host)
}

func TestReduce_CardLoading(t *testing.T) {
	before := Reduce(State{}, CardLoadingSet{BreakID: 1, On: true})
	after := Reduce(before, CardLoadingSet{BreakID: 2, On: true}, CardLoadingSet{BreakID: 1, On: false})

	assert.True(t, before.IsCardLoading(1))
	assert.False(t, before.IsCardLoading(2))
	assert.False(t, after.IsCardLoading(1))
	assert.True(t, after.IsCardLoading(2))
}

func TestReduce_StatusAndLoading(t *testing.T) {
	s := Reduce(State{}, LoadingSet{On: true}, StatusSet{Status: "x"})
	assert.True(t, s.Loading)
	assert.Equal(t, "x", s.Status)

	s = Reduce(s, LoadingSet{On: false}, StatusSet{})
	assert.False(t, s.Loading)
	assert.Empty(t, s.Status)
}

func TestStore_ConcurrentMergesOnDifferentIDs(t *testing.T) {
	initial := make([]model.Break, 0, 50)
	for i := int64(1); i <= 50; i++ {
		initial = append(initial, model.Break{ID: i})
	}
	store := NewStore(State{Breaks: initial})

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Dispatch(BreaksMerged{Updates: []model.Break{{ID: id, Host: "done"}}})
		}(i)
	}
	wg.Wait()

	got := store.Snapshot().Breaks
	require.Len(t, got, 50)
	for i, b := range got {
		assert.Equal(t, int64(i+1), b.ID)
		assert.Equal(t, "done", b.Host)
	}
}

func TestStore_Subscribe(t *testing.T) {
	store := NewStore(State{})

	var seen []string
	store.Subscribe(func(s State) {
		seen = append(seen, s.Status)
	})

	store.Dispatch(StatusSet{Status: "one"})
	store.Dispatch()
	store.Dispatch(StatusSet{Status: "two"})

	assert.Equal(t, []string{"one", "two"}, seen)
}

func TestStore_SubscribersSeeLatestState(t *testing.T) {
	for run := 0; run < 50; run++ {
		store := NewStore(State{})

		var (
			mu   sync.Mutex
			last State
		)
		store.Subscribe(func(s State) {
			time.Sleep(100 * time.Microsecond)
			mu.Lock()
			last = s
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for id := int64(1); id <= 2; id++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				store.Dispatch(CardLoadingSet{BreakID: id, On: true})
			}(id)
		}
		wg.Wait()

		mu.Lock()
		assert.Equal(t, store.Snapshot().CardLoading, last.CardLoading)
		mu.Unlock()
		assert.True(t, last.IsCardLoading(1))
		assert.True(t, last.IsCardLoading(2))
	}
}
