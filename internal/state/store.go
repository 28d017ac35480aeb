package state

import (
	"slices"
	"sync"
)

// Store хранит актуальное состояние клиента и применяет к нему изменения.
// Подписчики получают состояния в том порядке, в котором они были применены.
type Store struct {
	// notifyMu упорядочивает применение изменений и уведомление подписчиков.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// NewStore создаёт хранилище с начальным состоянием.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// Snapshot возвращает текущее состояние.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch атомарно применяет изменения и уведомляет подписчиков.
// Подписчик не должен вызывать Dispatch того же хранилища.
func (s *Store) Dispatch(changes ...Change) State {
	if len(changes) == 0 {
		return s.Snapshot()
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, changes...)
	next := s.state
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Subscribe регистрирует функцию, вызываемую после каждого применения изменений.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
