package models

import (
	"go.uber.org/atomic"
)

// AccountState is the per-account slot: the folded aggregate plus the poll
// status the render path exposes as the account_up gauge. The aggregate has
// its own lock; Up and LastError are read lock-free by the collector.
type AccountState struct {
	ID        string
	Label     string
	Aggregate *AggregateState

	up      atomic.Bool
	lastErr atomic.String
}

func NewAccountState(id, label string) *AccountState {
	if label == "" {
		label = id
	}
	s := &AccountState{
		ID:        id,
		Label:     label,
		Aggregate: NewAggregateState(),
	}
	s.up.Store(true)
	return s
}

// MarkErrored freezes the account as permanently failed. Counters keep their
// last values; only the up gauge flips.
func (s *AccountState) MarkErrored(reason string) {
	s.lastErr.Store(reason)
	s.up.Store(false)
}

func (s *AccountState) Up() bool          { return s.up.Load() }
func (s *AccountState) LastError() string { return s.lastErr.Load() }

// AccountStore holds one AccountState per configured account. The map is
// built once at startup and never mutated afterwards, so lookups need no
// lock; zero-valued accounts are visible to the render path immediately.
type AccountStore struct {
	accounts map[string]*AccountState
	order    []string
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]*AccountState)}
}

// Add registers one account slot. Only called during startup wiring.
func (st *AccountStore) Add(id, label string) *AccountState {
	if existing, ok := st.accounts[id]; ok {
		return existing
	}
	s := NewAccountState(id, label)
	st.accounts[id] = s
	st.order = append(st.order, id)
	return s
}

func (st *AccountStore) Get(id string) (*AccountState, bool) {
	s, ok := st.accounts[id]
	return s, ok
}

// All returns the account slots in configuration order.
func (st *AccountStore) All() []*AccountState {
	out := make([]*AccountState, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.accounts[id])
	}
	return out
}

func (st *AccountStore) Len() int {
	return len(st.accounts)
}
