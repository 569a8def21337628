// Package store provides the in-memory leave.Store implementation, used by
// tests and the development server. It honors the same optimistic-locking
// and conditional-transition semantics as the SQLite store.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	balances   map[leave.BalanceKey]leave.Balance
	requests   map[leave.RequestCode]leave.LeaveRequest
	employees  map[leave.UserID]leave.Employee
	holidays   map[string]leave.Holiday
	leaveTypes map[string]leave.LeaveTypeRecord
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.balances = make(map[leave.BalanceKey]leave.Balance)
	m.requests = make(map[leave.RequestCode]leave.LeaveRequest)
	m.employees = make(map[leave.UserID]leave.Employee)
	m.holidays = make(map[string]leave.Holiday)
	m.leaveTypes = make(map[string]leave.LeaveTypeRecord)
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// =============================================================================
// BALANCES - CAS on version
// =============================================================================

func (m *Memory) GetBalance(_ context.Context, key leave.BalanceKey) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.balances[key]
	if !ok {
		return nil, nil
	}
	out := b
	return &out, nil
}

func (m *Memory) CreateBalance(_ context.Context, b leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.balances[b.Key()]; exists {
		return leave.ErrConcurrentModification
	}
	m.balances[b.Key()] = b
	return nil
}

func (m *Memory) UpdateBalance(_ context.Context, b leave.Balance, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.balances[b.Key()]
	if !ok || current.Version != expectedVersion {
		return leave.ErrConcurrentModification
	}
	m.balances[b.Key()] = b
	return nil
}

func (m *Memory) ListBalances(_ context.Context, userID leave.UserID, year int) ([]leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Balance
	for _, b := range m.balances {
		if b.UserID == userID && b.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeCode < out[j].TypeCode })
	return out, nil
}

// =============================================================================
// REQUESTS - Conditional status transition
// =============================================================================

func (m *Memory) SaveRequest(_ context.Context, r leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.Code] = r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, code leave.RequestCode) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[code]
	if !ok {
		return nil, nil
	}
	out := r
	return &out, nil
}

func (m *Memory) TransitionRequest(_ context.Context, code leave.RequestCode, from, to leave.RequestStatus, d leave.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[code]
	if !ok {
		return leave.ErrNotFound
	}
	if r.Status != from {
		return leave.ErrInvalidStateTransition
	}
	r.Status = to
	r.ReviewerID = d.ReviewerID
	r.ReviewerComments = d.Comments
	if !d.DecidedAt.IsZero() {
		decidedAt := d.DecidedAt
		r.DecidedAt = &decidedAt
	} else {
		r.DecidedAt = nil
	}
	m.requests[code] = r
	return nil
}

func (m *Memory) ListRequestsByUser(_ context.Context, userID leave.UserID, status *leave.RequestStatus) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.LeaveRequest
	for _, r := range m.requests {
		if r.UserID != userID {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	sortRequests(out)
	return out, nil
}

func (m *Memory) ListRequestsOverlapping(_ context.Context, userIDs []leave.UserID, from, to leave.Date) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members := make(map[leave.UserID]struct{}, len(userIDs))
	for _, id := range userIDs {
		members[id] = struct{}{}
	}
	var out []leave.LeaveRequest
	for _, r := range m.requests {
		if _, ok := members[r.UserID]; !ok {
			continue
		}
		if r.StartDate.After(to) || r.EndDate.Before(from) {
			continue
		}
		out = append(out, r)
	}
	sortRequests(out)
	return out, nil
}

// sortRequests orders newest first, then by code for a stable tie-break.
func sortRequests(reqs []leave.LeaveRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].Code < reqs[j].Code
	})
}

// =============================================================================
// EMPLOYEES / HOLIDAYS / LEAVE TYPES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id leave.UserID) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	out := e
	return &out, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListTeamMembers(_ context.Context, teamID leave.TeamID) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Employee
	for _, e := range m.employees {
		if e.TeamID == teamID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h leave.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) ListHolidays(_ context.Context, year int) ([]leave.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Holiday
	for _, h := range m.holidays {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) SaveLeaveType(_ context.Context, rec leave.LeaveTypeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveTypes[rec.Code] = rec
	return nil
}

func (m *Memory) ListLeaveTypes(_ context.Context) ([]leave.LeaveTypeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.LeaveTypeRecord, 0, len(m.leaveTypes))
	for _, rec := range m.leaveTypes {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Compile-time check.
var _ leave.Store = (*Memory)(nil)
