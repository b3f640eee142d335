// Package memstore is an in-memory domain.Backend. Package tests use it in
// place of a database; contents are lost when the process exits.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

var _ domain.Backend = (*Store)(nil)

type outageRow struct {
	outage domain.Outage
	seen   int
}

// Store keeps everything in maps guarded by one mutex. Values are copied on
// the way in and out so callers never share slices with the store.
type Store struct {
	mu sync.RWMutex

	clock         clockwork.Clock
	outages       []*outageRow
	byHash        map[string]*outageRow
	groups        map[string]domain.Group
	tasks         map[int64]domain.Task
	notifications []domain.Notification
	nextOutageID  int64
	nextNotifyID  int64
}

// New creates an empty Store. A nil clock means the real clock.
func New(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:  clock,
		byHash: make(map[string]*outageRow),
		groups: make(map[string]domain.Group),
		tasks:  make(map[int64]domain.Task),
	}
}

// SaveOutages stores outages with unknown hashes. A known hash bumps the
// row's seen counter and returns the stored row.
func (s *Store) SaveOutages(_ context.Context, outages []domain.Outage) ([]domain.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.SaveResult, 0, len(outages))
	for _, o := range outages {
		if o.ContentHash == "" {
			return nil, fmt.Errorf("%w: outage without content hash", domain.ErrPersistence)
		}
		if row, ok := s.byHash[o.ContentHash]; ok {
			row.seen++
			results = append(results, domain.SaveResult{Outage: copyOutage(row.outage)})
			continue
		}

		s.nextOutageID++
		o = copyOutage(o)
		o.ID = s.nextOutageID
		o.Notified = false
		o.CreatedAt = s.clock.Now().UTC()

		row := &outageRow{outage: o, seen: 1}
		s.outages = append(s.outages, row)
		s.byHash[o.ContentHash] = row
		results = append(results, domain.SaveResult{Outage: copyOutage(o), Created: true})
	}
	return results, nil
}

// UnnotifiedOutages returns pending outages in insertion order.
func (s *Store) UnnotifiedOutages(_ context.Context) ([]domain.Outage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Outage
	for _, row := range s.outages {
		if !row.outage.Notified {
			out = append(out, copyOutage(row.outage))
		}
	}
	return out, nil
}

// MarkNotified flags the given outages as notified.
func (s *Store) MarkNotified(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.outages {
		if slices.Contains(ids, row.outage.ID) {
			row.outage.Notified = true
		}
	}
	return nil
}

// Outage returns the stored outage with id.
func (s *Store) Outage(id int64) (domain.Outage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.outages {
		if row.outage.ID == id {
			return copyOutage(row.outage), true
		}
	}
	return domain.Outage{}, false
}

// ActiveGroups returns active groups ordered by id.
func (s *Store) ActiveGroups(_ context.Context) ([]domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Group
	for _, g := range s.groups {
		if g.IsActive {
			out = append(out, copyGroup(g))
		}
	}
	slices.SortFunc(out, func(a, b domain.Group) int { return cmp.Compare(a.GroupID, b.GroupID) })
	return out, nil
}

// GroupsByIDs returns the active groups among ids, in the order given.
func (s *Store) GroupsByIDs(_ context.Context, ids []string) ([]domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Group
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if g, ok := s.groups[id]; ok && g.IsActive {
			out = append(out, copyGroup(g))
		}
	}
	return out, nil
}

// UpsertGroup creates the group or replaces it.
func (s *Store) UpsertGroup(_ context.Context, g domain.Group) error {
	if g.GroupID == "" {
		return fmt.Errorf("%w: group without id", domain.ErrPersistence)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.groups[g.GroupID]; ok {
		g.CreatedAt = existing.CreatedAt
	} else {
		g.CreatedAt = s.clock.Now().UTC()
	}
	s.groups[g.GroupID] = copyGroup(g)
	return nil
}

// RecordNotification appends a history entry. A zero SentAt is set to now.
func (s *Store) RecordNotification(_ context.Context, n domain.Notification) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNotifyID++
	n.ID = s.nextNotifyID
	if n.SentAt.IsZero() {
		n.SentAt = s.clock.Now().UTC()
	}
	s.notifications = append(s.notifications, n)
	return n, nil
}

// RecentNotifications returns up to limit entries, newest first.
func (s *Store) RecentNotifications(_ context.Context, limit int, groupID string) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		n := s.notifications[i]
		if groupID != "" && n.GroupID != groupID {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// TaskByID returns the task or an error wrapping domain.ErrNotFound.
func (s *Store) TaskByID(_ context.Context, id int64) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return copyTask(t), nil
}

// ActiveTasks returns active tasks ordered by id.
func (s *Store) ActiveTasks(_ context.Context) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Task
	for _, t := range s.tasks {
		if t.IsActive {
			out = append(out, copyTask(t))
		}
	}
	slices.SortFunc(out, func(a, b domain.Task) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// UpsertTask creates the task or replaces its definition, keeping LastRun.
func (s *Store) UpsertTask(_ context.Context, t domain.Task) error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: task id must be positive", domain.ErrPersistence)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tasks[t.ID]; ok {
		t.LastRun = existing.LastRun
	}
	s.tasks[t.ID] = copyTask(t)
	return nil
}

// UpdateTaskLastRun records when the task last completed.
func (s *Store) UpdateTaskLastRun(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	t.LastRun = at
	s.tasks[id] = t
	return nil
}

// Stats returns system counts and duplicate statistics.
func (s *Store) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st domain.Stats
	for _, g := range s.groups {
		if g.IsActive {
			st.ActiveGroups++
		}
	}
	for _, row := range s.outages {
		st.Outages++
		st.Ingested += row.seen
		if !row.outage.Notified {
			st.UnnotifiedOutages++
		}
		st.DuplicatesPrevented += row.seen - 1
	}
	st.Notifications = len(s.notifications)
	st.DuplicatePercentage = duplicatePercentage(st.DuplicatesPrevented, st.Ingested)
	return st, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// duplicatePercentage is the share of ingested rows that were already known,
// rounded to two decimals.
func duplicatePercentage(duplicates, ingested int) float64 {
	if ingested == 0 {
		return 0
	}
	return math.Round(float64(duplicates)/float64(ingested)*10000) / 100
}

func copyOutage(o domain.Outage) domain.Outage {
	blocks := make([]domain.AddressBlock, len(o.Addresses))
	for i, b := range o.Addresses {
		blocks[i] = domain.AddressBlock{Street: b.Street, Houses: append([]string{}, b.Houses...)}
	}
	o.Addresses = blocks
	return o
}

func copyGroup(g domain.Group) domain.Group {
	g.Addresses = slices.Clone(g.Addresses)
	return g
}

func copyTask(t domain.Task) domain.Task {
	t.Kinds = slices.Clone(t.Kinds)
	t.TargetGroups = slices.Clone(t.TargetGroups)
	return t
}
