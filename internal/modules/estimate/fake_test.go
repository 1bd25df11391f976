package estimate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"charter/internal/modules/notification"
	"charter/internal/modules/outbox"
	"charter/internal/types"
)

// memStore is an in-memory Repository for service tests.
type memStore struct {
	mu        sync.Mutex
	rows      map[types.ID]*Estimate
	events    []Event
	outbox    []outbox.Message
	createErr error
	eventErr  error
	finishErr map[types.ID]error
}

var _ Repository = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{rows: map[types.ID]*Estimate{}, finishErr: map[types.ID]error{}}
}

func (m *memStore) put(e Estimate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = &e
}

func (m *memStore) Create(_ context.Context, e *Estimate, msgs ...outbox.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *e
	m.rows[e.ID] = &cp
	m.outbox = append(m.outbox, msgs...)
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) List(_ context.Context, owner types.ID, finished *bool, _ types.Page) ([]Estimate, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Estimate
	for _, e := range m.rows {
		if !e.OwnedBy(owner) {
			continue
		}
		if finished != nil && e.IsFinished != *finished {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *memStore) ListByStatus(_ context.Context, status Status) ([]Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Estimate
	for _, e := range m.rows {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memStore) ListUnfinishedConfirmed(_ context.Context) ([]Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Estimate
	for _, e := range m.rows {
		if e.Status == StatusConfirmed && !e.IsFinished {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id, owner types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || !e.OwnedBy(owner) {
		return types.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, to Status) (StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return StatusChange{}, types.ErrNotFound
	}
	change := StatusChange{From: e.Status, OwnerID: e.OwnerID}
	e.Status = to
	return change, nil
}

func (m *memStore) CompareAndSetStatus(_ context.Context, id types.ID, from, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (m *memStore) SaveAdministrative(_ context.Context, e *Estimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[e.ID]
	if !ok {
		return types.ErrNotFound
	}
	cur.Price = e.Price
	cur.PriceChanged = e.PriceChanged
	cur.Status = e.Status
	cur.Vehicle.Class = e.Vehicle.Class
	cur.Vehicle.Count = e.Vehicle.Count
	return nil
}

func (m *memStore) MarkFinished(_ context.Context, id types.ID, on time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.finishErr[id]; err != nil {
		return false, err
	}
	e, ok := m.rows[id]
	if !ok || e.IsFinished {
		return false, nil
	}
	e.IsFinished = true
	e.FinishedDate = &on
	return true, nil
}

func (m *memStore) AppendEvent(_ context.Context, ev *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eventErr != nil {
		return m.eventErr
	}
	m.events = append(m.events, *ev)
	return nil
}

type sent struct {
	user types.ID
	kind string
}

// recordingNotifier records deliveries and fails for listed users.
type recordingNotifier struct {
	mu         sync.Mutex
	users      []sent
	admins     []string
	failUsers  map[types.ID]bool
	failAdmins bool
}

var _ Notifier = (*recordingNotifier)(nil)

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failUsers: map[types.ID]bool{}}
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID types.ID, m notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failUsers[userID] {
		return notification.ErrDelivery
	}
	n.users = append(n.users, sent{user: userID, kind: m.Kind})
	return nil
}

func (n *recordingNotifier) NotifyAdmins(_ context.Context, m notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAdmins {
		return errors.Join(notification.ErrDelivery, errors.New("topic unavailable"))
	}
	n.admins = append(n.admins, m.Kind)
	return nil
}

// newLoggedService returns a service whose log output lands in the buffer
// and whose audit log always fails.
func newLoggedService() (*Service, *memStore, *bytes.Buffer) {
	var buf bytes.Buffer
	store := newMemStore()
	store.eventErr = errors.New("events table locked")
	svc := NewService(store, newRecordingNotifier(), slog.New(slog.NewTextHandler(&buf, nil)), time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, store, &buf
}
