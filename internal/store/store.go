// Package store holds the in-memory order list and persists every mutation.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marcus/ordr/internal/models"
)

// Sentinel errors returned by store operations
var (
	ErrDuplicateOrderNumber   = errors.New("duplicate order number")
	ErrNotFound               = errors.New("order not found")
	ErrPersistenceWriteFailed = errors.New("persistence write failed")
)

// Persister loads and saves the full local snapshot.
type Persister interface {
	Load() (*models.Snapshot, error)
	Save(models.Snapshot) error
}

// Store is the ordered in-memory order collection. It is the source of
// truth for the session; persistence is best effort.
type Store struct {
	mu       sync.Mutex
	orders   []models.Order
	endpoint string
	p        Persister
	now      func() time.Time

	// lastSaveErr is the most recent persistence failure, nil after a
	// successful save
	lastSaveErr error
	lastSaved   time.Time
}

// New creates an empty store persisting through p. A nil p keeps the
// store memory-only.
func New(p Persister) *Store {
	return &Store{p: p, now: time.Now}
}

// Load creates a store from the persisted snapshot. A snapshot that cannot
// be read is logged and treated as empty, matching the save policy.
func Load(p Persister) *Store {
	s := New(p)
	if p == nil {
		return s
	}
	snap, err := p.Load()
	if err != nil {
		slog.Error("store: load snapshot", "err", err)
		return s
	}
	s.orders = append([]models.Order(nil), snap.Orders...)
	s.endpoint = snap.RemoteEndpoint
	s.lastSaved = snap.LastSaved
	return s
}

// List returns a copy of all orders in insertion order
func (s *Store) List() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Len returns the number of orders
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Get returns the order with the given id
func (s *Store) Get(id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.orders[i], nil
}

// FindByNumber returns the order with exactly this order number
func (s *Store) FindByNumber(number string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return models.Order{}, fmt.Errorf("%w: number %s", ErrNotFound, number)
}

// Create appends a new order with a fresh id. The order number must not
// match any existing order (case-sensitive).
func (s *Store) Create(fields models.OrderFields) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var number string
	if fields.OrderNumber != nil {
		number = *fields.OrderNumber
	}
	for _, o := range s.orders {
		if o.OrderNumber == number {
			return models.Order{}, fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, number)
		}
	}

	o := models.Order{ID: models.NewOrderID(), OrderNumber: number}
	fields.Apply(&o)
	s.orders = append(s.orders, o)
	s.persistLocked()
	return o, nil
}

// Update merges fields over the order with the given id. ID and order
// number never change.
func (s *Store) Update(id string, fields models.OrderFields) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fields.Apply(&s.orders[i])
	o := s.orders[i]
	s.persistLocked()
	return o, nil
}

// Delete removes the order and returns the removed snapshot
func (s *Store) Delete(id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := s.orders[i]
	s.orders = append(s.orders[:i:i], s.orders[i+1:]...)
	s.persistLocked()
	return removed, nil
}

// ReplaceAll substitutes the whole collection. Nothing is validated.
func (s *Store) ReplaceAll(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]models.Order(nil), orders...)
	s.persistLocked()
}

// AppendAll appends orders without checking for duplicate order numbers.
func (s *Store) AppendAll(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, orders...)
	s.persistLocked()
}

// Clear removes every order. The remembered endpoint is kept.
func (s *Store) Clear() {
	s.ReplaceAll(nil)
}

// Endpoint returns the remembered remote endpoint
func (s *Store) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// SetEndpoint remembers the remote endpoint for future sessions
func (s *Store) SetEndpoint(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = url
	s.persistLocked()
}

// LastSaveError returns the most recent persistence failure, if any.
func (s *Store) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

func (s *Store) indexOf(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the full snapshot. Failures are logged and kept for
// inspection, never returned: in-memory state stays authoritative.
func (s *Store) persistLocked() {
	if s.p == nil {
		return
	}
	snap := models.Snapshot{
		Orders:         append([]models.Order{}, s.orders...),
		RemoteEndpoint: s.endpoint,
		LastSaved:      s.now().UTC(),
	}
	if err := s.p.Save(snap); err != nil {
		s.lastSaveErr = fmt.Errorf("%w: %w", ErrPersistenceWriteFailed, err)
		slog.Error("store: save snapshot", "orders", len(snap.Orders), "err", err)
		return
	}
	s.lastSaveErr = nil
	s.lastSaved = snap.LastSaved
}

// LastSaved returns when the snapshot was last written. Zero if never.
func (s *Store) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}
