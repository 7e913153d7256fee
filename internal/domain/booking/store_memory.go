package booking

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medroute/medroute/internal/platform/metrics"
	"github.com/medroute/medroute/pkg/pagination"
)

// keyedMutex hands out one mutex per slot key and drops it once no goroutine
// holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[SlotKey]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[SlotKey]*refLock)}
}

// Lock blocks until key is held and returns its release func.
func (k *keyedMutex) Lock(key SlotKey) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// MemoryStore keeps appointments in process memory. Book and Cancel on the
// same slot are serialized by a per-slot lock; the maps themselves sit behind
// an RWMutex held only for the map operation.
type MemoryStore struct {
	slots  *keyedMutex
	nextID atomic.Int64

	mu     sync.RWMutex
	byID   map[int64]*Appointment
	bySlot map[SlotKey]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots:  newKeyedMutex(),
		byID:   make(map[int64]*Appointment),
		bySlot: make(map[SlotKey]int64),
	}
}

func (s *MemoryStore) Book(_ context.Context, a *Appointment) error {
	defer metrics.ObserveStore("memory", "book", time.Now())
	key := a.Key()
	unlock := s.slots.Lock(key)
	defer unlock()

	s.mu.RLock()
	_, taken := s.bySlot[key]
	s.mu.RUnlock()
	if taken {
		return ErrConflict
	}

	a.ID = s.nextID.Add(1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	stored := *a

	s.mu.Lock()
	s.byID[stored.ID] = &stored
	s.bySlot[key] = stored.ID
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Cancel(_ context.Context, username string, id int64) (bool, error) {
	defer metrics.ObserveStore("memory", "cancel", time.Now())
	s.mu.RLock()
	a, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok || a.Username != username {
		return false, nil
	}

	key := a.Key()
	unlock := s.slots.Lock(key)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another cancel may have won the race while we waited on the slot.
	if cur, ok := s.byID[id]; !ok || cur.Username != username {
		return false, nil
	}
	delete(s.byID, id)
	if s.bySlot[key] == id {
		delete(s.bySlot, key)
	}
	return true, nil
}

func (s *MemoryStore) ListByRequester(_ context.Context, username string) ([]*Appointment, error) {
	s.mu.RLock()
	out := make([]*Appointment, 0)
	for _, a := range s.byID {
		if a.Username == username {
			cp := *a
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListAll(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	s.mu.RLock()
	out := make([]*Appointment, 0, len(s.byID))
	for _, a := range s.byID {
		cp := *a
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return pagination.Window(out, pagination.Params{Limit: limit, Offset: offset}), len(out), nil
}

func (s *MemoryStore) BookedSlots(_ context.Context, doctor, date string) ([]string, error) {
	s.mu.RLock()
	out := make([]string, 0)
	for key := range s.bySlot {
		if key.Doctor == doctor && key.Date == date {
			out = append(out, key.TimeSlot)
		}
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

// sortNewestFirst orders by date descending, then id descending.
func sortNewestFirst(list []*Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date > list[j].Date
		}
		return list[i].ID > list[j].ID
	})
}
