package bookings

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

type StoreEventKind string

const (
	EventLoaded     StoreEventKind = "loaded"
	EventTransition StoreEventKind = "transition"
	EventCommitted  StoreEventKind = "committed"
	EventRolledBack StoreEventKind = "rolled_back"
	EventReconciled StoreEventKind = "reconciled"
	EventRemoved    StoreEventKind = "removed"
)

// StoreEvent tells subscribers that the store changed. BookingID is empty
// for EventLoaded.
type StoreEvent struct {
	Kind      StoreEventKind `json:"kind"`
	BookingID string         `json:"bookingId,omitempty"`
}

type pendingTransition struct {
	from workflow.Stage
	to   workflow.Stage
}

// Store is the in-memory view of one owner's bookings. Stage changes reach
// it only through ApplyLocalTransition and Reconcile.
type Store struct {
	owner   uint
	records RecordStore

	mutex       sync.Mutex
	bookings    map[string]models.Booking
	pending     map[string]*pendingTransition
	subscribers map[chan StoreEvent]struct{}

	// While a Load is reading the record store, every booking changed
	// in memory is stamped with a generation so the snapshot cannot
	// overwrite it.
	loads      int
	generation uint64
	touched    map[string]uint64
}

// NewStore creates an empty store for ownerID. Call Load to populate it.
func NewStore(ownerID uint, records RecordStore) *Store {
	return &Store{
		owner:       ownerID,
		records:     records,
		bookings:    make(map[string]models.Booking),
		pending:     make(map[string]*pendingTransition),
		subscribers: make(map[chan StoreEvent]struct{}),
		touched:     make(map[string]uint64),
	}
}

// touchLocked records that id changed in memory while a Load was running.
func (s *Store) touchLocked(id string) {
	if s.loads == 0 {
		return
	}
	s.generation++
	s.touched[id] = s.generation
}

// endLoadLocked ends one Load and forgets the stamps once none is running.
func (s *Store) endLoadLocked() {
	s.loads--
	if s.loads == 0 {
		s.touched = make(map[string]uint64)
	}
}

// Owner returns the user whose bookings the store holds.
func (s *Store) Owner() uint { return s.owner }

// Load replaces the store contents with the owner's records, newest first.
// Bookings changed by Reconcile or a local transition while the records
// were being read keep their in-memory version. On failure the previous
// contents are kept and a *LoadError is returned.
func (s *Store) Load(ctx context.Context) ([]models.Booking, error) {
	s.mutex.Lock()
	s.loads++
	start := s.generation
	s.mutex.Unlock()

	records, err := s.records.Select(ctx, s.owner)
	if err != nil {
		s.mutex.Lock()
		s.endLoadLocked()
		cached := len(s.bookings)
		s.mutex.Unlock()
		log.Printf("[WORKFLOW] owner=%d load failed, keeping %d cached bookings: %v", s.owner, cached, err)
		return nil, &LoadError{OwnerID: s.owner, Err: err}
	}

	next := make(map[string]models.Booking, len(records))
	for _, record := range records {
		if record.OwnerID != s.owner {
			continue
		}
		next[record.ID] = record.Clone()
	}

	s.mutex.Lock()
	pending := make(map[string]*pendingTransition)
	for id, stamp := range s.touched {
		if stamp <= start {
			continue
		}
		if current, ok := s.bookings[id]; ok {
			next[id] = current
		} else {
			delete(next, id)
		}
		if p, ok := s.pending[id]; ok {
			pending[id] = p
		}
	}
	s.bookings = next
	// Otherwise the durable snapshot supersedes unacknowledged local state.
	s.pending = pending
	s.endLoadLocked()
	out := s.sortedLocked()
	s.mutex.Unlock()

	s.notify(StoreEvent{Kind: EventLoaded})
	return out, nil
}

// Get returns a copy of one booking.
func (s *Store) Get(id string) (models.Booking, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return models.Booking{}, false
	}
	return b.Clone(), true
}

// Bookings returns copies of all bookings ordered by creation time,
// newest first.
func (s *Store) Bookings() []models.Booking {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sortedLocked()
}

// Len returns the number of bookings held.
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.bookings)
}

// Pending reports whether id has a transition waiting on the record store.
func (s *Store) Pending(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *Store) sortedLocked() []models.Booking {
	out := make([]models.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ApplyLocalTransition moves a booking to stage in memory before returning,
// then writes the change to the record store in the background. The
// returned channel yields exactly one value: nil once the write is
// acknowledged, or a *PersistenceFailure after the in-memory stage has been
// restored.
//
// Only one transition per booking may be outstanding; a second request
// returns ErrTransitionPending.
func (s *Store) ApplyLocalTransition(ctx context.Context, id string, stage workflow.Stage) (<-chan error, error) {
	s.mutex.Lock()
	booking, ok := s.bookings[id]
	if !ok {
		s.mutex.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTransitionNotFound, id)
	}
	if _, busy := s.pending[id]; busy {
		s.mutex.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTransitionPending, id)
	}
	if err := workflow.ValidateTransition(booking.Stage, stage); err != nil {
		s.mutex.Unlock()
		return nil, err
	}

	p := &pendingTransition{from: booking.Stage, to: stage}
	booking.Stage = stage
	s.bookings[id] = booking
	s.pending[id] = p
	s.touchLocked(id)
	s.mutex.Unlock()

	s.notify(StoreEvent{Kind: EventTransition, BookingID: id})

	done := make(chan error, 1)
	go s.persist(models.WithOrigin(context.WithoutCancel(ctx), models.OriginOwner), id, p, done)
	return done, nil
}

func (s *Store) persist(ctx context.Context, id string, p *pendingTransition, done chan<- error) {
	defer close(done)

	stage := p.to
	saved, err := s.records.Update(ctx, s.owner, id, models.BookingPatch{Stage: &stage})

	s.mutex.Lock()
	current := s.pending[id] == p
	if current {
		delete(s.pending, id)
	}

	if err != nil {
		rolledBack := false
		if booking, ok := s.bookings[id]; current && ok && booking.Stage == p.to {
			booking.Stage = p.from
			s.bookings[id] = booking
			s.touchLocked(id)
			rolledBack = true
		}
		s.mutex.Unlock()

		log.Printf("[WORKFLOW] owner=%d booking=%s save %s -> %s failed (rolled_back=%t): %v",
			s.owner, id, p.from, p.to, rolledBack, err)
		if rolledBack {
			s.notify(StoreEvent{Kind: EventRolledBack, BookingID: id})
		}
		done <- &PersistenceFailure{BookingID: id, From: p.from, To: p.to, RolledBack: rolledBack, Err: err}
		return
	}

	// An external update that arrived while the write was in flight wins;
	// only take the saved record if nothing replaced ours.
	if _, ok := s.bookings[id]; current && ok && saved.ID == id && saved.OwnerID == s.owner {
		s.bookings[id] = saved.Clone()
		s.touchLocked(id)
	}
	s.mutex.Unlock()

	s.notify(StoreEvent{Kind: EventCommitted, BookingID: id})
	done <- nil
}

// Reconcile merges one change feed event. Inserts and updates replace the
// local copy in full; deletes remove it. Events for other owners or other
// tables are ignored. Reports whether the store changed.
//
// EventReconciled is only emitted for changes made elsewhere. A record equal
// to the local copy, an event marked with models.OriginOwner, or the echo of
// this store's own pending transition is not one.
func (s *Store) Reconcile(event models.ChangeEvent) bool {
	if event.Table != "" && event.Table != (models.Booking{}).TableName() {
		return false
	}

	record := event.Record
	owner := event.OwnerID
	if owner == 0 {
		owner = record.OwnerID
	}
	if owner != s.owner || record.ID == "" {
		return false
	}

	switch event.EventType {
	case models.ChangeInsert, models.ChangeUpdate:
		if record.OwnerID != s.owner {
			return false
		}
		own := event.Origin == models.OriginOwner
		s.mutex.Lock()
		p := s.pending[record.ID]
		// The owner's detail edit saved ahead of their own transition keeps
		// the transition in flight.
		keep := own && p != nil && record.Stage != p.to
		if keep {
			record.Stage = p.to
		}
		if current, ok := s.bookings[record.ID]; ok && current.Equal(record) {
			s.mutex.Unlock()
			return false
		}
		echo := own || (p != nil && record.Stage == p.to)
		s.bookings[record.ID] = record.Clone()
		if !keep {
			delete(s.pending, record.ID)
		}
		s.touchLocked(record.ID)
		s.mutex.Unlock()

		kind := EventReconciled
		if echo {
			kind = EventCommitted
		}
		s.notify(StoreEvent{Kind: kind, BookingID: record.ID})
		return true

	case models.ChangeDelete:
		s.mutex.Lock()
		_, existed := s.bookings[record.ID]
		delete(s.bookings, record.ID)
		delete(s.pending, record.ID)
		s.touchLocked(record.ID)
		s.mutex.Unlock()
		if existed {
			s.notify(StoreEvent{Kind: EventRemoved, BookingID: record.ID})
		}
		return existed

	default:
		log.Printf("[FEED] owner=%d ignoring event type %q for booking %s", s.owner, event.EventType, record.ID)
		return false
	}
}

// Merge applies a record the owner just wrote through the record store, so
// the store reflects it before the change feed echoes it back. The echo then
// matches the local copy and is not reported as a change from elsewhere.
func (s *Store) Merge(record models.Booking) bool {
	if record.ID == "" || record.OwnerID != s.owner {
		return false
	}
	s.mutex.Lock()
	// A detail edit never carries the stage; an in-flight transition keeps
	// its local stage until it settles.
	if p := s.pending[record.ID]; p != nil {
		record.Stage = p.to
	}
	if current, ok := s.bookings[record.ID]; ok && current.Equal(record) {
		s.mutex.Unlock()
		return false
	}
	s.bookings[record.ID] = record.Clone()
	s.touchLocked(record.ID)
	s.mutex.Unlock()

	s.notify(StoreEvent{Kind: EventCommitted, BookingID: record.ID})
	return true
}

// Subscribe returns a channel of store change notifications and a function
// that cancels the subscription. Notifications are dropped for a
// subscriber whose buffer is full; it picks up current state on its next
// read of the store.
func (s *Store) Subscribe() (<-chan StoreEvent, func()) {
	channel := make(chan StoreEvent, 64)
	s.mutex.Lock()
	s.subscribers[channel] = struct{}{}
	s.mutex.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mutex.Lock()
			delete(s.subscribers, channel)
			s.mutex.Unlock()
			close(channel)
		})
	}
	return channel, cancel
}

func (s *Store) notify(event StoreEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for subscriber := range s.subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}
