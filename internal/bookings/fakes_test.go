package bookings

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

var errUnreachable = errors.New("record store unreachable")

// fakeRecordStore keeps records in memory. When gate is non-nil every
// Update blocks until a value is sent on it; a non-nil value fails the
// write. When selectGate is non-nil Select takes its snapshot, signals
// selected, and then blocks until selectGate is closed.
type fakeRecordStore struct {
	mutex      sync.Mutex
	records    map[string]models.Booking
	selectErr  error
	gate       chan error
	updates    int
	origins    []models.ChangeOrigin
	selectGate chan struct{}
	selected   chan struct{}
}

func newFakeRecordStore(records ...models.Booking) *fakeRecordStore {
	f := &fakeRecordStore{records: make(map[string]models.Booking)}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeRecordStore) Select(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	f.mutex.Lock()
	if f.selectErr != nil {
		f.mutex.Unlock()
		return nil, f.selectErr
	}
	var out []models.Booking
	for _, r := range f.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	gate, selected := f.selectGate, f.selected
	f.mutex.Unlock()

	if gate != nil {
		selected <- struct{}{}
		<-gate
	}
	return out, nil
}

func (f *fakeRecordStore) Update(ctx context.Context, ownerID uint, id string, patch models.BookingPatch) (models.Booking, error) {
	if f.gate != nil {
		if err := <-f.gate; err != nil {
			return models.Booking{}, err
		}
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.updates++
	f.origins = append(f.origins, models.OriginFrom(ctx))
	r, ok := f.records[id]
	if !ok || r.OwnerID != ownerID {
		return models.Booking{}, errors.New("no such booking")
	}
	if patch.Stage != nil {
		r.Stage = *patch.Stage
	}
	r.UpdatedAt = r.UpdatedAt.Add(time.Second)
	f.records[id] = r
	return r, nil
}

type fakeFeed struct {
	events chan models.ChangeEvent
	err    error
}

func (f *fakeFeed) Subscribe(ctx context.Context, ownerID uint) (<-chan models.ChangeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func booking(id string, stage workflow.Stage, created time.Time) models.Booking {
	return models.Booking{
		ID:          id,
		OwnerID:     7,
		VenueName:   "Venue " + id,
		VenueCity:   "Austin",
		Status:      models.BookingStatusActive,
		Stage:       stage,
		OfferAmount: 500,
		CreatedAt:   created,
	}
}
