package bookings

import (
	"context"

	"github.com/chachabrian/tourbook-backend/internal/models"
)

// RecordStore is the durable storage the aggregate store mirrors.
type RecordStore interface {
	// Select returns every booking owned by ownerID.
	Select(ctx context.Context, ownerID uint) ([]models.Booking, error)

	// Update applies patch to one booking and returns the stored result.
	Update(ctx context.Context, ownerID uint, id string, patch models.BookingPatch) (models.Booking, error)
}

// ChangeFeed delivers insert/update/delete notifications scoped to one
// owner. Delivery is at least once.
type ChangeFeed interface {
	Subscribe(ctx context.Context, ownerID uint) (<-chan models.ChangeEvent, error)
}
