package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a booking does not exist for the owner.
var ErrNotFound = errors.New("booking not found")

// Publisher announces committed booking changes on the change feed.
type Publisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// BookingRecords is the Postgres record store for bookings. Every committed
// write is published so open workspaces reconcile it.
type BookingRecords struct {
	db        *gorm.DB
	publisher Publisher
}

func NewBookingRecords(db *gorm.DB, publisher Publisher) *BookingRecords {
	return &BookingRecords{db: db, publisher: publisher}
}

// Select returns the owner's bookings newest first.
func (r *BookingRecords) Select(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("select bookings for owner %d: %w", ownerID, err)
	}
	return out, nil
}

// Get loads one booking scoped to its owner.
func (r *BookingRecords) Get(ctx context.Context, ownerID uint, id string) (models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Booking{}, ErrNotFound
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// Insert stores a new booking at the initial stage.
func (r *BookingRecords) Insert(ctx context.Context, b *models.Booking) error {
	b.ID = ""
	b.Stage = ""
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	r.publish(ctx, models.NewBookingChange(models.ChangeInsert, *b))
	return nil
}

// Update applies patch to the owner's booking and returns the stored row.
func (r *BookingRecords) Update(ctx context.Context, ownerID uint, id string, patch models.BookingPatch) (models.Booking, error) {
	if err := patch.Validate(); err != nil {
		return models.Booking{}, err
	}
	if patch.Empty() {
		return r.Get(ctx, ownerID, id)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(patch.Columns())
	if res.Error != nil {
		return models.Booking{}, fmt.Errorf("update booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Booking{}, ErrNotFound
	}

	saved, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return models.Booking{}, err
	}
	r.publish(ctx, models.NewBookingChange(models.ChangeUpdate, saved))
	return saved, nil
}

// Delete removes the owner's booking.
func (r *BookingRecords) Delete(ctx context.Context, ownerID uint, id string) error {
	existing, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Booking{})
	if res.Error != nil {
		return fmt.Errorf("delete booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.publish(ctx, models.NewBookingChange(models.ChangeDelete, existing))
	return nil
}

func (r *BookingRecords) publish(ctx context.Context, event models.ChangeEvent) {
	if r.publisher == nil {
		return
	}
	event.Origin = models.OriginFrom(ctx)
	if err := r.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Printf("[FEED] publish %s %s failed: %v", event.EventType, event.Record.ID, err)
	}
}
