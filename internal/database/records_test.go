package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type capturePublisher struct {
	mutex  sync.Mutex
	events []models.ChangeEvent
	err    error
}

func (c *capturePublisher) Publish(ctx context.Context, event models.ChangeEvent) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func newMockRecords(t *testing.T) (*BookingRecords, sqlmock.Sqlmock, *capturePublisher) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open error: %v", err)
	}
	pub := &capturePublisher{}
	return NewBookingRecords(db, pub), mock, pub
}

var bookingColumns = []string{"id", "owner_id", "venue_name", "venue_email", "offer_amount", "status", "stage", "created_at", "updated_at"}

func TestSelectScopesToOwner(t *testing.T) {
	records, mock, _ := newMockRecords(t)
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE owner_id = \$1 ORDER BY created_at desc,id`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b2", 7, "Roxy", "", 900.0, "active", "invoice", created.Add(time.Hour), created).
			AddRow("b1", 7, "The Fillmore", "", 1500.0, "active", "intro", created, created))

	got, err := records.Select(context.Background(), 7)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b2" || got[0].Stage != workflow.StageInvoice {
		t.Fatalf("got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSelectFailure(t *testing.T) {
	records, mock, _ := newMockRecords(t)
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnError(errors.New("connection refused"))

	if _, err := records.Select(context.Background(), 7); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUpdatePublishesSavedRecord(t *testing.T) {
	records, mock, pub := newMockRecords(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1 AND owner_id = \$2`).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", 7, "The Fillmore", "", 1500.0, "active", "offer", now, now))

	stage := workflow.StageOffer
	ctx := models.WithOrigin(context.Background(), models.OriginOwner)
	saved, err := records.Update(ctx, 7, "b1", models.BookingPatch{Stage: &stage})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if saved.Stage != workflow.StageOffer {
		t.Fatalf("saved stage = %s", saved.Stage)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != models.ChangeUpdate || pub.events[0].OwnerID != 7 {
		t.Fatalf("published %+v", pub.events)
	}
	if pub.events[0].Origin != models.OriginOwner {
		t.Fatalf("origin = %q, want owner", pub.events[0].Origin)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateMissingBooking(t *testing.T) {
	records, mock, pub := newMockRecords(t)
	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	notes := "call back"
	_, err := records.Update(context.Background(), 7, "nope", models.BookingPatch{Notes: &notes})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("nothing should be published")
	}
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	records, mock, _ := newMockRecords(t)
	bad := workflow.Stage("limbo")

	_, err := records.Update(context.Background(), 7, "b1", models.BookingPatch{Stage: &bad})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestInsertAssignsInitialStage(t *testing.T) {
	records, mock, pub := newMockRecords(t)
	mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))

	b := &models.Booking{OwnerID: 7, VenueName: "Metro", OfferAmount: 800, Stage: workflow.StagePayment}
	if err := records.Insert(context.Background(), b); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.ID == "" || b.Stage != workflow.StageIntro || b.Status != models.BookingStatusActive {
		t.Fatalf("inserted %+v", b)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != models.ChangeInsert {
		t.Fatalf("published %+v", pub.events)
	}
}

func TestInsertRejectsNegativeOffer(t *testing.T) {
	records, _, pub := newMockRecords(t)
	b := &models.Booking{OwnerID: 7, VenueName: "Metro", OfferAmount: -5}
	if err := records.Insert(context.Background(), b); !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("nothing should be published")
	}
}

func TestDeletePublishesRemoval(t *testing.T) {
	records, mock, pub := newMockRecords(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1 AND owner_id = \$2`).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b3", 7, "Bowery Ballroom", "", 0.0, "inactive", "payment", now, now))
	mock.ExpectExec(`DELETE FROM "bookings" WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("b3", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := records.Delete(context.Background(), 7, "b3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != models.ChangeDelete || pub.events[0].Record.ID != "b3" {
		t.Fatalf("published %+v", pub.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	records, mock, _ := newMockRecords(t)
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(sqlmock.NewRows(bookingColumns))

	if _, err := records.Get(context.Background(), 7, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
