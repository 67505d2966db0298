package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/views"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"github.com/chachabrian/tourbook-backend/internal/workspace"
	"github.com/gin-gonic/gin"
)

// Workspaces hands out the signed-in owner's live booking store.
type Workspaces interface {
	Open(ctx context.Context, ownerID uint) (*workspace.Workspace, error)
	Reload(ctx context.Context, ownerID uint) ([]models.Booking, error)
	Lookup(ownerID uint) (*workspace.Workspace, bool)
}

// ownWrite marks the request's writes as the owner's, so the change feed
// does not report them back as outside changes.
func ownWrite(c *gin.Context) context.Context {
	return models.WithOrigin(c.Request.Context(), models.OriginOwner)
}

// mergeSaved shows the owner's own write in an open workspace right away,
// so the feed's echo of it is not taken for a change made elsewhere.
func mergeSaved(ws Workspaces, saved models.Booking) {
	if w, ok := ws.Lookup(saved.OwnerID); ok {
		w.Store.Merge(saved)
	}
}

// BookingWriter performs intake and detail edits against the record store.
// The change feed brings the results back into the workspace.
type BookingWriter interface {
	Insert(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, ownerID uint, id string, patch models.BookingPatch) (models.Booking, error)
	Delete(ctx context.Context, ownerID uint, id string) error
}

const dateLayout = "2006-01-02"

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, models.ValidationError{Field: "eventDate", Msg: "must be YYYY-MM-DD"}
	}
	return t, nil
}

func sessionFromQuery(c *gin.Context) views.Session {
	bucket, _ := workflow.ParseBucket(c.Query("bucket"))
	return views.DefaultSession().
		WithMode(views.ParseViewMode(c.Query("view"))).
		SelectStage(c.Query("stage")).
		Select(c.Query("booking")).
		WithFilter(c.Query("q"), bucket)
}

// ListBookings returns the list or kanban projection for the owner.
func ListBookings(ws Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		w, err := ws.Open(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, views.Project(w.Store.Bookings(), sessionFromQuery(c), time.Now()))
	}
}

// GetBooking returns one booking with its next action and any open dialog.
func GetBooking(ws Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		w, err := ws.Open(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		b, ok := w.Store.Get(c.Param("id"))
		if !ok {
			respondError(c, bookings.ErrTransitionNotFound)
			return
		}

		response := gin.H{
			"detail":  views.NewDetail(b, time.Now()),
			"pending": w.Store.Pending(b.ID),
		}
		if inv, ok := w.Dispatcher.Open(b.ID); ok {
			response["openAction"] = inv
		}
		c.JSON(200, response)
	}
}

type CreateBookingInput struct {
	VenueName     string  `json:"venueName" binding:"required"`
	VenueLocation string  `json:"venueLocation"`
	VenueCity     string  `json:"venueCity"`
	VenueState    string  `json:"venueState"`
	VenueEmail    string  `json:"venueEmail" binding:"omitempty,email"`
	EventDate     string  `json:"eventDate"`
	EventTime     string  `json:"eventTime"`
	OfferAmount   float64 `json:"offerAmount"`
	Notes         *string `json:"notes"`
	MatchScore    *int    `json:"matchScore"`
}

// CreateBooking is the intake flow: a new booking always starts at intro.
func CreateBooking(writer BookingWriter, ws Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input CreateBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		booking := models.Booking{
			OwnerID:       userId,
			VenueName:     strings.TrimSpace(input.VenueName),
			VenueLocation: input.VenueLocation,
			VenueCity:     input.VenueCity,
			VenueState:    input.VenueState,
			VenueEmail:    input.VenueEmail,
			EventTime:     input.EventTime,
			OfferAmount:   input.OfferAmount,
			Notes:         input.Notes,
			MatchScore:    input.MatchScore,
		}
		if input.EventDate != "" {
			date, err := parseDate(input.EventDate)
			if err != nil {
				respondError(c, err)
				return
			}
			booking.EventDate = date
		}

		if err := writer.Insert(ownWrite(c), &booking); err != nil {
			respondError(c, err)
			return
		}
		mergeSaved(ws, booking)
		c.JSON(201, booking)
	}
}

type UpdateBookingInput struct {
	Stage         *string               `json:"stage"`
	Status        *models.BookingStatus `json:"status"`
	Notes         *string               `json:"notes"`
	VenueLocation *string               `json:"venueLocation"`
	VenueEmail    *string               `json:"venueEmail" binding:"omitempty,email"`
	EventDate     *string               `json:"eventDate"`
	EventTime     *string               `json:"eventTime"`
	OfferAmount   *float64              `json:"offerAmount"`
}

func (in UpdateBookingInput) patch() (models.BookingPatch, error) {
	if in.Stage != nil {
		return models.BookingPatch{}, models.ValidationError{Field: "stage", Msg: "stage changes go through the booking's next action"}
	}
	p := models.BookingPatch{
		Status:        in.Status,
		Notes:         in.Notes,
		VenueLocation: in.VenueLocation,
		VenueEmail:    in.VenueEmail,
		EventTime:     in.EventTime,
		OfferAmount:   in.OfferAmount,
	}
	if in.EventDate != nil {
		date, err := parseDate(*in.EventDate)
		if err != nil {
			return models.BookingPatch{}, err
		}
		p.EventDate = &date
	}
	if p.Empty() {
		return models.BookingPatch{}, models.ValidationError{Msg: "nothing to update"}
	}
	return p, nil
}

// UpdateBooking edits notes and details. The stage is never written here.
func UpdateBooking(writer BookingWriter, ws Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input UpdateBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		patch, err := input.patch()
		if err != nil {
			respondError(c, err)
			return
		}

		saved, err := writer.Update(ownWrite(c), userId, c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		mergeSaved(ws, saved)
		c.JSON(200, saved)
	}
}

// DeleteBooking removes a booking; open workspaces drop it via the feed.
func DeleteBooking(writer BookingWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id := c.Param("id")

		if err := writer.Delete(ownWrite(c), userId, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": fmt.Sprintf("Booking %s deleted", id)})
	}
}

// ReloadBookings re-reads the owner's bookings from the record store. On
// failure the previous contents stay in place.
func ReloadBookings(ws Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		list, err := ws.Reload(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"bookings": list, "total": len(list)})
	}
}
