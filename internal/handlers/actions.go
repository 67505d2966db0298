package handlers

import (
	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/gin-gonic/gin"
)

// DispatchAction opens the dialog owed at the booking's current stage.
func DispatchAction(ws Workspaces) gin.HandlerFunc {
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

		inv, err := w.Dispatcher.Dispatch(c.Request.Context(), b)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, inv)
	}
}

// CompleteAction finishes the open dialog and advances the booking. The
// response waits for the write; if the client goes away first the
// transition still completes in the background.
func CompleteAction(ws Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		id := c.Param("id")

		w, err := ws.Open(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}

		done, err := w.Dispatcher.Complete(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		select {
		case err := <-done:
			if err != nil {
				respondError(c, err)
				return
			}
		case <-c.Request.Context().Done():
			c.JSON(202, gin.H{"message": "Completion pending", "bookingId": id})
			return
		}

		b, _ := w.Store.Get(id)
		c.JSON(200, gin.H{
			"booking":    b,
			"nextAction": b.NextAction(),
		})
	}
}

// DismissAction closes the open dialog without changing the booking.
func DismissAction(ws Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		w, err := ws.Open(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"dismissed": w.Dispatcher.Dismiss(c.Param("id"))})
	}
}
