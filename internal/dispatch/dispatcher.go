package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

// Transitioner is the part of the aggregate store the dispatcher drives.
type Transitioner interface {
	Get(id string) (models.Booking, bool)
	ApplyLocalTransition(ctx context.Context, id string, stage workflow.Stage) (<-chan error, error)
}

// AdvanceHook runs after a completed action has been persisted.
type AdvanceHook func(ctx context.Context, booking models.Booking, from workflow.Stage)

// Dispatcher opens the dialog owed at a booking's stage and advances the
// stage only when that dialog is completed.
type Dispatcher struct {
	store   Transitioner
	dialogs map[workflow.DialogKind]Dialog
	now     func() time.Time

	mutex sync.Mutex
	open  map[string]Invocation
	hooks []AdvanceHook
}

func NewDispatcher(store Transitioner, dialogs ...Dialog) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		dialogs: make(map[workflow.DialogKind]Dialog, len(dialogs)),
		now:     time.Now,
		open:    make(map[string]Invocation),
	}
	for _, dialog := range dialogs {
		d.dialogs[dialog.Kind()] = dialog
	}
	return d
}

// OnAdvance registers a hook called after every successful advance.
func (d *Dispatcher) OnAdvance(hook AdvanceHook) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.hooks = append(d.hooks, hook)
}

func (d *Dispatcher) dialogFor(kind workflow.DialogKind) (Dialog, error) {
	if dialog, ok := d.dialogs[kind]; ok {
		return dialog, nil
	}
	if dialog, ok := d.dialogs[workflow.DialogEmailComposer]; ok {
		log.Printf("[WORKFLOW] no %s dialog registered, falling back to email composer", kind)
		return dialog, nil
	}
	return nil, fmt.Errorf("%w for %s", ErrNoDialog, kind)
}

// Dispatch opens the dialog for the booking's next action. It never changes
// the booking; re-dispatching replaces the open invocation.
func (d *Dispatcher) Dispatch(ctx context.Context, booking models.Booking) (Invocation, error) {
	action := workflow.NextActionFor(booking.Stage)
	dialog, err := d.dialogFor(action.Dialog)
	if err != nil {
		return Invocation{}, err
	}

	payload := Payload{
		BookingID: booking.ID,
		OwnerID:   booking.OwnerID,
		Stage:     booking.Stage,
		Action:    action,
		Booking:   booking.Clone(),
	}
	doc, err := dialog.Open(ctx, payload)
	if err != nil {
		return Invocation{}, fmt.Errorf("open %s dialog: %w", dialog.Kind(), err)
	}

	inv := Invocation{Dialog: dialog.Kind(), Payload: payload, Document: doc, OpenedAt: d.now()}
	d.mutex.Lock()
	d.open[booking.ID] = inv
	d.mutex.Unlock()

	log.Printf("[WORKFLOW] opened %s for booking %s at stage %s", inv.Dialog, booking.ID, booking.Stage)
	return inv, nil
}

// Open returns the invocation open for a booking, if any.
func (d *Dispatcher) Open(bookingID string) (Invocation, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	inv, ok := d.open[bookingID]
	return inv, ok
}

// Dismiss closes the dialog without touching the booking. It reports whether
// an invocation was open.
func (d *Dispatcher) Dismiss(bookingID string) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	_, ok := d.open[bookingID]
	delete(d.open, bookingID)
	return ok
}

// Complete finishes the open dialog and advances the booking one stage. The
// returned channel carries the persistence outcome. At the terminal stage
// the invocation closes without a transition.
func (d *Dispatcher) Complete(ctx context.Context, bookingID string) (<-chan error, error) {
	d.mutex.Lock()
	inv, ok := d.open[bookingID]
	if !ok {
		d.mutex.Unlock()
		return nil, ErrNoOpenAction
	}
	delete(d.open, bookingID)
	hooks := append([]AdvanceHook(nil), d.hooks...)
	d.mutex.Unlock()

	current, ok := d.store.Get(bookingID)
	if !ok {
		return nil, bookings.ErrTransitionNotFound
	}
	from := inv.Payload.Stage
	if current.Stage != from {
		log.Printf("[WORKFLOW] dropping stale %s for booking %s: %s -> %s", inv.Dialog, bookingID, from, current.Stage)
		return nil, ErrStaleAction
	}

	if finisher, ok := d.dialogs[inv.Dialog].(Finisher); ok && !inv.Finished {
		if err := finisher.Finish(ctx, inv); err != nil {
			d.reopen(inv)
			return nil, fmt.Errorf("finish %s: %w", inv.Dialog, err)
		}
		inv.Finished = true
	}

	next, ok := workflow.Advance(from)
	if !ok {
		done := make(chan error)
		close(done)
		return done, nil
	}

	result, err := d.store.ApplyLocalTransition(ctx, bookingID, next)
	if err != nil {
		d.reopen(inv)
		return nil, err
	}

	out := make(chan error, 1)
	go func() {
		defer close(out)
		err := <-result
		if err == nil {
			if advanced, ok := d.store.Get(bookingID); ok {
				for _, hook := range hooks {
					hook(context.WithoutCancel(ctx), advanced, from)
				}
			}
		}
		out <- err
	}()
	return out, nil
}

// reopen puts an invocation back unless a newer one replaced it.
func (d *Dispatcher) reopen(inv Invocation) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if _, ok := d.open[inv.Payload.BookingID]; !ok {
		d.open[inv.Payload.BookingID] = inv
	}
}
