// Package workspace keeps one live booking store per signed-in owner,
// following that owner's change feed.
package workspace

import (
	"context"
	"log"
	"sync"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/dispatch"
	"github.com/chachabrian/tourbook-backend/internal/models"
)

// Workspace is an owner's aggregate store and the dispatcher driving it.
type Workspace struct {
	Store      *bookings.Store
	Dispatcher *dispatch.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
}

// ChangeListener receives every store event of every open workspace.
type ChangeListener func(ownerID uint, event bookings.StoreEvent)

type Config struct {
	Records  bookings.RecordStore
	Feed     bookings.ChangeFeed
	Dialogs  []dispatch.Dialog
	Hooks    []dispatch.AdvanceHook
	OnChange ChangeListener
}

// Manager opens workspaces on first use and keeps them until Close.
type Manager struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mutex      sync.Mutex
	workspaces map[uint]*Workspace
	opening    map[uint]*opening
}

// opening is a workspace being loaded. Callers for the same owner wait on
// done; other owners never do.
type opening struct {
	done chan struct{}
	ws   *Workspace
	err  error
}

func NewManager(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		workspaces: make(map[uint]*Workspace),
		opening:    make(map[uint]*opening),
	}
}

// Open returns the owner's workspace, loading it on first use. Concurrent
// calls for one owner share a single load; the manager lock is never held
// while the feed or the record store is contacted. A failed load is not
// cached so the next call retries.
func (m *Manager) Open(ctx context.Context, ownerID uint) (*Workspace, error) {
	m.mutex.Lock()
	if ws, ok := m.workspaces[ownerID]; ok {
		m.mutex.Unlock()
		return ws, nil
	}
	if o, ok := m.opening[ownerID]; ok {
		m.mutex.Unlock()
		select {
		case <-o.done:
			return o.ws, o.err
		case <-ctx.Done():
			return nil, &bookings.LoadError{OwnerID: ownerID, Err: ctx.Err()}
		}
	}
	o := &opening{done: make(chan struct{})}
	m.opening[ownerID] = o
	m.mutex.Unlock()

	ws, stopped, err := m.load(ctx, ownerID)

	m.mutex.Lock()
	delete(m.opening, ownerID)
	if err == nil && m.ctx.Err() != nil {
		ws.cancel()
		ws, err = nil, &bookings.LoadError{OwnerID: ownerID, Err: m.ctx.Err()}
	}
	if err == nil {
		m.workspaces[ownerID] = ws
	}
	m.mutex.Unlock()

	o.ws, o.err = ws, err
	close(o.done)
	if err != nil {
		return nil, err
	}

	m.watch(ownerID, ws, stopped)
	log.Printf("[WORKFLOW] owner=%d workspace opened with %d bookings", ownerID, ws.Store.Len())
	return ws, nil
}

// load follows the owner's feed and then reads the record store.
func (m *Manager) load(ctx context.Context, ownerID uint) (*Workspace, <-chan struct{}, error) {
	wsCtx, cancel := context.WithCancel(m.ctx)
	store := bookings.NewStore(ownerID, m.cfg.Records)

	// Follow before loading so no change between the two is missed; Load
	// keeps whatever the feed applies while it reads.
	stopped, err := store.Follow(wsCtx, m.cfg.Feed)
	if err != nil {
		cancel()
		return nil, nil, &bookings.LoadError{OwnerID: ownerID, Err: err}
	}
	if _, err := store.Load(ctx); err != nil {
		cancel()
		return nil, nil, err
	}

	dispatcher := dispatch.NewDispatcher(store, m.cfg.Dialogs...)
	for _, hook := range m.cfg.Hooks {
		dispatcher.OnAdvance(hook)
	}
	return &Workspace{Store: store, Dispatcher: dispatcher, ctx: wsCtx, cancel: cancel}, stopped, nil
}

// watch forwards store events to OnChange and evicts the workspace when its
// feed stops.
func (m *Manager) watch(ownerID uint, ws *Workspace, stopped <-chan struct{}) {
	if m.cfg.OnChange != nil {
		events, unsubscribe := ws.Store.Subscribe()
		go func() {
			<-ws.ctx.Done()
			unsubscribe()
		}()
		go func() {
			for event := range events {
				m.cfg.OnChange(ownerID, event)
			}
		}()
	}

	go func() {
		<-stopped
		if ws.ctx.Err() == nil {
			log.Printf("[WORKFLOW] owner=%d change feed stopped, workspace evicted", ownerID)
		}
		m.evict(ownerID, ws)
	}()
}

// Lookup returns an already open workspace without loading.
func (m *Manager) Lookup(ownerID uint) (*Workspace, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	ws, ok := m.workspaces[ownerID]
	return ws, ok
}

func (m *Manager) evict(ownerID uint, ws *Workspace) {
	m.mutex.Lock()
	if m.workspaces[ownerID] == ws {
		delete(m.workspaces, ownerID)
	}
	m.mutex.Unlock()
	ws.cancel()
}

// Bookings returns the owner's bookings in store order.
func (m *Manager) Bookings(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	ws, err := m.Open(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ws.Store.Bookings(), nil
}

// Reload re-reads the owner's bookings from the record store.
func (m *Manager) Reload(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	m.mutex.Lock()
	ws, ok := m.workspaces[ownerID]
	m.mutex.Unlock()
	if !ok {
		return m.Bookings(ctx, ownerID)
	}
	return ws.Store.Load(ctx)
}

// Close stops every feed pump and drops all workspaces.
func (m *Manager) Close() {
	m.cancel()
	m.mutex.Lock()
	m.workspaces = make(map[uint]*Workspace)
	m.mutex.Unlock()
}
