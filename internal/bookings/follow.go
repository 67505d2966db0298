package bookings

import (
	"context"
	"fmt"
	"log"
)

// Follow subscribes to the owner's change feed and reconciles every event
// in arrival order until ctx is cancelled or the feed closes. The returned
// channel is closed when the pump stops.
func (s *Store) Follow(ctx context.Context, feed ChangeFeed) (<-chan struct{}, error) {
	events, err := feed.Subscribe(ctx, s.owner)
	if err != nil {
		return nil, fmt.Errorf("subscribe to change feed: %w", err)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					log.Printf("[FEED] owner=%d change feed closed", s.owner)
					return
				}
				s.Reconcile(event)
			}
		}
	}()
	return stopped, nil
}
