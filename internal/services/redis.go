package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// InitRedis initializes the Redis client
func InitRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test the connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// ChangeChannel is the pub/sub channel carrying one owner's booking changes.
func ChangeChannel(ownerID uint) string {
	return fmt.Sprintf("bookings:changes:%d", ownerID)
}

// ChangeFeed publishes and delivers booking change events over Redis
// pub/sub, one channel per owner.
type ChangeFeed struct {
	client *redis.Client
	buffer int
}

func NewChangeFeed(client *redis.Client) *ChangeFeed {
	return &ChangeFeed{client: client, buffer: 64}
}

// Publish sends event on its owner's channel.
func (f *ChangeFeed) Publish(ctx context.Context, event models.ChangeEvent) error {
	data, err := encodeChange(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, ChangeChannel(event.OwnerID), data).Err()
}

// Subscribe delivers the owner's change events in arrival order until ctx is
// cancelled, then closes the channel.
func (f *ChangeFeed) Subscribe(ctx context.Context, ownerID uint) (<-chan models.ChangeEvent, error) {
	pubsub := f.client.Subscribe(ctx, ChangeChannel(ownerID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", ChangeChannel(ownerID), err)
	}

	out := make(chan models.ChangeEvent, f.buffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				event, err := decodeChange([]byte(msg.Payload))
				if err != nil {
					log.Printf("[FEED] dropping malformed event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func encodeChange(event models.ChangeEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode change event: %w", err)
	}
	return data, nil
}

func decodeChange(data []byte) (models.ChangeEvent, error) {
	var event models.ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return models.ChangeEvent{}, err
	}
	if event.Table == "" || event.EventType == "" {
		return models.ChangeEvent{}, fmt.Errorf("missing table or eventType")
	}
	if event.Record.ID == "" {
		return models.ChangeEvent{}, fmt.Errorf("missing record id")
	}
	return event, nil
}
