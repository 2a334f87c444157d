package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"logistics-dashboard-service/internal/ports"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel carrying change events between service instances.
const RedisChannel = "dashboard:changes"

// RedisBroker implements ports.ChangeBroker over Redis Pub/Sub, so every
// instance sharing a store sees every write.
type RedisBroker struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[<-chan ports.ChangeEvent]*redis.PubSub
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis broker: parse url: %w", err)
	}

	return &RedisBroker{
		rdb:  redis.NewClient(opt),
		subs: map[<-chan ports.ChangeEvent]*redis.PubSub{},
	}, nil
}

// Ping verifies the connection.
func (b *RedisBroker) Ping(ctx context.Context) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis broker: ping: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe() <-chan ports.ChangeEvent {
	ch := make(chan ports.ChangeEvent, subscriberBuffer)
	ctx := context.Background()

	ps := b.rdb.Subscribe(ctx, RedisChannel)
	// Wait for the subscription confirmation so no publish after return is lost.
	if _, err := ps.Receive(ctx); err != nil {
		log.Printf("redis broker: subscribe: %v", err)
	}

	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()

	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt ports.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Printf("redis broker: decode event: %v", err)
				continue
			}
			offer(ch, evt)
		}
	}()

	return ch
}

// Unsubscribe closes the Redis subscription; the channel is closed once the
// receive loop drains.
func (b *RedisBroker) Unsubscribe(ch <-chan ports.ChangeEvent) {
	b.mu.Lock()
	ps, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()

	if ok {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(ctx context.Context, evt ports.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("redis broker: encode event: %v", err)
		return
	}
	if err := b.rdb.Publish(ctx, RedisChannel, data).Err(); err != nil {
		log.Printf("redis broker: publish collection=%s: %v", evt.Collection, err)
	}
}

// Close releases every subscription and the client.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	for ch, ps := range b.subs {
		_ = ps.Close()
		delete(b.subs, ch)
	}
	b.mu.Unlock()

	return b.rdb.Close()
}
