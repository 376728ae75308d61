package helper

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"zipline_manager/model"
)

const ScanChannel = "zipline:scans"

// ScanFeed fans validation attempts out to the connected dashboards. With
// redis every instance publishes to one channel and Run relays the channel to
// local subscribers; without it events go straight to local subscribers.
type ScanFeed struct {
	rdb *redis.Client

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

func NewScanFeed(rdb *redis.Client) *ScanFeed {
	return &ScanFeed{rdb: rdb, subscribers: make(map[chan []byte]struct{})}
}

func (f *ScanFeed) Publish(ctx context.Context, event model.ScanEvent) {
	if f == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("encoding scan event")
		return
	}
	if f.rdb == nil {
		f.broadcast(payload)
		return
	}
	if err := f.rdb.Publish(ctx, ScanChannel, payload).Err(); err != nil {
		logrus.WithError(err).Warn("publishing scan event to redis, delivering locally")
		f.broadcast(payload)
	}
}

// Subscribe registers a listener. The returned func unregisters it.
func (f *ScanFeed) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 16)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			f.mu.Unlock()
		})
	}
}

// Run relays the redis channel to local subscribers until ctx is done.
func (f *ScanFeed) Run(ctx context.Context) error {
	if f.rdb == nil {
		<-ctx.Done()
		return nil
	}
	pubsub := f.rdb.Subscribe(ctx, ScanChannel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			f.broadcast([]byte(msg.Payload))
		}
	}
}

// broadcast never blocks: a subscriber that is not keeping up misses events.
func (f *ScanFeed) broadcast(payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- payload:
		default:
		}
	}
}
