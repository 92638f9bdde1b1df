package tracking

import (
	"context"
	"sync"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

// DefaultChannel is the broadcast topic live viewers join.
const DefaultChannel = "tracking"

// subscriberBuffer bounds each subscriber's queue. When a consumer falls
// behind, newer updates are dropped for it instead of stalling the publisher.
const subscriberBuffer = 16

// Broadcaster persists the latest position of each bus and fans updates out
// to every live subscriber of a named channel. Publishing is best-effort and
// never blocks on a slow or disconnected subscriber.
type Broadcaster struct {
	store domain.TrackingStore

	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
}

func NewBroadcaster(store domain.TrackingStore) *Broadcaster {
	return &Broadcaster{
		store: store,
		subs:  make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscriber is a registered listener. Updates published after subscription
// time arrive on Updates() in publish order; there is no replay of history.
type Subscriber struct {
	b       *Broadcaster
	channel string
	updates chan domain.BusLocation
	once    sync.Once
}

// Updates is the subscriber's event stream. It is closed by Close.
func (s *Subscriber) Updates() <-chan domain.BusLocation {
	return s.updates
}

// Close unregisters the subscriber and closes its stream. Safe to call more
// than once; mandatory on disconnect.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if set, ok := s.b.subs[s.channel]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.b.subs, s.channel)
			}
		}
		close(s.updates)
	})
}

// Subscribe registers a listener on the named channel.
func (b *Broadcaster) Subscribe(channel string) *Subscriber {
	sub := &Subscriber{
		b:       b,
		channel: channel,
		updates: make(chan domain.BusLocation, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*Subscriber]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	return sub
}

// UpdatePosition upserts the bus position and publishes the stored row to
// every subscriber of the default channel. The fan-out holds no ledger or
// storage locks.
func (b *Broadcaster) UpdatePosition(ctx context.Context, busID int64, lat, lon float64) (*domain.BusLocation, error) {
	loc, err := b.store.UpsertPosition(ctx, busID, lat, lon)
	if err != nil {
		return nil, err
	}
	b.publish(DefaultChannel, *loc)
	return loc, nil
}

func (b *Broadcaster) publish(channel string, loc domain.BusLocation) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[channel] {
		select {
		case sub.updates <- loc:
		default:
			// Subscriber queue full: drop rather than stall the publisher.
		}
	}
}
