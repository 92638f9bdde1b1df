package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

// memTrackingStore is an in-memory TrackingStore for unit tests.
type memTrackingStore struct {
	mu        sync.Mutex
	positions map[int64]domain.BusLocation
	geometry  map[string]domain.RouteGeometry
}

func newMemTrackingStore() *memTrackingStore {
	return &memTrackingStore{
		positions: make(map[int64]domain.BusLocation),
		geometry:  make(map[string]domain.RouteGeometry),
	}
}

func (s *memTrackingStore) UpsertPosition(_ context.Context, busID int64, lat, lon float64) (*domain.BusLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := domain.BusLocation{BusID: busID, Latitude: lat, Longitude: lon, UpdatedAt: time.Now().UTC()}
	s.positions[busID] = loc
	return &loc, nil
}

func (s *memTrackingStore) ListPositions(_ context.Context) ([]domain.BusLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BusLocation, 0, len(s.positions))
	for _, loc := range s.positions {
		out = append(out, loc)
	}
	return out, nil
}

func (s *memTrackingStore) GetGeometry(_ context.Context, routeName string) (*domain.RouteGeometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.geometry[routeName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (s *memTrackingStore) SaveGeometry(_ context.Context, g *domain.RouteGeometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geometry[g.RouteName] = *g
	return nil
}

func (s *memTrackingStore) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions)
}

func TestUpdatePositionUpserts(t *testing.T) {
	store := newMemTrackingStore()
	b := NewBroadcaster(store)
	ctx := context.Background()

	if _, err := b.UpdatePosition(ctx, 1001, -23.5505, -46.6333); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.rowCount() != 1 {
		t.Fatalf("expected one row, got %d", store.rowCount())
	}

	loc, err := b.UpdatePosition(ctx, 1001, -23.5515, -46.6343)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.rowCount() != 1 {
		t.Errorf("second update must replace the row, got %d rows", store.rowCount())
	}
	if loc.Latitude != -23.5515 || loc.Longitude != -46.6343 {
		t.Errorf("fields not updated in place: %+v", loc)
	}

	if _, err := b.UpdatePosition(ctx, 2001, -23.5525, -46.6353); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.rowCount() != 2 {
		t.Errorf("distinct bus must create a new row, got %d rows", store.rowCount())
	}
}

func TestSubscriberReceivesUpdatesAfterSubscription(t *testing.T) {
	b := NewBroadcaster(newMemTrackingStore())
	ctx := context.Background()

	early := b.Subscribe(DefaultChannel)
	defer early.Close()

	if _, err := b.UpdatePosition(ctx, 42, -23.55, -46.63); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case loc := <-early.Updates():
		if loc.BusID != 42 {
			t.Errorf("expected bus 42, got %d", loc.BusID)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the update")
	}

	// No replay: a late subscriber must not see earlier events.
	late := b.Subscribe(DefaultChannel)
	defer late.Close()
	select {
	case loc := <-late.Updates():
		t.Fatalf("late subscriber received a replayed event: %+v", loc)
	default:
	}
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	b := NewBroadcaster(newMemTrackingStore())
	ctx := context.Background()

	slow := b.Subscribe(DefaultChannel)
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			if _, err := b.UpdatePosition(ctx, 7, float64(i), float64(i)); err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	if got := len(slow.Updates()); got > subscriberBuffer {
		t.Errorf("subscriber queue exceeded its bound: %d", got)
	}
}

func TestCloseUnregistersSubscriber(t *testing.T) {
	b := NewBroadcaster(newMemTrackingStore())
	ctx := context.Background()

	sub := b.Subscribe(DefaultChannel)
	sub.Close()
	sub.Close() // idempotent

	if _, err := b.UpdatePosition(ctx, 9, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := <-sub.Updates(); ok {
		t.Error("closed subscriber must not receive updates")
	}
}

func TestSubscribersOnOtherChannelsDoNotReceive(t *testing.T) {
	b := NewBroadcaster(newMemTrackingStore())
	ctx := context.Background()

	other := b.Subscribe("outra-linha")
	defer other.Close()

	if _, err := b.UpdatePosition(ctx, 5, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case loc := <-other.Updates():
		t.Fatalf("unrelated channel received an event: %+v", loc)
	default:
	}
}
