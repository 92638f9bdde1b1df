package tracking

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestRoutePolylineFetchesAndCaches(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("mode"); got != "driving" {
			t.Errorf("expected mode=driving, got %q", got)
		}
		fmt.Fprint(w, `{"status":"OK","routes":[{"overview_polyline":{"points":"abc123"}}]}`)
	}))
	defer server.Close()

	store := newMemTrackingStore()
	client := NewDirectionsClient(store, "test-key", -23.55, -46.63, -23.56, -46.65)
	client.baseURL = server.URL

	polyline, cached, err := client.RoutePolyline(context.Background(), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached {
		t.Error("first lookup must not be a cache hit")
	}
	if polyline != "abc123" {
		t.Errorf("expected polyline abc123, got %q", polyline)
	}

	polyline, cached, err = client.RoutePolyline(context.Background(), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cached || polyline != "abc123" {
		t.Errorf("expected cached polyline, got cached=%v polyline=%q", cached, polyline)
	}
	if calls.Load() != 1 {
		t.Errorf("external service called %d times, expected 1", calls.Load())
	}
}

func TestRoutePolylineServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"invalid key","routes":[]}`)
	}))
	defer server.Close()

	client := NewDirectionsClient(newMemTrackingStore(), "bad-key", 0, 0, 1, 1)
	client.baseURL = server.URL

	if _, _, err := client.RoutePolyline(context.Background(), 3); err == nil {
		t.Fatal("expected an error from the directions service")
	}
}
