package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

const directionsBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

// DirectionsClient fetches an encoded route polyline from the Google
// Directions API and caches it in storage keyed by route name, so repeated
// lookups never hit the external service twice.
type DirectionsClient struct {
	store   domain.TrackingStore
	apiKey  string
	baseURL string

	originLat, originLon float64
	destLat, destLon     float64

	httpClient *http.Client
}

func NewDirectionsClient(store domain.TrackingStore, apiKey string, originLat, originLon, destLat, destLon float64) *DirectionsClient {
	return &DirectionsClient{
		store:     store,
		apiKey:    apiKey,
		baseURL:   directionsBaseURL,
		originLat: originLat,
		originLon: originLon,
		destLat:   destLat,
		destLon:   destLon,
		// Don't let a slow external service hold requests hostage.
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

// RoutePolyline returns the encoded polyline for a bus line, serving from
// the cache when possible. The boolean reports a cache hit.
func (c *DirectionsClient) RoutePolyline(ctx context.Context, busID int64) (string, bool, error) {
	routeName := fmt.Sprintf("Linha_%d", busID)

	cached, err := c.store.GetGeometry(ctx, routeName)
	if err == nil && cached.Polyline != "" {
		return cached.Polyline, true, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", false, fmt.Errorf("geometry lookup: %w", err)
	}

	polyline, err := c.fetchPolyline(ctx)
	if err != nil {
		return "", false, err
	}

	geometry := &domain.RouteGeometry{
		ID:        uuid.New(),
		RouteName: routeName,
		OriginLat: c.originLat,
		OriginLon: c.originLon,
		DestLat:   c.destLat,
		DestLon:   c.destLon,
		Polyline:  polyline,
	}
	if err := c.store.SaveGeometry(ctx, geometry); err != nil {
		return "", false, fmt.Errorf("geometry cache: %w", err)
	}

	return polyline, false, nil
}

func (c *DirectionsClient) fetchPolyline(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", c.originLat, c.originLon))
	params.Set("destination", fmt.Sprintf("%f,%f", c.destLat, c.destLon))
	params.Set("mode", "driving")
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("directions decode: %w", err)
	}

	if body.Status != "OK" || len(body.Routes) == 0 {
		detail := body.ErrorMessage
		if detail == "" {
			detail = body.Status
		}
		return "", fmt.Errorf("directions service: %s", detail)
	}

	return body.Routes[0].OverviewPolyline.Points, nil
}
