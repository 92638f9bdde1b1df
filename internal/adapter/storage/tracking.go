package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

type TrackingRepository struct {
	db *pgxpool.Pool
}

func NewTrackingRepository(db *pgxpool.Pool) *TrackingRepository {
	return &TrackingRepository{db: db}
}

// UpsertPosition keeps exactly one row per bus: insert on first sight,
// overwrite lat/lon/timestamp afterwards.
func (r *TrackingRepository) UpsertPosition(ctx context.Context, busID int64, lat, lon float64) (*domain.BusLocation, error) {
	query := `
		INSERT INTO bus_locations (bus_id, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (bus_id) DO UPDATE
		SET latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    updated_at = NOW()
		RETURNING bus_id, latitude, longitude, updated_at
	`

	var loc domain.BusLocation
	err := r.db.QueryRow(ctx, query, busID, lat, lon).Scan(&loc.BusID, &loc.Latitude, &loc.Longitude, &loc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert position: %w", err)
	}
	return &loc, nil
}

func (r *TrackingRepository) ListPositions(ctx context.Context) ([]domain.BusLocation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT bus_id, latitude, longitude, updated_at FROM bus_locations ORDER BY bus_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var locations []domain.BusLocation
	for rows.Next() {
		var loc domain.BusLocation
		if err := rows.Scan(&loc.BusID, &loc.Latitude, &loc.Longitude, &loc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (r *TrackingRepository) GetGeometry(ctx context.Context, routeName string) (*domain.RouteGeometry, error) {
	query := `
		SELECT id, route_name, origin_lat, origin_lon, destination_lat, destination_lon, polyline, updated_at
		FROM routes_geometry
		WHERE route_name = $1
	`

	var g domain.RouteGeometry
	err := r.db.QueryRow(ctx, query, routeName).Scan(
		&g.ID, &g.RouteName, &g.OriginLat, &g.OriginLon, &g.DestLat, &g.DestLon, &g.Polyline, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get geometry: %w", err)
	}
	return &g, nil
}

func (r *TrackingRepository) SaveGeometry(ctx context.Context, g *domain.RouteGeometry) error {
	query := `
		INSERT INTO routes_geometry (id, route_name, origin_lat, origin_lon, destination_lat, destination_lon, polyline, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (route_name) DO UPDATE
		SET polyline = EXCLUDED.polyline,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, g.ID, g.RouteName, g.OriginLat, g.OriginLon, g.DestLat, g.DestLon, g.Polyline)
	if err != nil {
		return fmt.Errorf("failed to save geometry: %w", err)
	}
	return nil
}
