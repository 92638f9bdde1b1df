package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

type RouteRepository struct {
	db *pgxpool.Pool
}

func NewRouteRepository(db *pgxpool.Pool) *RouteRepository {
	return &RouteRepository{db: db}
}

const routeColumns = `id, route_number, route_name, origin, destination, fare, active`

func (r *RouteRepository) ListActive(ctx context.Context) ([]domain.BusRoute, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+routeColumns+` FROM bus_routes WHERE active ORDER BY route_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	var routes []domain.BusRoute
	for rows.Next() {
		var route domain.BusRoute
		if err := rows.Scan(&route.ID, &route.RouteNumber, &route.RouteName,
			&route.Origin, &route.Destination, &route.Fare, &route.Active); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func (r *RouteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BusRoute, error) {
	var route domain.BusRoute
	err := r.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM bus_routes WHERE id = $1`, id).Scan(
		&route.ID, &route.RouteNumber, &route.RouteName,
		&route.Origin, &route.Destination, &route.Fare, &route.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

func (r *RouteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bus_routes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return count, nil
}

// Seed inserts the example routes in one transaction.
func (r *RouteRepository) Seed(ctx context.Context, routes []domain.BusRoute) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, route := range routes {
		_, err := tx.Exec(ctx, `
			INSERT INTO bus_routes (id, route_number, route_name, origin, destination, fare, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			route.ID, route.RouteNumber, route.RouteName, route.Origin, route.Destination, route.Fare, route.Active)
		if err != nil {
			return fmt.Errorf("failed to seed route %s: %w", route.RouteNumber, err)
		}
	}
	return tx.Commit(ctx)
}
