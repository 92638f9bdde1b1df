package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

type RatingRepository struct {
	db *pgxpool.Pool
}

func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, user_id, overall_rating, punctuality_rating, cleanliness_rating,
		                     comfort_rating, service_rating, comments, bus_line, trip_date, trip_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	var tripTime any
	if rating.TripTime != "" {
		tripTime = rating.TripTime
	}

	err := r.db.QueryRow(ctx, query,
		rating.ID, rating.UserID, rating.Overall, rating.Punctuality, rating.Cleanliness,
		rating.Comfort, rating.Service, rating.Comments, rating.BusLine, rating.TripDate, tripTime,
	).Scan(&rating.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

func (r *RatingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Rating, error) {
	query := `
		SELECT id, user_id, overall_rating, punctuality_rating, cleanliness_rating,
		       comfort_rating, service_rating, comments, bus_line, trip_date,
		       COALESCE(trip_time, ''), created_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(&rating.ID, &rating.UserID, &rating.Overall, &rating.Punctuality,
			&rating.Cleanliness, &rating.Comfort, &rating.Service, &rating.Comments,
			&rating.BusLine, &rating.TripDate, &rating.TripTime, &rating.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (r *RatingRepository) Stats(ctx context.Context) (*domain.RatingStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(ROUND(AVG(overall_rating), 2), 0),
		       COALESCE(ROUND(AVG(punctuality_rating), 2), 0),
		       COALESCE(ROUND(AVG(cleanliness_rating), 2), 0),
		       COALESCE(ROUND(AVG(comfort_rating), 2), 0),
		       COALESCE(ROUND(AVG(service_rating), 2), 0)
		FROM ratings
	`

	var stats domain.RatingStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalRatings,
		&stats.AverageOverall,
		&stats.AveragePunctuality,
		&stats.AverageCleanliness,
		&stats.AverageComfort,
		&stats.AverageService,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute rating stats: %w", err)
	}
	return &stats, nil
}
