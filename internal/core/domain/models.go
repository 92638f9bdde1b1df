package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a registered passenger (or admin). The stored-value card balance
// lives directly on the user row, mirroring the original schema.
type User struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Password    string          `json:"-"` // bcrypt hash, never serialized
	Role        string          `json:"role"` // "user" or "admin"
	CardBalance decimal.Decimal `json:"card_balance"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Account is the ledger's read model of a user: identity plus the current
// card balance. Mutated only through LedgerStore.CommitMutation.
type Account struct {
	ID      uuid.UUID
	Owner   string
	Balance decimal.Decimal
}

type TransactionKind string

const (
	KindRecharge TransactionKind = "recharge"
	KindUsage    TransactionKind = "usage"
)

// Transaction is an immutable, append-only ledger record. Amount is signed:
// positive for recharges, negative for usage debits.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        TransactionKind `json:"transaction_type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BusRoute is read-mostly reference data with a flat fare per trip.
type BusRoute struct {
	ID          uuid.UUID       `json:"id"`
	RouteNumber string          `json:"route_number"`
	RouteName   string          `json:"route_name"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Fare        decimal.Decimal `json:"fare"`
	Active      bool            `json:"active"`
}

// BusLocation holds the latest known position of a tracked bus.
// One row per bus: an update replaces lat/lon/timestamp in place.
type BusLocation struct {
	BusID     int64     `json:"bus_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"timestamp"`
}

type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Driver struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf"`
	CNH       string    `json:"cnh"`
	BusLine   string    `json:"bus_line"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

type Vehicle struct {
	ID        uuid.UUID  `json:"id"`
	Plate     string     `json:"plate"`
	Model     string     `json:"model"`
	Brand     string     `json:"brand"`
	Year      int        `json:"year"`
	Capacity  int        `json:"capacity"`
	Status    string     `json:"status"` // "ativo", "inativo", "manutencao"
	BusLine   string     `json:"bus_line,omitempty"`
	DriverID  *uuid.UUID `json:"driver_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Rating is a rider's review of a trip. Overall is mandatory (1-5);
// the category ratings are optional (0 means not rated).
type Rating struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Overall     int        `json:"overall_rating"`
	Punctuality int        `json:"punctuality_rating"`
	Cleanliness int        `json:"cleanliness_rating"`
	Comfort     int        `json:"comfort_rating"`
	Service     int        `json:"service_rating"`
	Comments    string     `json:"comments,omitempty"`
	BusLine     string     `json:"bus_line,omitempty"`
	TripDate    *time.Time `json:"trip_date,omitempty"`
	TripTime    string     `json:"trip_time,omitempty"` // "HH:MM"
	CreatedAt   time.Time  `json:"created_at"`
}

// RatingStats aggregates all submitted ratings.
type RatingStats struct {
	TotalRatings       int64   `json:"total_ratings"`
	AverageOverall     float64 `json:"average_overall"`
	AveragePunctuality float64 `json:"average_punctuality"`
	AverageCleanliness float64 `json:"average_cleanliness"`
	AverageComfort     float64 `json:"average_comfort"`
	AverageService     float64 `json:"average_service"`
}

// RouteGeometry caches the encoded polyline fetched from the external
// directions service, keyed by route name.
type RouteGeometry struct {
	ID        uuid.UUID `json:"id"`
	RouteName string    `json:"route_name"`
	OriginLat float64   `json:"origin_lat"`
	OriginLon float64   `json:"origin_lon"`
	DestLat   float64   `json:"destination_lat"`
	DestLon   float64   `json:"destination_lon"`
	Polyline  string    `json:"polyline"`
	UpdatedAt time.Time `json:"updated_at"`
}
