package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerStore owns accounts and the append-only transaction log.
type LedgerStore interface {
	// GetAccount returns the ledger view of a user's card.
	GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error)

	// ListTransactions returns the user's transactions, newest first.
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]Transaction, error)

	// CommitMutation is the sole balance mutation entry point: it applies
	// delta to the account balance and appends txn atomically. Either both
	// writes happen or neither does.
	CommitMutation(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, txn *Transaction) error
}

// NotificationStore owns user-facing alerts.
type NotificationStore interface {
	Append(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	// MarkRead flips the read flag; only the owner may do so.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// TrackingStore owns bus positions and the cached route geometry.
type TrackingStore interface {
	// UpsertPosition inserts the position for an unseen bus or overwrites
	// lat/lon/timestamp in place, and returns the stored row.
	UpsertPosition(ctx context.Context, busID int64, lat, lon float64) (*BusLocation, error)
	ListPositions(ctx context.Context) ([]BusLocation, error)

	GetGeometry(ctx context.Context, routeName string) (*RouteGeometry, error)
	SaveGeometry(ctx context.Context, g *RouteGeometry) error
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// Session tokens, stored hashed.
	SaveToken(ctx context.Context, userID uuid.UUID, tokenHash string) error
	GetUserIDByToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	DeleteToken(ctx context.Context, tokenHash string) error
}

type RouteStore interface {
	ListActive(ctx context.Context) ([]BusRoute, error)
	GetByID(ctx context.Context, id uuid.UUID) (*BusRoute, error)
	Count(ctx context.Context) (int64, error)
	Seed(ctx context.Context, routes []BusRoute) error
}

type DriverStore interface {
	Create(ctx context.Context, d *Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	List(ctx context.Context) ([]Driver, error)
	Update(ctx context.Context, d *Driver) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type VehicleStore interface {
	Create(ctx context.Context, v *Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	List(ctx context.Context) ([]Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RatingStore interface {
	Create(ctx context.Context, r *Rating) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Rating, error)
	Stats(ctx context.Context) (*RatingStats, error)
}

// Notifier delivers a best-effort alert to a user. Implementations must
// never propagate failures back into the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string)
}

// EventPublisher emits ledger events to external systems (e.g. Kafka).
// Publishing is fire-and-forget; a nil publisher disables it.
type EventPublisher interface {
	PublishTransactionCompleted(txn *Transaction)
}
