package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

// Sink appends user-facing alerts. Persistence is best-effort: a failed
// insert is logged and swallowed so the triggering ledger mutation, which
// has already committed, is never reported as failed.
type Sink struct {
	store domain.NotificationStore
}

func NewSink(store domain.NotificationStore) *Sink {
	return &Sink{store: store}
}

func (s *Sink) Notify(ctx context.Context, userID uuid.UUID, title, message string) {
	n := &domain.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	if err := s.store.Append(ctx, n); err != nil {
		slog.Error("Failed to persist notification", "error", err, "user_id", userID, "title", title)
	}
}
