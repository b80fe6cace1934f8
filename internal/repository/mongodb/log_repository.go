package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	entity "swappo-matchmaking/internal/domain"
)

const (
	CollectionNotifications = "notifications"
	CollectionStatusHistory = "status_history"
)

// LogRepository keeps a side log of delivered notifications and committed
// status transitions. It is never consulted by the lifecycle engine's
// decision path.
type LogRepository interface {
	SaveNotification(ctx context.Context, n *entity.Notification) error
	SaveStatusHistory(ctx context.Context, h *entity.StatusHistory) error
}

type logRepository struct {
	notifications *mongo.Collection
	history       *mongo.Collection
}

func NewLogRepository(db *mongo.Database) LogRepository {
	return &logRepository{
		notifications: db.Collection(CollectionNotifications),
		history:       db.Collection(CollectionStatusHistory),
	}
}

func (r *logRepository) SaveNotification(ctx context.Context, n *entity.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.notifications.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *logRepository) SaveStatusHistory(ctx context.Context, h *entity.StatusHistory) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.history.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}
