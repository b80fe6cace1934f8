// Package notify delivers status-change notifications to the counterparty
// of a trade offer. Delivery is best effort: failures are logged and never
// surface to the transition that triggered them.
package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"swappo-matchmaking/internal/client"
	entity "swappo-matchmaking/internal/domain"
	mongorepo "swappo-matchmaking/internal/repository/mongodb"
)

const notificationCircuit = "notifications_http"

// Notifier sends notifications to the notification service and keeps a copy
// of each one in the Mongo notification collection.
type Notifier struct {
	baseURL  string
	hc       *http.Client
	pipeline failsafe.Executor[*http.Response]
	limiter  *rate.Limiter
	logRepo  mongorepo.LogRepository // optional, nil disables the copy
	logger   *zap.Logger
}

func NewNotifier(baseURL string, logRepo mongorepo.LogRepository, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		baseURL:  baseURL,
		hc:       &http.Client{Timeout: 5 * time.Second},
		pipeline: client.NewPipeline(notificationCircuit),
		// Notifications are not latency sensitive; keep bursts away from
		// the notification service.
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		logRepo: logRepo,
		logger:  logger,
	}
}

// SendStatusNotification notifies the participant opposite to actorID about
// the offer's new status.
func (n *Notifier) SendStatusNotification(ctx context.Context, offer *entity.TradeOffer, actorID string) {
	notification, ok := buildNotification(offer, actorID)
	if !ok {
		return
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Warn("notification rate limiter wait cancelled", zap.Error(err))
		return
	}

	_, err := client.PostJSON(ctx, n.hc, n.pipeline, notificationCircuit, n.baseURL+"/api/v1/notifications", notification)
	if err != nil {
		n.logger.Warn("failed to send notification",
			zap.Int64("offer_id", offer.ID),
			zap.String("type", notification.Type),
			zap.Error(err),
		)
	}

	if n.logRepo != nil {
		notification.CreatedAt = time.Now().UTC()
		if err := n.logRepo.SaveNotification(ctx, notification); err != nil {
			n.logger.Warn("failed to save notification copy",
				zap.Int64("offer_id", offer.ID), zap.Error(err))
		}
	}
}

// buildNotification maps a status to its notification payload. Statuses
// without a defined notification (ok == false) are skipped.
func buildNotification(offer *entity.TradeOffer, actorID string) (*entity.Notification, bool) {
	notification := &entity.Notification{
		UserID:         offer.Counterparty(actorID),
		RelatedOfferID: offer.ID,
		RelatedUserID:  actorID,
	}

	switch offer.Status {
	case entity.StatusAccepted:
		notification.Type = "trade_offer_accepted"
		notification.Title = "Trade Offer Accepted!"
		notification.Body = "Great news! Your trade offer has been accepted."
	case entity.StatusRejected:
		notification.Type = "trade_offer_rejected"
		notification.Title = "Trade Offer Declined"
		notification.Body = "Your trade offer was declined. Keep exploring!"
	case entity.StatusCancelled:
		notification.Type = "trade_offer_cancelled"
		notification.Title = "Trade Offer Cancelled"
		notification.Body = "A trade offer you received has been cancelled."
	case entity.StatusCompleted:
		notification.Type = "trade_completed"
		notification.Title = "Trade Completed!"
		notification.Body = "Congratulations! Your trade has been completed."
	default:
		return nil, false
	}
	return notification, true
}
