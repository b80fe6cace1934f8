package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID         string             `bson:"user_id" json:"user_id"`
	Type           string             `bson:"type" json:"type"` // trade_offer_accepted, trade_completed, etc
	Title          string             `bson:"title" json:"title"`
	Body           string             `bson:"body" json:"body"`
	RelatedOfferID int64              `bson:"related_offer_id" json:"related_offer_id"`
	RelatedUserID  string             `bson:"related_user_id" json:"related_user_id"`
	CreatedAt      time.Time          `bson:"created_at" json:"-"`
}

// StatusHistory records one committed status transition of an offer.
type StatusHistory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OfferID   int64              `bson:"offer_id"`
	OldStatus OfferStatus        `bson:"old_status"`
	NewStatus OfferStatus        `bson:"new_status"`
	ChangedBy string             `bson:"changed_by"`
	Timestamp time.Time          `bson:"timestamp"`
}
