package entity

import (
	"time"
)

// OfferStatus is the lifecycle status of a trade offer.
type OfferStatus string

const (
	StatusPending   OfferStatus = "pending"
	StatusAccepted  OfferStatus = "accepted"
	StatusRejected  OfferStatus = "rejected"
	StatusCancelled OfferStatus = "cancelled"
	StatusCompleted OfferStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s OfferStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is legal from s.
func (s OfferStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type TradeOffer struct {
	ID               int64       `db:"id" json:"id"`
	ProposerID       string      `db:"proposer_id" json:"proposer_id"`
	ReceiverID       string      `db:"receiver_id" json:"receiver_id"`
	OfferedItemIDs   []int64     `db:"offered_item_ids" json:"offered_item_ids"`
	RequestedItemIDs []int64     `db:"requested_item_ids" json:"requested_item_ids"`
	Status           OfferStatus `db:"status" json:"status"`
	Message          string      `db:"message" json:"message,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
	RespondedAt      *time.Time  `db:"responded_at" json:"responded_at"`
	// Version advances on every committed write. It is compared by the
	// store's conditional update and never exposed through the API.
	Version int64 `db:"version" json:"-"`
}

// IsParticipant reports whether userID is one of the two parties on the offer.
func (o *TradeOffer) IsParticipant(userID string) bool {
	return userID == o.ProposerID || userID == o.ReceiverID
}

// Counterparty returns the participant opposite to userID.
func (o *TradeOffer) Counterparty(userID string) string {
	if userID == o.ProposerID {
		return o.ReceiverID
	}
	return o.ProposerID
}

type CreateOfferInput struct {
	ProposerID       string  `json:"proposer_id" binding:"required"`
	ReceiverID       string  `json:"receiver_id" binding:"required"`
	OfferedItemIDs   []int64 `json:"offered_item_ids"`
	RequestedItemIDs []int64 `json:"requested_item_ids"`
	Message          string  `json:"message"`
}

type UpdateOfferInput struct {
	Status OfferStatus `json:"status" binding:"required"`
}

// OfferFilter selects offers for list queries. Limit and Offset are
// normalized by the service before they reach a repository.
type OfferFilter struct {
	UserID     string
	Status     OfferStatus // empty means any
	AsProposer bool
	AsReceiver bool
	Limit      int
	Offset     int
}

// MatchStatistics summarizes a user's offers by status. TotalOffers is
// always the sum of the per-status counts.
type MatchStatistics struct {
	TotalOffers     int `json:"total_offers"`
	PendingOffers   int `json:"pending_offers"`
	AcceptedOffers  int `json:"accepted_offers"`
	RejectedOffers  int `json:"rejected_offers"`
	CancelledOffers int `json:"cancelled_offers"`
	CompletedOffers int `json:"completed_offers"`
}
