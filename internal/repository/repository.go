// Package repository defines the offer record store contract shared by the
// Postgres and in-memory implementations.
package repository

import (
	"context"
	"errors"

	entity "swappo-matchmaking/internal/domain"
)

// ErrVersionConflict is returned by Update and Delete when the stored version
// no longer matches the expected one, meaning a concurrent writer committed
// first. The caller must re-read before deciding anything else.
var ErrVersionConflict = errors.New("trade offer version conflict")

// OfferRepository is the durable store for trade offers. Update and Delete
// are conditional writes: they apply only if the record's current version
// equals expectedVersion, atomically from the caller's perspective.
type OfferRepository interface {
	// Create inserts the offer, assigns its ID and sets version to 1.
	Create(ctx context.Context, offer *entity.TradeOffer) error

	// GetByID returns the offer or (nil, nil) when no such record exists.
	GetByID(ctx context.Context, id int64) (*entity.TradeOffer, error)

	// Update writes status, updated_at and responded_at, advancing the
	// version, iff the stored version equals expectedVersion.
	Update(ctx context.Context, offer *entity.TradeOffer, expectedVersion int64) error

	// Delete removes the record iff the stored version equals expectedVersion.
	Delete(ctx context.Context, id int64, expectedVersion int64) error

	// List returns offers matching the filter, newest first.
	List(ctx context.Context, filter entity.OfferFilter) ([]entity.TradeOffer, error)

	// ListByItem returns offers that offer or request the given item,
	// newest first. An empty status matches any status.
	ListByItem(ctx context.Context, itemID int64, status entity.OfferStatus) ([]entity.TradeOffer, error)

	// CountByStatus returns per-status offer counts for offers where the
	// user is proposer or receiver.
	CountByStatus(ctx context.Context, userID string) (map[entity.OfferStatus]int, error)
}
