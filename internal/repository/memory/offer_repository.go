// Package memory holds an in-memory OfferRepository with the same
// conditional-write semantics as the Postgres store. Used by tests and
// local runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	entity "swappo-matchmaking/internal/domain"
	"swappo-matchmaking/internal/repository"
)

type offerRepository struct {
	mu     sync.Mutex
	nextID int64
	offers map[int64]*entity.TradeOffer
}

func NewOfferRepository() repository.OfferRepository {
	return &offerRepository{
		nextID: 1,
		offers: make(map[int64]*entity.TradeOffer),
	}
}

func (r *offerRepository) Create(_ context.Context, offer *entity.TradeOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer.ID = r.nextID
	r.nextID++
	offer.Version = 1
	r.offers[offer.ID] = clone(offer)
	return nil
}

func (r *offerRepository) GetByID(_ context.Context, id int64) (*entity.TradeOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.offers[id]
	if !ok {
		return nil, nil
	}
	return clone(stored), nil
}

func (r *offerRepository) Update(_ context.Context, offer *entity.TradeOffer, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.offers[offer.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	offer.Version = expectedVersion + 1
	r.offers[offer.ID] = clone(offer)
	return nil
}

func (r *offerRepository) Delete(_ context.Context, id int64, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.offers[id]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	delete(r.offers, id)
	return nil
}

func (r *offerRepository) List(_ context.Context, filter entity.OfferFilter) ([]entity.TradeOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.TradeOffer
	for _, offer := range r.offers {
		var involved bool
		switch {
		case filter.AsProposer && !filter.AsReceiver:
			involved = offer.ProposerID == filter.UserID
		case filter.AsReceiver && !filter.AsProposer:
			involved = offer.ReceiverID == filter.UserID
		default:
			involved = offer.IsParticipant(filter.UserID)
		}
		if !involved {
			continue
		}
		if filter.Status != "" && offer.Status != filter.Status {
			continue
		}
		matched = append(matched, offer)
	}
	sortNewestFirst(matched)

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]entity.TradeOffer, 0, len(matched))
	for _, offer := range matched {
		out = append(out, *clone(offer))
	}
	return out, nil
}

func (r *offerRepository) ListByItem(_ context.Context, itemID int64, status entity.OfferStatus) ([]entity.TradeOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.TradeOffer
	for _, offer := range r.offers {
		if !containsItem(offer.OfferedItemIDs, itemID) && !containsItem(offer.RequestedItemIDs, itemID) {
			continue
		}
		if status != "" && offer.Status != status {
			continue
		}
		matched = append(matched, offer)
	}
	sortNewestFirst(matched)

	out := make([]entity.TradeOffer, 0, len(matched))
	for _, offer := range matched {
		out = append(out, *clone(offer))
	}
	return out, nil
}

func (r *offerRepository) CountByStatus(_ context.Context, userID string) (map[entity.OfferStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[entity.OfferStatus]int)
	for _, offer := range r.offers {
		if offer.IsParticipant(userID) {
			counts[offer.Status]++
		}
	}
	return counts, nil
}

func sortNewestFirst(offers []*entity.TradeOffer) {
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].ID > offers[j].ID
		}
		return offers[i].CreatedAt.After(offers[j].CreatedAt)
	})
}

func containsItem(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func clone(offer *entity.TradeOffer) *entity.TradeOffer {
	cp := *offer
	cp.OfferedItemIDs = append([]int64(nil), offer.OfferedItemIDs...)
	cp.RequestedItemIDs = append([]int64(nil), offer.RequestedItemIDs...)
	if offer.RespondedAt != nil {
		t := *offer.RespondedAt
		cp.RespondedAt = &t
	}
	return &cp
}
