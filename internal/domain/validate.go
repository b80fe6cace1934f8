package entity

import "errors"

// Validation errors for offer creation. Each invariant gets its own error so
// the API can tell the caller exactly what to fix.
var (
	ErrSameParticipants        = errors.New("cannot create trade offer with yourself")
	ErrEmptyOfferedItems       = errors.New("offered items must not be empty")
	ErrEmptyRequestedItems     = errors.New("requested items must not be empty")
	ErrDuplicateOfferedItems   = errors.New("duplicate item IDs in offered items")
	ErrDuplicateRequestedItems = errors.New("duplicate item IDs in requested items")
	ErrOverlappingItems        = errors.New("same item cannot be both offered and requested")
)

// IsValidationError reports whether err is one of the offer validation errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrSameParticipants) ||
		errors.Is(err, ErrEmptyOfferedItems) ||
		errors.Is(err, ErrEmptyRequestedItems) ||
		errors.Is(err, ErrDuplicateOfferedItems) ||
		errors.Is(err, ErrDuplicateRequestedItems) ||
		errors.Is(err, ErrOverlappingItems)
}

// ValidateOffer checks the structural legality of a proposed offer: the
// participants must differ, both item sets must be non-empty and
// duplicate-free, and no item may appear on both sides. Pure check over the
// input, no I/O.
func ValidateOffer(in CreateOfferInput) error {
	if in.ProposerID == in.ReceiverID {
		return ErrSameParticipants
	}
	if len(in.OfferedItemIDs) == 0 {
		return ErrEmptyOfferedItems
	}
	if len(in.RequestedItemIDs) == 0 {
		return ErrEmptyRequestedItems
	}

	offered := make(map[int64]struct{}, len(in.OfferedItemIDs))
	for _, id := range in.OfferedItemIDs {
		if _, dup := offered[id]; dup {
			return ErrDuplicateOfferedItems
		}
		offered[id] = struct{}{}
	}

	requested := make(map[int64]struct{}, len(in.RequestedItemIDs))
	for _, id := range in.RequestedItemIDs {
		if _, dup := requested[id]; dup {
			return ErrDuplicateRequestedItems
		}
		requested[id] = struct{}{}
	}

	for id := range offered {
		if _, both := requested[id]; both {
			return ErrOverlappingItems
		}
	}
	return nil
}
