package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"go.uber.org/zap"

	entity "swappo-matchmaking/internal/domain"
)

// ErrCatalogUnavailable wraps transport failures and an open breaker toward
// the catalog service.
var ErrCatalogUnavailable = errors.New("catalog service unavailable")

// ItemsNotFoundError reports item ids unknown to the catalog.
type ItemsNotFoundError struct {
	ItemIDs []int64
}

func (e *ItemsNotFoundError) Error() string {
	return fmt.Sprintf("items not found: %v", e.ItemIDs)
}

// ItemsInactiveError reports items that exist but are not tradeable.
type ItemsInactiveError struct {
	ItemIDs []int64
}

func (e *ItemsInactiveError) Error() string {
	return fmt.Sprintf("items are not active: %v", e.ItemIDs)
}

// OwnershipError reports items not owned by the participant that must own
// them for the offer to be legal.
type OwnershipError struct {
	UserID  string
	ItemIDs []int64
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("user %s does not own items: %v", e.UserID, e.ItemIDs)
}

type ItemValidation struct {
	ItemID   int64  `json:"item_id"`
	Exists   bool   `json:"exists"`
	IsActive bool   `json:"is_active"`
	OwnerID  string `json:"owner_id"`
}

// CatalogClient validates item existence and ownership against the catalog
// service before an offer is created.
type CatalogClient struct {
	baseURL  string
	hc       *http.Client
	pipeline failsafe.Executor[*http.Response]
	logger   *zap.Logger
}

const catalogCircuit = "catalog_http"

func NewCatalogClient(baseURL string, logger *zap.Logger) *CatalogClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogClient{
		baseURL:  baseURL,
		hc:       &http.Client{Timeout: requestTimeout},
		pipeline: NewPipeline(catalogCircuit),
		logger:   logger,
	}
}

// ValidateItems asks the catalog for the existence, activity and owner of
// each item id.
func (c *CatalogClient) ValidateItems(ctx context.Context, itemIDs []int64) ([]ItemValidation, error) {
	payload := map[string]interface{}{"item_ids": itemIDs}
	data, err := PostJSON(ctx, c.hc, c.pipeline, catalogCircuit, c.baseURL+"/api/v1/items/validate", payload)
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			c.logger.Warn("catalog circuit breaker is open")
		} else {
			c.logger.Error("catalog item validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	var out struct {
		Validations []ItemValidation `json:"validations"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCatalogUnavailable, err)
	}
	return out.Validations, nil
}

// ValidateOffer checks every item of a proposed offer: all must exist and be
// active, offered items must belong to the proposer and requested items to
// the receiver. This runs before the lifecycle engine ever sees the offer.
func (c *CatalogClient) ValidateOffer(ctx context.Context, input entity.CreateOfferInput) error {
	allIDs := append(append([]int64(nil), input.OfferedItemIDs...), input.RequestedItemIDs...)
	validations, err := c.ValidateItems(ctx, allIDs)
	if err != nil {
		return err
	}

	byID := make(map[int64]ItemValidation, len(validations))
	for _, v := range validations {
		byID[v.ItemID] = v
	}

	var missing, inactive []int64
	for _, id := range allIDs {
		v, ok := byID[id]
		if !ok || !v.Exists {
			missing = append(missing, id)
		} else if !v.IsActive {
			inactive = append(inactive, id)
		}
	}
	if len(missing) > 0 {
		return &ItemsNotFoundError{ItemIDs: missing}
	}
	if len(inactive) > 0 {
		return &ItemsInactiveError{ItemIDs: inactive}
	}

	var wrongOffered []int64
	for _, id := range input.OfferedItemIDs {
		if byID[id].OwnerID != input.ProposerID {
			wrongOffered = append(wrongOffered, id)
		}
	}
	if len(wrongOffered) > 0 {
		return &OwnershipError{UserID: input.ProposerID, ItemIDs: wrongOffered}
	}

	var wrongRequested []int64
	for _, id := range input.RequestedItemIDs {
		if byID[id].OwnerID != input.ReceiverID {
			wrongRequested = append(wrongRequested, id)
		}
	}
	if len(wrongRequested) > 0 {
		return &OwnershipError{UserID: input.ReceiverID, ItemIDs: wrongRequested}
	}
	return nil
}
