package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"swappo-matchmaking/internal/client"
	entity "swappo-matchmaking/internal/domain"
	"swappo-matchmaking/internal/service"
)

// CatalogValidator confirms item existence and ownership against the
// catalog service before an offer is created.
type CatalogValidator interface {
	ValidateOffer(ctx context.Context, input entity.CreateOfferInput) error
}

type OfferHandler struct {
	offerService *service.OfferService
	catalog      CatalogValidator
}

func NewOfferHandler(offerService *service.OfferService, catalog CatalogValidator) *OfferHandler {
	return &OfferHandler{offerService: offerService, catalog: catalog}
}

// actorID resolves the acting user: the authenticated identity when the
// Identity middleware set one, the user_id query parameter otherwise.
func actorID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.Query("user_id")
}

// CreateOffer handles POST /api/v1/offers.
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var input entity.CreateOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
		return
	}

	if err := entity.ValidateOffer(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.catalog != nil {
		if err := h.catalog.ValidateOffer(c.Request.Context(), input); err != nil {
			h.respondCatalogError(c, err)
			return
		}
	}

	offer, err := h.offerService.CreateOffer(c.Request.Context(), input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Trade offer created successfully. Waiting for receiver response.",
		"offer":   offer,
	})
}

// GetOffer handles GET /api/v1/offers/:id.
func (h *OfferHandler) GetOffer(c *gin.Context) {
	offerID, ok := parseOfferID(c)
	if !ok {
		return
	}

	offer, err := h.offerService.GetOffer(c.Request.Context(), offerID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

// ListOffers handles GET /api/v1/offers with user/status/role filters and
// pagination.
func (h *OfferHandler) ListOffers(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	status, ok := parseStatusQuery(c)
	if !ok {
		return
	}
	filter := entity.OfferFilter{
		UserID:     userID,
		Status:     status,
		AsProposer: c.Query("as_proposer") == "true",
		AsReceiver: c.Query("as_receiver") == "true",
		Limit:      intQuery(c, "limit", 0),
		Offset:     intQuery(c, "offset", 0),
	}

	offers, err := h.offerService.ListOffers(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// UpdateOfferStatus handles PATCH /api/v1/offers/:id.
func (h *OfferHandler) UpdateOfferStatus(c *gin.Context) {
	offerID, ok := parseOfferID(c)
	if !ok {
		return
	}

	actor := actorID(c)
	if actor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	var input entity.UpdateOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
		return
	}

	offer, err := h.offerService.RequestTransition(c.Request.Context(), offerID, actor, input.Status)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

// DeleteOffer handles DELETE /api/v1/offers/:id.
func (h *OfferHandler) DeleteOffer(c *gin.Context) {
	offerID, ok := parseOfferID(c)
	if !ok {
		return
	}

	actor := actorID(c)
	if actor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if err := h.offerService.DeleteOffer(c.Request.Context(), offerID, actor); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetReceivedOffers handles GET /api/v1/offers/received/:user_id.
func (h *OfferHandler) GetReceivedOffers(c *gin.Context) {
	h.listForRole(c, false, true)
}

// GetSentOffers handles GET /api/v1/offers/sent/:user_id.
func (h *OfferHandler) GetSentOffers(c *gin.Context) {
	h.listForRole(c, true, false)
}

func (h *OfferHandler) listForRole(c *gin.Context, asProposer, asReceiver bool) {
	status, ok := parseStatusQuery(c)
	if !ok {
		return
	}
	filter := entity.OfferFilter{
		UserID:     c.Param("user_id"),
		Status:     status,
		AsProposer: asProposer,
		AsReceiver: asReceiver,
		Limit:      intQuery(c, "limit", 0),
		Offset:     intQuery(c, "offset", 0),
	}

	offers, err := h.offerService.ListOffers(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// GetOffersByItem handles GET /api/v1/offers/by-item/:item_id.
func (h *OfferHandler) GetOffersByItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	status, ok := parseStatusQuery(c)
	if !ok {
		return
	}

	offers, err := h.offerService.ListOffersByItem(c.Request.Context(), itemID, status)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// GetStatistics handles GET /api/v1/statistics/:user_id.
func (h *OfferHandler) GetStatistics(c *gin.Context) {
	stats, err := h.offerService.ComputeStatistics(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *OfferHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case entity.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOfferNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *OfferHandler) respondCatalogError(c *gin.Context, err error) {
	var (
		notFound  *client.ItemsNotFoundError
		inactive  *client.ItemsInactiveError
		ownership *client.OwnershipError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &inactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ownership):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, client.ErrCatalogUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parseOfferID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer id"})
		return 0, false
	}
	return id, true
}

func parseStatusQuery(c *gin.Context) (entity.OfferStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return "", true
	}
	status := entity.OfferStatus(raw)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return "", false
	}
	return status, true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
