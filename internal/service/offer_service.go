package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	entity "swappo-matchmaking/internal/domain"
	"swappo-matchmaking/internal/metrics"
	"swappo-matchmaking/internal/repository"
	mongorepo "swappo-matchmaking/internal/repository/mongodb"
)

// --- ERROR DEFINITIONS ---
var (
	ErrOfferNotFound     = errors.New("trade offer not found")
	ErrForbidden         = errors.New("user not authorized to modify this trade offer")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("trade offer modified concurrently, retries exhausted")
)

// maxWriteAttempts bounds the re-read/retry loop around conditional writes.
const maxWriteAttempts = 3

type actorRole uint8

const (
	roleProposer actorRole = 1 << iota
	roleReceiver
)

type transition struct {
	from, to entity.OfferStatus
}

// transitions is the single authority over which status edges exist and
// which participant may request them. Any (from, to) pair missing here is
// illegal; pending is never a target. Adding a future state is a table edit.
var transitions = map[transition]actorRole{
	{entity.StatusPending, entity.StatusAccepted}:   roleReceiver,
	{entity.StatusPending, entity.StatusRejected}:   roleReceiver,
	{entity.StatusPending, entity.StatusCancelled}:  roleProposer,
	{entity.StatusAccepted, entity.StatusCompleted}: roleProposer | roleReceiver,
}

// NotificationSender delivers a status-change notification to the
// counterparty. Fire-and-forget: implementations must not assume the
// transition can be rolled back.
type NotificationSender interface {
	SendStatusNotification(ctx context.Context, offer *entity.TradeOffer, actorID string)
}

// ChatRoomCreator opens a chat room between the participants of an
// accepted offer.
type ChatRoomCreator interface {
	CreateChatRoom(ctx context.Context, offer *entity.TradeOffer) error
}

// OfferService owns the trade offer lifecycle: creation, the status state
// machine and its authorization rules, and the conditional-write retry
// discipline against the record store. It holds no shared mutable state of
// its own, so any number of requests (or service instances) may run
// concurrently; ordering comes solely from the store's version token.
type OfferService struct {
	offerRepo repository.OfferRepository
	logRepo   mongorepo.LogRepository // optional side log, nil disables
	notifier  NotificationSender      // optional, nil disables
	chat      ChatRoomCreator         // optional, nil disables
	logger    *zap.Logger
	now       func() time.Time
}

func NewOfferService(offerRepo repository.OfferRepository, logRepo mongorepo.LogRepository, notifier NotificationSender, chat ChatRoomCreator, logger *zap.Logger) *OfferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferService{
		offerRepo: offerRepo,
		logRepo:   logRepo,
		notifier:  notifier,
		chat:      chat,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOffer validates the proposed offer and inserts it in pending state.
// Item existence and ownership are checked by the caller against the catalog
// service before this point.
func (s *OfferService) CreateOffer(ctx context.Context, input entity.CreateOfferInput) (*entity.TradeOffer, error) {
	if err := entity.ValidateOffer(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	offer := &entity.TradeOffer{
		ProposerID:       input.ProposerID,
		ReceiverID:       input.ReceiverID,
		OfferedItemIDs:   input.OfferedItemIDs,
		RequestedItemIDs: input.RequestedItemIDs,
		Message:          input.Message,
		Status:           entity.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}

	metrics.TradeOffersCreatedTotal.Inc()
	metrics.TradeOffersByStatus.WithLabelValues(string(entity.StatusPending)).Inc()
	s.logger.Info("trade offer created",
		zap.Int64("offer_id", offer.ID),
		zap.String("proposer_id", offer.ProposerID),
		zap.String("receiver_id", offer.ReceiverID),
	)
	return offer, nil
}

// RequestTransition moves the offer to target on behalf of actorID. The
// write is conditional on the version read beforehand; losing the race to a
// concurrent writer triggers a re-read and a full re-check, so at most one
// request succeeds per prior state. A loser typically lands on
// ErrInvalidTransition against the already-moved record, never a silent
// double apply.
func (s *OfferService) RequestTransition(ctx context.Context, offerID int64, actorID string, target entity.OfferStatus) (*entity.TradeOffer, error) {
	if !target.Valid() || target == entity.StatusPending {
		return nil, ErrInvalidTransition
	}

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		offer, err := s.offerRepo.GetByID(ctx, offerID)
		if err != nil {
			return nil, err
		}
		if offer == nil {
			return nil, ErrOfferNotFound
		}
		if !offer.IsParticipant(actorID) {
			return nil, ErrForbidden
		}

		role := roleProposer
		if actorID == offer.ReceiverID {
			role = roleReceiver
		}
		allowed, ok := transitions[transition{offer.Status, target}]
		if !ok || allowed&role == 0 {
			return nil, ErrInvalidTransition
		}

		prior := offer.Status
		readVersion := offer.Version
		now := s.now().UTC()
		offer.Status = target
		offer.UpdatedAt = now
		if prior == entity.StatusPending {
			// First transition out of pending; never overwritten on the
			// accepted -> completed hop.
			respondedAt := now
			offer.RespondedAt = &respondedAt
		}

		err = s.offerRepo.Update(ctx, offer, readVersion)
		if errors.Is(err, repository.ErrVersionConflict) {
			metrics.RetryAttemptsTotal.WithLabelValues("transition").Inc()
			s.logger.Debug("transition lost version race, re-reading",
				zap.Int64("offer_id", offerID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			// Anything but an explicit version conflict (timeouts included)
			// is an unknown outcome: surface it instead of re-issuing the
			// same write blindly.
			return nil, err
		}

		s.afterTransition(offer, prior, actorID)
		return offer, nil
	}
	return nil, ErrConflict
}

// DeleteOffer removes a still-pending offer. Only the proposer may delete,
// and a concurrent transition away from pending makes the conditional delete
// fail rather than silently removing a live offer.
func (s *OfferService) DeleteOffer(ctx context.Context, offerID int64, actorID string) error {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		offer, err := s.offerRepo.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		if offer == nil {
			return ErrOfferNotFound
		}
		if actorID != offer.ProposerID {
			return ErrForbidden
		}
		if offer.Status != entity.StatusPending {
			return ErrInvalidTransition
		}

		err = s.offerRepo.Delete(ctx, offerID, offer.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			metrics.RetryAttemptsTotal.WithLabelValues("delete").Inc()
			continue
		}
		if err != nil {
			return err
		}

		metrics.TradeOffersByStatus.WithLabelValues(string(entity.StatusPending)).Dec()
		s.logger.Info("trade offer deleted", zap.Int64("offer_id", offerID))
		return nil
	}
	return ErrConflict
}

func (s *OfferService) GetOffer(ctx context.Context, offerID int64) (*entity.TradeOffer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListOffers returns offers matching the filter, newest first, with limit
// and offset normalized.
func (s *OfferService) ListOffers(ctx context.Context, filter entity.OfferFilter) ([]entity.TradeOffer, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.offerRepo.List(ctx, filter)
}

// ListOffersByItem returns all offers that offer or request the given item.
func (s *OfferService) ListOffersByItem(ctx context.Context, itemID int64, status entity.OfferStatus) ([]entity.TradeOffer, error) {
	return s.offerRepo.ListByItem(ctx, itemID, status)
}

// ComputeStatistics derives per-status counts for the user from a scan over
// the store; no caching, always current.
func (s *OfferService) ComputeStatistics(ctx context.Context, userID string) (*entity.MatchStatistics, error) {
	counts, err := s.offerRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &entity.MatchStatistics{
		PendingOffers:   counts[entity.StatusPending],
		AcceptedOffers:  counts[entity.StatusAccepted],
		RejectedOffers:  counts[entity.StatusRejected],
		CancelledOffers: counts[entity.StatusCancelled],
		CompletedOffers: counts[entity.StatusCompleted],
	}
	stats.TotalOffers = stats.PendingOffers + stats.AcceptedOffers +
		stats.RejectedOffers + stats.CancelledOffers + stats.CompletedOffers
	return stats, nil
}

// afterTransition runs the side effects of a committed transition: business
// metrics, the Mongo status history, the counterparty notification and, on
// acceptance, chat room creation. None of them may block or fail the
// transition; failures are logged and dropped.
func (s *OfferService) afterTransition(offer *entity.TradeOffer, old entity.OfferStatus, actorID string) {
	switch offer.Status {
	case entity.StatusAccepted:
		metrics.TradeOffersAcceptedTotal.Inc()
	case entity.StatusRejected:
		metrics.TradeOffersRejectedTotal.Inc()
	}
	metrics.TradeOffersByStatus.WithLabelValues(string(old)).Dec()
	metrics.TradeOffersByStatus.WithLabelValues(string(offer.Status)).Inc()

	s.logger.Info("trade offer status changed",
		zap.Int64("offer_id", offer.ID),
		zap.String("old_status", string(old)),
		zap.String("new_status", string(offer.Status)),
		zap.String("changed_by", actorID),
	)

	snapshot := *offer
	changedAt := s.now().UTC()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if s.logRepo != nil {
			history := &entity.StatusHistory{
				OfferID:   snapshot.ID,
				OldStatus: old,
				NewStatus: snapshot.Status,
				ChangedBy: actorID,
				Timestamp: changedAt,
			}
			if err := s.logRepo.SaveStatusHistory(ctx, history); err != nil {
				s.logger.Warn("failed to save status history",
					zap.Int64("offer_id", snapshot.ID), zap.Error(err))
			}
		}
		if s.notifier != nil {
			s.notifier.SendStatusNotification(ctx, &snapshot, actorID)
		}
		if s.chat != nil && snapshot.Status == entity.StatusAccepted {
			if err := s.chat.CreateChatRoom(ctx, &snapshot); err != nil {
				s.logger.Warn("failed to create chat room",
					zap.Int64("offer_id", snapshot.ID), zap.Error(err))
			}
		}
	}()
}
