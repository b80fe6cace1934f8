package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entity "swappo-matchmaking/internal/domain"
	"swappo-matchmaking/internal/repository"
	"swappo-matchmaking/internal/repository/memory"
)

func newTestService() (*OfferService, repository.OfferRepository) {
	repo := memory.NewOfferRepository()
	svc := NewOfferService(repo, nil, nil, nil, nil)
	return svc, repo
}

func createOffer(t *testing.T, svc *OfferService) *entity.TradeOffer {
	t.Helper()
	offer, err := svc.CreateOffer(context.Background(), entity.CreateOfferInput{
		ProposerID:       "user1",
		ReceiverID:       "user2",
		OfferedItemIDs:   []int64{1, 2},
		RequestedItemIDs: []int64{3},
	})
	require.NoError(t, err)
	return offer
}

// seedOffer puts an offer into the store in an arbitrary lifecycle state.
func seedOffer(t *testing.T, svc *OfferService, status entity.OfferStatus) *entity.TradeOffer {
	t.Helper()
	offer := createOffer(t, svc)
	switch status {
	case entity.StatusPending:
	case entity.StatusAccepted:
		offer = mustTransition(t, svc, offer.ID, "user2", entity.StatusAccepted)
	case entity.StatusRejected:
		offer = mustTransition(t, svc, offer.ID, "user2", entity.StatusRejected)
	case entity.StatusCancelled:
		offer = mustTransition(t, svc, offer.ID, "user1", entity.StatusCancelled)
	case entity.StatusCompleted:
		mustTransition(t, svc, offer.ID, "user2", entity.StatusAccepted)
		offer = mustTransition(t, svc, offer.ID, "user1", entity.StatusCompleted)
	}
	return offer
}

func mustTransition(t *testing.T, svc *OfferService, id int64, actor string, target entity.OfferStatus) *entity.TradeOffer {
	t.Helper()
	offer, err := svc.RequestTransition(context.Background(), id, actor, target)
	require.NoError(t, err)
	return offer
}

func TestCreateOffer(t *testing.T) {
	svc, _ := newTestService()

	offer := createOffer(t, svc)
	assert.NotZero(t, offer.ID)
	assert.Equal(t, entity.StatusPending, offer.Status)
	assert.Nil(t, offer.RespondedAt)
	assert.Equal(t, offer.CreatedAt, offer.UpdatedAt)
	assert.Equal(t, int64(1), offer.Version)
}

func TestCreateOfferValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateOffer(context.Background(), entity.CreateOfferInput{
		ProposerID:       "user1",
		ReceiverID:       "user1",
		OfferedItemIDs:   []int64{1},
		RequestedItemIDs: []int64{2},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrSameParticipants)
	assert.True(t, entity.IsValidationError(err))
}

func TestOfferLifecycle(t *testing.T) {
	svc, _ := newTestService()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	offer := createOffer(t, svc)

	// Receiver accepts: responded_at is set on the first hop out of pending.
	svc.now = func() time.Time { return base.Add(time.Minute) }
	accepted := mustTransition(t, svc, offer.ID, "user2", entity.StatusAccepted)
	assert.Equal(t, entity.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	assert.Equal(t, base.Add(time.Minute), *accepted.RespondedAt)
	assert.Equal(t, int64(2), accepted.Version)

	// Proposer completes: updated_at advances, responded_at stays put.
	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	completed := mustTransition(t, svc, offer.ID, "user1", entity.StatusCompleted)
	assert.Equal(t, entity.StatusCompleted, completed.Status)
	assert.Equal(t, base.Add(2*time.Minute), completed.UpdatedAt)
	require.NotNil(t, completed.RespondedAt)
	assert.Equal(t, base.Add(time.Minute), *completed.RespondedAt)
	assert.Equal(t, int64(3), completed.Version)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    entity.OfferStatus
		actor   string
		target  entity.OfferStatus
		wantErr error
	}{
		{"receiver accepts pending", entity.StatusPending, "user2", entity.StatusAccepted, nil},
		{"receiver rejects pending", entity.StatusPending, "user2", entity.StatusRejected, nil},
		{"proposer cancels pending", entity.StatusPending, "user1", entity.StatusCancelled, nil},
		{"proposer completes accepted", entity.StatusAccepted, "user1", entity.StatusCompleted, nil},
		{"receiver completes accepted", entity.StatusAccepted, "user2", entity.StatusCompleted, nil},

		{"proposer accepts own offer", entity.StatusPending, "user1", entity.StatusAccepted, ErrInvalidTransition},
		{"proposer rejects own offer", entity.StatusPending, "user1", entity.StatusRejected, ErrInvalidTransition},
		{"receiver cancels", entity.StatusPending, "user2", entity.StatusCancelled, ErrInvalidTransition},
		{"pending straight to completed", entity.StatusPending, "user1", entity.StatusCompleted, ErrInvalidTransition},
		{"accepted back to pending", entity.StatusAccepted, "user2", entity.StatusPending, ErrInvalidTransition},
		{"accepted to rejected", entity.StatusAccepted, "user2", entity.StatusRejected, ErrInvalidTransition},
		{"accepted to cancelled", entity.StatusAccepted, "user1", entity.StatusCancelled, ErrInvalidTransition},
		{"rejected is terminal", entity.StatusRejected, "user1", entity.StatusCompleted, ErrInvalidTransition},
		{"cancelled is terminal", entity.StatusCancelled, "user2", entity.StatusAccepted, ErrInvalidTransition},
		{"completed is terminal", entity.StatusCompleted, "user1", entity.StatusCompleted, ErrInvalidTransition},
		{"unknown target status", entity.StatusPending, "user2", entity.OfferStatus("paused"), ErrInvalidTransition},
		{"outsider acts", entity.StatusPending, "user3", entity.StatusAccepted, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			offer := seedOffer(t, svc, tt.from)

			got, err := svc.RequestTransition(context.Background(), offer.ID, tt.actor, tt.target)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.target, got.Status)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			// A rejected request never mutates the record.
			current, gerr := svc.GetOffer(context.Background(), offer.ID)
			require.NoError(t, gerr)
			assert.Equal(t, tt.from, current.Status)
			assert.Equal(t, offer.Version, current.Version)
		})
	}
}

func TestRequestTransitionNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.RequestTransition(context.Background(), 404, "user1", entity.StatusAccepted)
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

// Two participants race to complete the same accepted offer. Exactly one
// conditional write wins; the loser re-reads the completed record and finds
// no legal transition, never a double apply.
func TestConcurrentCompletion(t *testing.T) {
	svc, _ := newTestService()
	offer := seedOffer(t, svc, entity.StatusAccepted)
	respondedAt := *offer.RespondedAt

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []string{"user1", "user2"} {
		wg.Add(1)
		go func(i int, actor string) {
			defer wg.Done()
			_, errs[i] = svc.RequestTransition(context.Background(), offer.ID, actor, entity.StatusCompleted)
		}(i, actor)
	}
	wg.Wait()

	var successes, invalid int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, ErrInvalidTransition):
			invalid++
		}
	}
	assert.Equal(t, 1, successes, "exactly one completion must win")
	assert.Equal(t, 1, invalid, "the loser must observe the completed record")

	final, err := svc.GetOffer(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, final.Status)
	assert.Equal(t, offer.Version+1, final.Version, "the record transitioned exactly once")
	require.NotNil(t, final.RespondedAt)
	assert.Equal(t, respondedAt, *final.RespondedAt)
}

// conflictRepo makes every conditional write lose, as if a faster writer
// always got there first.
type conflictRepo struct {
	repository.OfferRepository
}

func (r conflictRepo) Update(ctx context.Context, offer *entity.TradeOffer, expectedVersion int64) error {
	return repository.ErrVersionConflict
}

func (r conflictRepo) Delete(ctx context.Context, id int64, expectedVersion int64) error {
	return repository.ErrVersionConflict
}

func TestTransitionRetriesExhausted(t *testing.T) {
	svc, repo := newTestService()
	offer := createOffer(t, svc)

	svc.offerRepo = conflictRepo{repo}
	_, err := svc.RequestTransition(context.Background(), offer.ID, "user2", entity.StatusAccepted)
	assert.ErrorIs(t, err, ErrConflict)

	err = svc.DeleteOffer(context.Background(), offer.ID, "user1")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteOffer(t *testing.T) {
	t.Run("proposer deletes pending offer", func(t *testing.T) {
		svc, _ := newTestService()
		offer := createOffer(t, svc)

		require.NoError(t, svc.DeleteOffer(context.Background(), offer.ID, "user1"))
		_, err := svc.GetOffer(context.Background(), offer.ID)
		assert.ErrorIs(t, err, ErrOfferNotFound)
	})

	t.Run("receiver cannot delete", func(t *testing.T) {
		svc, _ := newTestService()
		offer := createOffer(t, svc)

		err := svc.DeleteOffer(context.Background(), offer.ID, "user2")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("only pending offers can be deleted", func(t *testing.T) {
		svc, _ := newTestService()
		offer := seedOffer(t, svc, entity.StatusAccepted)

		err := svc.DeleteOffer(context.Background(), offer.ID, "user1")
		assert.ErrorIs(t, err, ErrInvalidTransition)

		// The accepted offer is still there.
		current, gerr := svc.GetOffer(context.Background(), offer.ID)
		require.NoError(t, gerr)
		assert.Equal(t, entity.StatusAccepted, current.Status)
	})

	t.Run("unknown offer", func(t *testing.T) {
		svc, _ := newTestService()
		err := svc.DeleteOffer(context.Background(), 404, "user1")
		assert.ErrorIs(t, err, ErrOfferNotFound)
	})
}

// recordingRepo captures the filter that reaches the store.
type recordingRepo struct {
	repository.OfferRepository
	lastFilter entity.OfferFilter
}

func (r *recordingRepo) List(ctx context.Context, filter entity.OfferFilter) ([]entity.TradeOffer, error) {
	r.lastFilter = filter
	return r.OfferRepository.List(ctx, filter)
}

func TestListOffersNormalizesPagination(t *testing.T) {
	svc, repo := newTestService()
	recording := &recordingRepo{OfferRepository: repo}
	svc.offerRepo = recording

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 20, 0},
		{"clamped to maximum", 500, 0, 100, 0},
		{"negative offset reset", 10, -5, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ListOffers(context.Background(), entity.OfferFilter{
				UserID: "user1", Limit: tt.limit, Offset: tt.offset,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, recording.lastFilter.Limit)
			assert.Equal(t, tt.wantOffset, recording.lastFilter.Offset)
		})
	}
}

func TestComputeStatistics(t *testing.T) {
	svc, _ := newTestService()

	seedOffer(t, svc, entity.StatusCompleted)
	seedOffer(t, svc, entity.StatusPending)
	seedOffer(t, svc, entity.StatusPending)
	seedOffer(t, svc, entity.StatusRejected)
	seedOffer(t, svc, entity.StatusCancelled)

	// An offer not involving user1 must not count.
	_, err := svc.CreateOffer(context.Background(), entity.CreateOfferInput{
		ProposerID:       "user3",
		ReceiverID:       "user4",
		OfferedItemIDs:   []int64{10},
		RequestedItemIDs: []int64{11},
	})
	require.NoError(t, err)

	stats, err := svc.ComputeStatistics(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingOffers)
	assert.Equal(t, 0, stats.AcceptedOffers)
	assert.Equal(t, 1, stats.RejectedOffers)
	assert.Equal(t, 1, stats.CancelledOffers)
	assert.Equal(t, 1, stats.CompletedOffers)
	assert.Equal(t, 5, stats.TotalOffers)
}

// hookRecorder captures the fire-and-forget side effects of a transition.
type hookRecorder struct {
	notified chan string
	chats    chan int64
}

func (h *hookRecorder) SendStatusNotification(_ context.Context, offer *entity.TradeOffer, actorID string) {
	h.notified <- actorID
}

func (h *hookRecorder) CreateChatRoom(_ context.Context, offer *entity.TradeOffer) error {
	h.chats <- offer.ID
	return nil
}

func TestTransitionHooks(t *testing.T) {
	repo := memory.NewOfferRepository()
	hooks := &hookRecorder{notified: make(chan string, 1), chats: make(chan int64, 1)}
	svc := NewOfferService(repo, nil, hooks, hooks, nil)

	offer := createOffer(t, svc)
	mustTransition(t, svc, offer.ID, "user2", entity.StatusAccepted)

	select {
	case actor := <-hooks.notified:
		assert.Equal(t, "user2", actor)
	case <-time.After(2 * time.Second):
		t.Fatal("notification hook was not invoked")
	}
	select {
	case id := <-hooks.chats:
		assert.Equal(t, offer.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("chat room hook was not invoked")
	}
}
