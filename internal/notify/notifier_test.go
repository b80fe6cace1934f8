package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entity "swappo-matchmaking/internal/domain"
)

func offerWithStatus(status entity.OfferStatus) *entity.TradeOffer {
	return &entity.TradeOffer{
		ID:         7,
		ProposerID: "user1",
		ReceiverID: "user2",
		Status:     status,
	}
}

func TestBuildNotification(t *testing.T) {
	tests := []struct {
		status    entity.OfferStatus
		actorID   string
		wantType  string
		wantTitle string
		wantUser  string
	}{
		{entity.StatusAccepted, "user2", "trade_offer_accepted", "Trade Offer Accepted!", "user1"},
		{entity.StatusRejected, "user2", "trade_offer_rejected", "Trade Offer Declined", "user1"},
		{entity.StatusCancelled, "user1", "trade_offer_cancelled", "Trade Offer Cancelled", "user2"},
		{entity.StatusCompleted, "user1", "trade_completed", "Trade Completed!", "user2"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			n, ok := buildNotification(offerWithStatus(tt.status), tt.actorID)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, n.Type)
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.Equal(t, tt.wantUser, n.UserID)
			assert.Equal(t, int64(7), n.RelatedOfferID)
			assert.Equal(t, tt.actorID, n.RelatedUserID)
			assert.NotEmpty(t, n.Body)
		})
	}
}

func TestBuildNotificationSkipsPending(t *testing.T) {
	_, ok := buildNotification(offerWithStatus(entity.StatusPending), "user1")
	assert.False(t, ok)
}

func TestSendStatusNotification(t *testing.T) {
	received := make(chan entity.Notification, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notifications", r.URL.Path)
		var n entity.Notification
		require.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		received <- n
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, nil, nil)
	n.SendStatusNotification(context.Background(), offerWithStatus(entity.StatusAccepted), "user2")

	select {
	case got := <-received:
		assert.Equal(t, "trade_offer_accepted", got.Type)
		assert.Equal(t, "user1", got.UserID)
	default:
		t.Fatal("notification was not delivered")
	}
}

func TestSendStatusNotificationSwallowsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, nil, nil)
	// Must not panic or block; delivery failures are logged and dropped.
	n.SendStatusNotification(context.Background(), offerWithStatus(entity.StatusRejected), "user2")
}
