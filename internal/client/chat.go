package client

import (
	"context"
	"net/http"

	"github.com/failsafe-go/failsafe-go"
	"go.uber.org/zap"

	entity "swappo-matchmaking/internal/domain"
)

// ChatClient creates a chat room between the two participants of an
// accepted offer.
type ChatClient struct {
	baseURL  string
	hc       *http.Client
	pipeline failsafe.Executor[*http.Response]
	logger   *zap.Logger
}

const chatCircuit = "chat_http"

func NewChatClient(baseURL string, logger *zap.Logger) *ChatClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatClient{
		baseURL:  baseURL,
		hc:       &http.Client{Timeout: requestTimeout},
		pipeline: NewPipeline(chatCircuit),
		logger:   logger,
	}
}

func (c *ChatClient) CreateChatRoom(ctx context.Context, offer *entity.TradeOffer) error {
	payload := map[string]interface{}{
		"trade_offer_id": offer.ID,
		"user1_id":       offer.ProposerID,
		"user2_id":       offer.ReceiverID,
	}
	_, err := PostJSON(ctx, c.hc, c.pipeline, chatCircuit, c.baseURL+"/api/v1/chat-rooms", payload)
	if err != nil {
		return err
	}
	c.logger.Info("chat room created", zap.Int64("offer_id", offer.ID))
	return nil
}
