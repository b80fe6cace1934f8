package route

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"swappo-matchmaking/internal/client"
	"swappo-matchmaking/internal/config"
	httpHandler "swappo-matchmaking/internal/delivery/http/handler"
	"swappo-matchmaking/internal/delivery/http/middleware"
	"swappo-matchmaking/internal/notify"
	"swappo-matchmaking/internal/repository/mongodb"
	"swappo-matchmaking/internal/repository/postgresql"
	"swappo-matchmaking/internal/service"
)

// SetupRoute wires repositories, clients, services and handlers onto the
// Gin engine. mongoDB may be nil, which disables the notification copy and
// the status history log but nothing else.
func SetupRoute(app *gin.Engine, db *sql.DB, mongoDB *mongo.Database, cfg *config.Config, logger *zap.Logger) {
	// --- REPOSITORIES ---
	offerRepo := postgresql.NewOfferRepository(db)
	var logRepo mongodb.LogRepository
	if mongoDB != nil {
		logRepo = mongodb.NewLogRepository(mongoDB)
	}

	// --- OUTBOUND CLIENTS ---
	catalogClient := client.NewCatalogClient(cfg.Services.CatalogURL, logger)
	chatClient := client.NewChatClient(cfg.Services.ChatURL, logger)
	notifier := notify.NewNotifier(cfg.Services.NotificationURL, logRepo, logger)

	// --- SERVICES ---
	offerService := service.NewOfferService(offerRepo, logRepo, notifier, chatClient, logger)

	// --- HANDLERS ---
	offerHandler := httpHandler.NewOfferHandler(offerService, catalogClient)
	healthHandler := httpHandler.NewHealthHandler()

	// --- MIDDLEWARE ---
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.Metrics())
	app.Use(middleware.Identity(cfg.System.JWTSecret))
	app.Use(gin.Recovery())

	// --- ROUTES ---
	app.GET("/", healthHandler.Root)
	app.GET("/health", healthHandler.Health)
	app.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := app.Group("/api/v1")

	offers := api.Group("/offers")
	offers.POST("", offerHandler.CreateOffer)
	offers.GET("", offerHandler.ListOffers)
	offers.GET("/:id", offerHandler.GetOffer)
	offers.PATCH("/:id", offerHandler.UpdateOfferStatus)
	offers.DELETE("/:id", offerHandler.DeleteOffer)
	offers.GET("/received/:user_id", offerHandler.GetReceivedOffers)
	offers.GET("/sent/:user_id", offerHandler.GetSentOffers)
	offers.GET("/by-item/:item_id", offerHandler.GetOffersByItem)

	api.GET("/statistics/:user_id", offerHandler.GetStatistics)
}
