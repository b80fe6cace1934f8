package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectPostgres opens the offer database, verifies the connection and
// makes sure the trade_offers table exists.
func ConnectPostgres(cfg DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(30)
	db.SetMaxIdleConns(10)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trade_offers (
            id BIGSERIAL PRIMARY KEY,
            proposer_id VARCHAR(100) NOT NULL,
            receiver_id VARCHAR(100) NOT NULL,
            offered_item_ids BIGINT[] NOT NULL,
            requested_item_ids BIGINT[] NOT NULL,
            status VARCHAR(20) NOT NULL DEFAULT 'pending',
            message TEXT,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            responded_at TIMESTAMPTZ,
            version BIGINT NOT NULL DEFAULT 1
        )`,
		`CREATE INDEX IF NOT EXISTS idx_trade_offers_proposer ON trade_offers (proposer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_offers_receiver ON trade_offers (receiver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_offers_status ON trade_offers (status)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ConnectMongo connects to the notification/history log database.
func ConnectMongo(cfg MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return mongoClient.Database(cfg.Name), nil
}
