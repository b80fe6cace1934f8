package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	entity "swappo-matchmaking/internal/domain"
	"swappo-matchmaking/internal/repository"
)

type offerRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) repository.OfferRepository {
	return &offerRepository{db: db}
}

const offerColumns = `id, proposer_id, receiver_id, offered_item_ids, requested_item_ids, status, message, created_at, updated_at, responded_at, version`

func (r *offerRepository) Create(ctx context.Context, offer *entity.TradeOffer) error {
	query := `
        INSERT INTO trade_offers (proposer_id, receiver_id, offered_item_ids, requested_item_ids, status, message, created_at, updated_at, responded_at, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
        RETURNING id
    `
	err := r.db.QueryRowContext(ctx, query,
		offer.ProposerID, offer.ReceiverID,
		pq.Int64Array(offer.OfferedItemIDs), pq.Int64Array(offer.RequestedItemIDs),
		offer.Status, offer.Message, offer.CreatedAt, offer.UpdatedAt, offer.RespondedAt,
	).Scan(&offer.ID)
	if err != nil {
		return fmt.Errorf("insert trade offer: %w", err)
	}
	offer.Version = 1
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id int64) (*entity.TradeOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM trade_offers WHERE id = $1`
	offer, err := scanOffer(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return offer, err
}

// Update is the conditional write the lifecycle engine relies on: the WHERE
// clause matches both id and the expected version, so a concurrent writer
// that already advanced the version makes this affect zero rows.
func (r *offerRepository) Update(ctx context.Context, offer *entity.TradeOffer, expectedVersion int64) error {
	query := `
        UPDATE trade_offers
        SET status = $1, updated_at = $2, responded_at = $3, version = version + 1
        WHERE id = $4 AND version = $5
    `
	res, err := r.db.ExecContext(ctx, query,
		offer.Status, offer.UpdatedAt, offer.RespondedAt, offer.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update trade offer %d: %w", offer.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrVersionConflict
	}
	offer.Version = expectedVersion + 1
	return nil
}

func (r *offerRepository) Delete(ctx context.Context, id int64, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM trade_offers WHERE id = $1 AND version = $2`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete trade offer %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *offerRepository) List(ctx context.Context, filter entity.OfferFilter) ([]entity.TradeOffer, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.AsProposer && !filter.AsReceiver:
		conds = append(conds, "proposer_id = "+arg(filter.UserID))
	case filter.AsReceiver && !filter.AsProposer:
		conds = append(conds, "receiver_id = "+arg(filter.UserID))
	default:
		p := arg(filter.UserID)
		conds = append(conds, fmt.Sprintf("(proposer_id = %s OR receiver_id = %s)", p, p))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}

	query := `SELECT ` + offerColumns + ` FROM trade_offers WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trade offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *offerRepository) ListByItem(ctx context.Context, itemID int64, status entity.OfferStatus) ([]entity.TradeOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM trade_offers
        WHERE ($1 = ANY(offered_item_ids) OR $1 = ANY(requested_item_ids))`
	args := []interface{}{itemID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trade offers by item: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *offerRepository) CountByStatus(ctx context.Context, userID string) (map[entity.OfferStatus]int, error) {
	query := `
        SELECT status, COUNT(*) FROM trade_offers
        WHERE proposer_id = $1 OR receiver_id = $1
        GROUP BY status
    `
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("count trade offers: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.OfferStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[entity.OfferStatus(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOffer(row rowScanner) (*entity.TradeOffer, error) {
	var (
		offer     entity.TradeOffer
		offered   pq.Int64Array
		requested pq.Int64Array
		message   sql.NullString
		responded sql.NullTime
	)
	err := row.Scan(
		&offer.ID, &offer.ProposerID, &offer.ReceiverID, &offered, &requested,
		&offer.Status, &message, &offer.CreatedAt, &offer.UpdatedAt, &responded, &offer.Version,
	)
	if err != nil {
		return nil, err
	}
	offer.OfferedItemIDs = []int64(offered)
	offer.RequestedItemIDs = []int64(requested)
	offer.Message = message.String
	if responded.Valid {
		t := responded.Time
		offer.RespondedAt = &t
	}
	return &offer, nil
}

func collectOffers(rows *sql.Rows) ([]entity.TradeOffer, error) {
	var offers []entity.TradeOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}
