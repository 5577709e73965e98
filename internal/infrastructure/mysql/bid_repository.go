package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// MySQLBidLedger is append-only: rows are inserted once and only the status
// column is ever updated.
type MySQLBidLedger struct {
	db *sql.DB
}

func NewMySQLBidLedger(db *sql.DB) *MySQLBidLedger {
	return &MySQLBidLedger{db: db}
}

func (r *MySQLBidLedger) AppendBid(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, bidder_id, amount, max_amount, bid_time, is_auto_bid, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Amount,
		nullDecimal(bid.MaxAmount), bid.BidTime, bid.IsAutoBid, string(bid.Status))
	return err
}

func (r *MySQLBidLedger) UpdateBidStatus(ctx context.Context, bidID string, status domain.BidStatus) error {
	query := `UPDATE bids SET status = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, string(status), bidID)
	return err
}

func (r *MySQLBidLedger) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, max_amount, bid_time, is_auto_bid, status
        FROM bids WHERE id = ?
    `
	bid, err := scanBid(r.db.QueryRowContext(ctx, query, bidID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBidNotFound
	}
	return bid, err
}

func (r *MySQLBidLedger) GetBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, max_amount, bid_time, is_auto_bid, status
        FROM bids
        WHERE auction_id = ?
        ORDER BY bid_time ASC
    `
	return r.queryBids(ctx, query, auctionID)
}

func (r *MySQLBidLedger) GetUserBids(ctx context.Context, bidderID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, max_amount, bid_time, is_auto_bid, status
        FROM bids
        WHERE bidder_id = ?
        ORDER BY bid_time DESC
    `
	return r.queryBids(ctx, query, bidderID)
}

func (r *MySQLBidLedger) queryBids(ctx context.Context, query string, args ...interface{}) ([]*domain.Bid, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var (
		bid       domain.Bid
		maxAmount decimal.NullDecimal
		status    string
	)
	err := row.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Amount,
		&maxAmount, &bid.BidTime, &bid.IsAutoBid, &status)
	if err != nil {
		return nil, err
	}
	bid.MaxAmount = maxAmount
	bid.Status = domain.BidStatus(status)
	return &bid, nil
}
