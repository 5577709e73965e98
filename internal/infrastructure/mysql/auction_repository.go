package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auction-engine/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

type MySQLAuctionStore struct {
	db *sql.DB
}

func NewMySQLAuctionStore(db *sql.DB) *MySQLAuctionStore {
	return &MySQLAuctionStore{db: db}
}

const auctionColumns = `
    id, auction_number, product_id, seller_id, status,
    starting_price, bid_increment, reserve_price, has_reserve, reserve_met,
    buy_it_now_price, current_bid, currency,
    start_time, end_time, extended_until, extension_count,
    bid_count, leading_bid_id, winning_bid_id, highest_bidder_id,
    requires_deposit, deposit_amount, watch_count,
    version, created_at, updated_at`

func (r *MySQLAuctionStore) CreateAuction(ctx context.Context, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.AuctionNumber, a.ProductID, a.SellerID, int(a.Status),
		a.StartingPrice, a.BidIncrement, a.ReservePrice, a.HasReserve, a.ReserveMet,
		nullDecimal(a.BuyItNowPrice), a.CurrentBid, a.Currency,
		a.StartTime, a.EndTime, a.ExtendedUntil, a.ExtensionCount,
		a.BidCount, nullString(a.LeadingBidID), nullString(a.WinningBidID), nullString(a.HighestBidderID),
		a.RequiresDeposit, a.DepositAmount, a.WatchCount,
		a.Version, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *MySQLAuctionStore) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, auctionID)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuctionNotFound
	}
	return a, err
}

// UpdateAuction commits the row only when the stored version still matches,
// then bumps the version on the passed auction so the caller's copy stays
// current.
func (r *MySQLAuctionStore) UpdateAuction(ctx context.Context, a *domain.Auction) error {
	query := `
        UPDATE auctions SET
            status = ?, reserve_met = ?, current_bid = ?,
            end_time = ?, extended_until = ?, extension_count = ?,
            bid_count = ?, leading_bid_id = ?, winning_bid_id = ?, highest_bidder_id = ?,
            watch_count = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?
    `
	res, err := r.db.ExecContext(ctx, query,
		int(a.Status), a.ReserveMet, a.CurrentBid,
		a.EndTime, a.ExtendedUntil, a.ExtensionCount,
		a.BidCount, nullString(a.LeadingBidID), nullString(a.WinningBidID), nullString(a.HighestBidderID),
		a.WatchCount, a.UpdatedAt,
		a.ID, a.Version)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}

	a.Version++
	return nil
}

func (r *MySQLAuctionStore) GetEndedAuctions(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + `
        FROM auctions
        WHERE status IN (?, ?)
          AND GREATEST(end_time, COALESCE(extended_until, end_time)) <= ?
        ORDER BY end_time ASC`
	return r.queryAuctions(ctx, query, int(domain.AuctionActive), int(domain.AuctionEnding), now)
}

func (r *MySQLAuctionStore) GetDueScheduled(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + `
        FROM auctions
        WHERE status = ? AND start_time <= ?
        ORDER BY start_time ASC`
	return r.queryAuctions(ctx, query, int(domain.AuctionScheduled), now)
}

func (r *MySQLAuctionStore) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.Auction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var (
		a             domain.Auction
		status        int
		buyItNow      decimal.NullDecimal
		extendedUntil sql.NullTime
		leadingBid    sql.NullString
		winningBid    sql.NullString
		highestBidder sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.AuctionNumber, &a.ProductID, &a.SellerID, &status,
		&a.StartingPrice, &a.BidIncrement, &a.ReservePrice, &a.HasReserve, &a.ReserveMet,
		&buyItNow, &a.CurrentBid, &a.Currency,
		&a.StartTime, &a.EndTime, &extendedUntil, &a.ExtensionCount,
		&a.BidCount, &leadingBid, &winningBid, &highestBidder,
		&a.RequiresDeposit, &a.DepositAmount, &a.WatchCount,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Status = domain.AuctionStatus(status)
	a.BuyItNowPrice = buyItNow
	if extendedUntil.Valid {
		t := extendedUntil.Time
		a.ExtendedUntil = &t
	}
	a.LeadingBidID = leadingBid.String
	a.WinningBidID = winningBid.String
	a.HighestBidderID = highestBidder.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}
