package services

import (
	"context"
	"fmt"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

type CreateAuctionRequest struct {
	ProductID       string
	StartingPrice   decimal.Decimal
	BidIncrement    decimal.Decimal
	ReservePrice    decimal.NullDecimal
	BuyItNowPrice   decimal.NullDecimal
	Currency        string
	StartTime       time.Time
	EndTime         time.Time
	RequiresDeposit bool
	DepositAmount   decimal.Decimal
}

// AuctionService is the caller-facing surface: auction authoring handoff,
// bid submission, queries. All mutation is delegated to the engine.
type AuctionService struct {
	store    domain.AuctionStore
	ledger   domain.BidLedger
	engine   *Engine
	products domain.ProductService
	now      func() time.Time
	log      logger.Logger
}

func NewAuctionService(
	store domain.AuctionStore,
	ledger domain.BidLedger,
	engine *Engine,
	products domain.ProductService,
	log logger.Logger,
) *AuctionService {
	return &AuctionService{
		store:    store,
		ledger:   ledger,
		engine:   engine,
		products: products,
		now:      time.Now,
		log:      log,
	}
}

// CreateAuction validates and persists a new auction. With a future start
// time it is created Scheduled; with a start time already passed it goes
// straight to Active.
func (s *AuctionService) CreateAuction(ctx context.Context, sellerID string, req CreateAuctionRequest) (*domain.Auction, error) {
	now := s.now()

	if !req.StartTime.Before(req.EndTime) {
		return nil, fmt.Errorf("%w: start time must precede end time", domain.ErrInvalidSchedule)
	}
	if req.EndTime.Before(now) {
		return nil, fmt.Errorf("%w: end time is in the past", domain.ErrInvalidSchedule)
	}
	if !req.StartingPrice.IsPositive() {
		return nil, fmt.Errorf("%w: starting price must be positive", domain.ErrInvalidSchedule)
	}
	if !req.BidIncrement.IsPositive() {
		return nil, fmt.Errorf("%w: bid increment must be positive", domain.ErrInvalidSchedule)
	}

	if s.products != nil {
		snapshot, err := s.products.GetListingSnapshot(ctx, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("listing lookup failed: %w", err)
		}
		if !snapshot.Active {
			return nil, fmt.Errorf("%w: listing is not active", domain.ErrInvalidSchedule)
		}
	}

	status := domain.AuctionScheduled
	if !now.Before(req.StartTime) {
		status = domain.AuctionActive
	}

	auction := &domain.Auction{
		ID:              utils.GenerateID("auction"),
		AuctionNumber:   utils.GenerateAuctionNumber(now),
		ProductID:       req.ProductID,
		SellerID:        sellerID,
		Status:          status,
		StartingPrice:   req.StartingPrice,
		BidIncrement:    req.BidIncrement,
		ReservePrice:    req.ReservePrice.Decimal,
		HasReserve:      req.ReservePrice.Valid && req.ReservePrice.Decimal.IsPositive(),
		BuyItNowPrice:   req.BuyItNowPrice,
		CurrentBid:      decimal.Zero,
		Currency:        req.Currency,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RequiresDeposit: req.RequiresDeposit,
		DepositAmount:   req.DepositAmount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateAuction(ctx, auction); err != nil {
		return nil, err
	}

	s.log.Info("auction created",
		"auction_id", auction.ID,
		"auction_number", auction.AuctionNumber,
		"seller_id", sellerID,
		"status", auction.Status.String())
	return auction, nil
}

func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.store.GetAuction(ctx, auctionID)
}

func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, maxAmount decimal.NullDecimal) (*domain.Bid, error) {
	return s.engine.PlaceBid(ctx, auctionID, bidderID, amount, maxAmount)
}

func (s *AuctionService) BuyItNow(ctx context.Context, auctionID, buyerID string) (string, error) {
	return s.engine.BuyItNow(ctx, auctionID, buyerID)
}

func (s *AuctionService) CancelAuction(ctx context.Context, auctionID, reason string) error {
	return s.engine.Cancel(ctx, auctionID, reason)
}

func (s *AuctionService) GetBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	return s.ledger.GetBids(ctx, auctionID)
}

func (s *AuctionService) GetUserBids(ctx context.Context, userID string) ([]*domain.Bid, error) {
	return s.ledger.GetUserBids(ctx, userID)
}
