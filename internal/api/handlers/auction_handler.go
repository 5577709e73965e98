package handlers

import (
	"errors"
	"net/http"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AuctionHandler struct {
	auctions *services.AuctionService
	log      logger.Logger
}

func NewAuctionHandler(auctions *services.AuctionService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctions: auctions,
		log:      log,
	}
}

func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/auctions", h.CreateAuction)
	g.GET("/auctions/:id", h.GetAuction)
	g.POST("/auctions/:id/bids", h.PlaceBid)
	g.POST("/auctions/:id/buy-now", h.BuyItNow)
	g.POST("/auctions/:id/cancel", h.CancelAuction)
	g.GET("/auctions/:id/bids", h.GetBids)
	g.GET("/users/:id/bids", h.GetUserBids)
}

type CreateAuctionRequest struct {
	SellerID        string           `json:"seller_id"`
	ProductID       string           `json:"product_id"`
	StartingPrice   decimal.Decimal  `json:"starting_price"`
	BidIncrement    decimal.Decimal  `json:"bid_increment"`
	ReservePrice    *decimal.Decimal `json:"reserve_price,omitempty"`
	BuyItNowPrice   *decimal.Decimal `json:"buy_it_now_price,omitempty"`
	Currency        string           `json:"currency"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	RequiresDeposit bool             `json:"requires_deposit"`
	DepositAmount   decimal.Decimal  `json:"deposit_amount"`
}

type AuctionResponse struct {
	AuctionID     string           `json:"auction_id"`
	AuctionNumber string           `json:"auction_number"`
	ProductID     string           `json:"product_id"`
	SellerID      string           `json:"seller_id"`
	Status        string           `json:"status"`
	StartingPrice decimal.Decimal  `json:"starting_price"`
	BidIncrement  decimal.Decimal  `json:"bid_increment"`
	BuyItNowPrice *decimal.Decimal `json:"buy_it_now_price,omitempty"`
	CurrentBid    decimal.Decimal  `json:"current_bid"`
	MinimumBid    decimal.Decimal  `json:"minimum_bid"`
	Currency      string           `json:"currency"`
	HasReserve    bool             `json:"has_reserve"`
	ReserveMet    bool             `json:"reserve_met"`
	BidCount      int              `json:"bid_count"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       time.Time        `json:"end_time"`
	IsExtended    bool             `json:"is_extended"`
	WatchCount    int              `json:"watch_count"`
}

func toAuctionResponse(a *domain.Auction) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:     a.ID,
		AuctionNumber: a.AuctionNumber,
		ProductID:     a.ProductID,
		SellerID:      a.SellerID,
		Status:        a.Status.String(),
		StartingPrice: a.StartingPrice,
		BidIncrement:  a.BidIncrement,
		CurrentBid:    a.CurrentBid,
		MinimumBid:    a.MinimumBid(),
		Currency:      a.Currency,
		HasReserve:    a.HasReserve,
		// Reserve progress is only disclosed once the auction is decided;
		// the reserve price itself is never exposed.
		ReserveMet: a.Status.Terminal() && a.ReserveMet,
		BidCount:   a.BidCount,
		StartTime:  a.StartTime,
		EndTime:    a.EffectiveEndTime(),
		IsExtended: a.ExtendedUntil != nil,
		WatchCount: a.WatchCount,
	}
	if a.BuyItNowPrice.Valid {
		p := a.BuyItNowPrice.Decimal
		resp.BuyItNowPrice = &p
	}
	return resp
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("failed to bind create auction request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.SellerID == "" || req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "seller_id and product_id are required"})
	}

	auction, err := h.auctions.CreateAuction(c.Request().Context(), req.SellerID, services.CreateAuctionRequest{
		ProductID:       req.ProductID,
		StartingPrice:   req.StartingPrice,
		BidIncrement:    req.BidIncrement,
		ReservePrice:    toNullDecimal(req.ReservePrice),
		BuyItNowPrice:   toNullDecimal(req.BuyItNowPrice),
		Currency:        req.Currency,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RequiresDeposit: req.RequiresDeposit,
		DepositAmount:   req.DepositAmount,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSchedule) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.log.Error("failed to create auction", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create auction"})
	}

	return c.JSON(http.StatusCreated, toAuctionResponse(auction))
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.auctions.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
		}
		h.log.Error("failed to load auction", "auction_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load auction"})
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

type PlaceBidRequest struct {
	BidderID string           `json:"bidder_id"`
	Amount   decimal.Decimal  `json:"amount"`
	MaxBid   *decimal.Decimal `json:"max_bid,omitempty"`
}

type BidResponse struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	BidTime   time.Time       `json:"bid_time"`
	IsAutoBid bool            `json:"is_auto_bid"`
	Status    string          `json:"status"`
	Reason    string          `json:"reason,omitempty"`
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	auctionID := c.Param("id")

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.BidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bidder_id is required"})
	}

	bid, err := h.auctions.PlaceBid(c.Request().Context(), auctionID, req.BidderID, req.Amount, toNullDecimal(req.MaxBid))
	if err != nil {
		return h.bidError(c, auctionID, bid, err)
	}

	return c.JSON(http.StatusCreated, toBidResponse(bid))
}

// bidError turns validator rejections into rejected-bid responses with the
// reason; only infrastructure failures become 5xx.
func (h *AuctionHandler) bidError(c echo.Context, auctionID string, bid *domain.Bid, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	case errors.Is(err, domain.ErrAuctionBusy):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error":     "auction busy",
			"retryable": "true",
		})
	case errors.Is(err, domain.ErrAuctionNotOpen),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrSelfBidForbidden),
		errors.Is(err, domain.ErrDepositRequired):
		resp := BidResponse{
			AuctionID: auctionID,
			Status:    string(domain.BidRejected),
			Reason:    string(domain.ReasonForErr(err)),
		}
		if bid != nil {
			resp.BidID = bid.ID
			resp.BidderID = bid.BidderID
			resp.Amount = bid.Amount
			resp.BidTime = bid.BidTime
		}
		return c.JSON(http.StatusUnprocessableEntity, resp)
	default:
		h.log.Error("bid placement failed", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to place bid"})
	}
}

func toBidResponse(b *domain.Bid) BidResponse {
	return BidResponse{
		BidID:     b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		BidTime:   b.BidTime,
		IsAutoBid: b.IsAutoBid,
		Status:    string(b.Status),
	}
}

type BuyItNowRequest struct {
	BuyerID string `json:"buyer_id"`
}

func (h *AuctionHandler) BuyItNow(c echo.Context) error {
	auctionID := c.Param("id")

	var req BuyItNowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.BuyerID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "buyer_id is required"})
	}

	orderID, err := h.auctions.BuyItNow(c.Request().Context(), auctionID, req.BuyerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoBuyItNowPrice):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "auction has no buy-it-now price"})
		case errors.Is(err, domain.ErrAuctionNotOpen),
			errors.Is(err, domain.ErrSelfBidForbidden),
			errors.Is(err, domain.ErrDepositRequired):
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{
				"error":  "buy-it-now rejected",
				"reason": string(domain.ReasonForErr(err)),
			})
		default:
			return h.bidError(c, auctionID, nil, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"auction_id": auctionID,
		"order_id":   orderID,
	})
}

type CancelAuctionRequest struct {
	Reason string `json:"reason"`
}

func (h *AuctionHandler) CancelAuction(c echo.Context) error {
	auctionID := c.Param("id")

	var req CancelAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	err := h.auctions.CancelAuction(c.Request().Context(), auctionID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuctionNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
		case errors.Is(err, domain.ErrCancelForbidden):
			return c.JSON(http.StatusConflict, map[string]string{"error": "auction with bids cannot be cancelled"})
		case errors.Is(err, domain.ErrAlreadyFinalized):
			return c.JSON(http.StatusConflict, map[string]string{"error": "auction already closed"})
		default:
			h.log.Error("failed to cancel auction", "auction_id", auctionID, "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to cancel auction"})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *AuctionHandler) GetBids(c echo.Context) error {
	bids, err := h.auctions.GetBids(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.log.Error("failed to load bids", "auction_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load bids"})
	}

	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuctionHandler) GetUserBids(c echo.Context) error {
	bids, err := h.auctions.GetUserBids(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.log.Error("failed to load user bids", "user_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load bids"})
	}

	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	return c.JSON(http.StatusOK, out)
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
