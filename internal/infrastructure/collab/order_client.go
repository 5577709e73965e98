package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OrderClient talks to the order service. Order creation is keyed by the
// auction id downstream, so re-sending the same auction is safe: the order
// service answers with the existing order instead of creating a second one.
type OrderClient struct {
	baseURL string
	http    *http.Client
}

func NewOrderClient(baseURL string) *OrderClient {
	return &OrderClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type createOrderRequest struct {
	AuctionID    string `json:"auction_id"`
	WinningBidID string `json:"winning_bid_id"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
}

func (c *OrderClient) CreateFromAuction(ctx context.Context, auctionID, winningBidID string) (string, error) {
	body, err := json.Marshal(createOrderRequest{
		AuctionID:    auctionID,
		WinningBidID: winningBidID,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders/from-auction", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	// The auction id doubles as the idempotency key.
	req.Header.Set("Idempotency-Key", auctionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("order service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.OrderID, nil
}
