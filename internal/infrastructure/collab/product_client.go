package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/domain"
)

// ProductClient reads listing snapshots from the catalog service. Read-only;
// the engine never mutates listings.
type ProductClient struct {
	baseURL string
	http    *http.Client
}

func NewProductClient(baseURL string) *ProductClient {
	return &ProductClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type listingResponse struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	Active    bool   `json:"active"`
}

func (c *ProductClient) GetListingSnapshot(ctx context.Context, productID string) (*domain.ListingSnapshot, error) {
	url := fmt.Sprintf("%s/api/v1/products/%s/snapshot", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product service returned status %d", resp.StatusCode)
	}

	var out listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	return &domain.ListingSnapshot{
		ProductID: out.ProductID,
		Title:     out.Title,
		ImageURL:  out.ImageURL,
		Active:    out.Active,
	}, nil
}
