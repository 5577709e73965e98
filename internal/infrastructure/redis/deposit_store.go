package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// DepositStore reads bidder deposits recorded by the payments system. The
// engine only ever reads; deposits are written by the collaborator that
// collects them.
type DepositStore struct {
	client *redis.Client
}

func NewDepositStore(client *redis.Client) *DepositStore {
	return &DepositStore{client: client}
}

func (d *DepositStore) GetDeposit(ctx context.Context, auctionID, bidderID string) (decimal.Decimal, error) {
	key := fmt.Sprintf("auction:%s:deposits", auctionID)

	val, err := d.client.HGet(ctx, key, bidderID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	amount, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed deposit for bidder %s: %w", bidderID, err)
	}
	return amount, nil
}
