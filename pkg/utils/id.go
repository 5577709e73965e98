package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a prefixed unique identifier, e.g. "auction_1b9d6bcd...".
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// GenerateAuctionNumber returns a human-readable auction number, e.g.
// "AU-20260830-483920". Assigned once at creation and never changed.
func GenerateAuctionNumber(now time.Time) string {
	return fmt.Sprintf("AU-%s-%06d", now.Format("20060102"), rand.Intn(1000000))
}
