package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// NewReference generates a unique transaction reference with a short
// type prefix, e.g. "AIR-9f1c2d3e4a5b". References are the idempotency
// keys of the ledger so they must never collide.
func NewReference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), id[:20])
}

// ReferralReference derives the deterministic idempotency key for a
// referral reward so a retried payout can never credit twice.
func ReferralReference(referrerID, referredID uint) string {
	return fmt.Sprintf("REFBONUS-%d-%d", referrerID, referredID)
}

// Round2 rounds a currency amount to two decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
