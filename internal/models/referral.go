package models

import "time"

// Referral statuses
const (
	ReferralStatusPending = "pending"
	ReferralStatusPaid    = "paid"
)

// Referral links an inviting user to a user they referred. Created at
// registration when a valid referral code is supplied; at most one row per
// (referrer, referred) pair. Transitions pending -> paid exactly once.
type Referral struct {
	ID         uint    `gorm:"primarykey"`
	ReferrerID uint    `gorm:"not null;uniqueIndex:idx_referral_pair"`
	ReferredID uint    `gorm:"not null;uniqueIndex:idx_referral_pair"`
	Reward     float64 `gorm:"type:numeric(20,2);not null"`
	Status     string  `gorm:"not null;default:'pending'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
