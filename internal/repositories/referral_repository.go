package repositories

import (
	"context"

	"kudipay/internal/models"
)

// ReferralRepository stores referrer/referred links and their payout state.
type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	GetByPair(ctx context.Context, referrerID, referredID uint) (*models.Referral, error)
	// MarkPaid flips a pending referral to paid. Returns false when the
	// referral was already paid.
	MarkPaid(ctx context.Context, id uint) (bool, error)
}
