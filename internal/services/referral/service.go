// Package referral settles referral rewards: a fixed credit to the
// referrer, applied exactly once per referred user.
package referral

import (
	"context"
	stderrors "errors"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/repositories"
	"kudipay/internal/utils"
)

// DefaultRewardAmount is the payout when no per-referral amount is stored.
const DefaultRewardAmount = 200.0

// Engine is the settlement operation the payout rides on.
type Engine interface {
	Credit(ctx context.Context, userID uint, amount float64, txType, reference string, details models.JSON) (*models.Transaction, error)
}

// Result reports the outcome of processing a reward.
type Result struct {
	ReferrerID       uint    `json:"referrer_id"`
	Reward           float64 `json:"reward"`
	AlreadyProcessed bool    `json:"already_processed"`
}

// Service processes referral rewards.
type Service interface {
	ProcessReward(ctx context.Context, referredUserID uint) (*Result, error)
}

type service struct {
	users     repositories.UserRepository
	referrals repositories.ReferralRepository
	engine    Engine
	reward    float64
}

func NewService(users repositories.UserRepository, referrals repositories.ReferralRepository, engine Engine, reward float64) Service {
	if reward <= 0 {
		reward = DefaultRewardAmount
	}
	return &service{
		users:     users,
		referrals: referrals,
		engine:    engine,
		reward:    reward,
	}
}

// ProcessReward credits the referrer of the given user exactly once. The
// credit is keyed by a reference derived from the referral pair, so a
// retry after a crash between the credit and the status flip replays as
// a no-op instead of paying twice.
func (s *service) ProcessReward(ctx context.Context, referredUserID uint) (*Result, error) {
	referred, err := s.users.GetByID(ctx, referredUserID)
	if err != nil {
		return nil, err
	}
	if referred.ReferredBy == nil || *referred.ReferredBy == "" {
		return nil, domain.ErrReferralNotFound
	}

	referrer, err := s.users.GetByReferralCode(ctx, *referred.ReferredBy)
	if err != nil {
		if stderrors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrReferralNotFound
		}
		return nil, err
	}

	referral, err := s.referrals.GetByPair(ctx, referrer.ID, referred.ID)
	if err != nil {
		return nil, err
	}
	if referral.Status == models.ReferralStatusPaid {
		return &Result{ReferrerID: referrer.ID, Reward: referral.Reward, AlreadyProcessed: true}, nil
	}

	reward := referral.Reward
	if reward <= 0 {
		reward = s.reward
	}

	reference := utils.ReferralReference(referrer.ID, referred.ID)
	details := models.NewJSON(map[string]interface{}{
		"referral_id":      referral.ID,
		"referred_user_id": referred.ID,
	})
	if _, err := s.engine.Credit(ctx, referrer.ID, reward, models.TransactionTypeWalletFund, reference, details); err != nil {
		return nil, err
	}
	if _, err := s.referrals.MarkPaid(ctx, referral.ID); err != nil {
		return nil, err
	}

	return &Result{ReferrerID: referrer.ID, Reward: reward}, nil
}
