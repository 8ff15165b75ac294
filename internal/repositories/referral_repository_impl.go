package repositories

import (
	"context"
	stderrors "errors"
	"fmt"

	"kudipay/internal/errors"
	"kudipay/internal/models"

	"gorm.io/gorm"
)

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	if err := r.db.WithContext(ctx).Create(referral).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			// one row per (referrer, referred) pair
			return nil
		}
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (r *referralRepository) GetByPair(ctx context.Context, referrerID, referredID uint) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		First(&referral).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrReferralNotFound
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return &referral, nil
}

func (r *referralRepository) MarkPaid(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, models.ReferralStatusPending).
		Update("status", models.ReferralStatusPaid)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark referral paid: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
