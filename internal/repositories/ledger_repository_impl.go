package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a ledger repository bound to the given
// database handle.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ReadBalance(ctx context.Context, userID uint) (float64, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id", "balance").First(&user, userID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return user.Balance, nil
}

func (r *ledgerRepository) AtomicApply(ctx context.Context, userID uint, delta float64, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if delta != 0 {
			newBalance, err := lockedBalanceAfter(tx, userID, delta)
			if err != nil {
				return err
			}
			if newBalance < 0 {
				// the locked read is the overdraft guard: a concurrent
				// debit that won the lock first makes this one fail here
				return domain.ErrInsufficientFunds
			}
			if err := updateBalance(tx, userID, newBalance); err != nil {
				return err
			}
		}
		if err := tx.Create(txn).Error; err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateReference
			}
			return fmt.Errorf("failed to append transaction: %w", err)
		}
		return nil
	})
}

func (r *ledgerRepository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&txn).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) GetTransactionByID(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) UpdateTransactionStatus(ctx context.Context, reference, status, externalRef string) error {
	updates := map[string]interface{}{"status": status}
	if externalRef != "" {
		updates["external_reference"] = externalRef
	}
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", reference, models.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// not pending anymore, or never existed
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("reference = ?", reference).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		if count == 0 {
			return domain.ErrTransactionNotFound
		}
	}
	return nil
}

func (r *ledgerRepository) ResolvePending(ctx context.Context, reference, status, externalRef string, delta float64) (bool, error) {
	var applied bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reference = ?", reference).First(&txn).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTransactionNotFound
			}
			return fmt.Errorf("failed to lock transaction: %w", err)
		}
		if txn.Status != models.TransactionStatusPending {
			// a concurrent caller settled it first
			return nil
		}
		if delta != 0 {
			newBalance, err := lockedBalanceAfter(tx, txn.UserID, delta)
			if err != nil {
				return err
			}
			if newBalance < 0 {
				// a provider-confirmed debit the balance can no longer
				// cover; refuse rather than force the balance negative
				return domain.ErrInvariantViolation
			}
			if err := updateBalance(tx, txn.UserID, newBalance); err != nil {
				return err
			}
		}
		updates := map[string]interface{}{"status": status}
		if externalRef != "" {
			updates["external_reference"] = externalRef
		}
		if err := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionStatusPending).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to settle transaction: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *ledgerRepository) AtomicTransfer(ctx context.Context, senderID, recipientID uint, amount float64, debitLeg, creditLeg *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock both rows in id order so concurrent opposite transfers
		// cannot deadlock
		first, second := senderID, recipientID
		if first > second {
			first, second = second, first
		}
		var users []models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", []uint{first, second}).
			Order("id").Find(&users).Error; err != nil {
			return fmt.Errorf("failed to lock balance rows: %w", err)
		}
		if len(users) != 2 {
			return domain.ErrRecipientNotFound
		}

		var sender, recipient *models.User
		for i := range users {
			switch users[i].ID {
			case senderID:
				sender = &users[i]
			case recipientID:
				recipient = &users[i]
			}
		}
		if sender == nil || recipient == nil {
			return domain.ErrRecipientNotFound
		}
		if sender.Balance < amount {
			return domain.ErrInsufficientFunds
		}

		if err := updateBalance(tx, sender.ID, utils.Round2(sender.Balance-amount)); err != nil {
			return err
		}
		if err := updateBalance(tx, recipient.ID, utils.Round2(recipient.Balance+amount)); err != nil {
			return err
		}

		for _, leg := range []*models.Transaction{debitLeg, creditLeg} {
			if err := tx.Create(leg).Error; err != nil {
				if stderrors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.ErrDuplicateReference
				}
				return fmt.Errorf("failed to append transfer leg: %w", err)
			}
		}
		return nil
	})
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) ListStalePending(ctx context.Context, types []string, olderThan time.Time, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND type IN ? AND created_at < ?", models.TransactionStatusPending, types, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) GetTransactionStats(ctx context.Context, userID uint, start, end time.Time) (*TransactionStats, error) {
	var stats TransactionStats
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, start, end).
		Select(`
			COUNT(*) as total_transactions,
			COALESCE(SUM(amount), 0) as total_volume,
			COALESCE(AVG(amount), 0) as avg_amount,
			COALESCE(MAX(amount), 0) as max_amount,
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(*), 0), 0) as success_rate
		`).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction stats: %w", err)
	}
	return &stats, nil
}

// lockedBalanceAfter takes the user's balance row lock and returns the
// rounded balance after applying delta.
func lockedBalanceAfter(tx *gorm.DB, userID uint, delta float64) (float64, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to lock balance row: %w", err)
	}
	return utils.Round2(user.Balance + delta), nil
}

func updateBalance(tx *gorm.DB, userID uint, newBalance float64) error {
	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("balance", newBalance).Error; err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}
