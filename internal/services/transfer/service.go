// Package transfer moves balance between two users. No external
// collaborator is involved, so a transfer has no pending state: it
// commits wholly or not at all.
package transfer

import (
	"context"
	stderrors "errors"
	"fmt"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/utils"
)

// LedgerStore is the slice of the ledger the transfer service needs.
type LedgerStore interface {
	ReadBalance(ctx context.Context, userID uint) (float64, error)
	AtomicTransfer(ctx context.Context, senderID, recipientID uint, amount float64, debitLeg, creditLeg *models.Transaction) error
}

// UserLookup resolves recipients by email.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Recipient is the validated counterparty of a prospective transfer.
type Recipient struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Result describes a committed transfer.
type Result struct {
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	RecipientID uint    `json:"recipient_id"`
}

// Service handles peer-to-peer balance transfers.
type Service interface {
	Transfer(ctx context.Context, senderID uint, recipientEmail string, amount float64, note string) (*Result, error)
	ValidateRecipient(ctx context.Context, senderID uint, email string) (*Recipient, error)
}

// Invalidator drops cached balances after a committed transfer.
type Invalidator interface {
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(entityType, keyType string, value interface{}) string
}

type service struct {
	repo  LedgerStore
	users UserLookup
	cache Invalidator
}

// NewService creates a transfer service. The cache is optional.
func NewService(repo LedgerStore, users UserLookup, cache Invalidator) Service {
	if repo == nil {
		panic("ledger store is required")
	}
	if users == nil {
		panic("user lookup is required")
	}
	return &service{repo: repo, users: users, cache: cache}
}

func (s *service) ValidateRecipient(ctx context.Context, senderID uint, email string) (*Recipient, error) {
	recipient, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, err
	}
	if recipient.ID == senderID {
		return nil, domain.ErrSelfTransfer
	}
	return &Recipient{UserID: recipient.ID, Name: recipient.Name, Email: recipient.Email}, nil
}

// Transfer debits the sender, credits the recipient and appends both
// transaction legs in one atomic unit. The legs share a correlated
// reference pair derived from a single base reference.
func (s *service) Transfer(ctx context.Context, senderID uint, recipientEmail string, amount float64, note string) (*Result, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	recipient, err := s.ValidateRecipient(ctx, senderID, recipientEmail)
	if err != nil {
		return nil, err
	}

	// cheap early rejection; the atomic unit re-checks under the row lock
	balance, err := s.repo.ReadBalance(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, domain.ErrInsufficientFunds
	}

	pair := utils.NewReference("P2P")
	debitLeg := &models.Transaction{
		UserID:    senderID,
		Type:      models.TransactionTypeP2PTransfer,
		Amount:    amount,
		Reference: pair + "-D",
		Status:    models.TransactionStatusSuccess,
		Details: models.NewJSON(map[string]interface{}{
			"direction":    "debit",
			"counterparty": recipient.UserID,
			"pair":         pair,
			"note":         note,
		}),
	}
	creditLeg := &models.Transaction{
		UserID:    recipient.UserID,
		Type:      models.TransactionTypeP2PTransfer,
		Amount:    amount,
		Reference: pair + "-C",
		Status:    models.TransactionStatusSuccess,
		Details: models.NewJSON(map[string]interface{}{
			"direction":    "credit",
			"counterparty": senderID,
			"pair":         pair,
			"note":         note,
		}),
	}

	if err := s.repo.AtomicTransfer(ctx, senderID, recipient.UserID, amount, debitLeg, creditLeg); err != nil {
		if isDomain(err) {
			return nil, err
		}
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	s.invalidate(ctx, senderID, recipient.UserID)
	return &Result{Reference: pair, Amount: amount, RecipientID: recipient.UserID}, nil
}

func (s *service) invalidate(ctx context.Context, userIDs ...uint) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, s.cache.GenerateKey("balance", "user", id))
	}
	s.cache.Delete(ctx, keys...)
}

func isDomain(err error) bool {
	var de *domain.DomainError
	return stderrors.As(err, &de)
}
