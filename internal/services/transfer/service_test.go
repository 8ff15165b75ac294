package transfer

import (
	"context"
	"sync"
	"testing"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memStore struct {
	mu       sync.Mutex
	balances map[uint]float64
	legs     []*models.Transaction
}

func (m *memStore) ReadBalance(_ context.Context, userID uint) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	return bal, nil
}

func (m *memStore) AtomicTransfer(_ context.Context, senderID, recipientID uint, amount float64, debitLeg, creditLeg *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[senderID] < amount {
		return domain.ErrInsufficientFunds
	}
	m.balances[senderID] -= amount
	m.balances[recipientID] += amount
	m.legs = append(m.legs, debitLeg, creditLeg)
	return nil
}

type stubUsers struct {
	byEmail map[string]*models.User
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func newFixture() (*memStore, Service) {
	store := &memStore{balances: map[uint]float64{1: 1000, 2: 0}}
	users := &stubUsers{byEmail: map[string]*models.User{
		"ada@test.ng":  {Model: gorm.Model{ID: 1}, Name: "Ada", Email: "ada@test.ng"},
		"bolu@test.ng": {Model: gorm.Model{ID: 2}, Name: "Bolu", Email: "bolu@test.ng"},
	}}
	return store, NewService(store, users, nil)
}

func TestTransfer(t *testing.T) {
	store, svc := newFixture()

	result, err := svc.Transfer(context.Background(), 1, "bolu@test.ng", 300, "lunch")
	require.NoError(t, err)

	assert.Equal(t, 700.0, store.balances[1])
	assert.Equal(t, 300.0, store.balances[2])
	assert.Equal(t, uint(2), result.RecipientID)
	assert.Equal(t, 300.0, result.Amount)

	require.Len(t, store.legs, 2)
	debit, credit := store.legs[0], store.legs[1]

	assert.Equal(t, result.Reference+"-D", debit.Reference)
	assert.Equal(t, result.Reference+"-C", credit.Reference)
	assert.Equal(t, uint(1), debit.UserID)
	assert.Equal(t, uint(2), credit.UserID)
	assert.Equal(t, models.TransactionStatusSuccess, debit.Status)
	assert.Equal(t, models.TransactionStatusSuccess, credit.Status)
	assert.Equal(t, result.Reference, debit.Details["pair"])
	assert.Equal(t, result.Reference, credit.Details["pair"])
	assert.True(t, debit.IsDebit())
	assert.False(t, credit.IsDebit())
}

func TestTransferInsufficientFunds(t *testing.T) {
	store, svc := newFixture()

	_, err := svc.Transfer(context.Background(), 1, "bolu@test.ng", 5000, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 1000.0, store.balances[1])
	assert.Empty(t, store.legs)
}

func TestTransferRejectsSelf(t *testing.T) {
	_, svc := newFixture()

	_, err := svc.Transfer(context.Background(), 1, "ada@test.ng", 100, "")
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)
}

func TestTransferUnknownRecipient(t *testing.T) {
	_, svc := newFixture()

	_, err := svc.Transfer(context.Background(), 1, "ghost@test.ng", 100, "")
	assert.ErrorIs(t, err, domain.ErrRecipientNotFound)
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	_, svc := newFixture()

	_, err := svc.Transfer(context.Background(), 1, "bolu@test.ng", 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Transfer(context.Background(), 1, "bolu@test.ng", -10, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestValidateRecipient(t *testing.T) {
	_, svc := newFixture()

	recipient, err := svc.ValidateRecipient(context.Background(), 1, "bolu@test.ng")
	require.NoError(t, err)
	assert.Equal(t, uint(2), recipient.UserID)
	assert.Equal(t, "Bolu", recipient.Name)
}
