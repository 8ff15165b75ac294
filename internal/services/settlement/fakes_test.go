package settlement

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/repositories"
)

// memLedger is an in-memory LedgerRepository with the same transactional
// semantics as the Postgres implementation: balance delta and row commit
// together, duplicate references are rejected, pending rows settle once.
type memLedger struct {
	mu       sync.Mutex
	balances map[uint]float64
	txns     map[string]*models.Transaction
	order    []string
	nextID   uint

	failNextApply bool // fail the next AtomicApply, then recover
}

func newMemLedger(balances map[uint]float64) *memLedger {
	b := make(map[uint]float64, len(balances))
	for id, bal := range balances {
		b[id] = bal
	}
	return &memLedger{balances: b, txns: make(map[string]*models.Transaction)}
}

func (m *memLedger) ReadBalance(_ context.Context, userID uint) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	return bal, nil
}

func (m *memLedger) AtomicApply(_ context.Context, userID uint, delta float64, txn *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextApply {
		m.failNextApply = false
		return context.DeadlineExceeded
	}
	if _, dup := m.txns[txn.Reference]; dup {
		return domain.ErrDuplicateReference
	}
	if delta < 0 && m.balances[userID]+delta < 0 {
		return domain.ErrInsufficientFunds
	}
	m.balances[userID] += delta
	m.nextID++
	txn.ID = m.nextID
	txn.CreatedAt = time.Now()
	stored := *txn
	m.txns[txn.Reference] = &stored
	m.order = append(m.order, txn.Reference)
	return nil
}

func (m *memLedger) FindTransactionByReference(_ context.Context, reference string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[reference]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (m *memLedger) GetTransactionByID(_ context.Context, userID, id uint) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, txn := range m.txns {
		if txn.ID == id && txn.UserID == userID {
			cp := *txn
			return &cp, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memLedger) UpdateTransactionStatus(_ context.Context, reference, status, externalRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[reference]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if txn.Status != models.TransactionStatusPending {
		return nil
	}
	txn.Status = status
	if externalRef != "" {
		txn.ExternalReference = externalRef
	}
	return nil
}

func (m *memLedger) ResolvePending(_ context.Context, reference, status, externalRef string, delta float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[reference]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if txn.Status != models.TransactionStatusPending {
		return false, nil
	}
	if m.balances[txn.UserID]+delta < 0 {
		return false, domain.ErrInvariantViolation
	}
	m.balances[txn.UserID] += delta
	txn.Status = status
	if externalRef != "" {
		txn.ExternalReference = externalRef
	}
	return true, nil
}

func (m *memLedger) AtomicTransfer(_ context.Context, senderID, recipientID uint, amount float64, debitLeg, creditLeg *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[senderID] < amount {
		return domain.ErrInsufficientFunds
	}
	m.balances[senderID] -= amount
	m.balances[recipientID] += amount
	for _, leg := range []*models.Transaction{debitLeg, creditLeg} {
		m.nextID++
		leg.ID = m.nextID
		stored := *leg
		m.txns[leg.Reference] = &stored
		m.order = append(m.order, leg.Reference)
	}
	return nil
}

func (m *memLedger) ListTransactions(_ context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for i := len(m.order) - 1; i >= 0; i-- {
		txn := m.txns[m.order[i]]
		if txn.UserID == userID {
			out = append(out, *txn)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLedger) ListStalePending(_ context.Context, types []string, olderThan time.Time, limit int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	var out []models.Transaction
	for _, ref := range m.order {
		txn := m.txns[ref]
		if txn.Status == models.TransactionStatusPending && typeSet[txn.Type] && txn.CreatedAt.Before(olderThan) {
			out = append(out, *txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLedger) GetTransactionStats(_ context.Context, userID uint, start, end time.Time) (*repositories.TransactionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repositories.TransactionStats{}
	var success int64
	for _, ref := range m.order {
		txn := m.txns[ref]
		if txn.UserID != userID {
			continue
		}
		stats.TotalTransactions++
		stats.TotalVolume += txn.Amount
		if txn.Amount > stats.MaxAmount {
			stats.MaxAmount = txn.Amount
		}
		if txn.Status == models.TransactionStatusSuccess {
			success++
		}
	}
	if stats.TotalTransactions > 0 {
		stats.AvgAmount = stats.TotalVolume / float64(stats.TotalTransactions)
		stats.SuccessRate = float64(success) / float64(stats.TotalTransactions) * 100
	}
	return stats, nil
}

// signedSum is the net balance effect of all success rows for a user.
func (m *memLedger) signedSum(userID uint) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, txn := range m.txns {
		if txn.UserID != userID || txn.Status != models.TransactionStatusSuccess {
			continue
		}
		if txn.IsDebit() {
			sum -= txn.Amount
		} else {
			sum += txn.Amount
		}
	}
	return sum
}

func (m *memLedger) transaction(reference string) *models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.txns[reference]; ok {
		cp := *txn
		return &cp
	}
	return nil
}

func (m *memLedger) balance(userID uint) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

type memUsers struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: make(map[uint]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uint(len(m.users) + 1)
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// fakeFulfiller scripts provider answers. Zero-value funcs respond with
// a rejected status.
type fakeFulfiller struct {
	mu         sync.Mutex
	purchaseFn func(requestID string) (string, string, error)
	requeryFn  func(requestID string) (string, string, error)
	purchases  int
	requeries  int
}

func (f *fakeFulfiller) Purchase(_ context.Context, requestID, _ string, _ float64, _, _ string) (string, string, error) {
	f.mu.Lock()
	f.purchases++
	fn := f.purchaseFn
	f.mu.Unlock()
	if fn == nil {
		return "", "failed", nil
	}
	return fn(requestID)
}

func (f *fakeFulfiller) Requery(_ context.Context, requestID string) (string, string, error) {
	f.mu.Lock()
	f.requeries++
	fn := f.requeryFn
	f.mu.Unlock()
	if fn == nil {
		return "", "failed", nil
	}
	return fn(requestID)
}

func (f *fakeFulfiller) purchaseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purchases
}

type fakeGateway struct {
	mu          sync.Mutex
	initFn      func(reference string) (string, string, error)
	verifyFn    func(reference string) (string, string, float64, error)
	verifyCalls int
}

func (g *fakeGateway) Initialize(_ context.Context, _ float64, _, reference, _ string) (string, string, error) {
	g.mu.Lock()
	fn := g.initFn
	g.mu.Unlock()
	if fn == nil {
		return "https://checkout.test/" + reference, "AC_" + reference, nil
	}
	return fn(reference)
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (string, string, float64, error) {
	g.mu.Lock()
	g.verifyCalls++
	fn := g.verifyFn
	g.mu.Unlock()
	if fn == nil {
		return "success", "GW123", 0, nil
	}
	return fn(reference)
}
