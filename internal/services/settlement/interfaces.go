package settlement

import (
	"context"
	"time"

	"kudipay/internal/models"
)

// Service is the settlement engine's public surface.
type Service interface {
	GetBalance(ctx context.Context, userID uint) (float64, error)
	DebitAndFulfill(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)
	Credit(ctx context.Context, userID uint, amount float64, txType, reference string, details models.JSON) (*models.Transaction, error)
	ReconcilePending(ctx context.Context, reference string) (*PurchaseResult, error)
	InitiateFunding(ctx context.Context, userID uint, gross float64) (*FundingInit, error)
	VerifyFunding(ctx context.Context, reference string) (*FundingResult, error)
}

// Gateway is the hosted-checkout payment processor.
type Gateway interface {
	Initialize(ctx context.Context, amount float64, email, reference, callbackURL string) (authorizationURL, accessCode string, err error)
	Verify(ctx context.Context, reference string) (status, externalRef string, amount float64, err error)
}

// Fulfiller is the airtime/data/bill fulfillment provider.
type Fulfiller interface {
	Purchase(ctx context.Context, requestID, serviceID string, amount float64, recipient, variationCode string) (externalRef, status string, err error)
	Requery(ctx context.Context, requestID string) (externalRef, status string, err error)
}

// BalanceCache is the optional read cache for balance lookups.
type BalanceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(entityType, keyType string, value interface{}) string
}
