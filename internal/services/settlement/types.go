package settlement

import (
	"time"
)

// Outcome is the engine's classification of an external provider's
// settlement signal.
type Outcome string

const (
	// OutcomeSettled means the provider confirmed fulfillment and the
	// funds are consumed.
	OutcomeSettled Outcome = "settled"
	// OutcomeIndeterminate means the provider accepted the request but
	// the result is not yet known. The balance is not touched.
	OutcomeIndeterminate Outcome = "indeterminate"
	// OutcomeRejected means the provider guarantees no fulfillment
	// occurred.
	OutcomeRejected Outcome = "rejected"
)

// PurchaseRequest describes an airtime, data or bill purchase.
type PurchaseRequest struct {
	UserID        uint
	Type          string // airtime | data | bill
	Amount        float64
	ServiceID     string
	Recipient     string // phone, meter or smartcard number
	VariationCode string // data plan or bill variation, empty for airtime
}

// PurchaseResult is the terminal or pending classification returned to
// the caller. A business-level rejection is a result, not an error.
type PurchaseResult struct {
	Reference         string  `json:"reference"`
	Outcome           Outcome `json:"outcome"`
	Status            string  `json:"status"`
	Amount            float64 `json:"amount"`
	ExternalReference string  `json:"external_reference,omitempty"`
}

// FundingInit is the handle returned by a funding initiation.
type FundingInit struct {
	Reference        string  `json:"reference"`
	AuthorizationURL string  `json:"authorization_url"`
	AccessCode       string  `json:"access_code"`
	Gross            float64 `json:"gross"`
	Fee              float64 `json:"fee"`
	Net              float64 `json:"net"`
}

// FundingResult is the outcome of verifying a funding reference.
type FundingResult struct {
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Credited  float64 `json:"credited"`
}

// Config holds the engine's settings.
type Config struct {
	// FulfillmentTimeout bounds every external provider call.
	FulfillmentTimeout time.Duration
	// CallbackURL is where the gateway redirects after checkout.
	CallbackURL string
	Fees        FeeSchedule
}
