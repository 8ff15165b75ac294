package settlement

import "time"

// Default configuration values
const (
	DefaultFulfillmentTimeout = 15 * time.Second
	BalanceCacheTTL           = 5 * time.Minute
)

// Reference prefixes per transaction type
const (
	prefixAirtime = "AIR"
	prefixData    = "DAT"
	prefixBill    = "BIL"
	prefixFunding = "FND"
)
