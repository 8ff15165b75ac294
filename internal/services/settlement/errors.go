package settlement

import "errors"

// Infrastructure errors. These abort the atomic unit, roll back fully and
// surface to callers as a generic failure; they are never silently
// swallowed. Business outcomes (declined purchase, insufficient funds)
// are typed domain errors or plain results, not these.
var (
	ErrStoreUnavailable   = errors.New("ledger store unavailable")
	ErrGatewayUnreachable = errors.New("payment gateway unreachable")
)
