/*
Package settlement is the wallet ledger's settlement engine.

It owns every balance mutation in the system and guarantees the ledger
invariant: a user's spendable balance always equals the sum of settled
credits minus settled debits. A balance never changes without a terminal
transaction row committing in the same atomic unit.

Operations:

  - DebitAndFulfill: airtime, data and bill purchases against the
    fulfillment provider. The provider's signal is classified as Settled,
    Indeterminate or Rejected; a user is only debited for a Settled
    outcome, and an Indeterminate one leaves the balance untouched until
    reconciliation resolves it.
  - Credit: reference-idempotent credits used by verified wallet funding
    and referral rewards. Replaying a reference returns the existing
    result instead of applying twice.
  - ReconcilePending: requeries the provider for a pending transaction's
    true outcome and settles it exactly once, even under concurrent calls.
  - InitiateFunding / VerifyFunding: hosted-checkout wallet funding with a
    tiered processor fee; the gateway webhook and the verify endpoint are
    alternate triggers for the same idempotent transition.

External calls carry a bounded timeout. A timeout on the fulfillment
provider is Indeterminate, never Rejected: no response is not proof that
nothing was delivered.
*/
package settlement
