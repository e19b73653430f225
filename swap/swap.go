package swap

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/lntypes"
)

// ReverseSwap is the outcome of creating a reverse submarine swap: a BOLT11
// invoice payable by the end user, the preimage unlocking the swapped funds
// and an handle to the in-flight swap.
type ReverseSwap struct {
	// Amount granted by the counterparty, in sats. Never greater than the
	// requested one.
	Amount uint64
	// Expiry of the invoice as unix time.
	Expiry int64
	// Invoice to be paid.
	Invoice string
	// Preimage unlocking the swap once the invoice is paid.
	Preimage lntypes.Preimage
	// Pending references the swap until claimed or abandoned.
	Pending *PendingSwap
}

// PendingSwap references an in-flight, not-yet-claimed reverse swap. It is
// owned jointly by the coordinator and the caller and must not be shared
// outside of them.
type PendingSwap struct {
	ID       string
	Preimage lntypes.Preimage
}

// Coordinator is the swap-provider boundary consumed by the payment flow.
type Coordinator interface {
	// CreateReverseSwap creates a reverse submarine swap for the given
	// amount and returns the invoice to be paid.
	CreateReverseSwap(
		ctx context.Context, amount uint64, description string,
	) (*ReverseSwap, error)
	// WaitAndClaim blocks until the counterparty funds the swap, then
	// claims it with the preimage bound to the handle and returns the claim
	// txid. It imposes no deadline of its own, expiry enforcement belongs
	// to the swap provider. Cancelling the context stops waiting locally,
	// the swap itself expires per the provider's policy.
	WaitAndClaim(ctx context.Context, pending *PendingSwap) (string, error)
}

// Factory builds a Coordinator bound to a swap api url, the server's network
// and the key authorized to claim.
type Factory func(
	apiURL, network, referralID string, claimKey *btcec.PrivateKey,
) (Coordinator, error)
