package wallet

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Service is the settlement-wallet boundary consumed by the payment flow.
// The wallet holds the signing identity established at construction and is
// the only component allowed to move funds.
type Service interface {
	// GetBalance returns the available balance in sats.
	GetBalance(ctx context.Context) (uint64, error)
	// SendBitcoin transfers the given amount to the given ark address and
	// returns the txid of the transfer.
	SendBitcoin(ctx context.Context, address string, amount uint64) (string, error)
}

// Options to open a wallet session.
type Options struct {
	// ServerURL is the url of the ark server the wallet is bound to.
	ServerURL string
	// PrivateKey is the signing identity of the session.
	PrivateKey *btcec.PrivateKey
}

// Factory builds a wallet Service from Options.
type Factory func(opts Options) (Service, error)
