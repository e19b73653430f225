package paywall

import (
	"fmt"
	"net/http"

	"github.com/ark-network/paywall/swap"
	"github.com/ark-network/paywall/wallet"
)

const defaultDescription = "paywall payment"

// Options configures a Paywall. ArkAddress, ArkServerURL and BoltzAPIURL are
// mandatory, everything else has a sane default.
type Options struct {
	// ArkAddress is the recipient of the swept funds. It must have been
	// issued by the server behind ArkServerURL.
	ArkAddress string
	// ArkServerURL is the url of the ark server operating the settlement
	// network.
	ArkServerURL string
	// BoltzAPIURL is the url of the reverse swap provider.
	BoltzAPIURL string

	// PrivateKey is the signing identity of the session as 32 hex-encoded
	// bytes. If empty, an ephemeral key is generated and discarded with the
	// Paywall.
	PrivateKey string
	// ReferralID is passed opaquely to the swap provider.
	ReferralID string

	// HTTPClient is used to fetch the server info. If nil, a default client
	// is used.
	HTTPClient *http.Client
	// NewWallet overrides the settlement wallet implementation. If nil, the
	// wallet endpoints of the ark server are used.
	NewWallet wallet.Factory
	// NewSwapper overrides the swap coordinator implementation. If nil, the
	// Boltz api at BoltzAPIURL is used.
	NewSwapper swap.Factory
}

func (o Options) validate() error {
	if len(o.ArkAddress) <= 0 {
		return fmt.Errorf("missing ark address")
	}
	if len(o.BoltzAPIURL) <= 0 {
		return fmt.Errorf("missing boltz api url")
	}
	if len(o.ArkServerURL) <= 0 {
		return fmt.Errorf("missing ark server url")
	}
	return nil
}

// InvoiceRequest asks for an invoice of Amount sats. Description defaults if
// empty.
type InvoiceRequest struct {
	Amount      uint64
	Description string
}

// Invoice is the outcome of a request: everything needed to display the
// payment to the end user plus the handle to await its settlement. No copy is
// retained by the Paywall, subsequent operations receive it explicitly.
type Invoice struct {
	// Amount granted, in sats. Never greater than the requested one.
	Amount uint64
	// Expiry of the invoice as unix time.
	Expiry int64
	// Invoice is the BOLT11 payment request.
	Invoice string
	// Preimage is the hex-encoded swap secret.
	Preimage string
	// QRCode is the invoice rendered as an HTML img tag embedding a base64
	// GIF.
	QRCode string
	// Pending references the in-flight swap until claimed. It is internal
	// to the flow and never exposed to callbacks.
	Pending *swap.PendingSwap
}

// Payment is the terminal artifact of a settled flow.
type Payment struct {
	// Txid of the sweep transaction moving the funds to the recipient
	// address.
	Txid string
}

// PaymentRequest drives the callback-based flow. OnInvoice and OnPayment are
// mandatory, OnError is optional: when nil, failures are returned by
// RequestPayment itself.
type PaymentRequest struct {
	Amount      uint64
	Description string
	// OnInvoice is invoked synchronously right after issuance with the
	// public fields of the invoice.
	OnInvoice func(*Invoice)
	// OnPayment is invoked once the funds have been swept to the recipient
	// address.
	OnPayment func(*Payment)
	// OnError, if set, receives any failure of the flow.
	OnError func(error)
}
