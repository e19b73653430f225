package paywall

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ark-network/paywall/address"
	"github.com/ark-network/paywall/arkserver"
	"github.com/ark-network/paywall/qr"
	"github.com/ark-network/paywall/swap"
	"github.com/ark-network/paywall/swap/boltz"
	"github.com/ark-network/paywall/wallet"
	restwallet "github.com/ark-network/paywall/wallet/rest"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/lntypes"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidAmount        = fmt.Errorf("amount must be greater than 0")
	ErrIncompleteServerInfo = fmt.Errorf("incomplete server info: missing signer pubkey or network")
	ErrMissingPendingSwap   = fmt.Errorf("missing pending swap")
	ErrClaimIncomplete      = fmt.Errorf("claim did not return a transaction id")
	ErrNoBalanceToSweep     = fmt.Errorf("no balance to sweep")
	ErrMissingOnInvoice     = fmt.Errorf("missing onInvoice callback")
	ErrMissingOnPayment     = fmt.Errorf("missing onPayment callback")
)

// Paywall drives a client-side pay-to-unlock flow: issue a Lightning invoice
// through a reverse submarine swap, await its settlement, claim the swapped
// funds and sweep them to the recipient ark address given at construction.
//
// A Paywall is meant to serve one payment flow at a time. The sweep moves the
// wallet's entire available balance, so two flows sharing the same instance
// can starve or absorb each other's funds. Use one Paywall per concurrent
// payment or serialize the flows externally.
type Paywall interface {
	// RequestInvoice creates a reverse submarine swap for the requested
	// amount and returns the invoice to display.
	RequestInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	// WaitForPayment blocks until the invoice is settled, claims the swap
	// and sweeps the funds to the recipient address. It imposes no deadline
	// of its own, cancel the context to stop waiting locally.
	WaitForPayment(ctx context.Context, invoice *Invoice) (*Payment, error)
	// RequestPayment composes RequestInvoice and WaitForPayment behind the
	// given callbacks.
	RequestPayment(ctx context.Context, req PaymentRequest) error
}

type paywall struct {
	arkAddress string
	network    string
	wallet     wallet.Service
	swapper    swap.Coordinator
}

// New validates the given options, verifies that the recipient address was
// issued by the ark server and opens the wallet and swap sessions. Validation
// happens here once, a constructed Paywall stays valid for its whole
// lifetime.
func New(ctx context.Context, opts Options) (Paywall, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	serverSvc := arkserver.NewClient(opts.HTTPClient)
	info, err := serverSvc.GetInfo(ctx, opts.ArkServerURL)
	if err != nil {
		return nil, err
	}
	if len(info.SignerPubkey) <= 0 || len(info.Network) <= 0 {
		return nil, ErrIncompleteServerInfo
	}

	if err := address.Verify(info.SignerPubkey, opts.ArkAddress); err != nil {
		return nil, err
	}

	privateKey, err := parsePrivateKey(opts.PrivateKey)
	if err != nil {
		return nil, err
	}

	newWallet := opts.NewWallet
	if newWallet == nil {
		newWallet = restwallet.NewService
	}
	walletSvc, err := newWallet(wallet.Options{
		ServerURL:  opts.ArkServerURL,
		PrivateKey: privateKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup wallet: %s", err)
	}

	newSwapper := opts.NewSwapper
	if newSwapper == nil {
		newSwapper = boltz.NewClient
	}
	swapSvc, err := newSwapper(
		opts.BoltzAPIURL, info.Network, opts.ReferralID, privateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to setup swap coordinator: %s", err)
	}

	log.Debugf(
		"paywall ready on %s, sweeping to %s", info.Network, opts.ArkAddress,
	)

	return &paywall{
		arkAddress: opts.ArkAddress,
		network:    info.Network,
		wallet:     walletSvc,
		swapper:    swapSvc,
	}, nil
}

func (p *paywall) RequestInvoice(
	ctx context.Context, req InvoiceRequest,
) (*Invoice, error) {
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	description := req.Description
	if len(description) <= 0 {
		description = defaultDescription
	}

	log.Debugf("requesting invoice for %d sats on %s", req.Amount, p.network)

	res, err := p.swapper.CreateReverseSwap(ctx, req.Amount, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create reverse swap: %s", err)
	}
	if err := validateSwapResult(res, req.Amount); err != nil {
		return nil, err
	}

	qrCode, err := qr.ImageTag(res.Invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice qr code: %s", err)
	}

	return &Invoice{
		Amount:   res.Amount,
		Expiry:   res.Expiry,
		Invoice:  res.Invoice,
		Preimage: res.Preimage.String(),
		QRCode:   qrCode,
		Pending:  res.Pending,
	}, nil
}

func (p *paywall) WaitForPayment(
	ctx context.Context, invoice *Invoice,
) (*Payment, error) {
	if invoice == nil || invoice.Pending == nil {
		return nil, ErrMissingPendingSwap
	}

	claimTxid, err := p.swapper.WaitAndClaim(ctx, invoice.Pending)
	if err != nil {
		return nil, fmt.Errorf("failed to claim swap: %s", err)
	}
	if len(claimTxid) <= 0 {
		return nil, ErrClaimIncomplete
	}

	balance, err := p.wallet.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %s", err)
	}
	if balance == 0 {
		return nil, ErrNoBalanceToSweep
	}

	// Sweep everything available, not only the claimed amount. Leftovers
	// from previous flows are included, see the Paywall doc comment.
	txid, err := p.wallet.SendBitcoin(ctx, p.arkAddress, balance)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep funds: %s", err)
	}

	log.Debugf(
		"claimed swap %s with tx %s, swept %d sats with tx %s",
		invoice.Pending.ID, claimTxid, balance, txid,
	)

	return &Payment{Txid: txid}, nil
}

func (p *paywall) RequestPayment(ctx context.Context, req PaymentRequest) error {
	if req.OnInvoice == nil {
		return ErrMissingOnInvoice
	}
	if req.OnPayment == nil {
		return ErrMissingOnPayment
	}

	fail := func(err error) error {
		if req.OnError != nil {
			req.OnError(err)
			return nil
		}
		return err
	}

	invoice, err := p.RequestInvoice(ctx, InvoiceRequest{
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return fail(err)
	}

	// Callbacks get the public fields only, the swap handle stays inside
	// the flow.
	public := *invoice
	public.Pending = nil
	req.OnInvoice(&public)

	payment, err := p.WaitForPayment(ctx, invoice)
	if err != nil {
		return fail(err)
	}

	req.OnPayment(payment)
	return nil
}

func validateSwapResult(res *swap.ReverseSwap, requested uint64) error {
	if res == nil {
		return fmt.Errorf("invalid swap result: empty response")
	}
	if res.Expiry <= 0 {
		return fmt.Errorf("invalid swap result: missing expiry")
	}
	if len(res.Invoice) <= 0 {
		return fmt.Errorf("invalid swap result: missing invoice")
	}
	if res.Preimage == (lntypes.Preimage{}) {
		return fmt.Errorf("invalid swap result: missing preimage")
	}
	if res.Pending == nil {
		return fmt.Errorf("invalid swap result: missing pending swap")
	}
	if res.Amount > requested {
		return fmt.Errorf(
			"invalid swap result: granted amount %d exceeds requested %d",
			res.Amount, requested,
		)
	}
	return nil
}

func parsePrivateKey(key string) (*btcec.PrivateKey, error) {
	if len(key) <= 0 {
		return btcec.NewPrivateKey()
	}
	buf, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %s", err)
	}
	if len(buf) != 32 {
		return nil, fmt.Errorf("invalid private key: must be 32 bytes")
	}
	privateKey, _ := btcec.PrivKeyFromBytes(buf)
	return privateKey, nil
}
