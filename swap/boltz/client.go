package boltz

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ark-network/paywall/swap"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/lntypes"
	log "github.com/sirupsen/logrus"
)

const (
	statusSwapCreated    = "swap.created"
	statusTxMempool      = "transaction.mempool"
	statusTxConfirmed    = "transaction.confirmed"
	statusSettled        = "invoice.settled"
	statusInvoiceExpired = "invoice.expired"
	statusSwapExpired    = "swap.expired"
	statusTxFailed       = "transaction.failed"
)

type client struct {
	apiURL       string
	network      string
	referralID   string
	claimKey     *btcec.PrivateKey
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewClient returns a swap coordinator backed by a Boltz-style reverse swap
// api.
func NewClient(
	apiURL, network, referralID string, claimKey *btcec.PrivateKey,
) (swap.Coordinator, error) {
	if len(apiURL) <= 0 {
		return nil, fmt.Errorf("missing boltz api url")
	}
	if claimKey == nil {
		return nil, fmt.Errorf("missing claim key")
	}
	return &client{
		apiURL:       strings.TrimSuffix(apiURL, "/"),
		network:      network,
		referralID:   referralID,
		claimKey:     claimKey,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		pollInterval: 5 * time.Second,
	}, nil
}

type createReverseSwapRequest struct {
	From           string `json:"from"`
	To             string `json:"to"`
	InvoiceAmount  uint64 `json:"invoiceAmount"`
	ClaimPublicKey string `json:"claimPublicKey"`
	PreimageHash   string `json:"preimageHash"`
	Description    string `json:"description,omitempty"`
	ReferralID     string `json:"referralId,omitempty"`
}

type createReverseSwapResponse struct {
	ID            string `json:"id"`
	Invoice       string `json:"invoice"`
	OnchainAmount uint64 `json:"onchainAmount"`
	InvoiceExpiry int64  `json:"invoiceExpiry"`
}

func (c *client) CreateReverseSwap(
	ctx context.Context, amount uint64, description string,
) (*swap.ReverseSwap, error) {
	var preimageBuf [32]byte
	if _, err := rand.Read(preimageBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to generate preimage: %s", err)
	}
	preimage, err := lntypes.MakePreimage(preimageBuf[:])
	if err != nil {
		return nil, err
	}
	preimageHash := preimage.Hash()

	body := createReverseSwapRequest{
		From:           "BTC",
		To:             "ARK",
		InvoiceAmount:  amount,
		ClaimPublicKey: hex.EncodeToString(c.claimKey.PubKey().SerializeCompressed()),
		PreimageHash:   preimageHash.String(),
		Description:    description,
		ReferralID:     c.referralID,
	}

	resp := createReverseSwapResponse{}
	if err := c.post(ctx, "/v2/swap/reverse", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create reverse swap: %s", err)
	}

	log.Debugf(
		"created reverse swap %s for %d sats on %s", resp.ID, amount, c.network,
	)

	var expiry int64
	if resp.InvoiceExpiry > 0 {
		expiry = time.Now().Add(
			time.Duration(resp.InvoiceExpiry) * time.Second,
		).Unix()
	}

	return &swap.ReverseSwap{
		Amount:   resp.OnchainAmount,
		Expiry:   expiry,
		Invoice:  resp.Invoice,
		Preimage: preimage,
		Pending: &swap.PendingSwap{
			ID:       resp.ID,
			Preimage: preimage,
		},
	}, nil
}

type swapStatusResponse struct {
	Status string `json:"status"`
}

type claimRequest struct {
	Preimage string `json:"preimage"`
}

type claimResponse struct {
	Txid string `json:"txid"`
}

func (c *client) WaitAndClaim(
	ctx context.Context, pending *swap.PendingSwap,
) (string, error) {
	if pending == nil {
		return "", fmt.Errorf("missing pending swap")
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status := swapStatusResponse{}
		if err := c.get(
			ctx, fmt.Sprintf("/v2/swap/reverse/%s", pending.ID), &status,
		); err != nil {
			return "", fmt.Errorf("failed to get swap status: %s", err)
		}

		switch status.Status {
		case statusSettled:
			return c.claim(ctx, pending)
		case statusInvoiceExpired, statusSwapExpired, statusTxFailed:
			return "", fmt.Errorf("swap %s failed: %s", pending.ID, status.Status)
		case statusSwapCreated, statusTxMempool, statusTxConfirmed, "":
		default:
			log.Warnf("swap %s: unknown status %s", pending.ID, status.Status)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *client) claim(
	ctx context.Context, pending *swap.PendingSwap,
) (string, error) {
	resp := claimResponse{}
	if err := c.post(
		ctx,
		fmt.Sprintf("/v2/swap/reverse/%s/claim", pending.ID),
		claimRequest{Preimage: pending.Preimage.String()},
		&resp,
	); err != nil {
		return "", fmt.Errorf("failed to claim swap: %s", err)
	}
	log.Debugf("claimed swap %s with tx %s", pending.ID, resp.Txid)
	return resp.Txid, nil
}

func (c *client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apiURL+path, nil,
	)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) post(
	ctx context.Context, path string, body, out interface{},
) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(buf),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	// nolint:all
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf(string(body))
	}
	return json.Unmarshal(body, out)
}
