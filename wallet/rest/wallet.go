package restwallet

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ark-network/paywall/wallet"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

type restWallet struct {
	serverURL  string
	privateKey *btcec.PrivateKey
	httpClient *http.Client
}

// NewService opens a wallet session against the wallet endpoints of an ark
// server. Requests moving funds are authenticated by signing them with the
// session key.
func NewService(opts wallet.Options) (wallet.Service, error) {
	if len(opts.ServerURL) <= 0 {
		return nil, fmt.Errorf("missing ark server url")
	}
	if opts.PrivateKey == nil {
		return nil, fmt.Errorf("missing private key")
	}
	return &restWallet{
		serverURL:  strings.TrimSuffix(opts.ServerURL, "/"),
		privateKey: opts.PrivateKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type balanceResponse struct {
	Available uint64 `json:"available"`
}

func (w *restWallet) GetBalance(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf(
		"%s/v1/balance?pubkey=%s", w.serverURL, w.pubkey(),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp := balanceResponse{}
	if err := w.do(req, &resp); err != nil {
		return 0, fmt.Errorf("failed to get balance: %s", err)
	}
	return resp.Available, nil
}

type sendRequest struct {
	Pubkey    string `json:"pubkey"`
	Address   string `json:"address"`
	Amount    uint64 `json:"amount"`
	Signature string `json:"signature"`
}

type sendResponse struct {
	Txid string `json:"txid"`
}

func (w *restWallet) SendBitcoin(
	ctx context.Context, address string, amount uint64,
) (string, error) {
	if len(address) <= 0 {
		return "", fmt.Errorf("missing address")
	}
	if amount == 0 {
		return "", fmt.Errorf("missing amount")
	}

	sig, err := w.sign(address, amount)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(sendRequest{
		Pubkey:    w.pubkey(),
		Address:   address,
		Amount:    amount,
		Signature: sig,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/send", w.serverURL), bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp := sendResponse{}
	if err := w.do(req, &resp); err != nil {
		return "", fmt.Errorf("failed to send funds: %s", err)
	}
	return resp.Txid, nil
}

func (w *restWallet) pubkey() string {
	return hex.EncodeToString(w.privateKey.PubKey().SerializeCompressed())
}

// sign produces a schnorr signature over the digest of the transfer request,
// binding destination and amount to the session key.
func (w *restWallet) sign(address string, amount uint64) (string, error) {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", address, amount)))
	sig, err := schnorr.Sign(w.privateKey, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign send request: %s", err)
	}
	return hex.EncodeToString(sig.Serialize()), nil
}

func (w *restWallet) do(req *http.Request, out interface{}) error {
	resp, err := w.httpClient.Do(req)
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
