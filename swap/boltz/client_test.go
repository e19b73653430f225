package boltz

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ark-network/paywall/swap"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
)

func TestCreateReverseSwap(t *testing.T) {
	var gotReq createReverseSwapRequest
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v2/swap/reverse", r.URL.Path)
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			// nolint:all
			json.NewEncoder(w).Encode(createReverseSwapResponse{
				ID:            "swp1",
				Invoice:       "lnbcrt5u1pn0example000invoice000text",
				OnchainAmount: 495,
				InvoiceExpiry: 3600,
			})
		},
	))
	defer srv.Close()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	svc, err := NewClient(srv.URL, "regtest", "ref123", key)
	require.NoError(t, err)

	res, err := svc.CreateReverseSwap(context.Background(), 500, "unlock")
	require.NoError(t, err)
	require.Equal(t, uint64(495), res.Amount)
	require.Greater(t, res.Expiry, time.Now().Unix())
	require.NotEmpty(t, res.Invoice)
	require.NotNil(t, res.Pending)
	require.Equal(t, "swp1", res.Pending.ID)
	require.Equal(t, res.Preimage, res.Pending.Preimage)

	require.Equal(t, uint64(500), gotReq.InvoiceAmount)
	require.Equal(t, "unlock", gotReq.Description)
	require.Equal(t, "ref123", gotReq.ReferralID)
	require.Equal(
		t,
		hex.EncodeToString(key.PubKey().SerializeCompressed()),
		gotReq.ClaimPublicKey,
	)
	// the preimage hash sent to the counterparty must commit to the
	// preimage bound to the handle
	require.Equal(t, res.Preimage.Hash().String(), gotReq.PreimageHash)
}

func TestNewClient(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	svc, err := NewClient("", "regtest", "", key)
	require.EqualError(t, err, "missing boltz api url")
	require.Nil(t, svc)

	svc, err = NewClient("http://localhost:9001", "regtest", "", nil)
	require.EqualError(t, err, "missing claim key")
	require.Nil(t, svc)
}

func testClient(t *testing.T, srv *httptest.Server) *client {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return &client{
		apiURL:       srv.URL,
		network:      "regtest",
		claimKey:     key,
		httpClient:   srv.Client(),
		pollInterval: 10 * time.Millisecond,
	}
}

func TestWaitAndClaim(t *testing.T) {
	preimage, err := lntypes.MakePreimage(bytes.Repeat([]byte{0x02}, 32))
	require.NoError(t, err)
	pending := &swap.PendingSwap{ID: "swp1", Preimage: preimage}

	t.Run("settles after a few polls", func(t *testing.T) {
		var polls atomic.Int32
		var gotClaim claimRequest
		mux := http.NewServeMux()
		mux.HandleFunc("/v2/swap/reverse/swp1", func(w http.ResponseWriter, r *http.Request) {
			status := statusSwapCreated
			if polls.Add(1) >= 3 {
				status = statusSettled
			}
			// nolint:all
			json.NewEncoder(w).Encode(swapStatusResponse{Status: status})
		})
		mux.HandleFunc("/v2/swap/reverse/swp1/claim", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotClaim))
			// nolint:all
			json.NewEncoder(w).Encode(claimResponse{Txid: "deadbeef"})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		txid, err := testClient(t, srv).WaitAndClaim(context.Background(), pending)
		require.NoError(t, err)
		require.Equal(t, "deadbeef", txid)
		require.Equal(t, preimage.String(), gotClaim.Preimage)
		require.GreaterOrEqual(t, polls.Load(), int32(3))
	})

	t.Run("swap expires", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				// nolint:all
				json.NewEncoder(w).Encode(swapStatusResponse{
					Status: statusInvoiceExpired,
				})
			},
		))
		defer srv.Close()

		txid, err := testClient(t, srv).WaitAndClaim(context.Background(), pending)
		require.EqualError(t, err, "swap swp1 failed: invoice.expired")
		require.Empty(t, txid)
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				// nolint:all
				json.NewEncoder(w).Encode(swapStatusResponse{
					Status: statusSwapCreated,
				})
			},
		))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		// poll interval longer than the deadline: the wait is interrupted
		// while parked on the ticker
		c := testClient(t, srv)
		c.pollInterval = time.Second

		txid, err := c.WaitAndClaim(ctx, pending)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Empty(t, txid)
	})

	t.Run("missing pending swap", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {},
		))
		defer srv.Close()

		txid, err := testClient(t, srv).WaitAndClaim(context.Background(), nil)
		require.EqualError(t, err, "missing pending swap")
		require.Empty(t, txid)
	})
}
