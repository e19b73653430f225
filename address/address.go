package address

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	MainNetHRP = "ark"
	TestNetHRP = "tark"

	// compressed server key + compressed user key
	payloadLen = 66
)

var ErrServerMismatch = fmt.Errorf("ark address does not belong to the ark server")

// Address is the decoded form of an ark address: the key of the server that
// issued it and the key of the user owning it.
type Address struct {
	HRP       string
	ServerKey *secp256k1.PublicKey
	UserKey   *secp256k1.PublicKey
}

func Encode(hrp string, userKey, serverKey *secp256k1.PublicKey) (string, error) {
	if userKey == nil {
		return "", fmt.Errorf("missing user public key")
	}
	if serverKey == nil {
		return "", fmt.Errorf("missing server public key")
	}
	if hrp != MainNetHRP && hrp != TestNetHRP {
		return "", fmt.Errorf("invalid prefix")
	}
	combinedKey := append(
		serverKey.SerializeCompressed(), userKey.SerializeCompressed()...,
	)
	grp, err := bech32.ConvertBits(combinedKey, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(hrp, grp)
}

func Decode(addr string) (*Address, error) {
	if len(addr) <= 0 {
		return nil, fmt.Errorf("missing address")
	}
	prefix, buf, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return nil, err
	}
	if prefix != MainNetHRP && prefix != TestNetHRP {
		return nil, fmt.Errorf("invalid prefix")
	}
	grp, err := bech32.ConvertBits(buf, 5, 8, false)
	if err != nil {
		return nil, err
	}
	if len(grp) != payloadLen {
		return nil, fmt.Errorf("invalid payload length")
	}
	serverKey, err := secp256k1.ParsePubKey(grp[:33])
	if err != nil {
		return nil, fmt.Errorf("failed to parse server public key: %s", err)
	}
	userKey, err := secp256k1.ParsePubKey(grp[33:])
	if err != nil {
		return nil, fmt.Errorf("failed to parse user public key: %s", err)
	}
	return &Address{
		HRP:       prefix,
		ServerKey: serverKey,
		UserKey:   userKey,
	}, nil
}

// Verify checks that addr was issued by the server identified by
// signerPubkey. The published identity may bundle several keys, therefore the
// check is a containment one. Pure and side-effect free, safe to call both at
// construction time and standalone for diagnostics.
func Verify(signerPubkey, addr string) error {
	decoded, err := Decode(addr)
	if err != nil {
		return fmt.Errorf("invalid ark address: %s", err)
	}
	serverKey := hex.EncodeToString(decoded.ServerKey.SerializeCompressed())
	if !strings.Contains(strings.ToLower(signerPubkey), serverKey) {
		return ErrServerMismatch
	}
	return nil
}
