// internal/signing/identity.go
package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcutil/base58"

	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// Identity is a loaded signing keypair. The short address is a display
// form only; transactions are addressed by payload hash, not by identity.
type Identity struct {
	PrivateKey *btcec.PrivateKey
	PublicKey  []byte
	Address    string
	CreatedAt  time.Time
}

// NewIdentity generates a fresh signing identity
func NewIdentity() (*Identity, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, errors.NewPipelineError(errors.PipelineErrSigning,
			"failed to generate private key", err)
	}
	return fromPrivateKey(privateKey), nil
}

// ImportIdentity loads an identity from a hex-encoded private key
func ImportIdentity(privateKeyHex string) (*Identity, error) {
	privateKeyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.NewPipelineError(errors.PipelineErrSigning,
			"invalid private key format", err)
	}
	if len(privateKeyBytes) == 0 {
		return nil, errors.PipelineErrorf(errors.PipelineErrSigning,
			"private key must not be empty")
	}

	privateKey, _ := btcec.PrivKeyFromBytes(privateKeyBytes)
	if privateKey == nil {
		return nil, errors.PipelineErrorf(errors.PipelineErrSigning, "invalid private key")
	}
	return fromPrivateKey(privateKey), nil
}

func fromPrivateKey(privateKey *btcec.PrivateKey) *Identity {
	pubKey := privateKey.PubKey().SerializeCompressed()

	sha := sha256.Sum256(pubKey)
	address := base58.Encode(sha[:20])

	return &Identity{
		PrivateKey: privateKey,
		PublicKey:  pubKey,
		Address:    address,
		CreatedAt:  time.Now(),
	}
}

// ExportPrivateKey exports the private key as a hex string
func (id *Identity) ExportPrivateKey() string {
	return hex.EncodeToString(id.PrivateKey.Serialize())
}

// VerifySignature verifies a signature over a digest against a compressed
// public key
func VerifySignature(pubKey, digest, signature []byte) (bool, error) {
	parsedPubKey, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return false, fmt.Errorf("failed to parse public key: %w", err)
	}

	parsedSig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false, fmt.Errorf("failed to parse signature: %w", err)
	}

	return parsedSig.Verify(digest, parsedPubKey), nil
}
