// Package signing binds unsigned payloads to a signing identity, producing
// signed, content-addressed transactions. The address is a blake2b-256 hash
// of the canonical payload bytes and is independent of the signature.
package signing

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/blake2b"

	"github.com/cmatc13/ledgerflow/internal/payload"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// SignedTransaction is an unsigned payload bound to a signature and its
// content address. Immutable once produced.
type SignedTransaction struct {
	Payload   *payload.UnsignedPayload `json:"payload"`
	Signature []byte                   `json:"signature"`
	Address   string                   `json:"address"`
}

// Address computes the content address of a payload: the hex form of the
// blake2b-256 hash of its canonical bytes. Computable by any party holding
// the payload, with or without a signature.
func Address(p *payload.UnsignedPayload) (string, error) {
	data, err := p.CanonicalBytes()
	if err != nil {
		return "", err
	}
	digest := blake2b.Sum256(data)
	return hex.EncodeToString(digest[:]), nil
}

// Sign binds a payload to an identity. The payload's initiator must be the
// identity's public key; signing never alters the content address.
func Sign(p *payload.UnsignedPayload, id *Identity) (*SignedTransaction, error) {
	if id == nil || id.PrivateKey == nil {
		return nil, errors.PipelineErrorf(errors.PipelineErrSigning,
			"identity lacks private key material")
	}
	if !bytes.Equal(p.Initiator, id.PublicKey) {
		return nil, errors.PipelineErrorf(errors.PipelineErrSigning,
			"payload initiator does not match signing identity")
	}

	data, err := p.CanonicalBytes()
	if err != nil {
		return nil, errors.PipelineWrap(err, errors.OpSignPayload, "failed to serialize payload")
	}

	digest := blake2b.Sum256(data)
	signature := ecdsa.Sign(id.PrivateKey, digest[:])

	return &SignedTransaction{
		Payload:   p,
		Signature: signature.Serialize(),
		Address:   hex.EncodeToString(digest[:]),
	}, nil
}

// Verify checks the signature against the payload's initiator and confirms
// the address matches the payload bytes.
func (tx *SignedTransaction) Verify() error {
	addr, err := Address(tx.Payload)
	if err != nil {
		return err
	}
	if addr != tx.Address {
		return errors.PipelineErrorf(errors.PipelineErrSigning,
			"address %s does not match payload hash %s", tx.Address, addr)
	}

	digest, err := hex.DecodeString(tx.Address)
	if err != nil {
		return errors.NewPipelineError(errors.PipelineErrSigning, "malformed address", err)
	}

	valid, err := VerifySignature(tx.Payload.Initiator, digest, tx.Signature)
	if err != nil {
		return errors.NewPipelineError(errors.PipelineErrSigning, "signature verification failed", err)
	}
	if !valid {
		return errors.PipelineErrorf(errors.PipelineErrSigning, "invalid signature")
	}
	return nil
}
