package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/payload"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

func buildPayload(t *testing.T, initiator []byte) *payload.UnsignedPayload {
	t.Helper()

	arg, err := codec.Encode("sr_id", codec.TagBytes(15), codec.ByteArray32)
	require.NoError(t, err)

	p, err := payload.Build(
		payload.NativeTransfer("recipient-1", 4_200_000_000),
		payload.FixedFee(100_000_000),
		[]codec.Argument{arg},
		30*time.Minute,
		"ledgerflow-test",
		initiator,
	)
	require.NoError(t, err)
	return p
}

func TestSignAndVerify(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	p := buildPayload(t, id.PublicKey)
	tx, err := Sign(p, id)
	require.NoError(t, err)

	assert.NotEmpty(t, tx.Signature)
	require.NoError(t, tx.Verify())
}

func TestAddressIndependentOfSignature(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	p := buildPayload(t, id.PublicKey)
	addr, err := Address(p)
	require.NoError(t, err)

	tx, err := Sign(p, id)
	require.NoError(t, err)

	// The address is a pure function of the payload; signing must not move it
	assert.Equal(t, addr, tx.Address)

	again, err := Address(p)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestSignRejectsMismatchedInitiator(t *testing.T) {
	signer, err := NewIdentity()
	require.NoError(t, err)
	other, err := NewIdentity()
	require.NoError(t, err)

	p := buildPayload(t, other.PublicKey)
	_, err = Sign(p, signer)
	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrSigning))
}

func TestSignRequiresKeyMaterial(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)
	p := buildPayload(t, id.PublicKey)

	_, err = Sign(p, nil)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrSigning))

	_, err = Sign(p, &Identity{PublicKey: id.PublicKey})
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrSigning))
}

func TestVerifyDetectsTampering(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	tx, err := Sign(buildPayload(t, id.PublicKey), id)
	require.NoError(t, err)

	tx.Payload.Fee++
	err = tx.Verify()
	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrSigning))
}

func TestImportExportRoundTrip(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	imported, err := ImportIdentity(id.ExportPrivateKey())
	require.NoError(t, err)

	assert.Equal(t, id.PublicKey, imported.PublicKey)
	assert.Equal(t, id.Address, imported.Address)
}

func TestImportIdentityRejectsMalformedKeys(t *testing.T) {
	_, err := ImportIdentity("not-hex")
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrSigning))

	_, err = ImportIdentity("")
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrSigning))
}
