package ledger

import (
	"errors"
	"testing"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agripulse/marketplace/internal/apperrors"
)

func TestParsePrivateKeyEd25519Raw(t *testing.T) {
	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	parsed, encoding, err := ParsePrivateKey(key.StringRaw())
	require.NoError(t, err)
	assert.Equal(t, "ed25519", encoding)
	assert.Equal(t, key.PublicKey().String(), parsed.PublicKey().String())
}

func TestParsePrivateKeyEd25519Der(t *testing.T) {
	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	// DER serialization of the same key must round-trip through the
	// fallback chain regardless of which parser claims it.
	parsed, _, err := ParsePrivateKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), parsed.PublicKey().String())
}

func TestParsePrivateKeyEcdsaDer(t *testing.T) {
	key, err := hedera.PrivateKeyGenerateEcdsa()
	require.NoError(t, err)

	parsed, _, err := ParsePrivateKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), parsed.PublicKey().String())
}

func TestParsePrivateKeyInvalid(t *testing.T) {
	for _, input := range []string{"", "not-a-key", "0xzz", "302e0201"} {
		_, _, err := ParsePrivateKey(input)
		require.Error(t, err, "input %q", input)

		var invalid *apperrors.InvalidKeyError
		assert.True(t, errors.As(err, &invalid), "input %q should yield InvalidKeyError", input)
		if invalid != nil {
			assert.Len(t, invalid.Tried, 3)
		}
	}
}

func TestNewOperatorClientRejectsBadAccount(t *testing.T) {
	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	_, _, err = newOperatorClient("not-an-account", key.StringRaw())
	assert.Error(t, err)
}

func TestNewOperatorClientRejectsBadKey(t *testing.T) {
	_, _, err := newOperatorClient("0.0.100", "garbage")
	require.Error(t, err)

	var invalid *apperrors.InvalidKeyError
	assert.True(t, errors.As(err, &invalid))
}

func TestFormatTokenBalances(t *testing.T) {
	var tokens hedera.TokenBalanceMap
	assert.NotPanics(t, func() {
		assert.IsType(t, "", formatTokenBalances(tokens))
	})
}
