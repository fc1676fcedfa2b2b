package ledger

import (
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"

	"github.com/agripulse/marketplace/internal/apperrors"
)

// keyParser is one supported private-key encoding. Parsers are applied
// in order and the first successful parse wins.
type keyParser struct {
	name  string
	parse func(string) (hedera.PrivateKey, error)
}

var keyParsers = []keyParser{
	{"ed25519", hedera.PrivateKeyFromStringEd25519},
	{"der", hedera.PrivateKeyFromStringDer},
	{"ecdsa", hedera.PrivateKeyFromStringECDSA},
}

// ParsePrivateKey accepts any of the supported serializations of an
// operator key. The matched encoding is returned for diagnostics only.
func ParsePrivateKey(privateKey string) (hedera.PrivateKey, string, error) {
	for _, p := range keyParsers {
		key, err := p.parse(privateKey)
		if err == nil {
			return key, p.name, nil
		}
	}
	tried := make([]string, 0, len(keyParsers))
	for _, p := range keyParsers {
		tried = append(tried, p.name)
	}
	return hedera.PrivateKey{}, "", &apperrors.InvalidKeyError{Tried: tried}
}

// newOperatorClient builds a short-lived testnet client bound to the
// given operator account. Callers must Close it.
func newOperatorClient(accountID, privateKey string) (*hedera.Client, hedera.PrivateKey, error) {
	operator, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return nil, hedera.PrivateKey{}, fmt.Errorf("invalid account id %q: %w", accountID, err)
	}

	key, _, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, hedera.PrivateKey{}, err
	}

	client := hedera.ClientForTestnet()
	client.SetOperator(operator, key)
	return client, key, nil
}
