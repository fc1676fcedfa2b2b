package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBindingUsable(t *testing.T) {
	var nilBinding *Binding
	assert.False(t, nilBinding.Usable())
	assert.False(t, (&Binding{AccountID: "0.0.1"}).Usable())
	assert.False(t, (&Binding{PrivateKey: "key"}).Usable())
	assert.True(t, (&Binding{AccountID: "0.0.1", PrivateKey: "key"}).Usable())
}

func TestBindingKey(t *testing.T) {
	assert.Equal(t, "wallet_42", bindingKey("42"))
	assert.Equal(t, "agripulse_token_id", tokenIDKey)
}
