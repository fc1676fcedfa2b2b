package wallet

// Binding pairs a ledger account with its private key for one identity.
// At most one binding exists per owner; the last write wins.
type Binding struct {
	OwnerID    string `json:"owner_id"`
	AccountID  string `json:"account_id"`
	PrivateKey string `json:"private_key"`
}

// Usable reports whether the binding can sign ledger transactions.
// Absence of either field means "wallet not connected".
func (b *Binding) Usable() bool {
	return b != nil && b.AccountID != "" && b.PrivateKey != ""
}
