package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/agripulse/marketplace/internal/wallet"
)

// Role is fixed at registration and never mutated afterwards.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleInvestor Role = "investor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleInvestor, RoleAdmin:
		return true
	}
	return false
}

// Identity is an authenticated account.
type Identity struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RoleRecord stores an identity's role and the mirrored ledger account
// id, so other identities (e.g. buyers resolving a seller) can look up
// the account without access to the owner's wallet binding.
type RoleRecord struct {
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Role          Role      `db:"role" json:"role"`
	WalletAddress *string   `db:"wallet_address" json:"wallet_address,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// State is the session lifecycle position.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateWalletless      State = "authenticated"
	StateWalletConnected State = "wallet_connected"
)

// Session is the hydrated view of a signed-in identity: role record
// plus wallet binding, loaded together in one hydration step.
type Session struct {
	UserID  uuid.UUID       `json:"user_id"`
	Email   string          `json:"email"`
	Role    Role            `json:"role"`
	Binding *wallet.Binding `json:"-"`
}

// WalletConnected reports whether the session can sign ledger
// transactions.
func (s *Session) WalletConnected() bool {
	return s != nil && s.Binding.Usable()
}

// State derives the session's lifecycle position.
func (s *Session) State() State {
	if s == nil {
		return StateUnauthenticated
	}
	if s.WalletConnected() {
		return StateWalletConnected
	}
	return StateWalletless
}
