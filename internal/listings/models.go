package listings

import (
	"time"

	"github.com/google/uuid"
)

// Status of a farm listing. Only an admin moves a listing out of
// pending, and only the settlement flow lowers its tons.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Farm is a producer's carbon-credit listing. Tons is the remaining
// quantity of CO2-equivalent offered at PricePerTon.
type Farm struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	FarmName      string    `db:"farm_name" json:"farm_name"`
	Tons          int64     `db:"tons" json:"tons"`
	PricePerTon   float64   `db:"price_per_ton" json:"price_per_ton"`
	TokenID       string    `db:"token_id" json:"token_id"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	Status        Status    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
