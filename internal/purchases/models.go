package purchases

import (
	"time"

	"github.com/google/uuid"
)

// Status of a purchase attempt. A purchase is created pending, moves
// to completed only once the ledger transfer is confirmed, and is
// finalized to failed when the transfer does not go through.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Purchase is one settlement attempt against a farm listing.
type Purchase struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	FarmID              uuid.UUID `db:"farm_id" json:"farm_id"`
	InvestorID          uuid.UUID `db:"investor_id" json:"investor_id"`
	Amount              int64     `db:"amount" json:"amount"`
	PricePerTon         float64   `db:"price_per_ton" json:"price_per_ton"`
	TotalCost           float64   `db:"total_cost" json:"total_cost"`
	HederaTransactionID *string   `db:"hedera_transaction_id" json:"hedera_transaction_id,omitempty"`
	Status              Status    `db:"status" json:"status"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
