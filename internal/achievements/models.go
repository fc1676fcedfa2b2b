package achievements

import (
	"time"

	"github.com/google/uuid"
)

// Rarity tier of an achievement level.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Level is static reference data: a threshold of distinct investors a
// producer must reach to earn the badge.
type Level struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Level             int       `db:"level" json:"level"`
	InvestorsRequired int       `db:"investors_required" json:"investors_required"`
	Rarity            Rarity    `db:"rarity" json:"rarity"`
	Benefits          string    `db:"benefits" json:"benefits"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Grant records an earned badge. (UserID, LevelID) is unique: the
// evaluator's idempotency key. Grants are never revoked.
type Grant struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	LevelID       uuid.UUID `db:"nft_level_id" json:"nft_level_id"`
	InvestorCount int       `db:"investor_count" json:"investor_count"`
	TokenID       *string   `db:"token_id" json:"token_id,omitempty"`
	SerialNumber  *int64    `db:"serial_number" json:"serial_number,omitempty"`
	GrantedAt     time.Time `db:"granted_at" json:"granted_at"`
}

// GrantView joins a grant with its level for the gallery.
type GrantView struct {
	Grant
	LevelName         string `db:"level_name" json:"level_name"`
	LevelNumber       int    `db:"level_number" json:"level_number"`
	Rarity            Rarity `db:"rarity" json:"rarity"`
	Benefits          string `db:"benefits" json:"benefits"`
	InvestorsRequired int    `db:"investors_required" json:"investors_required"`
}
