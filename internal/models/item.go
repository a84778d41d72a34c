package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Item is a priced resource created by an authenticated user.
type Item struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string          `json:"name" gorm:"type:varchar(120);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	OwnerID   string          `json:"ownerId" gorm:"type:varchar(36);index;not null"`
	Owner     *User           `json:"-" gorm:"foreignKey:OwnerID"`
	CreatedAt time.Time       `json:"createdAt" gorm:"index"`
}

// ItemPatch lists the item fields to change; nil fields are left as is.
type ItemPatch struct {
	Name  *string
	Price *decimal.Decimal
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Price == nil
}
