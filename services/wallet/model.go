package wallet

import "time"

// Wallet is the key-holding identity records are owned by. The admin key
// grants full control, the invoice key read-level access.
type Wallet struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	Name       string    `gorm:"column:name" json:"name"`
	AdminKey   string    `gorm:"column:admin_key;uniqueIndex" json:"-"`
	InvoiceKey string    `gorm:"column:invoice_key;uniqueIndex" json:"-"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

// KeyType says which of the wallet's keys the caller presented.
type KeyType int

const (
	KeyInvoice KeyType = iota
	KeyAdmin
)
