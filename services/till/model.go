package till

import (
	"time"

	"gorm.io/datatypes"
)

// Till is a merchant till: a record advertising a fixed LNURL-pay amount and
// a one-time LNURL-withdraw capability, with a running settled balance.
//
// Ticker only ever increases. Together with the till id it is the sole input
// to the withdraw-token derivation, so every increment invalidates all
// previously issued withdraw tokens.
type Till struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	WalletID       string    `gorm:"column:wallet_id;index;not null" json:"wallet"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Total          int64     `gorm:"column:total;default:0" json:"total"` // millisatoshis
	PayAmount      int64     `gorm:"column:pay_amount;default:0" json:"lnurlpayamount"`
	WithdrawAmount int64     `gorm:"column:withdraw_amount;default:0" json:"lnurlwithdrawamount"`
	Ticker         int64     `gorm:"column:ticker;default:1" json:"ticker"`
	InvitedBy      *string   `gorm:"column:invited_by" json:"invited_by,omitempty"`
	DebtID         *string   `gorm:"column:debt_id" json:"debt_id,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Till) TableName() string { return "tills" }

// Debt tracks what an invited till still owes its inviter.
type Debt struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	InviterID     string    `gorm:"column:inviter_id;index" json:"inviter_id"`
	InviterWallet string    `gorm:"column:inviter_wallet" json:"inviter_wallet"`
	Paid          int64     `gorm:"column:paid;default:0" json:"paid"`
	Outstanding   int64     `gorm:"column:outstanding;default:0" json:"outstanding"`
	Currency      string    `gorm:"column:currency" json:"currency"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Debt) TableName() string { return "debts" }

// Transaction is an immutable ledger line between two tills. Created once,
// never mutated.
type Transaction struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	FromTillID string    `gorm:"column:from_till_id;index" json:"from_till_id"`
	ToTillID   string    `gorm:"column:to_till_id;index" json:"to_till_id"`
	Amount     int64     `gorm:"column:amount;default:0" json:"amount"`
	Currency   string    `gorm:"column:currency" json:"currency"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"timestamp"`
}

func (Transaction) TableName() string { return "transactions" }

// Settlement is the listener's idempotency ledger. One row per checking id
// means a payment redelivered by the queue is applied exactly once.
type Settlement struct {
	CheckingID string         `gorm:"column:checking_id;primaryKey" json:"checking_id"`
	TillID     string         `gorm:"column:till_id;index" json:"till_id"`
	Amount     int64          `gorm:"column:amount" json:"amount"`
	Extra      datatypes.JSON `gorm:"column:extra" json:"extra,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Settlement) TableName() string { return "settlements" }

// CreateTillData is the CRUD payload for creating or updating a till.
type CreateTillData struct {
	Name           string `json:"name" binding:"required"`
	PayAmount      int64  `json:"lnurlpayamount"`
	WithdrawAmount int64  `json:"lnurlwithdrawamount"`
}

// CreateDebtData is the CRUD payload for a debt.
type CreateDebtData struct {
	InviterID   string `json:"inviter_id" binding:"required"`
	Paid        int64  `json:"paid"`
	Outstanding int64  `json:"outstanding"`
	Currency    string `json:"currency"`
}

// CreateTransactionData is the CRUD payload for a ledger line.
type CreateTransactionData struct {
	FromTillID string `json:"from_till_id" binding:"required"`
	ToTillID   string `json:"to_till_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
	Currency   string `json:"currency"`
}

// TillResponse is a till plus its bech32-encoded LNURL links, derived from
// the current ticker so they always point at the live capability.
type TillResponse struct {
	Till
	LnurlPay      string `json:"lnurlpay"`
	LnurlWithdraw string `json:"lnurlwithdraw"`
}
