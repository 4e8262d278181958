package models

// TokenTransactionType 账本流水类型
type TokenTransactionType string

const (
	TokenTransactionTopUp   TokenTransactionType = "topup"
	TokenTransactionConsume TokenTransactionType = "consume"
)

// TokenTransaction is one journal entry of the token ledger. It is written in
// the same database transaction as the balance change it records.
type TokenTransaction struct {
	BaseModel
	UserID          uint                 `gorm:"index;not null" json:"userId"`
	Type            TokenTransactionType `gorm:"type:varchar(20);not null" json:"type"`
	Amount          int64                `gorm:"not null" json:"amount"` // signed delta
	BalanceAfter    int64                `gorm:"not null" json:"balanceAfter"`
	LocationShareID *uint                `gorm:"index" json:"locationShareId,omitempty"`
}

// TableName 指定 TokenTransaction 模型的表名。
func (TokenTransaction) TableName() string {
	return "token_transactions"
}
