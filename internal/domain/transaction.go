package domain

// Transaction status values
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
)

// Transaction Model
// A locally cached receipt of a settled send. Rows are immutable once written
// and served newest-first per account.
type Transaction struct {
	ID             uint   `gorm:"primaryKey" json:"-"`                      // Primary key
	AccountAddress string `gorm:"index;size:42;not null" json:"-"`          // Owning account (lowercased)
	Hash           string `gorm:"size:66;not null" json:"hash"`             // On-chain transaction hash
	FromAddress    string `gorm:"size:42;not null" json:"from"`             // Sender address
	ToAddress      string `gorm:"size:42;not null" json:"to"`               // Recipient address
	Value          string `gorm:"not null" json:"value"`                    // Amount as entered by the user
	Symbol         string `gorm:"not null" json:"symbol"`                   // Token symbol
	Timestamp      int64  `gorm:"index;not null" json:"timestamp"`          // Settlement time in milliseconds
	Status         string `gorm:"not null" json:"status"`                   // pending, confirmed or failed
	Fee            string `json:"fee"`                                      // Network fee shown at submission time
	GasUsed        string `json:"gasUsed"`                                  // Gas consumed per the receipt
	GasPrice       string `json:"gasPrice"`                                 // User-selected gas price in gwei
}

// TxCounter Model
// Running count of settled sends per account, used to schedule fee cycles.
// Incremented exactly once per successfully settled principal transaction.
type TxCounter struct {
	Address string `gorm:"primaryKey;size:42"` // Lowercased account address
	Count   int    `gorm:"not null;default:0"` // Settled send count
}
