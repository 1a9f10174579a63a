package domain

// MaxAccounts is the device-wide limit on stored accounts
const MaxAccounts = 5

// Account Model
// The signing key is persisted reversibly encoded (base64 of the hex key),
// matching the legacy storage format. It is decoded into memory only while
// the account is unlocked.
type Account struct {
	ID          uint   `gorm:"primaryKey" json:"id"`                  // Primary key
	Address     string `gorm:"uniqueIndex;size:42" json:"address"`    // Checksummed account address
	EncryptedPK string `gorm:"not null" json:"-"`                     // Base64-encoded signing key (never served)
	Name        string `gorm:"not null" json:"name"`                  // Display name, e.g. "Account 1"
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"createdAt"` // Timestamp of creation in milliseconds
}

// LegacyWallet Model
// Pre-multi-account storage: a single encoded signing key with no address or
// name. Migrated into an Account row on startup and then removed.
type LegacyWallet struct {
	ID          uint   `gorm:"primaryKey"` // Primary key
	EncryptedPK string `gorm:"not null"`   // Base64-encoded signing key
}
