package domain

// SecuritySetting Model
// Per-address local-access gate. The PIN is stored in plaintext: this mirrors
// the legacy storage format and is a documented limitation, not an oversight.
// Absence of a row means the PIN gate is disabled.
type SecuritySetting struct {
	Address    string `gorm:"primaryKey;size:42" json:"-"`          // Lowercased account address
	PinEnabled bool   `gorm:"not null;default:false" json:"pinEnabled"` // Whether unlocking requires the PIN
	PinCode    string `json:"-"`                                    // Plaintext PIN (never served)
}

// AdminConfigRecord Model
// Singleton row holding the device-wide fee policy. Mutated only through the
// administrative surface; all accounts on the device share it.
type AdminConfigRecord struct {
	ID           uint   `gorm:"primaryKey"`         // Primary key (always 1)
	FeeFrequency int    `gorm:"not null;default:1"` // Charge a service fee every N settled sends
	DefaultFee   string `gorm:"not null"`           // Fee amount, decimal string in main-token units
}
