// Package store is the persistence layer: bounded account list, per-address
// transaction counters and history, security settings, custom tokens and the
// device-wide admin config, all keyed the way the legacy storage was.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JJJH27/bleswallet/internal/domain"
	"github.com/JJJH27/bleswallet/internal/fee"
	"github.com/JJJH27/bleswallet/internal/keys"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store errors surfaced to handlers
var (
	ErrAccountLimit      = errors.New("maximum of 5 accounts allowed")
	ErrAccountExists     = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrTokenExists       = errors.New("token already added")
	ErrTokenNotFound     = errors.New("token not found")
	ErrTokenNotRemovable = errors.New("built-in tokens cannot be removed")
)

// Store wraps the database with wallet-specific access rules
type Store struct {
	db               *gorm.DB
	mainTokenAddress string // Lowercased main-token contract; never removable
}

// New creates a Store. mainTokenAddress identifies the token used to pay
// service fees, which is protected from removal alongside the native asset.
func New(db *gorm.DB, mainTokenAddress string) *Store {
	return &Store{db: db, mainTokenAddress: strings.ToLower(mainTokenAddress)}
}

// --- Accounts ---

// Accounts returns all stored accounts in creation order
func (s *Store) Accounts() ([]domain.Account, error) {
	var accounts []domain.Account
	if err := s.db.Order("id asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// AccountByAddress finds one stored account (case-insensitive)
func (s *Store) AccountByAddress(address string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.Where("LOWER(address) = ?", strings.ToLower(address)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccount persists a new account, enforcing the device-wide limit and
// address uniqueness
func (s *Store) CreateAccount(account *domain.Account) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Account{}).Count(&count).Error; err != nil {
			return err
		}
		if count >= domain.MaxAccounts {
			return ErrAccountLimit
		}
		var existing domain.Account
		err := tx.Where("LOWER(address) = ?", strings.ToLower(account.Address)).First(&existing).Error
		if err == nil {
			return ErrAccountExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(account).Error
	})
}

// NextAccountName returns the display name for the next account slot
func (s *Store) NextAccountName(imported bool) (string, error) {
	var count int64
	if err := s.db.Model(&domain.Account{}).Count(&count).Error; err != nil {
		return "", err
	}
	name := fmt.Sprintf("Account %d", count+1)
	if imported {
		name += " (Imported)"
	}
	return name, nil
}

// WipeAccounts removes every account together with its security settings.
// Counters and history are kept: they belong to addresses, not to the stored
// key material, and an account re-imported later resumes its fee cycle.
func (s *Store) WipeAccounts() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Account{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&domain.LegacyWallet{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&domain.SecuritySetting{}).Error
	})
}

// MigrateLegacy converts a pre-multi-account wallet row into an Account.
// Called once at startup; a no-op when accounts already exist or no legacy
// row is present.
func (s *Store) MigrateLegacy() error {
	var count int64
	if err := s.db.Model(&domain.Account{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var legacy domain.LegacyWallet
	err := s.db.First(&legacy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	hexKey, err := keys.Decode(legacy.EncryptedPK)
	if err != nil {
		return fmt.Errorf("legacy wallet is unreadable: %w", err)
	}
	key, err := keys.Parse(hexKey)
	if err != nil {
		return fmt.Errorf("legacy wallet key is invalid: %w", err)
	}

	account := domain.Account{
		Address:     keys.AddressOf(key),
		EncryptedPK: legacy.EncryptedPK,
		Name:        "Account 1",
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		if err := tx.Delete(&legacy).Error; err != nil {
			return err
		}
		logrus.WithField("address", account.Address).Info("Migrated legacy wallet")
		return nil
	})
}

// --- Transaction counter ---

// TxCount returns the number of settled sends for an address
func (s *Store) TxCount(address string) (int, error) {
	var counter domain.TxCounter
	err := s.db.Where("address = ?", strings.ToLower(address)).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Count, nil
}

// IncrementTxCount adds exactly one settled send to an address's counter
func (s *Store) IncrementTxCount(address string) error {
	key := strings.ToLower(address)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("count + 1")}),
	}).Create(&domain.TxCounter{Address: key, Count: 1}).Error
}

// --- Transaction history ---

// AppendTransaction records a settled send. Records are immutable once
// written; ordering is by timestamp, newest first.
func (s *Store) AppendTransaction(address string, tx domain.Transaction) error {
	tx.AccountAddress = strings.ToLower(address)
	return s.db.Create(&tx).Error
}

// History returns one page of an account's records, newest first
func (s *Store) History(address string, page, pageSize int) ([]domain.Transaction, int64, error) {
	key := strings.ToLower(address)

	var total int64
	if err := s.db.Model(&domain.Transaction{}).Where("account_address = ?", key).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []domain.Transaction
	err := s.db.Where("account_address = ?", key).
		Order("timestamp desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// ClearHistory drops all locally cached records for an address
func (s *Store) ClearHistory(address string) error {
	return s.db.Where("account_address = ?", strings.ToLower(address)).Delete(&domain.Transaction{}).Error
}

// --- Security settings ---

// SecuritySettings returns the PIN gate for an address; a missing row means
// the gate is disabled
func (s *Store) SecuritySettings(address string) (domain.SecuritySetting, error) {
	key := strings.ToLower(address)
	var setting domain.SecuritySetting
	err := s.db.Where("address = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SecuritySetting{Address: key}, nil
	}
	if err != nil {
		return domain.SecuritySetting{}, err
	}
	return setting, nil
}

// SetSecuritySettings stores the PIN gate for an address
func (s *Store) SetSecuritySettings(address string, pinEnabled bool, pinCode string) error {
	setting := domain.SecuritySetting{
		Address:    strings.ToLower(address),
		PinEnabled: pinEnabled,
		PinCode:    pinCode,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"pin_enabled", "pin_code"}),
	}).Create(&setting).Error
}

// ResetPin disables the PIN gate for an address (admin operation)
func (s *Store) ResetPin(address string) error {
	return s.SetSecuritySettings(address, false, "")
}

// --- Admin config ---

// AdminConfig returns the device-wide fee policy, seeding the default when
// no row exists yet
func (s *Store) AdminConfig() (fee.Config, error) {
	var record domain.AdminConfigRecord
	err := s.db.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}, nil
	}
	if err != nil {
		return fee.Config{}, err
	}
	return fee.Config{FeeFrequency: record.FeeFrequency, DefaultFee: record.DefaultFee}, nil
}

// SaveAdminConfig persists a validated fee policy. Invalid configurations
// (frequency below 1, malformed fee) are refused here so an unusable policy
// can never be read back.
func (s *Store) SaveAdminConfig(cfg fee.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	record := domain.AdminConfigRecord{ID: 1, FeeFrequency: cfg.FeeFrequency, DefaultFee: cfg.DefaultFee}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fee_frequency", "default_fee"}),
	}).Create(&record).Error
}

// --- Tokens ---

// Tokens returns the active token set, built-ins first
func (s *Store) Tokens() ([]domain.Token, error) {
	var tokens []domain.Token
	if err := s.db.Order("built_in desc, id asc").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// TokenBySymbol resolves a token by its ticker symbol
func (s *Store) TokenBySymbol(symbol string) (*domain.Token, error) {
	var token domain.Token
	err := s.db.Where("symbol = ?", symbol).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// AddToken registers a custom token; the address identifies a token uniquely,
// compared case-insensitively
func (s *Store) AddToken(token *domain.Token) error {
	token.Address = strings.ToLower(token.Address)
	var existing domain.Token
	err := s.db.Where("address = ?", token.Address).First(&existing).Error
	if err == nil {
		return ErrTokenExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(token).Error
}

// RemoveToken deletes a custom token. The native asset and the main
// application token are never removable.
func (s *Store) RemoveToken(address string) error {
	key := strings.ToLower(address)
	if key == domain.NativeTokenAddress || key == s.mainTokenAddress {
		return ErrTokenNotRemovable
	}
	var token domain.Token
	err := s.db.Where("address = ?", key).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}
	if token.BuiltIn {
		return ErrTokenNotRemovable
	}
	return s.db.Delete(&token).Error
}

// SeedDefaults inserts the built-in token set and the default fee policy on
// first run
func (s *Store) SeedDefaults(nativeSymbol, nativeName, mainSymbol, mainName string) error {
	defaults := []domain.Token{
		{Symbol: nativeSymbol, Name: nativeName, Address: domain.NativeTokenAddress, Decimals: 18, BuiltIn: true},
		{Symbol: mainSymbol, Name: mainName, Address: s.mainTokenAddress, Decimals: 18, BuiltIn: true},
	}
	for _, token := range defaults {
		err := s.AddToken(&token)
		if err != nil && !errors.Is(err, ErrTokenExists) {
			return err
		}
	}

	var count int64
	if err := s.db.Model(&domain.AdminConfigRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return s.SaveAdminConfig(fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"})
	}
	return nil
}
