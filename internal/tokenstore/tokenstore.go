// Package tokenstore keeps streaming-service credentials in the main
// database, encrypted with AES-256-GCM.
package tokenstore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/b4ndithelps/wave/internal/crypto"
	"github.com/b4ndithelps/wave/internal/entities"
)

const (
	// EnvEncryptionKey is the environment variable for the encryption key
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	// DefaultKeyFileName is the key file created in the home directory
	DefaultKeyFileName = ".wave-token-key"

	// DefaultAccountID is used for the single local Spotify account.
	DefaultAccountID = "default"
)

// KeyConfig says where the encryption key comes from.
type KeyConfig struct {
	// EncryptionKey is the base64-encoded 32-byte key. Empty falls back to
	// the environment and then the key file.
	EncryptionKey string

	// KeyFilePath defaults to ~/.wave-token-key
	KeyFilePath string
}

// TokenStore provides encrypted credential storage.
type TokenStore struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
}

// New creates a TokenStore on db. The oauth_tokens table is migrated by the
// database package.
func New(db *gorm.DB, cfg KeyConfig) (*TokenStore, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	encryptor, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	return &TokenStore{db: db, encryptor: encryptor}, nil
}

// resolveEncryptionKey checks config, then the environment, then the key
// file, creating the file if needed.
func resolveEncryptionKey(cfg KeyConfig) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	keyFilePath := GetKeyFilePath(cfg.KeyFilePath)
	key, created, err := crypto.LoadOrCreateKeyFile(keyFilePath)
	if err != nil {
		return "", err
	}
	if created {
		log.Printf("[TOKENS] Generated new encryption key and saved to %s", keyFilePath)
	}
	return key, nil
}

// SaveCredentials encrypts and upserts creds keyed by provider and account.
func (s *TokenStore) SaveCredentials(creds *entities.Credentials) error {
	accountID := creds.AccountID
	if accountID == "" {
		accountID = DefaultAccountID
	}

	encAccessToken, err := s.encryptor.Encrypt(creds.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefreshToken, err := s.encryptor.Encrypt(creds.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	row := &entities.OAuthToken{
		Provider:     creds.Provider,
		AccountID:    accountID,
		AccessToken:  encAccessToken,
		RefreshToken: encRefreshToken,
		ExpiresAt:    creds.ExpiresAt,
		Scope:        creds.Scope,
	}

	result := s.db.Where("provider = ? AND account_id = ?", creds.Provider, accountID).
		Assign(map[string]interface{}{
			"access_token":  encAccessToken,
			"refresh_token": encRefreshToken,
			"expires_at":    creds.ExpiresAt,
			"scope":         creds.Scope,
			"updated_at":    time.Now(),
		}).
		FirstOrCreate(row)
	if result.Error != nil {
		return fmt.Errorf("failed to save token: %w", result.Error)
	}
	return nil
}

// GetCredentials returns the decrypted credentials for an account, or nil
// when none are stored.
func (s *TokenStore) GetCredentials(provider entities.OAuthProvider, accountID string) (*entities.Credentials, error) {
	var row entities.OAuthToken
	err := s.db.Where("provider = ? AND account_id = ?", provider, accountID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return s.decrypt(&row)
}

// GetLatest returns the most recently updated credentials for provider, or
// nil when none are stored.
func (s *TokenStore) GetLatest(provider entities.OAuthProvider) (*entities.Credentials, error) {
	var row entities.OAuthToken
	err := s.db.Where("provider = ?", provider).Order("updated_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return s.decrypt(&row)
}

// DeleteCredentials removes stored credentials.
func (s *TokenStore) DeleteCredentials(provider entities.OAuthProvider, accountID string) error {
	result := s.db.Where("provider = ? AND account_id = ?", provider, accountID).
		Delete(&entities.OAuthToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete token: %w", result.Error)
	}
	return nil
}

// MarkUsed stamps last_used_at.
func (s *TokenStore) MarkUsed(provider entities.OAuthProvider, accountID string) error {
	result := s.db.Model(&entities.OAuthToken{}).
		Where("provider = ? AND account_id = ?", provider, accountID).
		Update("last_used_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to update last used: %w", result.Error)
	}
	return nil
}

func (s *TokenStore) decrypt(row *entities.OAuthToken) (*entities.Credentials, error) {
	accessToken, err := s.encryptor.Decrypt(row.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := s.encryptor.Decrypt(row.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	return &entities.Credentials{
		Provider:     row.Provider,
		AccountID:    row.AccountID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    row.ExpiresAt,
		Scope:        row.Scope,
	}, nil
}

// GetKeyFilePath returns the key file in use.
func GetKeyFilePath(customPath string) string {
	if customPath != "" {
		return customPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultKeyFileName
	}
	return filepath.Join(homeDir, DefaultKeyFileName)
}
