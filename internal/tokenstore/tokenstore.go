// Package tokenstore keeps the Readwise access token on disk, encrypted with
// a key that lives outside the database.
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/internal/crypto"
	"github.com/mrlokans/rwclient/internal/entities"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// EnvEncryptionKey is the environment variable for the encryption key
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	readwiseTokenName = "readwise"
)

// ErrNoToken is returned by Load when no token has been saved
var ErrNoToken = errors.New("no Readwise token saved; run the login command first")

// TokenStore provides encrypted storage for the Readwise token
type TokenStore struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
	log       logrus.FieldLogger
}

// Config holds configuration for the token store
type Config struct {
	// DatabasePath is the path to the SQLite database file
	DatabasePath string

	// EncryptionKey is the base64-encoded 32-byte encryption key
	// If empty, will try to load from environment or key file
	EncryptionKey string

	// KeyFilePath is the path to the encryption key file
	// If empty, defaults to ~/.rwclient-token-key
	KeyFilePath string

	Logger logrus.FieldLogger
}

// ConfigFrom builds a store configuration from application config
func ConfigFrom(cfg config.TokenStore, log logrus.FieldLogger) Config {
	return Config{
		DatabasePath:  cfg.Path,
		EncryptionKey: cfg.EncryptionKey,
		KeyFilePath:   cfg.KeyFile,
		Logger:        log,
	}
}

// New creates a new TokenStore with the given configuration
func New(cfg Config) (*TokenStore, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	key, err := resolveEncryptionKey(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	encryptor, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&entities.StoredToken{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &TokenStore{
		db:        db,
		encryptor: encryptor,
		log:       log,
	}, nil
}

// resolveEncryptionKey determines the encryption key from various sources
func resolveEncryptionKey(cfg Config, log logrus.FieldLogger) (string, error) {
	// Priority 1: Explicitly provided key
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	// Priority 2: Environment variable
	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	// Priority 3: Key file
	keyFilePath := KeyFilePath(cfg.KeyFilePath)

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}

	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	log.WithField("path", keyFilePath).Info("Generated new token encryption key")
	return newKey, nil
}

// KeyFilePath returns the path to the key file being used
func KeyFilePath(customPath string) string {
	if customPath != "" {
		return customPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultKeyFileName
	}
	return filepath.Join(homeDir, config.DefaultKeyFileName)
}

// Save encrypts and stores token, replacing any previous one
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}

	sealed, err := s.encryptor.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	now := time.Now()
	record := &entities.StoredToken{
		Name:        readwiseTokenName,
		Value:       sealed,
		ValidatedAt: &now,
	}

	result := s.db.Where("name = ?", readwiseTokenName).
		Assign(map[string]interface{}{
			"value":        sealed,
			"validated_at": now,
			"updated_at":   now,
		}).
		FirstOrCreate(record)
	if result.Error != nil {
		return fmt.Errorf("failed to save token: %w", result.Error)
	}

	return nil
}

// Load returns the decrypted token or ErrNoToken
func (s *TokenStore) Load() (string, error) {
	var record entities.StoredToken
	result := s.db.Where("name = ?", readwiseTokenName).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", result.Error)
	}

	token, err := s.encryptor.Decrypt(record.Value)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return token, nil
}

// Delete removes the stored token. Deleting when nothing is stored is not an error.
func (s *TokenStore) Delete() error {
	result := s.db.Where("name = ?", readwiseTokenName).Delete(&entities.StoredToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete token: %w", result.Error)
	}
	return nil
}

// Close closes the database connection
func (s *TokenStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
