package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Readwise
		Database
		TokenStore
		Backup
		Export
		MockServer
		Log
	}

	Readwise struct {
		Token   string
		BaseURL string
		Timeout time.Duration
	}
	Database struct {
		Path string
	}
	TokenStore struct {
		Path          string
		EncryptionKey string // base64-encoded 32-byte key
		KeyFile       string // Used when EncryptionKey is empty
	}
	Backup struct {
		Schedule string // Cron format: "0 */6 * * *" = every 6 hours
	}
	Export struct {
		Dir string
	}
	MockServer struct {
		Host  string
		Port  int
		Token string // Token the mock server accepts; empty accepts any
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // text or json
	}
)

// getReadwiseToken returns the token, checking both the current and the legacy env var
func getReadwiseToken(v *viper.Viper) string {
	if token := v.GetString("READWISE_TOKEN"); token != "" {
		return token
	}
	return v.GetString("ACCESS_TOKEN")
}

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first if it exists; variables already set in
// the environment win.
func NewConfig() *Config {
	_ = godotenv.Load()

	return newConfigFromViper(viper.New())
}

func newConfigFromViper(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("readwise_token", "")
	v.SetDefault("access_token", "")
	v.SetDefault("readwise_base_url", "https://readwise.io")
	v.SetDefault("readwise_timeout", "30s")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("token_store_path", DefaultTokenStorePath)
	v.SetDefault("token_encryption_key", "")
	v.SetDefault("token_key_file", "") // Resolved to ~/.rwclient-token-key by the token store
	v.SetDefault("backup_schedule", "0 */6 * * *")
	v.SetDefault("export_dir", "./markdown")
	v.SetDefault("mock_server_host", "127.0.0.1")
	v.SetDefault("mock_server_port", 8189)
	v.SetDefault("mock_server_token", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		Readwise: Readwise{
			Token:   getReadwiseToken(v),
			BaseURL: v.GetString("READWISE_BASE_URL"),
			Timeout: v.GetDuration("READWISE_TIMEOUT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		TokenStore: TokenStore{
			Path:          v.GetString("TOKEN_STORE_PATH"),
			EncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
			KeyFile:       v.GetString("TOKEN_KEY_FILE"),
		},
		Backup: Backup{
			Schedule: v.GetString("BACKUP_SCHEDULE"),
		},
		Export: Export{
			Dir: v.GetString("EXPORT_DIR"),
		},
		MockServer: MockServer{
			Host:  v.GetString("MOCK_SERVER_HOST"),
			Port:  v.GetInt("MOCK_SERVER_PORT"),
			Token: v.GetString("MOCK_SERVER_TOKEN"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
