package config

// Default paths for local databases
const (
	// DefaultDatabasePath is the default path for the highlights archive
	DefaultDatabasePath = "./readwise-archive.db"

	// DefaultTokenStorePath is the default path for the encrypted token store
	DefaultTokenStorePath = "./readwise-token.db"

	// DefaultKeyFileName is the default name of the token encryption key file in the home directory
	DefaultKeyFileName = ".rwclient-token-key"
)
