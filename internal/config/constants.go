package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./wave.db"

	// DefaultCoversDir holds extracted covers and playlist artwork
	DefaultCoversDir = "./covers"
)
