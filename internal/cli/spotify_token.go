package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/b4ndithelps/wave/internal/config"
	"github.com/b4ndithelps/wave/internal/database"
	"github.com/b4ndithelps/wave/internal/entities"
	"github.com/b4ndithelps/wave/internal/spotify"
	"github.com/b4ndithelps/wave/internal/tokenstore"
)

// SpotifyTokenCommand stores Spotify credentials obtained outside the app.
type SpotifyTokenCommand struct {
	AccessToken   string
	RefreshToken  string
	ExpiresIn     time.Duration
	Scope         string
	AccountID     string
	DatabasePath  string
	EncryptionKey string
	KeyFilePath   string
	Clear         bool
}

func NewSpotifyTokenCommand() *SpotifyTokenCommand {
	return &SpotifyTokenCommand{}
}

func (cmd *SpotifyTokenCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("spotify-token", flag.ExitOnError)

	fs.StringVar(&cmd.AccessToken, "access-token", "", "Spotify access token (required unless -clear)")
	fs.StringVar(&cmd.RefreshToken, "refresh-token", "", "Spotify refresh token")
	fs.DurationVar(&cmd.ExpiresIn, "expires-in", time.Hour, "Token lifetime from now (0 for no expiry)")
	fs.StringVar(&cmd.Scope, "scope", "", "Granted scopes, space separated")
	fs.StringVar(&cmd.AccountID, "account", tokenstore.DefaultAccountID, "Account identifier")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database")
	fs.StringVar(&cmd.EncryptionKey, "key", "", "Base64 token encryption key (defaults to $"+tokenstore.EnvEncryptionKey+")")
	fs.StringVar(&cmd.KeyFilePath, "key-file", os.Getenv("TOKEN_KEY_FILE"), "Key file used when -key is empty")
	fs.BoolVar(&cmd.Clear, "clear", false, "Remove stored Spotify credentials")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s spotify-token -access-token <token> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Store Spotify credentials encrypted in the library database. The server\n")
		fmt.Fprintf(os.Stderr, "loads them on start. Use the same key settings as the server.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if !cmd.Clear && cmd.AccessToken == "" {
		return fmt.Errorf("required flag -access-token not provided")
	}
	return nil
}

func (cmd *SpotifyTokenCommand) Run() error {
	db, err := database.NewQuietDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store, err := tokenstore.New(db.DB, tokenstore.KeyConfig{
		EncryptionKey: cmd.EncryptionKey,
		KeyFilePath:   cmd.KeyFilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	session := spotify.NewSession(store)
	if err := session.Load(); err != nil {
		return err
	}

	if cmd.Clear {
		if err := session.Clear(); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		fmt.Println("Spotify credentials removed")
		return nil
	}

	creds := entities.Credentials{
		AccountID:    cmd.AccountID,
		AccessToken:  cmd.AccessToken,
		RefreshToken: cmd.RefreshToken,
		Scope:        cmd.Scope,
	}
	if cmd.ExpiresIn > 0 {
		expires := time.Now().Add(cmd.ExpiresIn)
		creds.ExpiresAt = &expires
	}
	if err := session.Set(creds); err != nil {
		return err
	}

	if expires := session.ExpiresAt(); expires != nil {
		fmt.Printf("Spotify credentials saved, valid until %s\n", expires.Format(time.RFC3339))
	} else {
		fmt.Println("Spotify credentials saved")
	}
	return nil
}
