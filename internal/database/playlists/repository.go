// Package playlists provides database operations for pinned Spotify playlists.
package playlists

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/b4ndithelps/wave/internal/entities"
)

// Repository handles pinned playlist database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new playlists repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAllPinnedPlaylists returns pinned playlists, most recently pinned first.
func (r *Repository) GetAllPinnedPlaylists() ([]entities.PinnedPlaylist, error) {
	var pinned []entities.PinnedPlaylist
	err := r.db.Order("pinned_at DESC").Find(&pinned).Error
	return pinned, err
}

// IsPlaylistPinned reports whether playlistID is pinned.
func (r *Repository) IsPlaylistPinned(playlistID string) (bool, error) {
	var row entities.PinnedPlaylist
	err := r.db.Where("playlist_id = ?", playlistID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PinPlaylist stores the playlist, replacing an existing pin and moving it to
// the top of the list.
func (r *Repository) PinPlaylist(playlist *entities.PinnedPlaylist) error {
	if playlist.PinnedAt.IsZero() {
		playlist.PinnedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "playlist_id"}},
		UpdateAll: true,
	}).Create(playlist).Error
}

// UnpinPlaylist removes the pin for playlistID. Unpinning a playlist that is
// not pinned is not an error.
func (r *Repository) UnpinPlaylist(playlistID string) error {
	return r.db.Where("playlist_id = ?", playlistID).Delete(&entities.PinnedPlaylist{}).Error
}

// DeleteAllPinnedPlaylists removes every pin.
func (r *Repository) DeleteAllPinnedPlaylists() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.PinnedPlaylist{}).Error
}
