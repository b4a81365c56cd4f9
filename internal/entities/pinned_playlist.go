package entities

import (
	"time"
)

// PinnedPlaylist is a Spotify playlist the reader pinned for quick access from
// the reading screen.
type PinnedPlaylist struct {
	PlaylistID  string    `gorm:"primaryKey;size:64" json:"playlist_id"`
	Name        string    `gorm:"size:512" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"size:2048" json:"image_url"`
	TrackCount  int       `json:"track_count"`
	Creator     string    `gorm:"size:256" json:"creator"`
	PinnedAt    time.Time `gorm:"index" json:"pinned_at"`
}

func (PinnedPlaylist) TableName() string {
	return "pinned_playlists"
}

// ToPlaylist converts the stored row to the playlist model. Tracks are not
// stored and have to be fetched from Spotify.
func (p PinnedPlaylist) ToPlaylist() Playlist {
	return Playlist{
		ID:          p.PlaylistID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		TrackCount:  p.TrackCount,
		Creator:     p.Creator,
		Tracks:      []Track{},
		IsPinned:    true,
	}
}

// PinnedPlaylistFrom builds a row from a playlist model.
func PinnedPlaylistFrom(p Playlist) PinnedPlaylist {
	return PinnedPlaylist{
		PlaylistID:  p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		TrackCount:  p.TrackCount,
		Creator:     p.Creator,
	}
}
