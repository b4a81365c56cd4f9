package spotify

import (
	"strings"

	"github.com/b4ndithelps/wave/internal/entities"
)

type pagingObject[T any] struct {
	Href   string  `json:"href"`
	Items  []T     `json:"items"`
	Limit  int     `json:"limit"`
	Next   *string `json:"next"`
	Offset int     `json:"offset"`
	Total  int     `json:"total"`
}

type apiImage struct {
	URL    string `json:"url"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
}

type apiUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type apiPlaylist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Images      []apiImage `json:"images"`
	Owner       apiUser    `json:"owner"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type apiArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiAlbum struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Images []apiImage `json:"images"`
}

type apiTrack struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Artists    []apiArtist `json:"artists"`
	Album      apiAlbum    `json:"album"`
	DurationMs int64       `json:"duration_ms"`
	URI        string      `json:"uri"`
}

type apiPlaylistTrack struct {
	AddedAt string    `json:"added_at"`
	Track   *apiTrack `json:"track"`
}

func (p apiPlaylist) toEntity() entities.Playlist {
	creator := p.Owner.DisplayName
	if creator == "" {
		creator = p.Owner.ID
	}
	return entities.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    firstImage(p.Images),
		TrackCount:  p.Tracks.Total,
		Creator:     creator,
		Tracks:      []entities.Track{},
	}
}

func (t apiTrack) toEntity() entities.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return entities.Track{
		ID:            t.URI,
		Name:          t.Name,
		Artist:        strings.Join(names, ", "),
		Album:         t.Album.Name,
		AlbumImageURL: firstImage(t.Album.Images),
		DurationMs:    t.DurationMs,
	}
}

func convertPlaylists(items []*apiPlaylist) []entities.Playlist {
	out := make([]entities.Playlist, 0, len(items))
	for _, p := range items {
		if p == nil {
			continue
		}
		out = append(out, p.toEntity())
	}
	return out
}

func firstImage(images []apiImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
