package entities

// Playlist is a Spotify playlist as shown in the companion panel.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	TrackCount  int     `json:"track_count"`
	Creator     string  `json:"creator"`
	Tracks      []Track `json:"tracks"`
	IsPinned    bool    `json:"is_pinned"`
}

// Track is a single Spotify track. ID holds the track URI so it can be passed
// straight to playback.
type Track struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Artist        string `json:"artist"`
	Album         string `json:"album"`
	AlbumImageURL string `json:"album_image_url"`
	DurationMs    int64  `json:"duration_ms"`
}
