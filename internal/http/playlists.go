package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/entities"
)

// PlaylistFetcher looks up a playlist on the streaming service.
type PlaylistFetcher interface {
	Playlist(ctx context.Context, id string) (*entities.Playlist, error)
}

// ImageStore caches remote artwork locally.
type ImageStore interface {
	GetImage(key, imageURL string) (string, error)
}

type PlaylistsController struct {
	store   PlaylistStore
	fetcher PlaylistFetcher
	images  ImageStore
}

func NewPlaylistsController(store PlaylistStore) *PlaylistsController {
	return &PlaylistsController{store: store}
}

// SetFetcher lets pins without a body be filled from Spotify (optional).
func (pc *PlaylistsController) SetFetcher(fetcher PlaylistFetcher) {
	pc.fetcher = fetcher
}

// SetImageStore enables cached playlist artwork (optional).
func (pc *PlaylistsController) SetImageStore(images ImageStore) {
	pc.images = images
}

// PinRequest carries the playlist fields to store. All of them are optional
// when the server can fetch the playlist itself.
type PinRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	TrackCount  int    `json:"track_count"`
	Creator     string `json:"creator"`
}

// GetPinned handles GET /api/playlists/pinned
func (pc *PlaylistsController) GetPinned(c *gin.Context) {
	pinned, err := pc.store.GetAllPinnedPlaylists()
	if err != nil {
		respondInternalError(c, err, "list pinned playlists")
		return
	}

	playlists := make([]entities.Playlist, 0, len(pinned))
	for _, p := range pinned {
		playlists = append(playlists, p.ToPlaylist())
	}
	c.JSON(http.StatusOK, gin.H{"playlists": playlists, "count": len(playlists)})
}

// Pin handles PUT /api/playlists/pinned/:id. Pinning twice updates the stored
// fields.
func (pc *PlaylistsController) Pin(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondBadRequest(c, "invalid id")
		return
	}

	var req PinRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	playlist := entities.Playlist{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		TrackCount:  req.TrackCount,
		Creator:     req.Creator,
	}
	if playlist.Name == "" {
		if pc.fetcher == nil {
			respondBadRequest(c, "name is required")
			return
		}
		fetched, err := pc.fetcher.Playlist(c.Request.Context(), id)
		if err != nil {
			respondSpotifyError(c, err, "fetch playlist")
			return
		}
		playlist = *fetched
		playlist.ID = id
	}

	row := entities.PinnedPlaylistFrom(playlist)
	if err := pc.store.PinPlaylist(&row); err != nil {
		respondInternalError(c, err, "pin playlist")
		return
	}
	c.JSON(http.StatusOK, row.ToPlaylist())
}

// Unpin handles DELETE /api/playlists/pinned/:id
func (pc *PlaylistsController) Unpin(c *gin.Context) {
	id := c.Param("id")
	pinned, err := pc.store.IsPlaylistPinned(id)
	if err != nil {
		respondInternalError(c, err, "check pinned playlist")
		return
	}
	if !pinned {
		respondNotFound(c, "pinned playlist")
		return
	}
	if err := pc.store.UnpinPlaylist(id); err != nil {
		respondInternalError(c, err, "unpin playlist")
		return
	}
	respondSuccess(c, "playlist unpinned")
}

// UnpinAll handles DELETE /api/playlists/pinned
func (pc *PlaylistsController) UnpinAll(c *gin.Context) {
	if err := pc.store.DeleteAllPinnedPlaylists(); err != nil {
		respondInternalError(c, err, "clear pinned playlists")
		return
	}
	respondSuccess(c, "all playlists unpinned")
}

// Image handles GET /api/playlists/pinned/:id/image
func (pc *PlaylistsController) Image(c *gin.Context) {
	if pc.images == nil {
		respondError(c, http.StatusServiceUnavailable, CodeNotConfigured, "image cache is not configured")
		return
	}

	id := c.Param("id")
	pinned, err := pc.store.GetAllPinnedPlaylists()
	if err != nil {
		respondInternalError(c, err, "list pinned playlists")
		return
	}

	var imageURL string
	found := false
	for _, p := range pinned {
		if p.PlaylistID == id {
			imageURL, found = p.ImageURL, true
			break
		}
	}
	if !found || imageURL == "" {
		respondNotFound(c, "playlist image")
		return
	}

	path, err := pc.images.GetImage("playlist_"+id, imageURL)
	if err != nil {
		respondError(c, http.StatusBadGateway, CodeUpstream, "failed to fetch playlist image")
		return
	}
	if path == "" {
		respondNotFound(c, "playlist image")
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}
