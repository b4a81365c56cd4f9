package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/entities"
	"github.com/b4ndithelps/wave/internal/spotify"
)

// MusicService is the Spotify API surface the companion panel uses.
type MusicService interface {
	PlaylistFetcher
	UserPlaylists(ctx context.Context) ([]entities.Playlist, error)
	SearchPlaylists(ctx context.Context, query string) ([]entities.Playlist, error)
	Play(ctx context.Context, uri string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SetShuffle(ctx context.Context, on bool) error
	SetRepeat(ctx context.Context, mode spotify.RepeatMode) error
}

// MusicSession reports and clears the stored Spotify credentials.
type MusicSession interface {
	Valid() bool
	Expired() bool
	ExpiresAt() *time.Time
	Clear() error
}

type SpotifyController struct {
	music   MusicService
	session MusicSession
	pinned  PlaylistStore
}

func NewSpotifyController(music MusicService, session MusicSession, pinned PlaylistStore) *SpotifyController {
	return &SpotifyController{music: music, session: session, pinned: pinned}
}

// PlayerRequest is the optional body of player actions.
type PlayerRequest struct {
	URI   string `json:"uri"`
	State *bool  `json:"state"`
	Mode  string `json:"mode"`
}

// SessionResponse describes the credential state without exposing tokens.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Expired       bool       `json:"expired"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// GetSession handles GET /api/spotify/session
func (sc *SpotifyController) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, SessionResponse{
		Authenticated: sc.session.Valid(),
		Expired:       sc.session.Expired(),
		ExpiresAt:     sc.session.ExpiresAt(),
	})
}

// DeleteSession handles DELETE /api/spotify/session
func (sc *SpotifyController) DeleteSession(c *gin.Context) {
	if err := sc.session.Clear(); err != nil {
		respondInternalError(c, err, "clear spotify session")
		return
	}
	respondSuccess(c, "spotify disconnected")
}

// GetPlaylists handles GET /api/spotify/playlists
func (sc *SpotifyController) GetPlaylists(c *gin.Context) {
	playlists, err := sc.music.UserPlaylists(c.Request.Context())
	if err != nil {
		respondSpotifyError(c, err, "list playlists")
		return
	}
	sc.markPinned(playlists)
	c.JSON(http.StatusOK, gin.H{"playlists": playlists, "count": len(playlists)})
}

// GetPlaylist handles GET /api/spotify/playlists/:id
func (sc *SpotifyController) GetPlaylist(c *gin.Context) {
	playlist, err := sc.music.Playlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSpotifyError(c, err, "get playlist")
		return
	}
	one := []entities.Playlist{*playlist}
	sc.markPinned(one)
	c.JSON(http.StatusOK, one[0])
}

// Search handles GET /api/spotify/search?q=
func (sc *SpotifyController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}

	playlists, err := sc.music.SearchPlaylists(c.Request.Context(), query)
	if err != nil {
		respondSpotifyError(c, err, "search playlists")
		return
	}
	sc.markPinned(playlists)
	c.JSON(http.StatusOK, gin.H{"playlists": playlists, "count": len(playlists)})
}

// Player handles POST /api/spotify/player/:action
func (sc *SpotifyController) Player(c *gin.Context) {
	action := c.Param("action")

	var req PlayerRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	ctx := c.Request.Context()
	var err error
	switch action {
	case "play":
		if req.URI == "" {
			respondBadRequest(c, "uri is required")
			return
		}
		err = sc.music.Play(ctx, req.URI)
	case "pause":
		err = sc.music.Pause(ctx)
	case "resume":
		err = sc.music.Resume(ctx)
	case "next":
		err = sc.music.Next(ctx)
	case "previous":
		err = sc.music.Previous(ctx)
	case "shuffle":
		if req.State == nil {
			respondBadRequest(c, "state is required")
			return
		}
		err = sc.music.SetShuffle(ctx, *req.State)
	case "repeat":
		mode := spotify.RepeatMode(req.Mode)
		switch mode {
		case spotify.RepeatOff, spotify.RepeatTrack, spotify.RepeatContext:
		default:
			respondBadRequest(c, "mode must be one of off, track, context")
			return
		}
		err = sc.music.SetRepeat(ctx, mode)
	default:
		respondNotFound(c, "player action")
		return
	}

	if err != nil {
		respondSpotifyError(c, err, "player "+action)
		return
	}
	respondSuccess(c, "ok")
}

// markPinned flags playlists the reader has pinned. Lookup failures leave
// the flag unset.
func (sc *SpotifyController) markPinned(playlists []entities.Playlist) {
	if sc.pinned == nil {
		return
	}
	for i := range playlists {
		pinned, err := sc.pinned.IsPlaylistPinned(playlists[i].ID)
		if err != nil {
			log.Printf("[SPOTIFY] Failed to check pin for %s: %v", playlists[i].ID, err)
			continue
		}
		playlists[i].IsPinned = pinned
	}
}

func respondSpotifyError(c *gin.Context, err error, context string) {
	var apiErr *spotify.APIError
	switch {
	case errors.Is(err, spotify.ErrNotAuthenticated):
		respondError(c, http.StatusUnauthorized, CodeNotAuthenticated, "spotify is not authenticated")
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		respondNotFound(c, "spotify resource")
	case errors.Is(err, spotify.ErrAPI):
		log.Printf("[SPOTIFY] %s: %v", context, err)
		respondError(c, http.StatusBadGateway, CodeUpstream, "spotify request failed")
	default:
		respondInternalError(c, err, context)
	}
}
