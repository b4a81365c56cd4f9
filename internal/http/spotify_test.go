package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4ndithelps/wave/internal/entities"
	"github.com/b4ndithelps/wave/internal/spotify"
)

type fakeMusic struct {
	playlists []entities.Playlist
	err       error
	calls     []string
}

func (f *fakeMusic) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeMusic) UserPlaylists(context.Context) ([]entities.Playlist, error) {
	if err := f.record("playlists"); err != nil {
		return nil, err
	}
	return append([]entities.Playlist(nil), f.playlists...), nil
}

func (f *fakeMusic) Playlist(_ context.Context, id string) (*entities.Playlist, error) {
	if err := f.record("playlist " + id); err != nil {
		return nil, err
	}
	for _, p := range f.playlists {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &spotify.APIError{Status: http.StatusNotFound, Message: "Not found."}
}

func (f *fakeMusic) SearchPlaylists(_ context.Context, query string) ([]entities.Playlist, error) {
	if err := f.record("search " + query); err != nil {
		return nil, err
	}
	return append([]entities.Playlist(nil), f.playlists...), nil
}

func (f *fakeMusic) Play(_ context.Context, uri string) error { return f.record("play " + uri) }
func (f *fakeMusic) Pause(context.Context) error              { return f.record("pause") }
func (f *fakeMusic) Resume(context.Context) error             { return f.record("resume") }
func (f *fakeMusic) Next(context.Context) error               { return f.record("next") }
func (f *fakeMusic) Previous(context.Context) error           { return f.record("previous") }

func (f *fakeMusic) SetShuffle(_ context.Context, on bool) error {
	return f.record(fmt.Sprintf("shuffle %t", on))
}

func (f *fakeMusic) SetRepeat(_ context.Context, mode spotify.RepeatMode) error {
	return f.record("repeat " + string(mode))
}

type fakeMusicSession struct {
	valid   bool
	expires *time.Time
	cleared bool
}

func (f *fakeMusicSession) Valid() bool           { return f.valid }
func (f *fakeMusicSession) Expired() bool         { return !f.valid && f.expires != nil }
func (f *fakeMusicSession) ExpiresAt() *time.Time { return f.expires }
func (f *fakeMusicSession) Clear() error {
	f.cleared = true
	f.valid = false
	return nil
}

func newSpotifyRouter(t *testing.T) (*gin.Engine, *fakeMusic, *fakeMusicSession, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	music := &fakeMusic{playlists: []entities.Playlist{
		{ID: "p1", Name: "Peaceful Piano"},
		{ID: "p2", Name: "Deep Focus"},
	}}
	expires := time.Now().Add(time.Hour)
	session := &fakeMusicSession{valid: true, expires: &expires}

	controller := NewSpotifyController(music, session, env.db.Playlists())
	router := newBareRouter()
	router.GET("/api/spotify/session", controller.GetSession)
	router.DELETE("/api/spotify/session", controller.DeleteSession)
	router.GET("/api/spotify/playlists", controller.GetPlaylists)
	router.GET("/api/spotify/playlists/:id", controller.GetPlaylist)
	router.GET("/api/spotify/search", controller.Search)
	router.POST("/api/spotify/player/:action", controller.Player)
	return router, music, session, env
}

func TestSpotifyController_Session(t *testing.T) {
	router, _, session, _ := newSpotifyRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/spotify/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SessionResponse](t, w)
	assert.True(t, resp.Authenticated)
	assert.False(t, resp.Expired)
	assert.NotNil(t, resp.ExpiresAt)
	assert.NotContains(t, w.Body.String(), "token")

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodDelete, "/api/spotify/session", nil).Code)
	assert.True(t, session.cleared)
}

func TestSpotifyController_PlaylistsMarkPinned(t *testing.T) {
	router, _, _, env := newSpotifyRouter(t)
	require.NoError(t, env.db.Playlists().PinPlaylist(&entities.PinnedPlaylist{PlaylistID: "p2", Name: "Deep Focus"}))

	w := doRequest(t, router, http.MethodGet, "/api/spotify/playlists", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[playlistList](t, w)
	require.Len(t, list.Playlists, 2)
	assert.False(t, list.Playlists[0].IsPinned)
	assert.True(t, list.Playlists[1].IsPinned)

	w = doRequest(t, router, http.MethodGet, "/api/spotify/playlists/p2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[entities.Playlist](t, w).IsPinned)

	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, "/api/spotify/playlists/nope", nil).Code)
}

func TestSpotifyController_Search(t *testing.T) {
	router, music, _, _ := newSpotifyRouter(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodGet, "/api/spotify/search?q=%20", nil).Code)

	w := doRequest(t, router, http.MethodGet, "/api/spotify/search?q=piano", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[playlistList](t, w).Count)
	assert.Equal(t, []string{"search piano"}, music.calls)
}

func TestSpotifyController_Player(t *testing.T) {
	router, music, _, _ := newSpotifyRouter(t)

	tests := []struct {
		action string
		body   any
		want   string
	}{
		{"play", PlayerRequest{URI: "spotify:playlist:p1"}, "play spotify:playlist:p1"},
		{"pause", nil, "pause"},
		{"resume", nil, "resume"},
		{"next", nil, "next"},
		{"previous", nil, "previous"},
		{"shuffle", map[string]bool{"state": true}, "shuffle true"},
		{"repeat", PlayerRequest{Mode: "track"}, "repeat track"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			music.calls = nil
			w := doRequest(t, router, http.MethodPost, "/api/spotify/player/"+tt.action, tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, []string{tt.want}, music.calls)
		})
	}

	music.calls = nil
	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodPost, "/api/spotify/player/play", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodPost, "/api/spotify/player/shuffle", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodPost, "/api/spotify/player/repeat", PlayerRequest{Mode: "forever"}).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodPost, "/api/spotify/player/eject", nil).Code)
	assert.Empty(t, music.calls)
}

func TestSpotifyController_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not authenticated", spotify.ErrNotAuthenticated, http.StatusUnauthorized, CodeNotAuthenticated},
		{"expired token", fmt.Errorf("%w: access token expired", spotify.ErrNotAuthenticated), http.StatusUnauthorized, CodeNotAuthenticated},
		{"api 401", &spotify.APIError{Status: http.StatusUnauthorized}, http.StatusUnauthorized, CodeNotAuthenticated},
		{"api 503", &spotify.APIError{Status: http.StatusServiceUnavailable}, http.StatusBadGateway, CodeUpstream},
		{"no device", &spotify.APIError{Status: http.StatusNotFound, Message: "Player command failed: No active device found"}, http.StatusNotFound, ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, music, _, _ := newSpotifyRouter(t)
			music.err = tt.err

			w := doRequest(t, router, http.MethodPost, "/api/spotify/player/pause", nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}
