package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4ndithelps/wave/internal/entities"
)

type memoryCredentials struct {
	mu    sync.Mutex
	creds *entities.Credentials
}

func (m *memoryCredentials) GetLatest(entities.OAuthProvider) (*entities.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, nil
	}
	c := *m.creds
	return &c, nil
}

func (m *memoryCredentials) SaveCredentials(creds *entities.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *creds
	m.creds = &c
	return nil
}

func (m *memoryCredentials) DeleteCredentials(entities.OAuthProvider, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}

func authedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(&memoryCredentials{})
	expires := time.Now().Add(time.Hour)
	require.NoError(t, s.Set(entities.Credentials{AccessToken: "token-1", RefreshToken: "r", ExpiresAt: &expires}))
	return s
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, authedSession(t), WithRetry(3, time.Millisecond), WithRateLimit(1000, 100))
}

func TestSession(t *testing.T) {
	store := &memoryCredentials{}
	s := NewSession(store)

	require.NoError(t, s.Load())
	assert.False(t, s.Valid())
	assert.False(t, s.Expired())
	_, err := s.AccessToken()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, s.Set(entities.Credentials{AccessToken: "old", ExpiresAt: &past}))
	assert.True(t, s.Expired())
	assert.False(t, s.Valid())
	_, err = s.AccessToken()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	future := time.Now().Add(time.Hour)
	require.NoError(t, s.Set(entities.Credentials{AccessToken: "fresh", ExpiresAt: &future}))
	token, err := s.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)

	t.Run("credentials survive a reload", func(t *testing.T) {
		reloaded := NewSession(store)
		require.NoError(t, reloaded.Load())
		assert.True(t, reloaded.Valid())
		assert.Equal(t, entities.OAuthProviderSpotify, store.creds.Provider)
	})

	t.Run("clear removes stored credentials", func(t *testing.T) {
		require.NoError(t, s.Clear())
		assert.False(t, s.Valid())
		assert.Nil(t, store.creds)
	})

	t.Run("empty token is rejected", func(t *testing.T) {
		assert.ErrorIs(t, s.Set(entities.Credentials{}), ErrNotAuthenticated)
	})
}

func TestClient_UserPlaylists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/playlists", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		_, _ = io.WriteString(w, `{"items":[
			{"id":"p1","name":"Deep Focus","description":"calm","images":[{"url":"https://i/1.jpg"}],"owner":{"id":"spotify","display_name":"Spotify"},"tracks":{"total":120}},
			null,
			{"id":"p2","name":"Rain","images":[],"owner":{"id":"me"},"tracks":{"total":3}}
		],"next":null}`)
	})

	playlists, err := client.UserPlaylists(context.Background())
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	assert.Equal(t, entities.Playlist{
		ID: "p1", Name: "Deep Focus", Description: "calm", ImageURL: "https://i/1.jpg",
		TrackCount: 120, Creator: "Spotify", Tracks: []entities.Track{},
	}, playlists[0])
	assert.Equal(t, "me", playlists[1].Creator)
	assert.Empty(t, playlists[1].ImageURL)
}

func TestClient_PlaylistFollowsTrackPages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlists/p1":
			_, _ = io.WriteString(w, `{"id":"p1","name":"Long","owner":{"display_name":"me"},"tracks":{"total":101}}`)
		case "/playlists/p1/tracks":
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			offset := r.URL.Query().Get("offset")
			if offset == "0" {
				items := make([]map[string]interface{}, 100)
				for i := range items {
					items[i] = map[string]interface{}{"track": map[string]interface{}{
						"uri": fmt.Sprintf("spotify:track:%d", i), "name": "t",
						"artists":     []map[string]string{{"name": "A"}, {"name": "B"}},
						"album":       map[string]interface{}{"name": "Al", "images": []map[string]string{{"url": "u"}}},
						"duration_ms": 1000,
					}}
				}
				next := "more"
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": items, "next": next})
				return
			}
			assert.Equal(t, "100", offset)
			_, _ = io.WriteString(w, `{"items":[{"track":{"uri":"spotify:track:last","name":"Last","artists":[],"album":{"name":"X","images":[]},"duration_ms":5}},{"track":null}],"next":null}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	playlist, err := client.Playlist(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, playlist.Tracks, 101)
	assert.Equal(t, "spotify:track:0", playlist.Tracks[0].ID)
	assert.Equal(t, "A, B", playlist.Tracks[0].Artist)
	assert.Equal(t, "u", playlist.Tracks[0].AlbumImageURL)
	assert.Equal(t, "Last", playlist.Tracks[100].Name)
}

func TestClient_SearchPlaylists(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "lofi beats", r.URL.Query().Get("q"))
		assert.Equal(t, "playlist", r.URL.Query().Get("type"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"playlists":{"items":[{"id":"s1","name":"Lofi","owner":{"display_name":"x"},"tracks":{"total":9}}]}}`)
	})

	results, err := client.SearchPlaylists(context.Background(), "  lofi beats ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].ID)

	empty, err := client.SearchPlaylists(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_PlaybackControl(t *testing.T) {
	type call struct {
		method, path, query, body string
	}
	var mu sync.Mutex
	var calls []call
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, client.Play(ctx, "37i9dQ"))
	require.NoError(t, client.Play(ctx, "spotify:track:abc"))
	require.NoError(t, client.Pause(ctx))
	require.NoError(t, client.Resume(ctx))
	require.NoError(t, client.Next(ctx))
	require.NoError(t, client.Previous(ctx))
	require.NoError(t, client.SetShuffle(ctx, true))
	require.NoError(t, client.SetRepeat(ctx, RepeatTrack))
	assert.Error(t, client.SetRepeat(ctx, "sometimes"))

	assert.Equal(t, []call{
		{"PUT", "/me/player/play", "", `{"context_uri":"spotify:playlist:37i9dQ"}`},
		{"PUT", "/me/player/play", "", `{"uris":["spotify:track:abc"]}`},
		{"PUT", "/me/player/pause", "", ""},
		{"PUT", "/me/player/play", "", ""},
		{"POST", "/me/player/next", "", ""},
		{"POST", "/me/player/previous", "", ""},
		{"PUT", "/me/player/shuffle", "state=true", ""},
		{"PUT", "/me/player/repeat", "state=track", ""},
	}, calls)
}

func TestClient_Errors(t *testing.T) {
	t.Run("unauthenticated session makes no request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("request should not be sent")
		}))
		defer server.Close()

		client := NewClient(server.URL, NewSession(&memoryCredentials{}))
		_, err := client.UserPlaylists(context.Background())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("401 maps to not authenticated", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"status":401,"message":"The access token expired"}}`)
		})

		_, err := client.UserPlaylists(context.Background())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "The access token expired", apiErr.Message)
	})

	t.Run("404 is not retried", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		})

		err := client.Next(context.Background())
		assert.ErrorIs(t, err, ErrAPI)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("server errors are retried", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.Pause(context.Background()))
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("dropped connections are retried", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				dropConnection(t, w)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.Pause(context.Background()))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("transport failure after all attempts wraps ErrAPI", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewClient(url, authedSession(t), WithRetry(2, time.Millisecond), WithRateLimit(1000, 100))
		err := client.Pause(context.Background())
		assert.ErrorIs(t, err, ErrAPI)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		var calls int32
		ctx, cancel := context.WithCancel(context.Background())
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			cancel()
			dropConnection(t, w)
		})

		err := client.Pause(ctx)
		assert.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func dropConnection(t *testing.T, w http.ResponseWriter) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err != nil {
		t.Errorf("hijack: %v", err)
		return
	}
	conn.Close()
}

func TestNormalizeURI(t *testing.T) {
	assert.Equal(t, "spotify:playlist:abc", NormalizeURI("abc"))
	assert.Equal(t, "spotify:album:xyz", NormalizeURI("spotify:album:xyz"))
}
