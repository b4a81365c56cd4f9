package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/b4ndithelps/wave/internal/entities"
)

const (
	DefaultAPIURL = "https://api.spotify.com/v1/"

	userPlaylistsLimit = 50
	playlistTracksPage = 100
	searchLimit        = 20
)

// RepeatMode is a Spotify repeat state.
type RepeatMode string

const (
	RepeatOff     RepeatMode = "off"
	RepeatTrack   RepeatMode = "track"
	RepeatContext RepeatMode = "context"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api error: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrNotAuthenticated
	}
	return ErrAPI
}

func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// transportError is a request that never produced a response.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%v: %v", ErrAPI, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrAPI, e.err}
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}
	var tErr *transportError
	return errors.As(err, &tErr)
}

// Client calls the Spotify Web API with the session's token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithRetry sets the attempts per request and the base backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client for baseURL (DefaultAPIURL when empty).
func NewClient(baseURL string, session *Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    session,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

// Session returns the credential session the client uses.
func (c *Client) Session() *Session {
	return c.session
}

// UserPlaylists returns the current user's playlists.
func (c *Client) UserPlaylists(ctx context.Context) ([]entities.Playlist, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(userPlaylistsLimit))
	q.Set("offset", "0")

	var page pagingObject[*apiPlaylist]
	if err := c.get(ctx, "me/playlists", q, &page); err != nil {
		return nil, err
	}
	return convertPlaylists(page.Items), nil
}

// Playlist returns a playlist with all of its tracks.
func (c *Client) Playlist(ctx context.Context, id string) (*entities.Playlist, error) {
	var p apiPlaylist
	if err := c.get(ctx, "playlists/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}

	tracks, err := c.playlistTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	playlist := p.toEntity()
	playlist.Tracks = tracks
	return &playlist, nil
}

func (c *Client) playlistTracks(ctx context.Context, id string) ([]entities.Track, error) {
	tracks := []entities.Track{}
	offset := 0
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(playlistTracksPage))
		q.Set("offset", strconv.Itoa(offset))

		var page pagingObject[*apiPlaylistTrack]
		if err := c.get(ctx, "playlists/"+url.PathEscape(id)+"/tracks", q, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item == nil || item.Track == nil {
				continue
			}
			tracks = append(tracks, item.Track.toEntity())
		}

		if page.Next == nil || len(page.Items) == 0 {
			return tracks, nil
		}
		offset += playlistTracksPage
	}
}

// SearchPlaylists finds playlists matching query.
func (c *Client) SearchPlaylists(ctx context.Context, query string) ([]entities.Playlist, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []entities.Playlist{}, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "playlist")
	q.Set("limit", strconv.Itoa(searchLimit))

	var resp struct {
		Playlists *pagingObject[*apiPlaylist] `json:"playlists"`
	}
	if err := c.get(ctx, "search", q, &resp); err != nil {
		return nil, err
	}
	if resp.Playlists == nil {
		return []entities.Playlist{}, nil
	}
	return convertPlaylists(resp.Playlists.Items), nil
}

// Play starts a playlist, album or track on the active device. Bare IDs are
// treated as playlists.
func (c *Client) Play(ctx context.Context, uri string) error {
	uri = NormalizeURI(uri)

	body := map[string]interface{}{}
	if strings.HasPrefix(uri, "spotify:track:") {
		body["uris"] = []string{uri}
	} else {
		body["context_uri"] = uri
	}
	return c.send(ctx, http.MethodPut, "me/player/play", nil, body)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.send(ctx, http.MethodPut, "me/player/pause", nil, nil)
}

// Resume continues playback of the current context.
func (c *Client) Resume(ctx context.Context) error {
	return c.send(ctx, http.MethodPut, "me/player/play", nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "me/player/next", nil, nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "me/player/previous", nil, nil)
}

// SetShuffle toggles shuffle.
func (c *Client) SetShuffle(ctx context.Context, on bool) error {
	q := url.Values{}
	q.Set("state", strconv.FormatBool(on))
	return c.send(ctx, http.MethodPut, "me/player/shuffle", q, nil)
}

// SetRepeat sets the repeat mode.
func (c *Client) SetRepeat(ctx context.Context, mode RepeatMode) error {
	switch mode {
	case RepeatOff, RepeatTrack, RepeatContext:
	default:
		return fmt.Errorf("unknown repeat mode %q", mode)
	}
	q := url.Values{}
	q.Set("state", string(mode))
	return c.send(ctx, http.MethodPut, "me/player/repeat", q, nil)
}

// NormalizeURI turns a bare playlist ID into a spotify: URI.
func NormalizeURI(uri string) string {
	if strings.HasPrefix(uri, "spotify:") {
		return uri
	}
	return "spotify:playlist:" + uri
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) error {
	return c.do(ctx, method, path, query, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	token, err := c.session.AccessToken()
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			return c.roundTrip(ctx, method, endpoint, token, payload, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
	)
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, token string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = strings.NewReader(string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Unrecoverable(fmt.Errorf("%w: %w", ErrAPI, ctx.Err()))
		}
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("%w: decode response: %v", ErrAPI, err))
	}
	return nil
}

func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return "empty response"
}
