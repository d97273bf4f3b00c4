package webhelper

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// Instance identifies a reachable companion listener.
type Instance struct {
	Host   string
	Port   int
	Secure bool
}

// BaseURL returns the scheme://host:port root for the instance.
func (i Instance) BaseURL() *url.URL {
	scheme := "http"
	if i.Secure {
		scheme = "https"
	}
	host := i.Host
	if host == "" {
		host = defaultHost
	}
	return &url.URL{Scheme: scheme, Host: host + ":" + strconv.Itoa(i.Port)}
}

func (i Instance) String() string {
	return i.BaseURL().String()
}

// Session holds everything needed to talk to one companion instance. It is
// created fresh on every initialization pass and discarded as a unit.
type Session struct {
	ID         string
	Instance   Instance
	OAuthToken string
	CSRFToken  string
	Generation uint64
}

// Status mirrors the payload returned by /remote/status.json.
type Status struct {
	Version         int             `json:"version"`
	ClientVersion   string          `json:"client_version"`
	Playing         bool            `json:"playing"`
	Shuffle         bool            `json:"shuffle"`
	Repeat          bool            `json:"repeat"`
	PlayEnabled     bool            `json:"play_enabled"`
	PrevEnabled     bool            `json:"prev_enabled"`
	NextEnabled     bool            `json:"next_enabled"`
	Track           *Track          `json:"track,omitempty"`
	Context         json.RawMessage `json:"context,omitempty"`
	PlayingPosition float64         `json:"playing_position"`
	ServerTime      int64           `json:"server_time"`
	Volume          float64         `json:"volume"`
	Online          *bool           `json:"online,omitempty"`
	Running         bool            `json:"running"`
	Error           *ErrorBody      `json:"error,omitempty"`

	// Fingerprint is the xxhash of the raw response body.
	Fingerprint uint64 `json:"-"`
}

// IsOffline reports whether the companion explicitly announced that the
// backing service went away. A missing online field is not offline.
func (s *Status) IsOffline() bool {
	return s != nil && s.Online != nil && !*s.Online
}

// Revision identifies the response body the snapshot was decoded from.
// Byte-identical responses share a revision. It is "" for snapshots that
// were not read off the wire.
func (s *Status) Revision() string {
	if s == nil || s.Fingerprint == 0 {
		return ""
	}
	return strconv.FormatUint(s.Fingerprint, 16)
}

// TrackURI returns the current track URI or "" when there is none.
func (s *Status) TrackURI() string {
	if s == nil {
		return ""
	}
	return s.Track.URI()
}

// Clone returns a shallow copy safe to hand to listeners.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}
	dup := *s
	if s.Track != nil {
		track := *s.Track
		dup.Track = &track
	}
	if s.Online != nil {
		online := *s.Online
		dup.Online = &online
	}
	return &dup
}

// ErrorBody is the error descriptor embedded in companion responses.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Err converts the descriptor into an *APIError.
func (e *ErrorBody) Err() error {
	if e == nil {
		return nil
	}
	return &APIError{Type: e.Type, Message: e.Message}
}

// Track is passed through mostly opaquely. Only the fields the engine needs
// are decoded; everything else stays in Metadata.
type Track struct {
	TrackResource  *Resource `json:"track_resource,omitempty"`
	ArtistResource *Resource `json:"artist_resource,omitempty"`
	AlbumResource  *Resource `json:"album_resource,omitempty"`
	Length         float64   `json:"length"`
	TrackType      string    `json:"track_type"`

	Metadata json.RawMessage `json:"-"`
}

// Resource names a track, artist or album.
type Resource struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// UnmarshalJSON keeps the raw object next to the decoded fields.
func (t *Track) UnmarshalJSON(data []byte) error {
	type plain Track
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*t = Track(decoded)
	t.Metadata = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the original object when one was received.
func (t Track) MarshalJSON() ([]byte, error) {
	if len(t.Metadata) > 0 {
		return t.Metadata, nil
	}
	type plain Track
	return json.Marshal(plain(t))
}

// URI returns the track resource URI, tolerating nil receivers.
func (t *Track) URI() string {
	if t == nil || t.TrackResource == nil {
		return ""
	}
	return t.TrackResource.URI
}

// Title returns the track name.
func (t *Track) Title() string {
	if t == nil || t.TrackResource == nil {
		return ""
	}
	return t.TrackResource.Name
}

// Artist returns the artist name.
func (t *Track) Artist() string {
	if t == nil || t.ArtistResource == nil {
		return ""
	}
	return t.ArtistResource.Name
}

// Album returns the album name.
func (t *Track) Album() string {
	if t == nil || t.AlbumResource == nil {
		return ""
	}
	return t.AlbumResource.Name
}

// FormatSeekTime renders seconds as m:ss, rounding to the nearest second.
func FormatSeekTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	full := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", full/60, full%60)
}

// SeekURI appends the encoded target time to a track URI so the companion
// starts playback from there.
func SeekURI(uri string, seconds float64) string {
	return uri + "#" + FormatSeekTime(seconds)
}

type csrfResponse struct {
	Token string     `json:"token"`
	Error *ErrorBody `json:"error,omitempty"`
}

type oauthResponse struct {
	Token string     `json:"t"`
	Error *ErrorBody `json:"error,omitempty"`
}

type errorEnvelope struct {
	Error *ErrorBody `json:"error,omitempty"`
}
