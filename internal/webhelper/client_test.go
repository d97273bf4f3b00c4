package webhelper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/h2non/gock"
)

func instanceFor(t *testing.T, server *httptest.Server) Instance {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return Instance{Host: u.Hostname(), Port: port, Secure: u.Scheme == "https"}
}

func TestInstance_BaseURL(t *testing.T) {
	if got := (Instance{Port: 4381}).BaseURL().String(); got != "http://127.0.0.1:4381" {
		t.Fatalf("insecure BaseURL = %q", got)
	}
	if got := (Instance{Host: "localhost", Port: 4370, Secure: true}).BaseURL().String(); got != "https://localhost:4370" {
		t.Fatalf("secure BaseURL = %q", got)
	}
}

func TestClient_StatusEncodesSessionAndHeaders(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotOrigin, gotUA, gotConn string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/remote/status.json" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		gotOrigin = r.Header.Get("Origin")
		gotUA = r.Header.Get("User-Agent")
		gotConn = r.Header.Get("Connection")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"playing":true,"playing_position":12.5,"online":true,"track":{"track_resource":{"name":"Song","uri":"spotify:track:1"},"length":181,"extra":{"k":1}}}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	sess := Session{Instance: instanceFor(t, server), OAuthToken: "oa", CSRFToken: "cs"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	status, err := c.FetchStatus(ctx, sess, StatusRequest{ReturnAfter: 60 * time.Second, KeepAlive: true})
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if !status.Playing || status.PlayingPosition != 12.5 || status.TrackURI() != "spotify:track:1" {
		t.Fatalf("FetchStatus payload = %#v", status)
	}
	if status.Track.Length != 181 || !strings.Contains(string(status.Track.Metadata), `"extra"`) {
		t.Fatalf("track = %#v, want length and raw metadata", status.Track)
	}
	if status.Fingerprint == 0 {
		t.Fatalf("fingerprint not set")
	}
	if gotQuery.Get("oauth") != "oa" ||
		gotQuery.Get("csrf") != "cs" ||
		gotQuery.Get("returnafter") != "60" ||
		gotQuery.Get("returnon") != "login,logout,play,pause,error,ap" {
		t.Fatalf("status query = %v, want session params", gotQuery)
	}
	if gotOrigin != DefaultOrigin {
		t.Fatalf("Origin = %q, want %q", gotOrigin, DefaultOrigin)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("User-Agent = %q", gotUA)
	}
	if !strings.EqualFold(gotConn, "keep-alive") {
		t.Fatalf("Connection = %q, want keep-alive", gotConn)
	}
}

func TestClient_IdenticalBodiesShareFingerprint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"playing":false}`))
	}))
	t.Cleanup(server.Close)

	c, _ := NewClient(Options{})
	sess := Session{Instance: instanceFor(t, server)}
	first, err := c.FetchStatus(context.Background(), sess, StatusRequest{})
	if err != nil {
		t.Fatalf("first FetchStatus: %v", err)
	}
	second, err := c.FetchStatus(context.Background(), sess, StatusRequest{})
	if err != nil {
		t.Fatalf("second FetchStatus: %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatalf("fingerprints differ: %d vs %d", first.Fingerprint, second.Fingerprint)
	}
	if first.Revision() == "" || first.Revision() != second.Revision() {
		t.Fatalf("revisions = %q and %q, want equal and non-empty", first.Revision(), second.Revision())
	}
}

func TestClient_StatusErrorFieldIsNotTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"type":"4102","message":"Invalid OAuth token"}}`))
	}))
	t.Cleanup(server.Close)

	c, _ := NewClient(Options{})
	status, err := c.FetchStatus(context.Background(), Session{Instance: instanceFor(t, server)}, StatusRequest{})
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if status.Error == nil || status.Error.Message != "Invalid OAuth token" {
		t.Fatalf("status.Error = %#v", status.Error)
	}
	if !IsRestartable(status.Error.Err(), DefaultRestartMessages) {
		t.Fatalf("expected invalid oauth token to be restartable")
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/remote/status.json":
			_, _ = w.Write([]byte("{not-json"))
		case "/remote/pause.json":
			http.Error(w, "nope", http.StatusInternalServerError)
		case "/remote/play.json":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"type":"4107","message":"Invalid Csrf token"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, _ := NewClient(Options{})
	sess := Session{Instance: instanceFor(t, server)}

	_, err := c.FetchStatus(context.Background(), sess, StatusRequest{})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchStatus error = %v, want decode response error", err)
	}

	_, err = c.Pause(context.Background(), sess, true)
	var transport *TransportError
	if !errors.As(err, &transport) || transport.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Pause error = %v, want status 500 transport error", err)
	}
	if !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("Pause error text = %q", err.Error())
	}

	_, err = c.Play(context.Background(), sess, "spotify:track:1")
	if !IsRestartable(err, DefaultRestartMessages) {
		t.Fatalf("Play error = %v, want restartable api error", err)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	inst := instanceFor(t, server)
	server.Close()

	c, _ := NewClient(Options{})
	_, err := c.FetchStatus(context.Background(), Session{Instance: inst}, StatusRequest{})
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("FetchStatus error = %v, want transport error", err)
	}
	if Kind(err) != "transport_failure" {
		t.Fatalf("Kind = %q", Kind(err))
	}
}

func TestClient_CommandsEncodeQueries(t *testing.T) {
	t.Parallel()

	queries := map[string]url.Values{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries[r.URL.Path] = r.URL.Query()
		_, _ = w.Write([]byte(`{"playing":true}`))
	}))
	t.Cleanup(server.Close)

	c, _ := NewClient(Options{})
	sess := Session{Instance: instanceFor(t, server), OAuthToken: "oa", CSRFToken: "cs"}

	if _, err := c.Play(context.Background(), sess, SeekURI("spotify:track:1", 65)); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if _, err := c.Pause(context.Background(), sess, false); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}

	play := queries["/remote/play.json"]
	if play.Get("uri") != "spotify:track:1#1:05" || play.Get("context") != "spotify:track:1#1:05" {
		t.Fatalf("play query = %v", play)
	}
	if play.Get("returnafter") != "1" || play.Get("oauth") != "oa" || play.Get("csrf") != "cs" {
		t.Fatalf("play query missing session params: %v", play)
	}
	if got := queries["/remote/pause.json"].Get("pause"); got != "false" {
		t.Fatalf("pause param = %q, want false", got)
	}
}

func TestClient_ProbeVersion(t *testing.T) {
	t.Parallel()

	var gotService string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/service/version.json" {
			http.NotFound(w, r)
			return
		}
		gotService = r.URL.Query().Get("service")
		_, _ = w.Write([]byte(`{"version":9,"running":true}`))
	}))
	t.Cleanup(server.Close)

	c, _ := NewClient(Options{})
	if err := c.ProbeVersion(context.Background(), instanceFor(t, server)); err != nil {
		t.Fatalf("ProbeVersion returned error: %v", err)
	}
	if gotService != "remote" {
		t.Fatalf("service = %q, want remote", gotService)
	}
}

func TestClient_CSRFToken(t *testing.T) {
	t.Parallel()

	var loggedIn atomic.Bool
	loggedIn.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") != DefaultOrigin {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if loggedIn.Load() {
			_, _ = w.Write([]byte(`{"token":"csrf-1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"type":"4110","message":"No user logged in"}}`))
	}))
	t.Cleanup(server.Close)

	c, _ := NewClient(Options{})
	inst := instanceFor(t, server)

	token, err := c.FetchCSRFToken(context.Background(), inst)
	if err != nil || token != "csrf-1" {
		t.Fatalf("FetchCSRFToken = %q, %v", token, err)
	}

	loggedIn.Store(false)
	_, err = c.FetchCSRFToken(context.Background(), inst)
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Message != "No user logged in" {
		t.Fatalf("FetchCSRFToken error = %v, want auth error", err)
	}
}

func TestClient_OAuthToken(t *testing.T) {
	defer gock.Off()

	gock.New("http://open.spotify.com").
		Get("/token").
		MatchHeader("Origin", DefaultOrigin).
		Reply(200).
		JSON(map[string]string{"t": "oauth-1"})
	gock.New("http://open.spotify.com").
		Get("/token").
		Reply(200).
		JSON(map[string]string{})

	c, err := NewClient(Options{Transport: gock.DefaultTransport})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	token, err := c.FetchOAuthToken(context.Background())
	if err != nil || token != "oauth-1" {
		t.Fatalf("FetchOAuthToken = %q, %v", token, err)
	}

	_, err = c.FetchOAuthToken(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("FetchOAuthToken error = %v, want auth error", err)
	}
	if !gock.IsDone() {
		t.Fatalf("pending token mocks remain")
	}
}

func TestClient_OAuthTokenNetworkFailureIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tokenURL := server.URL + "/token"
	server.Close()

	c, _ := NewClient(Options{TokenURL: tokenURL})
	_, err := c.FetchOAuthToken(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want auth error", err)
	}
	if Kind(err) != "auth_failure" {
		t.Fatalf("Kind = %q, want auth_failure", Kind(err))
	}
}
