package webhelper

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// API is the set of companion calls the playback engine depends on.
// This interface is implemented by *Client and can be faked in tests.
type API interface {
	FetchOAuthToken(ctx context.Context) (string, error)
	FetchCSRFToken(ctx context.Context, inst Instance) (string, error)
	FetchStatus(ctx context.Context, sess Session, req StatusRequest) (*Status, error)
	Play(ctx context.Context, sess Session, uri string) (*Status, error)
	Pause(ctx context.Context, sess Session, pause bool) (*Status, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

const (
	defaultHost      = "127.0.0.1"
	DefaultOrigin    = "https://open.spotify.com"
	DefaultTokenURL  = "http://open.spotify.com/token"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/56.0.2924.87 Safari/537.36"
	requestTimeout   = 5 * time.Second
)

// DefaultReturnOn lists the companion events that end a long-poll early.
var DefaultReturnOn = []string{"login", "logout", "play", "pause", "error", "ap"}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Host      string
	Origin    string
	UserAgent string
	TokenURL  string
	ReturnOn  []string

	// RequestTimeout bounds every non-polling request.
	RequestTimeout time.Duration

	// Transport is the base round tripper. The default skips certificate
	// verification because the companion serves a self-signed certificate.
	Transport http.RoundTripper
}

// StatusRequest configures a /remote/status.json call.
type StatusRequest struct {
	// ReturnAfter is how long the companion may hold the request open.
	ReturnAfter time.Duration
	KeepAlive   bool
}

// Client talks to the companion HTTP API and the public token endpoint.
type Client struct {
	host           string
	tokenURL       string
	returnOn       string
	requestTimeout time.Duration
	http           *http.Client
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	tokenURL := strings.TrimSpace(opts.TokenURL)
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if _, err := url.Parse(tokenURL); err != nil {
		return nil, fmt.Errorf("parse token_url %q: %w", opts.TokenURL, err)
	}
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = defaultHost
	}
	origin := strings.TrimSpace(opts.Origin)
	if origin == "" {
		origin = DefaultOrigin
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	returnOn := opts.ReturnOn
	if len(returnOn) == 0 {
		returnOn = DefaultReturnOn
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	base := opts.Transport
	if base == nil {
		base = newInsecureTransport()
	}
	return &Client{
		host:           host,
		tokenURL:       tokenURL,
		returnOn:       strings.Join(returnOn, ","),
		requestTimeout: timeout,
		http: &http.Client{
			Transport: &headerTransport{base: base, userAgent: userAgent, origin: origin},
		},
	}, nil
}

// Host returns the loopback host instances are resolved on.
func (c *Client) Host() string {
	return c.host
}

// ProbeVersion checks whether inst answers the version endpoint.
func (c *Client) ProbeVersion(ctx context.Context, inst Instance) error {
	values := url.Values{}
	values.Set("service", "remote")
	_, err := c.get(ctx, "probe version", c.endpoint(inst, "/service/version.json", values), nil, 0)
	return err
}

// FetchOAuthToken obtains an OAuth token from the public token endpoint.
func (c *Client) FetchOAuthToken(ctx context.Context) (string, error) {
	const op = "fetch oauth token"
	reqURL, err := url.Parse(c.tokenURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.get(ctx, op, reqURL, nil, 0)
	if err != nil {
		return "", authFailure(op, err)
	}
	var payload oauthResponse
	if err := decode(op, body, &payload); err != nil {
		return "", err
	}
	if payload.Error != nil {
		return "", &AuthError{Op: op, Message: payload.Error.Message}
	}
	if payload.Token == "" {
		return "", &AuthError{Op: op, Message: "response carried no token"}
	}
	return payload.Token, nil
}

// FetchCSRFToken negotiates a CSRF token with the companion at inst.
func (c *Client) FetchCSRFToken(ctx context.Context, inst Instance) (string, error) {
	const op = "fetch csrf token"
	body, err := c.get(ctx, op, c.endpoint(inst, "/simplecsrf/token.json", nil), nil, 0)
	if err != nil {
		return "", authFailure(op, err)
	}
	var payload csrfResponse
	if err := decode(op, body, &payload); err != nil {
		return "", err
	}
	if payload.Error != nil {
		return "", &AuthError{Op: op, Message: payload.Error.Message}
	}
	if payload.Token == "" {
		return "", &AuthError{Op: op, Message: "response carried no token"}
	}
	return payload.Token, nil
}

// FetchStatus retrieves the current snapshot. The companion holds the request
// for up to req.ReturnAfter unless one of the return-on events occurs.
// A server reported error is returned in Status.Error, not as err.
func (c *Client) FetchStatus(ctx context.Context, sess Session, req StatusRequest) (*Status, error) {
	const op = "fetch status"
	hold := req.ReturnAfter
	if hold < time.Second {
		hold = time.Second
	}
	values := c.sessionValues(sess, hold)
	var header http.Header
	if req.KeepAlive {
		header = http.Header{"Connection": []string{"keep-alive"}}
	}
	body, err := c.get(ctx, op, c.endpoint(sess.Instance, "/remote/status.json", values), header, hold+c.requestTimeout)
	if err != nil {
		return nil, err
	}
	return decodeStatus(op, body)
}

// Play starts uri. A "#m:ss" suffix seeks within the track.
func (c *Client) Play(ctx context.Context, sess Session, uri string) (*Status, error) {
	const op = "play"
	values := c.sessionValues(sess, time.Second)
	values.Set("uri", uri)
	values.Set("context", uri)
	return c.command(ctx, op, c.endpoint(sess.Instance, "/remote/play.json", values))
}

// Pause pauses playback, or resumes it when pause is false.
func (c *Client) Pause(ctx context.Context, sess Session, pause bool) (*Status, error) {
	const op = "pause"
	values := c.sessionValues(sess, time.Second)
	values.Set("pause", strconv.FormatBool(pause))
	return c.command(ctx, op, c.endpoint(sess.Instance, "/remote/pause.json", values))
}

func (c *Client) command(ctx context.Context, op string, reqURL *url.URL) (*Status, error) {
	body, err := c.get(ctx, op, reqURL, nil, 0)
	if err != nil {
		return nil, err
	}
	status, err := decodeStatus(op, body)
	if err != nil {
		return nil, err
	}
	if status.Error != nil {
		return status, status.Error.Err()
	}
	return status, nil
}

func (c *Client) sessionValues(sess Session, hold time.Duration) url.Values {
	values := url.Values{}
	values.Set("oauth", sess.OAuthToken)
	values.Set("csrf", sess.CSRFToken)
	values.Set("returnafter", strconv.Itoa(int(hold/time.Second)))
	values.Set("returnon", c.returnOn)
	return values
}

func (c *Client) endpoint(inst Instance, path string, values url.Values) *url.URL {
	if inst.Host == "" {
		inst.Host = c.host
	}
	rel := &url.URL{Path: path}
	if values != nil {
		rel.RawQuery = values.Encode()
	}
	return inst.BaseURL().ResolveReference(rel)
}

func (c *Client) get(ctx context.Context, op string, reqURL *url.URL, header http.Header, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = c.requestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, vals := range header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
			return nil, envelope.Error.Err()
		}
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}
	return body, nil
}

func decode(op string, body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}

func decodeStatus(op string, body []byte) (*Status, error) {
	var status Status
	if err := decode(op, body, &status); err != nil {
		return nil, err
	}
	status.Fingerprint = xxhash.Sum64(body)
	return &status, nil
}

// authFailure folds request failures of a token call into an AuthError so
// the caller retries the chain. Decode failures and server errors pass
// through unchanged.
func authFailure(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &AuthError{Op: op, Message: apiErr.Message, Err: err}
	}
	return &AuthError{Op: op, Err: err}
}

type headerTransport struct {
	base      http.RoundTripper
	userAgent string
	origin    string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	if req.Header.Get("Origin") == "" {
		req.Header.Set("Origin", t.origin)
	}
	return t.base.RoundTrip(req)
}

func newInsecureTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed loopback certificate
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
}
