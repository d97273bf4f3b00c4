// Package webhelper provides an HTTP client for the desktop player's local
// companion API.
//
// # Overview
//
// The companion binds one port in a reserved block on the loopback interface
// and answers a handful of JSON endpoints. This package knows how to address
// them and how to classify what comes back; it holds no session state of its
// own. Callers pass an Instance (where to talk) and a Session (which tokens to
// present) on every call.
//
// # Endpoints
//
//   - GET /service/version.json?service=remote: liveness probe used by discovery
//   - GET /simplecsrf/token.json: CSRF token negotiation
//   - GET /remote/status.json: snapshot, optionally held open (long-poll)
//   - GET /remote/play.json: start a URI, "#m:ss" suffix seeks
//   - GET /remote/pause.json: pause or resume
//
// The OAuth token comes from a public endpoint (DefaultTokenURL) that answers
// {"t": "..."}.
//
// # Request Handling
//
// Every request carries the Origin the companion expects and a browser user
// agent, injected by a RoundTripper wrapper. TLS verification is disabled
// because the secure port range uses a self-signed certificate. Non-polling
// requests time out after 5 seconds; a long-poll is allowed its hold time plus
// the same slack.
//
// # Error Handling
//
//   - *TransportError: connection refused, timeouts, non-2xx statuses
//   - *MalformedResponseError: body is not the expected JSON
//   - *AuthError: a token could not be obtained
//   - *APIError: the companion reported an error descriptor
//
// IsRestartable reports whether an error means the session tokens are no
// longer accepted. Example messages:
//   - "fetch status: execute request: dial tcp 127.0.0.1:4381: connect: connection refused"
//   - "fetch status: decode response: unexpected end of JSON input"
//   - "fetch csrf token: No user logged in"
//
// # Thread Safety
//
// Client is safe for concurrent use.
package webhelper
