// Package httpclient builds the HTTP session shared by every request of a run.
package httpclient

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds every request end to end.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies feed fetches.
	DefaultUserAgent = "NewsHub RSS Parser 1.0"

	defaultMaxIdleConns          = 100
	defaultMaxIdleConnsPerHost   = 10
	defaultIdleConnTimeout       = 90 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
)

// Config configures a Session.
type Config struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// WithDefaults returns a copy with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Session is a pooled HTTP client scoped to one run. Close releases its
// idle connections and must be deferred by whoever opens it.
type Session struct {
	Client    *http.Client
	UserAgent string
	transport *http.Transport
}

// NewSession opens a session whose requests all carry the configured user agent.
func NewSession(cfg Config) *Session {
	cfg = cfg.WithDefaults()

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
		ForceAttemptHTTP2:     true,
	}

	return &Session{
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &userAgentTransport{base: transport, userAgent: cfg.UserAgent},
		},
		UserAgent: cfg.UserAgent,
		transport: transport,
	}
}

// Close drops pooled connections. Safe to call more than once.
func (s *Session) Close() {
	s.transport.CloseIdleConnections()
}

// userAgentTransport stamps a fixed User-Agent on requests that lack one.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
