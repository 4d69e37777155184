package isy

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/elaw611/isy-bridge/internal/infrastructure/config"
	"github.com/elaw611/isy-bridge/internal/infrastructure/logging"
)

// FeatureWeatherInformation is the controller module that supplies the
// climate/weather directory. Weather classification only runs when the
// controller reports this feature as installed.
const FeatureWeatherInformation = "Weather Information"

// maxResponseBytes caps directory responses. The node directory of a
// large installation is a few hundred kilobytes; anything beyond this is
// a malfunctioning endpoint, not a bigger house.
const maxResponseBytes = 8 << 20

// Client is an HTTP client for the ISY-994 REST API.
//
// Create with New(), establish the session with Open(), then fetch the
// directories. The client holds no connection state beyond the underlying
// HTTP transport; "connected" means Open() has verified reachability and
// credentials by fetching the controller configuration.
//
// Thread Safety: all methods are safe for concurrent use once Open() has
// returned.
type Client struct {
	baseURL  string
	wsURL    string
	username string
	password string
	http     *http.Client
	tlsConf  *tls.Config
	logger   *logging.Logger

	conf *Configuration
}

// Configuration describes the controller identity and installed feature
// modules, fetched from /rest/config during Open().
type Configuration struct {
	Name     string
	Model    string
	Platform string
	Firmware string

	features map[string]bool
}

// HasFeature reports whether the named feature module is installed.
func (c *Configuration) HasFeature(desc string) bool {
	if c == nil {
		return false
	}
	return c.features[desc]
}

// Features returns the descriptions of all installed feature modules.
func (c *Configuration) Features() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.features))
	for desc, installed := range c.features {
		if installed {
			out = append(out, desc)
		}
	}
	return out
}

// New creates a Client from the controller configuration.
//
// The URL scheme selects the transport and default port: http uses 80,
// https uses 443 and honours the optional TLS version pin, which older
// controller firmware needs because it only negotiates TLS 1.0/1.1.
//
// Parameters:
//   - cfg: Controller connection settings
//   - logger: Structured logger (may be nil)
//
// Returns:
//   - *Client: Client ready for Open()
//   - error: ErrInvalidURL if the URL cannot be used
func New(cfg config.ISYConfig, logger *logging.Logger) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	var scheme, wsScheme, port string
	switch u.Scheme {
	case "http":
		scheme, wsScheme, port = "http", "ws", "80"
	case "https":
		scheme, wsScheme, port = "https", "wss", "443"
	default:
		return nil, fmt.Errorf("%w: scheme %q must be http or https", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if p := u.Port(); p != "" {
		port = p
	}

	host := u.Hostname() + ":" + port

	transport := &http.Transport{}
	var tlsConf *tls.Config
	if scheme == "https" && cfg.TLSVersion != 0 {
		tlsConf = &tls.Config{
			MinVersion: tlsVersionConstant(cfg.TLSVersion),
			MaxVersion: tlsVersionConstant(cfg.TLSVersion),
		}
		transport.TLSClientConfig = tlsConf
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:  scheme + "://" + host,
		wsURL:    wsScheme + "://" + host,
		username: cfg.Username,
		password: cfg.Password,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		tlsConf: tlsConf,
		logger:  logger,
	}, nil
}

// tlsVersionConstant maps a config TLS version to the crypto/tls constant.
func tlsVersionConstant(v float64) uint16 {
	switch v {
	case 1.0:
		return tls.VersionTLS10
	case 1.1:
		return tls.VersionTLS11
	default:
		return tls.VersionTLS12
	}
}

// Open verifies connectivity and credentials by fetching the controller
// configuration. It must be called before any directory fetch; a failure
// here aborts setup entirely (no classification runs against a
// controller we cannot reach).
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - error: ErrAuthFailed on rejected credentials, ErrRequestFailed or
//     a transport error otherwise
func (c *Client) Open(ctx context.Context) error {
	var raw configurationXML
	if err := c.get(ctx, "/rest/config", &raw); err != nil {
		return fmt.Errorf("fetching controller configuration: %w", err)
	}

	conf := &Configuration{
		Name:     raw.Root.Name,
		Model:    raw.DeviceSpecs.Model,
		Platform: raw.Platform,
		Firmware: raw.AppVersion,
		features: make(map[string]bool, len(raw.Features)),
	}
	for _, f := range raw.Features {
		conf.features[f.Desc] = f.Installed
	}
	c.conf = conf

	c.logInfo("connected to controller",
		"name", conf.Name,
		"model", conf.Model,
		"firmware", conf.Firmware)

	return nil
}

// Configuration returns the controller configuration fetched by Open(),
// or nil if Open() has not succeeded.
func (c *Client) Configuration() *Configuration {
	return c.conf
}

// Connected reports whether Open() has succeeded.
func (c *Client) Connected() bool {
	return c != nil && c.conf != nil
}

// WebSocketURL returns the base ws(s) URL for the event stream.
func (c *Client) WebSocketURL() string {
	return c.wsURL
}

// Credentials returns the configured basic-auth credentials. The event
// stream dials its own connection and needs them for the handshake.
func (c *Client) Credentials() (username, password string) {
	return c.username, c.password
}

// TLSConfig returns the pinned TLS configuration, or nil when the
// default negotiation applies.
func (c *Client) TLSConfig() *tls.Config {
	return c.tlsConf
}

// get performs an authenticated GET and decodes the XML response into out.
// A nil out discards the body after status checking.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d from %s", ErrAuthFailed, resp.StatusCode, path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d from %s", ErrRequestFailed, resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", path, err)
	}

	if out == nil {
		return nil
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// requireConnected guards directory fetches behind a successful Open().
func (c *Client) requireConnected() error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return nil
}

// logInfo logs at info level if a logger is configured.
func (c *Client) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

// logWarn logs at warn level if a logger is configured.
func (c *Client) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// logDebug logs at debug level if a logger is configured.
func (c *Client) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

// configurationXML mirrors the /rest/config response document.
type configurationXML struct {
	XMLName     xml.Name `xml:"configuration"`
	AppVersion  string   `xml:"app_version"`
	Platform    string   `xml:"platform"`
	DeviceSpecs struct {
		Model string `xml:"model"`
		Make  string `xml:"make"`
	} `xml:"deviceSpecs"`
	Root struct {
		Name string `xml:"name"`
	} `xml:"root"`
	Features []struct {
		ID        string `xml:"id"`
		Desc      string `xml:"desc"`
		Installed bool   `xml:"isInstalled"`
	} `xml:"features>feature"`
}

// restResponse is the command acknowledgement envelope returned by the
// controller for command endpoints.
type restResponse struct {
	XMLName   xml.Name `xml:"RestResponse"`
	Succeeded bool     `xml:"succeeded,attr"`
	Status    int      `xml:"status"`
}
