// Package poll fetches frames from a networked glove by issuing one GET per
// tick against base URL + counter.
package poll

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/context/ctxhttp"

	"github.com/go-sod/glove/internal/httputil"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/transport"
)

// maxFrameBytes caps a device response; a frame is a handful of numbers.
const maxFrameBytes = 4 << 10

type Config struct {
	BaseURL           string        `envconfig:"GLOVE_POLL_BASE_URL" default:"http://192.168.137.233/"`
	Timeout           time.Duration `envconfig:"GLOVE_POLL_TIMEOUT" default:"5s"`
	BasicAuthUser     string        `envconfig:"GLOVE_POLL_BASIC_AUTH_USER"`
	BasicAuthPassword string        `envconfig:"GLOVE_POLL_BASIC_AUTH_PASSWORD"`
	// Devices often mishandle persistent connections
	DisableKeepAlives bool `envconfig:"GLOVE_POLL_DISABLE_KEEP_ALIVES" default:"true"`
}

func (c *Config) HTTPClientConfig() httputil.HTTPClientConfig {
	return httputil.HTTPClientConfig{
		BasicAuthUser:     c.BasicAuthUser,
		BasicAuthPassword: c.BasicAuthPassword,
		UserAgent:         httputil.UserAgent,
		Timeout:           c.Timeout,
		DisableKeepAlives: c.DisableKeepAlives,
	}
}

type Option func(*Transport)

func WithClient(c *http.Client) Option {
	return func(t *Transport) {
		t.client = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = d
	}
}

var _ transport.Transport = (*Transport)(nil)

type Transport struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func New(baseURL string, opts ...Option) (*Transport, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("poll base url is not defined")
	}
	t := &Transport{baseURL: baseURL, client: http.DefaultClient}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func NewFromConfig(cfg *Config) (*Transport, error) {
	client, err := httputil.NewClientFromConfig(cfg.HTTPClientConfig())
	if err != nil {
		return nil, fmt.Errorf("poll transport: %w", err)
	}
	return New(cfg.BaseURL, WithClient(client), WithTimeout(cfg.Timeout))
}

// URL returns the address polled for tick seq.
func (t *Transport) URL(seq uint64) string {
	return t.baseURL + strconv.FormatUint(seq, 10)
}

// Next returns the response body verbatim; any transport or status failure is
// reported as transport.ErrTransferFailed.
func (t *Transport) Next(ctx context.Context, seq uint64) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	url := t.URL(seq)
	resp, err := ctxhttp.Get(ctx, t.client, url)
	if err != nil {
		return "", transport.Failed("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return "", transport.Failed("read body of %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", transport.Failed("GET %s: response was not 200 OK: %d", url, resp.StatusCode)
	}
	logging.FromContext(ctx).Debugf("poll %s: %d bytes", url, len(body))
	return string(body), nil
}

func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
