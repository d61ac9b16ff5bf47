// Package thingspeak uploads each prediction to a ThingSpeak channel with a
// single GET per call.
package thingspeak

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/context/ctxhttp"

	"github.com/go-sod/glove/internal/httputil"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/sink"
)

type Config struct {
	// Unset means the deployment profile decides
	Enabled *bool         `envconfig:"GLOVE_THINGSPEAK_ENABLED"`
	URL     string        `envconfig:"GLOVE_THINGSPEAK_URL" default:"https://api.thingspeak.com/update"`
	APIKey  string        `envconfig:"GLOVE_THINGSPEAK_API_KEY"`
	Timeout time.Duration `envconfig:"GLOVE_THINGSPEAK_TIMEOUT" default:"10s"`
}

// IsEnabled returns the explicit setting, or def when none was given.
func (c *Config) IsEnabled(def bool) bool {
	if c.Enabled == nil {
		return def
	}
	return *c.Enabled
}

var _ sink.Telemetry = (*Client)(nil)

type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func New(endpoint, apiKey string, client *http.Client) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("thingspeak url is not defined")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("thingspeak api key is not defined")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, client: client}, nil
}

func NewFromConfig(cfg *Config) (*Client, error) {
	client, err := httputil.NewClientFromConfig(httputil.HTTPClientConfig{
		UserAgent: httputil.UserAgent,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("thingspeak: %w", err)
	}
	return New(cfg.URL, cfg.APIKey, client)
}

func (c *Client) Name() string { return "thingspeak" }

// UpdateURL encodes the reading as field1..fieldN and the prediction as the
// field after them.
func (c *Client) UpdateURL(r reading.Reading, p reading.Prediction) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse thingspeak url: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	for i, v := range r.Strings() {
		q.Set("field"+strconv.Itoa(i+1), v)
	}
	q.Set("field"+strconv.Itoa(len(r)+1), p.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send reports a non-200 status, or a body of "0" (ThingSpeak rejected the
// update, usually rate limiting), as an error.
func (c *Client) Send(ctx context.Context, r reading.Reading, p reading.Prediction) error {
	logger := logging.FromContext(ctx)
	u, err := c.UpdateURL(r, p)
	if err != nil {
		return err
	}
	resp, err := ctxhttp.Get(ctx, c.client, u)
	if err != nil {
		return fmt.Errorf("thingspeak upload error: %w", err)
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Errorf("read thingspeak response: %w", err)
	}
	logger.Infof("ThingSpeak status code: %d", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thingspeak response was not 200 OK: %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) == "0" {
		return fmt.Errorf("thingspeak rejected the update")
	}
	return nil
}
