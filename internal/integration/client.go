// Package integration is a client for the HTTP endpoints of a running glove
// service.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"golang.org/x/net/context/ctxhttp"

	"github.com/go-sod/glove/internal/httputil"
	"github.com/go-sod/glove/internal/predict"
)

type prefixRoundTripper struct {
	addr string
	rt   http.RoundTripper
}

func (p *prefixRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	u := r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = p.addr
	}

	return p.rt.RoundTrip(r)
}

// NewClient returns a client resolving relative paths against addr
// (host:port).
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	rt, err := httputil.NewRoundTripperFromConfig(httputil.HTTPClientConfig{UserAgent: httputil.UserAgent, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("unable create round tripper: %w", err)
	}
	return &Client{client: &http.Client{
		Transport: &prefixRoundTripper{addr: addr, rt: rt},
		Timeout:   timeout,
	}}, nil
}

type Client struct {
	client *http.Client
}

// Predict classifies vectors remotely. Items come back in request order.
func (c *Client) Predict(ctx context.Context, vectors ...[]float64) (*predict.Response, error) {
	r := predict.Request{Data: make([]predict.Vector, len(vectors))}
	for i, v := range vectors {
		r.Data[i] = predict.Vector{Vec: v}
	}
	b, err := json.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("unable marshal predict request: %w", err)
	}

	resp, err := ctxhttp.Post(ctx, c.client, "/predict", "application/json", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("error with sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(resp.Body)
		return nil, fmt.Errorf("predict: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var out predict.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("unable decode predict response: %w", err)
	}
	return &out, nil
}

// Health reports whether the collector is running, with the raw status body.
func (c *Client) Health(ctx context.Context) (bool, json.RawMessage, error) {
	resp, err := ctxhttp.Get(ctx, c.client, "/health")
	if err != nil {
		return false, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return false, nil, fmt.Errorf("read health body: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return true, body, nil
	case http.StatusServiceUnavailable:
		return false, body, nil
	default:
		return false, body, fmt.Errorf("health: unexpected status %d", resp.StatusCode)
	}
}
