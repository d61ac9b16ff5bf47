package httputil

import (
	"fmt"
	"time"
)

const UserAgent = "glove/0.1"

// HTTPClientConfig configures an outbound client.
type HTTPClientConfig struct {
	BearerToken       string
	BasicAuthUser     string
	BasicAuthPassword string
	UserAgent         string
	Timeout           time.Duration
	DisableKeepAlives bool
}

func (c *HTTPClientConfig) BasicAuth() *BasicAuth {
	if c.BasicAuthUser == "" {
		return nil
	}
	return &BasicAuth{Username: c.BasicAuthUser, Password: c.BasicAuthPassword}
}

func (c *HTTPClientConfig) Validate() error {
	if len(c.BearerToken) > 0 && c.BasicAuthUser != "" {
		return fmt.Errorf("at most one of basic_auth & bearer_token must be configured")
	}
	if c.BasicAuthUser == "" && c.BasicAuthPassword != "" {
		return fmt.Errorf("basic_auth password is set without a username")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

type BasicAuth struct {
	Username string
	Password string
}
