package ogmios

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultTimeout bounds each request, including the connect.
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	URL     string // ws:// or wss:// endpoint
	Timeout time.Duration
}

func NewConfig(endpoint string, timeout time.Duration) *Config {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Config{
		URL:     endpoint,
		Timeout: timeout,
	}
}

// String returns a custom string representation.
//
// Hosted endpoints carry credentials in the URL so they are not logged.
func (c Config) String() string {
	return fmt.Sprintf("{URL:%v Timeout:%v}", redact(c.URL), c.Timeout)
}

func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "****"
	}
	if len(u.RawQuery) > 0 {
		u.RawQuery = "****"
	}
	return u.Redacted()
}
