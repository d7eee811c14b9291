// Package geo wraps the public geocoding and postal-code services used to place
// clients and agents on the map.
package geo

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultNominatimURL         = "https://nominatim.openstreetmap.org"
	defaultPostalURL            = "https://viacep.com.br/ws"
	defaultUserAgent            = "dispatch-service/1.0"
	defaultRequestDelay         = 1100 * time.Millisecond
	defaultCacheTTL             = 24 * time.Hour
	responseBodyReadLimit int64 = 1024
)

type options struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	delay      *time.Duration
	cache      Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Option configures optional client behavior.
type Option func(*options)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL overrides the upstream base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			o.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithUserAgent sets the identifying User-Agent sent upstream.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(userAgent); trimmed != "" {
			o.userAgent = trimmed
		}
	}
}

// WithRequestDelay sets the pause between sequential upstream calls. Zero disables it.
func WithRequestDelay(delay time.Duration) Option {
	return func(o *options) {
		if delay >= 0 {
			o.delay = &delay
		}
	}
}

// WithCache enables result caching.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = cache
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(defaultBase string, opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBase,
		userAgent:  defaultUserAgent,
		cacheTTL:   defaultCacheTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
