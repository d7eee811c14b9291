package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// Address is the free-form location typed into client and agent forms.
type Address struct {
	Street     string
	Number     string
	District   string
	City       string
	State      string
	PostalCode string
}

// Full joins every populated part into one query string.
func (a Address) Full() string {
	street := strings.TrimSpace(a.Street)
	if n := strings.TrimSpace(a.Number); street != "" && n != "" {
		street += ", " + n
	}
	return joinNonEmpty(street, a.District, a.City, a.State, a.PostalCode, "Brasil")
}

// CityState is the coarse fallback query.
func (a Address) CityState() string {
	if strings.TrimSpace(a.City) == "" && strings.TrimSpace(a.State) == "" {
		return ""
	}
	return joinNonEmpty(a.City, a.State, "Brasil")
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, ", ")
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves addresses against a Nominatim-compatible search API.
// Upstream calls are serialized and spaced by a fixed delay. Cache hits skip both.
type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	delay      time.Duration
	cache      Cache
	cacheTTL   time.Duration
	logger     *zap.Logger

	mu    sync.Mutex
	last  time.Time
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewGeocoder builds the geocoder.
func NewGeocoder(opts ...Option) *Geocoder {
	o := buildOptions(defaultNominatimURL, opts)
	delay := defaultRequestDelay
	if o.delay != nil {
		delay = *o.delay
	}
	return &Geocoder{
		httpClient: o.httpClient,
		baseURL:    o.baseURL,
		userAgent:  o.userAgent,
		delay:      delay,
		cache:      o.cache,
		cacheTTL:   o.cacheTTL,
		logger:     o.logger,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Geocode tries the full address, then city and state. The first candidate of
// the first non-empty answer wins. No match at either step returns nil, nil.
func (g *Geocoder) Geocode(ctx context.Context, addr Address) (*Coordinates, error) {
	if g == nil {
		return nil, nil
	}
	full := addr.Full()
	if full != "" && full != "Brasil" {
		coords, err := g.search(ctx, full)
		if err != nil || coords != nil {
			return coords, err
		}
	}

	fallback := addr.CityState()
	if fallback == "" || fallback == full {
		return nil, nil
	}
	g.logger.Debug("geocode falling back to city/state", zap.String("query", fallback))
	return g.search(ctx, fallback)
}

func (g *Geocoder) search(ctx context.Context, query string) (*Coordinates, error) {
	key := "geocode:" + strings.ToLower(query)
	if g.cache != nil {
		if raw, ok, err := g.cache.Get(ctx, key); err == nil && ok {
			var cached Coordinates
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	coords, err := g.fetch(ctx, query)
	if err != nil || coords == nil || g.cache == nil {
		return coords, err
	}
	if payload, err := json.Marshal(coords); err == nil {
		if err := g.cache.Set(ctx, key, string(payload), g.cacheTTL); err != nil {
			g.logger.Warn("geocode cache write failed", zap.Error(err))
		}
	}
	return coords, nil
}

func (g *Geocoder) fetch(ctx context.Context, query string) (*Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() && g.delay > 0 {
		if wait := g.delay - g.now().Sub(g.last); wait > 0 {
			if err := g.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	defer func() { g.last = g.now() }()

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	endpoint := fmt.Sprintf("%s/search?%s", g.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewUpstreamError("geocoding", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("geocoding", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, apperrors.NewUpstreamError("geocoding", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var candidates []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, apperrors.NewUpstreamError("geocoding", fmt.Errorf("decode response: %w", err))
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(candidates[0].Lat, 64)
	if err != nil {
		return nil, apperrors.NewUpstreamError("geocoding", fmt.Errorf("parse lat: %w", err))
	}
	lon, err := strconv.ParseFloat(candidates[0].Lon, 64)
	if err != nil {
		return nil, apperrors.NewUpstreamError("geocoding", fmt.Errorf("parse lon: %w", err))
	}
	return &Coordinates{Latitude: lat, Longitude: lon}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
