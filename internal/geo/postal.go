package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// PostalAddress is the structured answer for a postal code.
type PostalAddress struct {
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	NotFound   bool   `json:"not_found"`
}

// PostalLookup queries a ViaCEP-compatible service.
type PostalLookup struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewPostalLookup builds the lookup client.
func NewPostalLookup(opts ...Option) *PostalLookup {
	o := buildOptions(defaultPostalURL, opts)
	return &PostalLookup{
		httpClient: o.httpClient,
		baseURL:    o.baseURL,
		userAgent:  o.userAgent,
		cache:      o.cache,
		cacheTTL:   o.cacheTTL,
		logger:     o.logger,
	}
}

// NormalizePostalCode strips punctuation and reports whether eight digits remain.
func NormalizePostalCode(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
		default:
			return "", false
		}
	}
	digits := b.String()
	return digits, len(digits) == 8
}

// Lookup resolves code. An unknown code returns NotFound rather than an error.
func (p *PostalLookup) Lookup(ctx context.Context, code string) (*PostalAddress, error) {
	digits, ok := NormalizePostalCode(code)
	if !ok {
		return nil, apperrors.NewValidationError("postal code must have 8 digits", map[string]any{"postal_code": code})
	}

	if cached := p.fromCache(ctx, digits); cached != nil {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/%s/json/", p.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewUpstreamError("postal lookup", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("postal lookup", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &PostalAddress{PostalCode: digits, NotFound: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, apperrors.NewUpstreamError("postal lookup", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var body struct {
		Erro       json.RawMessage `json:"erro"`
		Logradouro string          `json:"logradouro"`
		Bairro     string          `json:"bairro"`
		Localidade string          `json:"localidade"`
		UF         string          `json:"uf"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewUpstreamError("postal lookup", fmt.Errorf("decode response: %w", err))
	}
	if isErrorFlag(body.Erro) {
		return &PostalAddress{PostalCode: digits, NotFound: true}, nil
	}

	result := &PostalAddress{
		PostalCode: digits,
		Street:     body.Logradouro,
		District:   body.Bairro,
		City:       body.Localidade,
		State:      body.UF,
	}
	p.toCache(ctx, digits, result)
	return result, nil
}

// isErrorFlag accepts both the boolean and the string form of the flag.
func isErrorFlag(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return bytes.Equal(trimmed, []byte("true")) || bytes.Equal(trimmed, []byte(`"true"`))
}

func (p *PostalLookup) fromCache(ctx context.Context, digits string) *PostalAddress {
	if p.cache == nil {
		return nil
	}
	raw, ok, err := p.cache.Get(ctx, digits)
	if err != nil {
		p.logger.Warn("postal cache read failed", zap.String("postal_code", digits), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var cached PostalAddress
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil
	}
	return &cached
}

func (p *PostalLookup) toCache(ctx context.Context, digits string, result *PostalAddress) {
	if p.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, digits, string(payload), p.cacheTTL); err != nil {
		p.logger.Warn("postal cache write failed", zap.String("postal_code", digits), zap.Error(err))
	}
}
