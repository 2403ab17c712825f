package dvsa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
	"github.com/motcheck/motcheck-engine/pkg/config"
	"github.com/motcheck/motcheck-engine/pkg/logging"
)

// tokenSafetyMargin is subtracted from the issued token lifetime so a token is
// never presented moments before it expires upstream.
const tokenSafetyMargin = 10 * time.Minute

// tokenResponse is the client-credentials grant response from Microsoft Entra ID.
type tokenResponse struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	AccessToken string `json:"access_token"`
}

// Client fetches vehicle MOT history from the DVSA trade API. The bearer token
// from the client-credentials exchange is cached on the client under a mutex;
// all other state is immutable after construction.
type Client struct {
	cfg        config.DVSAConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a DVSA API client. Credentials are not validated here;
// Fetch checks them before any network call so an unconfigured deployment
// still starts and serves cached records.
func NewClient(cfg config.DVSAConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		logger: logger.Named("dvsa"),
	}
}

// Fetch retrieves the MOT history record for a canonicalized registration.
// It makes a single attempt with no retries; callers decide how to degrade.
func (c *Client) Fetch(ctx context.Context, registration string) (*VehicleRecord, error) {
	if !c.cfg.Configured() {
		return nil, fmt.Errorf("%w: DVSA_CLIENT_ID, DVSA_CLIENT_SECRET, DVSA_TOKEN_URL and DVSA_API_KEY are required", apperrors.ErrNotConfigured)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/trade/vehicles/registration/" + url.PathEscape(registration)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Fetching MOT data from DVSA API", zap.String("registration", registration))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read DVSA response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.mapStatusError(resp.StatusCode, registration, body)
	}

	record, err := decodeVehicleRecord(body, registration)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched MOT data",
		zap.String("registration", record.Registration),
		zap.String("make", record.Make),
		zap.String("model", record.Model),
		zap.Int("mot_tests", len(record.MotTests)))

	return record, nil
}

// accessToken returns a valid cached token or performs the client-credentials
// exchange. The mutex is held across the refresh so concurrent fetches do not
// race to authenticate twice.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"scope":         {c.cfg.Scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("DVSA token exchange failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.SanitizeBody(string(body))))
		return "", fmt.Errorf("%w: token exchange returned status %d", apperrors.ErrUpstreamAuth, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: failed to decode token response", apperrors.ErrUpstreamAuth)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", apperrors.ErrUpstreamAuth)
	}

	lifetime := time.Duration(tok.ExpiresIn) * time.Second
	if lifetime > tokenSafetyMargin {
		lifetime -= tokenSafetyMargin
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(lifetime)

	return c.token, nil
}

// mapStatusError maps upstream HTTP status codes onto the error taxonomy.
func (c *Client) mapStatusError(status int, registration string, body []byte) error {
	c.logger.Warn("DVSA API returned error",
		zap.Int("status", status),
		zap.String("registration", registration),
		zap.String("body", logging.SanitizeBody(string(body))))

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperrors.ErrVehicleNotFound, strings.ToUpper(registration))
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: please check your credentials", apperrors.ErrUpstreamAuth)
	case http.StatusForbidden:
		return fmt.Errorf("%w: please check your API key and permissions", apperrors.ErrUpstreamForbidden)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: please try again later", apperrors.ErrRateLimited)
	default:
		return fmt.Errorf("%w: unexpected status %d", apperrors.ErrUpstreamUnavailable, status)
	}
}

// mapTransportError maps timeouts and cancellation onto the error taxonomy.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", apperrors.ErrUpstreamUnavailable)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: request timed out", apperrors.ErrUpstreamUnavailable)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
}

// decodeVehicleRecord parses a trade API payload. The API historically
// returned either a single object or a one-element array; both are accepted.
func decodeVehicleRecord(body []byte, registration string) (*VehicleRecord, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response body", apperrors.ErrInvalidUpstreamData)
	}

	var record VehicleRecord
	if strings.HasPrefix(trimmed, "[") {
		var records []VehicleRecord
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidUpstreamData, err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrVehicleNotFound, strings.ToUpper(registration))
		}
		record = records[0]
	} else {
		if err := json.Unmarshal(body, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidUpstreamData, err)
		}
	}

	if record.Registration == "" || record.Make == "" || record.Model == "" {
		return nil, fmt.Errorf("%w: missing registration, make or model", apperrors.ErrInvalidUpstreamData)
	}

	record.Source = SourceTradeAPI
	return &record, nil
}
