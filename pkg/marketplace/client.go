package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	resourceGoods    = "goods"
	resourceServices = "services"
)

var (
	// ErrNotFound is returned when the backend answers 404 for an entity.
	ErrNotFound = errors.New("marketplace: entity not found")
	// ErrBackend is returned for non-2xx answers other than 404.
	ErrBackend = errors.New("marketplace: backend request failed")
)

// Config holds connection settings for the marketplace backend.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
	Debug     bool
}

// Client talks to the marketplace backend that owns goods and service listings.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient constructs a new backend client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		rateLimiter: limiter,
		debug:       cfg.Debug,
	}
}

// GetGoods fetches a goods listing by numeric id.
func (c *Client) GetGoods(ctx context.Context, id int64) (*GoodsEntity, error) {
	var g GoodsEntity
	if err := c.getOne(ctx, "/"+resourceGoods+"/"+strconv.FormatInt(id, 10), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGoodsBySlug fetches a goods listing by slug.
func (c *Client) GetGoodsBySlug(ctx context.Context, slug string) (*GoodsEntity, error) {
	var g GoodsEntity
	if err := c.getOne(ctx, "/"+resourceGoods+"/slug/"+url.PathEscape(slug), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGoods fetches up to limit goods listings.
func (c *Client) ListGoods(ctx context.Context, limit int) ([]GoodsEntity, error) {
	var goods []GoodsEntity
	if err := c.doRequest(ctx, http.MethodGet, listPath(resourceGoods, limit), nil, &goods); err != nil {
		return nil, err
	}
	return goods, nil
}

// UpdateGoodsStatus patches the goods_status field.
func (c *Client) UpdateGoodsStatus(ctx context.Context, id int64, status string) (bool, error) {
	return c.updateStatus(ctx, resourceGoods, id, status)
}

// DeleteGoods removes a goods listing.
func (c *Client) DeleteGoods(ctx context.Context, id int64) (bool, error) {
	return c.delete(ctx, resourceGoods, id)
}

// GetService fetches a service listing by numeric id.
func (c *Client) GetService(ctx context.Context, id int64) (*ServiceEntity, error) {
	var s ServiceEntity
	if err := c.getOne(ctx, "/"+resourceServices+"/"+strconv.FormatInt(id, 10), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetServiceBySlug fetches a service listing by slug.
func (c *Client) GetServiceBySlug(ctx context.Context, slug string) (*ServiceEntity, error) {
	var s ServiceEntity
	if err := c.getOne(ctx, "/"+resourceServices+"/slug/"+url.PathEscape(slug), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListServices fetches up to limit service listings.
func (c *Client) ListServices(ctx context.Context, limit int) ([]ServiceEntity, error) {
	var services []ServiceEntity
	if err := c.doRequest(ctx, http.MethodGet, listPath(resourceServices, limit), nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// UpdateServiceStatus patches the service_status field.
func (c *Client) UpdateServiceStatus(ctx context.Context, id int64, status string) (bool, error) {
	return c.updateStatus(ctx, resourceServices, id, status)
}

// DeleteService removes a service listing.
func (c *Client) DeleteService(ctx context.Context, id int64) (bool, error) {
	return c.delete(ctx, resourceServices, id)
}

// Ping checks the backend health endpoint. Any 2xx answer counts as healthy.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}
	return nil
}

// getOne fetches a single entity. A success envelope without data means the
// entity does not exist.
func (c *Client) getOne(ctx context.Context, endpoint string, result any) error {
	var data json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &data); err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

func (c *Client) updateStatus(ctx context.Context, resource string, id int64, status string) (bool, error) {
	path := "/" + resource + "/" + strconv.FormatInt(id, 10) + "/status"
	err := c.doRequest(ctx, http.MethodPatch, path, StatusUpdateRequest{Status: status}, nil)
	return confirmed(err)
}

func (c *Client) delete(ctx context.Context, resource string, id int64) (bool, error) {
	err := c.doRequest(ctx, http.MethodDelete, "/"+resource+"/"+strconv.FormatInt(id, 10), nil, nil)
	return confirmed(err)
}

// rejectedError marks an answer where the backend processed the call but said no.
type rejectedError struct {
	message string
}

func (e *rejectedError) Error() string {
	return "marketplace: request rejected: " + e.message
}

// confirmed turns a mutation outcome into the (success, error) pair callers expect:
// a rejection is (false, nil), a transport fault is (false, err).
func confirmed(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var rej *rejectedError
	if errors.As(err, &rej) {
		log.Warn().Str("message", rej.message).Msg("[MARKETPLACE] Mutation rejected")
		return false, nil
	}
	return false, err
}

func listPath(resource string, limit int) string {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if len(params) == 0 {
		return "/" + resource
	}
	return "/" + resource + "?" + params.Encode()
}

// doRequest performs the HTTP call, unwraps the {success,message,data} envelope
// and decodes data into result when result is non-nil.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	if c.debug {
		ev := log.Debug().Str("method", method).Str("endpoint", c.baseURL+endpoint)
		if payload != nil {
			ev = ev.RawJSON("request", payload)
		}
		ev.Msg("[MARKETPLACE] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(respBody)).
			Msg("[MARKETPLACE] Incoming response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var envelope apiResponse
	hasBody := len(bytes.TrimSpace(respBody)) > 0
	if hasBody {
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			if resp.StatusCode >= 300 {
				return fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
			}
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	switch {
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return &rejectedError{message: envelope.Message}
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, envelope.Message)
	case hasBody && !envelope.Success:
		return &rejectedError{message: envelope.Message}
	}

	if result == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
