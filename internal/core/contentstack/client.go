package contentstack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Content type uids of the stack.
const (
	ctUsers         = "users"
	ctOrganizations = "organizations"
	ctFAQs          = "faqs"
	ctDocuments     = "documents"
)

type Options struct {
	APIBase         string // management API, e.g. https://api.contentstack.io/v3
	CDNBase         string // delivery API, e.g. https://cdn.contentstack.io/v3
	APIKey          string
	ManagementToken string
	DeliveryToken   string
	Environment     string
	Locale          string
	WriteRate       float64 // management requests per second; <= 0 disables throttling
	Timeout         time.Duration
}

// Client talks to a Contentstack stack: writes through the management API,
// reads through the delivery API. Every write is published before it returns
// because unpublished entries are invisible to delivery queries.
type Client struct {
	mgmt    *resty.Client
	cdn     *resty.Client
	env     string
	locale  string
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("contentstack: api key is empty")
	}
	if opts.ManagementToken == "" || opts.DeliveryToken == "" {
		return nil, errors.New("contentstack: management and delivery tokens are required")
	}
	if opts.Environment == "" {
		opts.Environment = "development"
	}
	if opts.Locale == "" {
		opts.Locale = "en-us"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.WriteRate > 0 {
		burst := int(opts.WriteRate)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.WriteRate), burst)
	}

	mgmt := resty.New().
		SetBaseURL(opts.APIBase).
		SetTimeout(opts.Timeout).
		SetHeader("api_key", opts.APIKey).
		SetHeader("authorization", opts.ManagementToken).
		SetHeader("Content-Type", "application/json")

	cdn := resty.New().
		SetBaseURL(opts.CDNBase).
		SetTimeout(opts.Timeout).
		SetHeader("api_key", opts.APIKey).
		SetHeader("access_token", opts.DeliveryToken)

	return &Client{
		mgmt:    mgmt,
		cdn:     cdn,
		env:     opts.Environment,
		locale:  opts.Locale,
		limiter: limiter,
		log:     logger,
	}, nil
}

// apiError is the error body Contentstack returns on 4xx/5xx.
type apiError struct {
	ErrorMessage string         `json:"error_message"`
	ErrorCode    int            `json:"error_code"`
	Errors       map[string]any `json:"errors"`
}

func responseError(op string, resp *resty.Response) error {
	if e, ok := resp.Error().(*apiError); ok && e.ErrorMessage != "" {
		return fmt.Errorf("contentstack: %s: status %d: %s (code %d)", op, resp.StatusCode(), e.ErrorMessage, e.ErrorCode)
	}
	return fmt.Errorf("contentstack: %s: status %d: %s", op, resp.StatusCode(), resp.String())
}

// identified is satisfied by every entry schema through entrySystem.
type identified interface {
	entryUID() string
}

func createEntry[E identified](ctx context.Context, c *Client, contentType string, fields any) (*E, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out struct {
		Entry E `json:"entry"`
	}
	op := "create " + contentType + " entry"
	resp, err := c.mgmt.R().
		SetContext(ctx).
		SetPathParam("ct", contentType).
		SetQueryParam("locale", c.locale).
		SetBody(map[string]any{"entry": fields}).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/content_types/{ct}/entries")
	if err != nil {
		return nil, fmt.Errorf("contentstack: %s: %w", op, err)
	}
	if resp.IsError() {
		return nil, responseError(op, resp)
	}

	uid := out.Entry.entryUID()
	if uid == "" {
		return nil, fmt.Errorf("contentstack: %s: response has no entry uid", op)
	}
	if err := c.publish(ctx, contentType, uid); err != nil {
		return nil, err
	}
	c.log.Debug("contentstack entry created", zap.String("content_type", contentType), zap.String("uid", uid))
	return &out.Entry, nil
}

func updateEntry[E identified](ctx context.Context, c *Client, contentType, uid string, fields any) (*E, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out struct {
		Entry E `json:"entry"`
	}
	op := "update " + contentType + " entry"
	resp, err := c.mgmt.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"ct": contentType, "uid": uid}).
		SetQueryParam("locale", c.locale).
		SetBody(map[string]any{"entry": fields}).
		SetResult(&out).
		SetError(&apiError{}).
		Put("/content_types/{ct}/entries/{uid}")
	if err != nil {
		return nil, fmt.Errorf("contentstack: %s: %w", op, err)
	}
	if resp.IsError() {
		return nil, responseError(op, resp)
	}
	if err := c.publish(ctx, contentType, uid); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

func (c *Client) publish(ctx context.Context, contentType, uid string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body := map[string]any{
		"entry": map[string]any{
			"environments": []string{c.env},
			"locales":      []string{c.locale},
		},
	}
	op := "publish " + contentType + " entry " + uid
	resp, err := c.mgmt.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"ct": contentType, "uid": uid}).
		SetBody(body).
		SetError(&apiError{}).
		Post("/content_types/{ct}/entries/{uid}/publish")
	if err != nil {
		return fmt.Errorf("contentstack: %s: %w", op, err)
	}
	if resp.IsError() {
		return responseError(op, resp)
	}
	return nil
}

// queryEntries returns the published entries whose field equals value.
// Entries without a uid fail schema validation and are dropped.
func queryEntries[E identified](ctx context.Context, c *Client, contentType, field, value string) ([]E, error) {
	filter, err := json.Marshal(map[string]string{field: value})
	if err != nil {
		return nil, err
	}

	var out struct {
		Entries []E `json:"entries"`
	}
	op := "query " + contentType
	resp, err := c.cdn.R().
		SetContext(ctx).
		SetPathParam("ct", contentType).
		SetQueryParams(map[string]string{
			"environment": c.env,
			"locale":      c.locale,
			"query":       string(filter),
		}).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/content_types/{ct}/entries")
	if err != nil {
		return nil, fmt.Errorf("contentstack: %s: %w", op, err)
	}
	if resp.IsError() {
		return nil, responseError(op, resp)
	}

	entries := out.Entries[:0]
	for _, e := range out.Entries {
		if e.entryUID() == "" {
			c.log.Warn("contentstack entry without uid dropped", zap.String("content_type", contentType))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// getEntry fetches one published entry; a missing entry is (nil, nil).
func getEntry[E identified](ctx context.Context, c *Client, contentType, uid string) (*E, error) {
	if uid == "" {
		return nil, nil
	}

	var out struct {
		Entry E `json:"entry"`
	}
	op := "get " + contentType + " entry"
	resp, err := c.cdn.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"ct": contentType, "uid": uid}).
		SetQueryParams(map[string]string{"environment": c.env, "locale": c.locale}).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/content_types/{ct}/entries/{uid}")
	if err != nil {
		return nil, fmt.Errorf("contentstack: %s: %w", op, err)
	}
	// The delivery API answers 422 (error_code 141) for unknown entry uids.
	if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusUnprocessableEntity {
		return nil, nil
	}
	if resp.IsError() {
		return nil, responseError(op, resp)
	}
	if out.Entry.entryUID() == "" {
		return nil, nil
	}
	return &out.Entry, nil
}

func first[E any](entries []E) *E {
	if len(entries) == 0 {
		return nil
	}
	return &entries[0]
}
