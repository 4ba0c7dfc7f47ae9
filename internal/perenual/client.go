// Package perenual looks up plant care details from the Perenual API.
package perenual

import (
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

	"github.com/iliyamo/floradex/internal/logging"
	"github.com/iliyamo/floradex/internal/model"
)

const apiName = "perenual"

const invalidKeyMarker = "Missing/Issue with API Key"

// CallObserver receives one notification per outbound request.
type CallObserver interface {
	ObserveExternalCall(api, op, status string, elapsed time.Duration)
}

// Client resolves plant names to care records.  It is safe for
// concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logging.Logger
	observer   CallObserver
}

// Option customises a Client.
type Option func(*Client)

// WithObserver reports every request to o.
func WithObserver(o CallObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client.  Zero config fields take the package
// defaults.
func NewClient(config Config, opts ...Option) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if config.APIKey == "" {
		c.log.Warn("care API key not set, care lookups are disabled")
	}
	return c
}

// Default returns the fallback record for name.
func (c *Client) Default(name string) model.CareInfo { return Default(name) }

// CareByName searches for name and its variants and returns the details
// of the first hit.  The record falls back to Default(name) when nothing
// matches, when the API is rate limited, or when the details lookup
// fails.  A rejected API key and transport failures during the search
// are returned as *LookupError.
func (c *Client) CareByName(ctx context.Context, name string) (model.CareInfo, error) {
	if c.config.APIKey == "" {
		return model.CareInfo{}, &LookupError{Query: name, Err: ErrNotConfigured}
	}

	for _, term := range Variants(name) {
		id, outcome, err := c.search(ctx, term)
		if err != nil {
			return model.CareInfo{}, &LookupError{Query: term, Err: err}
		}
		switch outcome {
		case searchRateLimited:
			c.log.Warn("care API rate limited, using defaults", "query", term)
			return Default(name), nil
		case searchMiss:
			continue
		}

		care, ok := c.details(ctx, id)
		if !ok {
			return Default(name), nil
		}
		care.MatchedQuery = term
		c.log.Debug("care details resolved", "query", name, "matched", term, "external_id", id)
		return care, nil
	}

	c.log.Info("no care record found", "query", name)
	return Default(name), nil
}

// Details fetches care details by Perenual species id.  Every failure
// yields the default record labelled with the id.
func (c *Client) Details(ctx context.Context, id int64) (model.CareInfo, error) {
	if c.config.APIKey == "" {
		return model.CareInfo{}, ErrNotConfigured
	}
	care, ok := c.details(ctx, id)
	if !ok {
		return Default(fmt.Sprintf("Plant ID: %d", id)), nil
	}
	return care, nil
}

type searchOutcome int

const (
	searchHit searchOutcome = iota
	searchMiss
	searchRateLimited
)

func (c *Client) search(ctx context.Context, term string) (int64, searchOutcome, error) {
	q := url.Values{"key": {c.config.APIKey}, "q": {term}}
	status, body, err := c.get(ctx, "search", c.config.BaseURL+"/species-list?"+q.Encode())
	if err != nil {
		return 0, searchMiss, err
	}

	switch {
	case status == http.StatusTooManyRequests:
		return 0, searchRateLimited, nil
	case status == http.StatusNotFound && strings.Contains(string(body), invalidKeyMarker):
		c.log.Error("care API rejected the configured key")
		return 0, searchMiss, ErrInvalidAPIKey
	case status != http.StatusOK:
		c.log.Warn("care search failed", "query", term, "status", status)
		return 0, searchMiss, nil
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		c.log.Warn("care search returned an unreadable body", "query", term, "error", err)
		return 0, searchMiss, nil
	}
	if len(res.Data) == 0 || !res.Data[0].ID.Valid {
		c.log.Debug("care search found nothing", "query", term)
		return 0, searchMiss, nil
	}
	return int64(res.Data[0].ID.Value), searchHit, nil
}

// details returns false when no usable record could be read.
func (c *Client) details(ctx context.Context, id int64) (model.CareInfo, bool) {
	endpoint := fmt.Sprintf("%s/species/details/%d?%s", c.config.BaseURL, id,
		url.Values{"key": {c.config.APIKey}}.Encode())
	status, body, err := c.get(ctx, "details", endpoint)
	if err != nil {
		c.log.Warn("care details request failed", "external_id", id, "error", err)
		return model.CareInfo{}, false
	}
	if status != http.StatusOK {
		c.log.Warn("care details failed", "external_id", id, "status", status)
		return model.CareInfo{}, false
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil || p == nil {
		c.log.Warn("care details returned an unreadable body", "external_id", id)
		return model.CareInfo{}, false
	}
	care := extractCare(p)
	if blank(care) {
		c.log.Warn("care details carry no care data", "external_id", id)
		return model.CareInfo{}, false
	}
	if care.ExternalID == 0 {
		care.ExternalID = id
	}
	return care, true
}

func (c *Client) get(ctx context.Context, op, endpoint string) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, "error", start)
		// the request URL carries the API key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return 0, nil, fmt.Errorf("care API %s: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	c.observe(op, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		return 0, nil, fmt.Errorf("read care API %s response: %w", op, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) observe(op, status string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveExternalCall(apiName, op, status, time.Since(start))
	}
}
