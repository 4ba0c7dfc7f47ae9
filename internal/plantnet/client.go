// Package plantnet is a client for the Pl@ntNet species recognition API.
package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/floradex/internal/logging"
	"github.com/iliyamo/floradex/internal/model"
)

const apiName = "plantnet"

// CallObserver receives one notification per outbound request.
type CallObserver interface {
	ObserveExternalCall(api, op, status string, elapsed time.Duration)
}

// Client submits photos to the recognition service.  It is safe for
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

// NewClient creates a client.  Empty fields of config fall back to
// DefaultConfig.  A missing API key is not an error here; Identify
// reports ErrNotConfigured instead so the server can still start.
func NewClient(config Config, opts ...Option) *Client {
	def := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Project == "" {
		config.Project = def.Project
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
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
	return c
}

// Identify uploads one image and returns the candidates sorted by
// confidence, highest first.  Ties keep the order of the service.
func (c *Client) Identify(ctx context.Context, image []byte, filename string) ([]model.Candidate, error) {
	if c.config.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if filename == "" {
		filename = "plant.jpg"
	}

	body, contentType, err := buildMultipart(image, filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/identify/%s?%s", c.config.BaseURL, url.PathEscape(c.config.Project),
		url.Values{"api-key": {c.config.APIKey}}.Encode())

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("error", start)
		// the request URL carries the API key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		c.log.Warn("recognition request failed", "error", err)
		return nil, fmt.Errorf("recognition request: %w", err)
	}
	defer resp.Body.Close()
	c.observe(strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("recognition service rejected request", "status", resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var payload identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode recognition response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, ErrNoResults
	}

	candidates := make([]model.Candidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		candidates = append(candidates, toCandidate(r))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	c.log.Debug("recognition succeeded", "candidates", len(candidates), "top", candidates[0].Name)
	return candidates, nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveExternalCall(apiName, "identify", status, time.Since(start))
	}
}

func buildMultipart(image []byte, filename string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("images", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("organs", "auto"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func toCandidate(r result) model.Candidate {
	s := r.Species
	common := make([]string, 0, len(s.CommonNames))
	for _, n := range s.CommonNames {
		if n = strings.TrimSpace(n); n != "" {
			common = append(common, n)
		}
	}
	name := s.ScientificNameWithoutAuthor
	if len(common) > 0 {
		name = common[0]
	}
	full := s.ScientificName
	if full == "" {
		full = strings.TrimSpace(s.ScientificNameWithoutAuthor + " " + s.ScientificNameAuthorship)
	}
	return model.Candidate{
		Name:                 name,
		ScientificName:       s.ScientificNameWithoutAuthor,
		ScientificNameAuthor: full,
		Genus:                s.Genus.ScientificNameWithoutAuthor,
		Family:               s.Family.ScientificNameWithoutAuthor,
		CommonNames:          common,
		Confidence:           clamp01(r.Score),
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
