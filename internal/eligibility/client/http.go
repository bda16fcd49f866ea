// Package client talks to the external CPF eligibility authority.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"votacao/internal/eligibility/models"
	id "votacao/pkg/domain"
)

const maxResponseBytes = 64 << 10

// HTTPClient classifies voters with GET {baseURL}/{cpf}.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying client, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		h.http = c
	}
}

// New builds a client for baseURL. connectTimeout bounds dialing only; the
// per-call deadline belongs to the resilience pipeline.
func New(baseURL string, connectTimeout time.Duration, opts ...Option) (*HTTPClient, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid eligibility url: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout}).DialContext
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Classify returns the authority's verdict. 404 is a negative verdict.
func (c *HTTPClient) Classify(ctx context.Context, voterID id.VoterID) (models.Verdict, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(string(voterID)), nil)
	if err != nil {
		return "", newProviderError(ErrorInternal, 0, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", newProviderError(ErrorTimeout, 0, "request timed out", err)
		}
		return "", newProviderError(ErrorProviderOutage, 0, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.UnableToVote, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", newProviderError(ErrorRateLimited, resp.StatusCode, "rate limited", nil)
	case resp.StatusCode >= 500:
		return "", newProviderError(ErrorProviderOutage, resp.StatusCode, "authority error", nil)
	case resp.StatusCode != http.StatusOK:
		return "", newProviderError(ErrorRejected, resp.StatusCode, "unexpected status", nil)
	}

	var body models.StatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return "", newProviderError(ErrorBadData, resp.StatusCode, "undecodable body", err)
	}
	if !body.Status.IsValid() {
		return "", newProviderError(ErrorBadData, resp.StatusCode, fmt.Sprintf("unknown status %q", body.Status), nil)
	}
	return body.Status, nil
}
