// Package gcs is a small client for the Cloud Storage JSON API covering the
// object copies the donation flow needs.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://storage.googleapis.com/storage/v1"
	pingTimeout    = 5 * time.Second
	requestTimeout = 10 * time.Second
	maxErrorBody   = 2048
)

var errNotInitialized = errors.New("gcs client not initialized")

type Client struct {
	httpClient    *http.Client
	baseURL       string
	defaultBucket string
	tokenSource   *tokenSource
}

// NewClient picks credentials from inline JSON, then a key file, then the
// metadata server, and checks bucket access before returning.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	ts, err := tokenSourceFor(httpClient, gcp)
	if err != nil {
		return nil, err
	}
	c := &Client{
		httpClient:    httpClient,
		baseURL:       defaultBaseURL,
		defaultBucket: cfg.BucketName,
		tokenSource:   ts,
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return c, nil
}

func tokenSourceFor(httpClient *http.Client, gcp config.GCPConfig) (*tokenSource, error) {
	if gcp.CredentialsJSON != "" {
		return newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	}
	if gcp.ApplicationCredentials != "" {
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return newServiceAccountTokenSource(httpClient, string(raw))
	}
	return newMetadataTokenSource(httpClient), nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Close exists so the client fits the same shutdown path as the others.
func (c *Client) Close() error {
	return nil
}

// Ping lists at most one object, which needs storage.objects.list on the bucket.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := c.baseURL + c.bucketPath() + "/o?maxResults=1"
	_, err := c.call(ctx, http.MethodGet, endpoint, http.StatusOK)
	return err
}

func (c *Client) ready() error {
	switch {
	case c == nil || c.tokenSource == nil:
		return errNotInitialized
	case c.defaultBucket == "":
		return errors.New("gcs bucket not configured")
	}
	return nil
}

func (c *Client) bucketPath() string {
	return "/b/" + url.PathEscape(c.defaultBucket)
}

// objectPath escapes the whole key, slashes included, as the JSON API expects.
func (c *Client) objectPath(key string) string {
	return c.bucketPath() + "/o/" + url.PathEscape(key)
}

// call sends an authenticated request and returns its status. Any status
// outside accepted becomes an error carrying the start of the response body.
func (c *Client) call(ctx context.Context, method, endpoint string, accepted ...int) (int, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if slices.Contains(accepted, resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return resp.StatusCode, fmt.Errorf("%s %s: %s: %s", method, req.URL.Path, resp.Status, msg)
	}
	return resp.StatusCode, fmt.Errorf("%s %s: %s", method, req.URL.Path, resp.Status)
}
