// Package identity talks to the marketplace identity service, which owns
// grower reference photos and biometric comparison.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrNoReferencePhoto = errors.New("no reference photo on file")

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type matchResponse struct {
	Match bool `json:"match"`
}

type photoResponse struct {
	Handle string `json:"handle"`
}

// Match posts the sample for comparison against the grower's reference photo.
func (c *Client) Match(ctx context.Context, growerID uuid.UUID, sample []byte) (bool, error) {
	url := fmt.Sprintf("%s/growers/%s/match", c.baseURL, growerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(sample))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var out matchResponse
	if err := c.do(req, &out); err != nil {
		return false, err
	}
	return out.Match, nil
}

func (c *Client) PhotoReference(ctx context.Context, growerID uuid.UUID) (string, error) {
	url := fmt.Sprintf("%s/growers/%s/photo", c.baseURL, growerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	var out photoResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Handle == "" {
		return "", ErrNoReferencePhoto
	}
	return out.Handle, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoReferencePhoto
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity service %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
