// Package blob uploads backup artifacts to durable storage.
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"swagly-backend/internal/common/config"
)

// Store persists content under key and returns a locator for it.
type Store interface {
	Upload(ctx context.Context, key string, content []byte) (string, error)
}

// New selects the store named by BLOB_DRIVER.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Blob.Driver {
	case "http":
		return NewHTTPStore(cfg.Blob.BaseURL, cfg.Blob.Token, cfg.Blob.Timeout), nil
	case "local":
		return NewLocalStore(cfg.Blob.LocalDir), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}

type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPStore PUTs objects to {baseURL}/{key} with a bearer token.
func NewHTTPStore(baseURL, token string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (s *HTTPStore) Upload(ctx context.Context, key string, content []byte) (string, error) {
	target := s.baseURL + "/" + strings.TrimLeft(key, "/")
	if _, err := url.Parse(target); err != nil {
		return "", fmt.Errorf("invalid blob url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-add-random-suffix", "0")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload %s: status %d: %s", key, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out uploadResponse
	if len(body) > 0 && json.Unmarshal(body, &out) == nil && out.URL != "" {
		return out.URL, nil
	}
	return target, nil
}

type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Upload(ctx context.Context, key string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.dir, clean)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit blob: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs), nil
}
