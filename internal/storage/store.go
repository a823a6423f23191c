package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/spontis/backend-spontis/internal/resilience"
)

// Store persists uploaded objects (company logos, mandate photos) under
// opaque keys.
type Store interface {
	Put(ctx context.Context, key, contentType string, data io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// HTTPStore talks to an S3-compatible object storage gateway over HTTP.
type HTTPStore struct {
	BaseURL string
	APIKey  string
	Bucket  string
	Doer    resilience.HTTPClient
}

func (s *HTTPStore) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.BaseURL, s.Bucket, url.PathEscape(key))
}

// Put uploads an object.
func (s *HTTPStore) Put(ctx context.Context, key, contentType string, data io.Reader) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("storage: read object: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	resp, err := s.Doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("storage: put %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *HTTPStore) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	resp, err := s.Doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("storage: delete %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

// URL returns the public URL of an object.
func (s *HTTPStore) URL(key string) string {
	return s.objectURL(key)
}

// Memory is an in-memory Store for tests and local development.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *Memory) Put(_ context.Context, key, contentType string, data io.Reader) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	m.types[key] = contentType
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *Memory) URL(key string) string {
	return "memory://" + key
}

// Object returns a stored object and whether it exists.
func (m *Memory) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[key]
	return body, ok
}
