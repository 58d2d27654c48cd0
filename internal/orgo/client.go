// Package orgo is a client for the Orgo computer API, a hosted provider of
// Linux desktops that can be driven over HTTP.
package orgo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// BasicClient is the subset of *http.Client the API client needs.
type BasicClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ BasicClient = http.DefaultClient

// DefaultUserAgent identifies requests made by this client.
const DefaultUserAgent = "vaultvm"

// viewURLFormat is used when the API does not return a computer URL.
const viewURLFormat = "https://www.orgo.ai/workspaces/%s"

// maxErrorBody bounds how much of an error response is kept in an APIError.
const maxErrorBody = 512

// Client talks to the Orgo API.
type Client struct {
	http      BasicClient
	baseURL   string
	apiKey    string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c BasicClient) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// NewClient creates a client for the API at baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:      http.DefaultClient,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureProject returns the project called name, creating it if needed.
func (c *Client) EnsureProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	err := c.do(ctx, http.MethodGet, "/projects/by-name/"+url.PathEscape(name), nil, &p)
	if err == nil {
		return &p, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up project %s: %w", name, err)
	}

	if err := c.do(ctx, http.MethodPost, "/projects", createProjectRequest{Name: name}, &p); err != nil {
		return nil, fmt.Errorf("failed to create project %s: %w", name, err)
	}
	return &p, nil
}

// CreateComputer creates a computer and returns it as reported by the API.
func (c *Client) CreateComputer(ctx context.Context, req CreateComputerRequest) (*Computer, error) {
	var comp Computer
	if err := c.do(ctx, http.MethodPost, "/computers", req, &comp); err != nil {
		return nil, fmt.Errorf("failed to create computer %s: %w", req.Name, err)
	}
	if comp.ID == "" {
		return nil, fmt.Errorf("failed to create computer %s: response has no id", req.Name)
	}
	if comp.URL == "" {
		comp.URL = ViewURL(comp.ID)
	}
	return &comp, nil
}

// GetComputer fetches a computer by id.
func (c *Client) GetComputer(ctx context.Context, id string) (*Computer, error) {
	var comp Computer
	if err := c.do(ctx, http.MethodGet, "/computers/"+url.PathEscape(id), nil, &comp); err != nil {
		return nil, fmt.Errorf("failed to get computer %s: %w", id, err)
	}
	if comp.URL == "" {
		comp.URL = ViewURL(comp.ID)
	}
	return &comp, nil
}

// DeleteComputer deletes a computer by id.
func (c *Client) DeleteComputer(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/computers/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete computer %s: %w", id, err)
	}
	return nil
}

// Bash runs command in the computer's shell and returns its output and exit code.
func (c *Client) Bash(ctx context.Context, id, command string) (string, int, error) {
	var resp bashResponse
	path := "/computers/" + url.PathEscape(id) + "/bash"
	if err := c.do(ctx, http.MethodPost, path, bashRequest{Command: command}, &resp); err != nil {
		return "", 0, err
	}

	output := resp.Output
	if output == "" && resp.Error != "" {
		output = resp.Error
	}

	switch {
	case resp.ExitCode != nil:
		return output, *resp.ExitCode, nil
	case resp.Success != nil && !*resp.Success:
		return output, 1, nil
	default:
		return output, 0, nil
	}
}

// Screenshot returns the computer's display as image bytes.
// The API answers either with base64 image data (optionally as a data URI)
// or with a URL to download it from.
func (c *Client) Screenshot(ctx context.Context, id string) ([]byte, error) {
	var resp screenshotResponse
	path := "/computers/" + url.PathEscape(id) + "/screenshot"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	if resp.Image == "" {
		return nil, fmt.Errorf("failed to take screenshot: response has no image")
	}

	if strings.HasPrefix(resp.Image, "http://") || strings.HasPrefix(resp.Image, "https://") {
		return c.download(ctx, resp.Image)
	}
	return decodeImage(resp.Image)
}

// ViewURL returns the page where a computer can be viewed.
func ViewURL(id string) string {
	return fmt.Sprintf(viewURLFormat, id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// download fetches a screenshot URL. The API key is not sent because the
// URL may point at a storage host rather than the API.
func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build screenshot request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download screenshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download screenshot: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	return data, nil
}

func decodeImage(image string) ([]byte, error) {
	if strings.HasPrefix(image, "data:") {
		idx := strings.Index(image, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URI")
		}
		image = image[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return data, nil
}

func newAPIError(method, path string, resp *http.Response) error {
	apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		apiErr.Message = er.Error
		if apiErr.Message == "" {
			apiErr.Message = er.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
