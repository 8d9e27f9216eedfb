package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/social-publisher/internal/transfer"
	"golang.org/x/time/rate"
)

const (
	maxResponseBytes = 4 << 20
	maxImageBytes    = 50 << 20
)

// apiClient is the HTTP transport shared by the platform services. Every
// call waits on a per-platform limiter and non-2xx answers become
// *ProviderError.
type apiClient struct {
	platform string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

func newAPIClient(platform, baseURL string, httpClient *http.Client) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &apiClient{
		platform: platform,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(5), 10),
	}
}

type apiRequest struct {
	method      string
	path        string
	query       url.Values
	form        url.Values
	json        interface{}
	raw         []byte
	contentType string
	headers     map[string]string
}

func (c *apiClient) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *apiClient) do(ctx context.Context, r apiRequest, out interface{}) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.endpoint(r.path)
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.json != nil:
		payload, err := json.Marshal(r.json)
		if err != nil {
			return nil, fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	case r.raw != nil:
		body = bytes.NewReader(r.raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.platform, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := &ProviderError{
			Platform:   c.platform,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
		}
		slog.Info(pe.Error())
		return resp.Header, pe
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.Header, fmt.Errorf("error parsing %s response: %w", c.platform, err)
		}
	}

	return resp.Header, nil
}

func (c *apiClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	_, err := c.do(ctx, apiRequest{method: http.MethodGet, path: path, query: query}, out)
	return err
}

func (c *apiClient) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	_, err := c.do(ctx, apiRequest{method: http.MethodPost, path: path, form: form}, out)
	return err
}

// fetch downloads a public resource such as a photo. Only the first limit
// bytes are read when limit > 0.
func (c *apiClient) fetch(ctx context.Context, rawURL string, limit int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("error creating request: %w", err)
	}
	if limit > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", limit-1))
	} else {
		limit = maxImageBytes
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, "", fmt.Errorf("error reading image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func errorMessage(status int, body []byte) string {
	var graphErr transfer.GraphErrorResponse
	if json.Unmarshal(body, &graphErr) == nil && graphErr.Error.Message != "" {
		if graphErr.Error.ErrorUserMsg != "" {
			return graphErr.Error.ErrorUserMsg
		}
		return graphErr.Error.Message
	}

	var liErr transfer.LinkedInErrorResponse
	if json.Unmarshal(body, &liErr) == nil && liErr.Message != "" {
		return liErr.Message
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(status)
	}
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
