package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/weftworks/canvasd/internal/model"
	"github.com/weftworks/canvasd/internal/op"
)

// HTTPClient implements CanvasClient using the canvasd HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) ApplyEdits(ctx context.Context, path, stream string) (*EditResult, error) {
	u := "/v1/edits"
	if path != "" {
		u += "?path=" + url.QueryEscape(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+u, strings.NewReader(stream))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	return decodeEditResult(resp)
}

func (c *HTTPClient) ApplyOperations(ctx context.Context, path string, ops []op.Operation) (*EditResult, error) {
	encoded, err := op.EncodeList(ops)
	if err != nil {
		return nil, fmt.Errorf("encoding operations: %w", err)
	}
	body, err := json.Marshal(map[string]json.RawMessage{
		"path":       json.RawMessage(strconv.Quote(path)),
		"operations": encoded,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/operations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	return decodeEditResult(resp)
}

func (c *HTTPClient) GetCanvas(ctx context.Context, path string) (*model.Document, error) {
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/v1/canvases?path="+url.QueryEscape(path), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) PutCanvas(ctx context.Context, path string, doc *model.Document) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/canvases?path="+url.QueryEscape(path), doc, nil)
}

func (c *HTTPClient) ListCanvases(ctx context.Context) ([]string, error) {
	var resp struct {
		Paths []string `json:"paths"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/canvases", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Paths, nil
}

func (c *HTTPClient) GetTranscript(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/transcript?path="+url.QueryEscape(path), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", apiErrorFromBody(resp.StatusCode, body)
	}
	return string(body), nil
}

// WatchEvents connects to the SSE stream and delivers events on the returned
// channel until ctx is cancelled or the connection drops. The channel is
// closed when the stream ends.
func (c *HTTPClient) WatchEvents(ctx context.Context, topics []string) (<-chan Event, error) {
	u := "/v1/events/stream"
	if len(topics) > 0 {
		u += "?topics=" + url.QueryEscape(strings.Join(topics, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, apiErrorFromBody(resp.StatusCode, body)
	}

	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		readSSE(resp.Body, ch)
	}()
	return ch, nil
}

// readSSE parses the event-stream wire format: "id:", "event:" and "data:"
// lines, with a blank line terminating each event. Comment lines (":...")
// are keepalives and are skipped.
func readSSE(r io.Reader, ch chan<- Event) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var evt Event
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if evt.Topic != "" || len(evt.Data) > 0 {
				ch <- evt
			}
			evt = Event{}
		case strings.HasPrefix(line, ":"):
			// keepalive
		case strings.HasPrefix(line, "id:"):
			if id, err := strconv.ParseUint(strings.TrimSpace(line[3:]), 10, 64); err == nil {
				evt.ID = id
			}
		case strings.HasPrefix(line, "event:"):
			evt.Topic = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "data:"):
			evt.Data = json.RawMessage(strings.TrimSpace(line[5:]))
		}
	}
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError is an error response from the canvasd API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func apiErrorFromBody(status int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}

// decodeEditResult handles edit/operation responses, which carry a result
// body even on a 500 (a failed save reports downgraded per-operation results).
func decodeEditResult(resp *http.Response) (*EditResult, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result EditResult
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode >= 400 {
			return nil, apiErrorFromBody(resp.StatusCode, body)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := result.Error
		if msg == "" {
			return nil, apiErrorFromBody(resp.StatusCode, body)
		}
		return &result, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &result, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content carries no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiErrorFromBody(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
