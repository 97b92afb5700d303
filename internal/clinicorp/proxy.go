package clinicorp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProxyRequest is the envelope sent to the trusted backend proxy. The proxy
// holds the real secrets and injects them server-side before forwarding to
// Clinicorp.
type ProxyRequest struct {
	Path        string            `json:"path"`
	Method      string            `json:"method"`
	Query       map[string]string `json:"query"`
	Body        any               `json:"body"`
	ClinicID    string            `json:"clinicId"`
	Credentials ProxyCredentials  `json:"credentials"`
}

// ProxyCredentials identifies the upstream account to the proxy.
type ProxyCredentials struct {
	SubscriberID string `json:"subscriberId"`
	AccessToken  string `json:"accessToken"`
	BaseURL      string `json:"baseUrl"`
}

// ProxyResponse is the proxy's reply envelope.
type ProxyResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// ProxyClient carries one envelope to the proxy and returns its reply.
// Transport-level problems come back as an error; an unhappy upstream comes
// back as a reply with Success=false.
type ProxyClient interface {
	Do(ctx context.Context, req ProxyRequest) (*ProxyResponse, error)
}

// HTTPProxyClient talks to the proxy process over HTTP.
type HTTPProxyClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPProxyClient creates a proxy client for the given endpoint. The
// supplied client's timeout is a transport ceiling; per-request deadlines
// come from the executor's context.
func NewHTTPProxyClient(endpoint string, httpClient *http.Client) *HTTPProxyClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPProxyClient{endpoint: endpoint, httpClient: httpClient}
}

func (c *HTTPProxyClient) Do(ctx context.Context, req ProxyRequest) (*ProxyResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("clinicorp: marshal proxy envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("clinicorp: build proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("clinicorp: proxy request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clinicorp: read proxy response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("clinicorp: proxy status %d: %s", resp.StatusCode, msg)
	}

	var envelope ProxyResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("clinicorp: unmarshal proxy response: %w", err)
	}
	return &envelope, nil
}
