package belvo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"finlink/internal/shared/apperr"
	"finlink/internal/shared/config"
)

const (
	defaultTimeout   = 30 * time.Second
	accountsPath     = "/accounts"
	transactionsPath = "/transactions/"
	tokenPath        = "/token/"

	// Upstream error bodies are passed through to callers; anything past this is dropped.
	maxErrorBody = 64 << 10
)

// Scopes and resources requested for every widget access token.
var (
	tokenScopes         = "read_institutions,write_links"
	tokenFetchResources = []string{"ACCOUNTS", "TRANSACTIONS", "OWNERS"}
)

// Client handles communication with the Belvo API using the service-level
// credentials. End-user identity is never forwarded.
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	secretID   string
	secretPass string
	logger     *zap.Logger
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Belvo API client
func NewClient(cfg config.BelvoConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		host:       cfg.Host,
		secretID:   cfg.SecretID,
		secretPass: cfg.SecretPassword,
		logger:     logger,
	}
}

// Transaction is one upstream transaction. Raw keeps the object exactly as
// received; Amount and Type are decoded for balance computation.
type Transaction struct {
	Raw    json.RawMessage
	Amount float64
	Type   string
}

// MarshalJSON emits the upstream object unchanged.
func (t Transaction) MarshalJSON() ([]byte, error) {
	if len(t.Raw) == 0 {
		return []byte("null"), nil
	}
	return t.Raw, nil
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var fields struct {
		Amount float64 `json:"amount"`
		Type   string  `json:"type"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	t.Raw = append(json.RawMessage(nil), data...)
	t.Amount = fields.Amount
	t.Type = fields.Type
	return nil
}

// TransactionPage is the paginated transactions envelope. Only the first
// page is fetched.
type TransactionPage struct {
	Count   int           `json:"count"`
	Next    *string       `json:"next"`
	Results []Transaction `json:"results"`
}

type accessTokenRequest struct {
	ID                 string   `json:"id"`
	Password           string   `json:"password"`
	Scopes             string   `json:"scopes"`
	FetchResources     []string `json:"fetch_resources"`
	CredentialsStorage string   `json:"credentials_storage"`
	StaleIn            string   `json:"stale_in"`
}

type accessTokenResponse struct {
	Access string `json:"access"`
}

// ListAccounts returns the upstream accounts listing verbatim.
func (c *Client) ListAccounts(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+accountsPath, nil, true)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: accounts response is not valid JSON", apperr.ErrInternal)
	}
	return json.RawMessage(body), nil
}

// ListTransactions fetches the transactions of one link.
func (c *Client) ListTransactions(ctx context.Context, linkID string) (*TransactionPage, error) {
	endpoint := c.baseURL + transactionsPath + "?" + url.Values{"link": {linkID}}.Encode()

	body, err := c.do(ctx, http.MethodGet, endpoint, nil, true)
	if err != nil {
		return nil, err
	}

	var page TransactionPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal transactions: %v", apperr.ErrInternal, err)
	}
	if page.Results == nil {
		page.Results = []Transaction{}
	}

	if page.Next != nil && *page.Next != "" {
		c.logger.Warn("transactions truncated to first page",
			zap.String("link_id", linkID),
			zap.Int("count", page.Count),
			zap.Int("fetched", len(page.Results)),
		)
	}

	return &page, nil
}

// CreateAccessToken mints a widget access token with the fixed scope request.
func (c *Client) CreateAccessToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(accessTokenRequest{
		ID:                 c.secretID,
		Password:           c.secretPass,
		Scopes:             tokenScopes,
		FetchResources:     tokenFetchResources,
		CredentialsStorage: "store",
		StaleIn:            "300d",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+tokenPath, payload, false)
	if err != nil {
		return "", err
	}

	var tokenResp accessTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal token response: %v", apperr.ErrInternal, err)
	}
	if tokenResp.Access == "" {
		return "", fmt.Errorf("%w: token response has no access token", apperr.ErrInternal)
	}

	return tokenResp.Access, nil
}

// do sends one request and returns the body of a 2xx response. Non-2xx
// responses become *apperr.UpstreamError; transport failures wrap apperr.ErrInternal.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, basicAuth bool) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", apperr.ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if basicAuth {
		req.SetBasicAuth(c.secretID, c.secretPass)
	}
	if c.host != "" {
		req.Host = c.host
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("belvo request failed",
			zap.String("method", method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: belvo request failed: %v", apperr.ErrInternal, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("belvo request",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &apperr.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", apperr.ErrInternal, err)
	}
	return body, nil
}
