// Package plaid implements the external aggregator client used by the bank
// sync orchestrator: link-token creation, public-token exchange, and
// transaction fetches over the provider's HTTPS API.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://api.plaid.com"
	defaultTimeout = 15 * time.Second

	linkTokenPath    = "/link/token/create"
	exchangePath     = "/item/public_token/exchange"
	transactionsPath = "/transactions/get"

	// Transient failures (network errors, 5xx, 429) are retried up to
	// maxRetries times with exponential backoff. 4xx/auth errors are terminal.
	maxRetries     = 2
	retryBaseDelay = 500 * time.Millisecond
)

// Client handles communication with the aggregator API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates an aggregator client with provider-assigned credentials.
// baseURL may be empty to use the production endpoint.
func NewClient(clientID, secret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
	}
}

// ExchangeResult is the outcome of a public-token exchange.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// Transaction represents a transaction from the aggregator API.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	MerchantName  string          `json:"merchant_name"`
	Name          string          `json:"name"`
	DateString    string          `json:"date"` // "2006-01-02"
	Category      *struct {
		Primary string `json:"primary"`
	} `json:"personal_finance_category"`
}

// GetDate parses the transaction date.
func (t *Transaction) GetDate() (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", t.DateString)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.DateString, err)
	}
	return parsed, nil
}

// Merchant returns the merchant name, falling back to the raw description.
func (t *Transaction) Merchant() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Name
}

// PrimaryCategory returns the provider taxonomy, or "" when absent.
func (t *Transaction) PrimaryCategory() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Primary
}

type linkTokenRequest struct {
	ClientID     string            `json:"client_id"`
	Secret       string            `json:"secret"`
	User         map[string]string `json:"user"`
	ClientName   string            `json:"client_name"`
	Language     string            `json:"language"`
	CountryCodes []string          `json:"country_codes"`
	Products     []string          `json:"products"`
}

type linkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type exchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type transactionsRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total_transactions"`
}

// CreateLinkToken requests a link token for the user to start the bank
// connection flow.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	payload := linkTokenRequest{
		ClientID:     c.clientID,
		Secret:       c.secret,
		User:         map[string]string{"client_user_id": userID},
		ClientName:   "Frugal",
		Language:     "en",
		CountryCodes: []string{"US"},
		Products:     []string{"auth", "transactions"},
	}

	var resp linkTokenResponse
	if err := c.post(ctx, linkTokenPath, payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create link token: %w", err)
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken exchanges a public token for a permanent access token
// and the provider's item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	payload := exchangeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	}

	var resp ExchangeResult
	if err := c.post(ctx, exchangePath, payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}
	return &resp, nil
}

// GetTransactions fetches transactions for an access token within the given
// window. Both bounds are inclusive at the provider.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]Transaction, error) {
	payload := transactionsRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   startDate.Format("2006-01-02"),
		EndDate:     endDate.Format("2006-01-02"),
	}

	var resp transactionsResponse
	if err := c.post(ctx, transactionsPath, payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return resp.Transactions, nil
}

// post executes a JSON request with the retry budget applied to transient
// failures only.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.doPost(ctx, path, body, out)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) doPost(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network and timeout errors are transient.
		return &Error{Message: err.Error(), transient: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: err.Error(), transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: string(respBody)}
		var parsed struct {
			ErrorCode    string `json:"error_code"`
			ErrorMessage string `json:"error_message"`
		}
		if json.Unmarshal(respBody, &parsed) == nil && parsed.ErrorCode != "" {
			apiErr.Code = parsed.ErrorCode
			apiErr.Message = parsed.ErrorMessage
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
