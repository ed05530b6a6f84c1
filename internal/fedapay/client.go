// Package fedapay implements the payment-provider client used by the payment
// initiation flow. It talks to the FedaPay v1 REST API over plain HTTP with a
// bearer secret key: one call creates a transaction carrying correlation
// metadata, a second call mints the hosted-checkout token whose URL the
// client is redirected to.
//
// Services depend on the narrow Provider interface rather than on the
// concrete client, so the payment core stays portable across providers. Only
// the webhook HMAC scheme and the custom_metadata correlation contract are
// provider-specific.
package fedapay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider is the abstract payment capability consumed by services.
type Provider interface {
	// CreateTransaction registers a payment attempt with the provider and
	// returns its transaction id.
	CreateTransaction(ctx context.Context, p CreateTransactionParams) (*Transaction, error)
	// CreateCheckoutToken mints a hosted-checkout token for a previously
	// created transaction and returns the redirect URL.
	CreateCheckoutToken(ctx context.Context, transactionID string) (*CheckoutToken, error)
}

// Customer identifies the paying client on the provider side.
type Customer struct {
	Email string
	Name  string
	Phone string
}

// CreateTransactionParams carries everything needed to create a provider
// transaction, including the metadata that later correlates the webhook back
// to a request row.
type CreateTransactionParams struct {
	Amount      int64
	Description string
	Currency    string // ISO code, e.g. "XOF"
	Country     string // customer phone country, e.g. "CI"
	CallbackURL string
	Customer    Customer
	RequestID   string
	RequestType string
}

// Transaction is the provider-side payment attempt reference.
type Transaction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CheckoutToken is the hosted-checkout handle for a transaction.
type CheckoutToken struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// APIError is returned when the provider answers with a non-2xx status.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface with a bounded body excerpt.
func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "…"
	}
	return fmt.Sprintf("fedapay: status %d: %s", e.Status, body)
}

// Client is the HTTP implementation of Provider.
type Client struct {
	baseURL   string
	secretKey string
	httpc     *http.Client
}

// NewClient constructs a Client against baseURL (no trailing slash) using
// secretKey as the API bearer credential. A nil-safe default HTTP client
// with a 30s timeout is installed.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpc:     &http.Client{Timeout: 30 * time.Second},
	}
}

// v1Envelope mirrors the provider's response wrapping: every resource comes
// back under a "v1" key.
type v1Envelope[T any] struct {
	V1 T `json:"v1"`
}

// transactionBody is the wire shape of the transaction resource. The id is a
// number on the wire; it is surfaced as a string everywhere else.
type transactionBody struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

type tokenBody struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// CreateTransaction implements Provider.
func (c *Client) CreateTransaction(ctx context.Context, p CreateTransactionParams) (*Transaction, error) {
	first, last := splitName(p.Customer.Name)
	payload := map[string]any{
		"description":  p.Description,
		"amount":       p.Amount,
		"currency":     map[string]any{"iso": p.Currency},
		"callback_url": p.CallbackURL,
		"customer": map[string]any{
			"firstname": first,
			"lastname":  last,
			"email":     p.Customer.Email,
			"phone_number": map[string]any{
				"number":  p.Customer.Phone,
				"country": p.Country,
			},
		},
		"custom_metadata": map[string]any{
			"request_id":   p.RequestID,
			"request_type": p.RequestType,
		},
	}

	var env v1Envelope[transactionBody]
	if err := c.post(ctx, "/transactions", payload, &env); err != nil {
		return nil, err
	}
	return &Transaction{ID: env.V1.ID.String(), Status: env.V1.Status}, nil
}

// CreateCheckoutToken implements Provider.
func (c *Client) CreateCheckoutToken(ctx context.Context, transactionID string) (*CheckoutToken, error) {
	var env v1Envelope[tokenBody]
	if err := c.post(ctx, "/transactions/"+transactionID+"/token", nil, &env); err != nil {
		return nil, err
	}
	return &CheckoutToken{Token: env.V1.Token, URL: env.V1.URL}, nil
}

// post issues an authenticated JSON POST and decodes a 2xx response into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// splitName breaks a display name into the provider's firstname/lastname
// fields. A single token is used for both, matching the checkout contract.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return name, name
	case 1:
		return parts[0], parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
