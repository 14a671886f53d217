package mailrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artcafe/storefront/pkg/config"
	pkgerrors "github.com/artcafe/storefront/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	confirmationPath            = "send-order-confirmation"
	responseBodyReadLimit int64 = 1024
	defaultTimeout              = 5 * time.Second
)

var errRelayURLRequired = errors.New("mail relay url is required")

// Client posts order confirmations to the mail relay behind a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[*Receipt]
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a relay client from config.
func NewClient(cfg config.MailConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.RelayURL), "/")
	if base == "" {
		return nil, errRelayURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    base,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	client.breaker = gobreaker.NewCircuitBreaker[*Receipt](gobreaker.Settings{
		Name:        "mail-relay",
		MaxRequests: cfg.BreakerHalfOpenN,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})

	return client, nil
}

// Confirmation is the payload the relay turns into a customer email.
type Confirmation struct {
	RecipientEmail string            `json:"recipientEmail"`
	OrderID        string            `json:"orderId"`
	Total          string            `json:"total"`
	Items          []ConfirmationRow `json:"items"`
}

type ConfirmationRow struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

// Receipt is the relay's acknowledgement.
type Receipt struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// SendOrderConfirmation posts the confirmation. Calls are rejected without a
// network round trip while the breaker is open.
func (c *Client) SendOrderConfirmation(ctx context.Context, msg Confirmation) (*Receipt, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail relay client not configured")
	}
	if strings.TrimSpace(msg.RecipientEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}
	receipt, err := c.breaker.Execute(func() (*Receipt, error) {
		return c.post(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mail relay unavailable")
		}
		return nil, err
	}
	return receipt, nil
}

// State exposes the breaker state for health reporting.
func (c *Client) State() string {
	if c == nil || c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

func (c *Client) post(ctx context.Context, msg Confirmation) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal confirmation")
	}
	url := fmt.Sprintf("%s/%s", c.baseURL, confirmationPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build confirmation request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute confirmation request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "confirmation request failed")
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode confirmation response")
	}
	return &receipt, nil
}
