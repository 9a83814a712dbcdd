package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/internal/cart"
	"github.com/bistroclub/bistro/internal/menu"
	"github.com/bistroclub/bistro/pkg/enums/orderstatus"
)

// SubmissionError is returned when the backend refuses or fails an order
// submission. StatusCode is zero for transport and decoding failures.
type SubmissionError struct {
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("order submission failed: backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("order submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Client talks to the order backend over HTTP. Every operation issues exactly
// one request; there are no retries and no idempotency keys, so callers must
// guard against double submission themselves.
type Client struct {
	baseURL    string
	httpClient *http.Client
	catalog    *menu.Catalog
	logger     aqm.Logger
}

func NewClient(baseURL string, catalog *menu.Catalog, logger aqm.Logger) *Client {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		catalog: catalog,
		logger:  logger,
	}
}

// submitResponse is the optional success body of POST /add.
type submitResponse struct {
	ID string `json:"id"`
}

// Submit builds the order DTO from the cart lines and posts it. On success
// the returned order carries the backend-assigned id when the backend sent
// one. The caller clears the cart only after a nil error.
func (c *Client) Submit(ctx context.Context, lines []cart.Line, tableID string) (*Order, error) {
	order := BuildOrder(lines, tableID, c.catalog)

	body, err := json.Marshal(order)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("cannot encode order: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/add", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("create request failed: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("order backend request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SubmissionError{StatusCode: resp.StatusCode}
	}

	// The success body is optional; ignore decode noise beyond logging.
	var ack submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.ID != "" {
		order.ID = ack.ID
	}

	return &order, nil
}

// List fetches every order.
func (c *Client) List(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.get(ctx, c.baseURL+"/orders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatus fetches orders in the given status, keeping only those with at
// least one Food item (the kitchen never sees drink-only orders).
func (c *Client) ListByStatus(ctx context.Context, status orderstatus.Status) ([]Order, error) {
	endpoint := fmt.Sprintf("%s/status?status=%s", c.baseURL, url.QueryEscape(status.Code()))

	var fetched []Order
	if err := c.get(ctx, endpoint, &fetched); err != nil {
		return nil, err
	}

	out := make([]Order, 0, len(fetched))
	for _, order := range fetched {
		if order.HasFoodItems() {
			out = append(out, order)
		}
	}
	return out, nil
}

// Get refetches a single order.
func (c *Client) Get(ctx context.Context, id string) (*Order, error) {
	var out Order
	if err := c.get(ctx, fmt.Sprintf("%s/%s", c.baseURL, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start requests the Pending -> Preparing transition.
func (c *Client) Start(ctx context.Context, id string) error {
	return c.post(ctx, fmt.Sprintf("%s/%s/start", c.baseURL, id))
}

// Complete requests the Preparing -> Completed transition.
func (c *Client) Complete(ctx context.Context, id string) error {
	return c.post(ctx, fmt.Sprintf("%s/%s/complete", c.baseURL, id))
}

// Update replaces the order wholesale; used for the backward rollback path
// where no dedicated transition endpoint exists.
func (c *Client) Update(ctx context.Context, order Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("cannot encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/%s", c.baseURL, order.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("order backend returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("order backend returned status %d", resp.StatusCode)
	}
	return nil
}
