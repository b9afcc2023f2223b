// Package kiosk is the attendee-facing spin client. It talks to the API over
// HTTP and animates the wheel locally.
package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/wheel"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// IsAlreadySpun reports whether err is the API rejecting a second spin.
func IsAlreadySpun(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Outcome mirrors the persisted spin state returned with a user lookup.
type Outcome struct {
	Kind      string        `json:"kind"`
	Prize     *models.Prize `json:"prize"`
	PrizeName string        `json:"prize_name"`
	SpinTime  *time.Time    `json:"spin_time"`
}

type SpinResult struct {
	Prize      *models.Prize `json:"prize"`
	PrizeName  string        `json:"prize_name"`
	Overridden bool          `json:"overridden"`
	Wheel      *wheel.Target `json:"wheel"`
	WheelError string        `json:"wheel_error"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// LookupByCode verifies an attendee code.
func (c *Client) LookupByCode(ctx context.Context, code string) (*models.User, Outcome, error) {
	var data struct {
		User    *models.User `json:"user"`
		Outcome Outcome      `json:"outcome"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(strings.TrimSpace(code)), nil, &data); err != nil {
		return nil, Outcome{}, err
	}
	if data.User == nil {
		return nil, Outcome{}, errors.New("lookup response has no user")
	}
	return data.User, data.Outcome, nil
}

// ActivePrizes returns the wheel segments in display order.
func (c *Client) ActivePrizes(ctx context.Context) ([]models.Prize, error) {
	var prizes []models.Prize
	if err := c.do(ctx, http.MethodGet, "/api/prizes?active=true", nil, &prizes); err != nil {
		return nil, err
	}
	return prizes, nil
}

// Spin posts the single spin of userID. proposal may be empty.
func (c *Client) Spin(ctx context.Context, userID, proposal string) (*SpinResult, error) {
	body := map[string]string{"user_id": userID}
	if proposal != "" {
		body["prize_id"] = proposal
	}
	var res SpinResult
	if err := c.do(ctx, http.MethodPost, "/api/spin", body, &res); err != nil {
		return nil, err
	}
	if res.Prize == nil {
		return nil, errors.New("spin response has no prize")
	}
	return &res, nil
}
