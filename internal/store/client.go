// internal/store/client.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rohanmatta11/CrowdSense/internal/data"
)

// Failure taxonomy for the shared store. Neither is fatal to the process:
// a write failure fails only its own submission, a read failure means the
// current reconciliation or sweep pass is skipped until the next cycle.
var (
	ErrWriteFailed = errors.New("store write failed")
	ErrReadFailed  = errors.New("store read failed")
)

// Client talks to the shared record store over HTTP. Insert, select-all and
// delete-by-id are the only operations the core needs; there is no update.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type insertRequest struct {
	PeopleCount int     `json:"people_count"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Insert creates a new record. The store assigns the id and timestamp.
func (c *Client) Insert(ctx context.Context, peopleCount int, lat, lon float64) (data.CrowdRecord, error) {
	body, err := json.Marshal(insertRequest{PeopleCount: peopleCount, Lat: lat, Lon: lon})
	if err != nil {
		return data.CrowdRecord{}, fmt.Errorf("%w: encoding request: %v", ErrWriteFailed, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/records", bytes.NewReader(body))
	if err != nil {
		return data.CrowdRecord{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return data.CrowdRecord{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return data.CrowdRecord{}, fmt.Errorf("%w: unexpected status %d", ErrWriteFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return data.CrowdRecord{}, fmt.Errorf("%w: reading response: %v", ErrWriteFailed, err)
	}
	rec, err := data.ParseRecord(raw)
	if err != nil {
		return data.CrowdRecord{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return rec, nil
}

// SelectAll fetches every live record. Records with unparsable timestamps are
// skipped for this pass (logged inside the parser), not treated as a failure.
func (c *Client) SelectAll(ctx context.Context) ([]data.CrowdRecord, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/records", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrReadFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrReadFailed, err)
	}
	records, _, err := data.ParseRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return records, nil
}

// Delete removes a record by id. Deleting an id that no longer exists is a
// success: another client may have reconciled it away first.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/records/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrWriteFailed, resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}
