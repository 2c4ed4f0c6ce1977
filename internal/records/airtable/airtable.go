// Package airtable implements the record store against an Airtable base
// holding one table per person (TablePersonID_<id>).
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"worklog/internal/records"
)

const apiBase = "https://api.airtable.com/v0"

// Timeouts per remote call. Reads get a little longer since month queries
// return full pages.
const (
	writeTimeout = 10 * time.Second
	readTimeout  = 15 * time.Second
)

type Client struct {
	http    *http.Client
	baseURL string
	baseID  string
	token   string
}

var _ records.Store = (*Client)(nil)

// New creates a client for the given base. Token and base ID come from
// configuration; both are required.
func New(token, baseID string) (*Client, error) {
	if token == "" || baseID == "" {
		return nil, errors.New("missing Airtable token or base ID")
	}
	return &Client{
		http:    newHTTPClientWithPooling(),
		baseURL: apiBase,
		baseID:  baseID,
		token:   token,
	}, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and timeouts suited to a rate-limited remote API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport}
}

// tableURL builds the endpoint for a person's table, optionally for one
// record. The partition key is derived from the person identifier alone.
func (c *Client) tableURL(personID int, recordID string) string {
	u := fmt.Sprintf("%s/%s/TablePersonID_%d", c.baseURL, c.baseID, personID)
	if recordID != "" {
		u += "/" + url.PathEscape(recordID)
	}
	return u
}

type airtableRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type recordList struct {
	Records []airtableRecord `json:"records"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Create(ctx context.Context, personID int, fields map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	var created airtableRecord
	if err := c.do(ctx, http.MethodPost, c.tableURL(personID, ""), body, &created); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Record created", "person_id", personID, "record_id", created.ID)
	return created.ID, nil
}

func (c *Client) QueryMonth(ctx context.Context, personID, year, month int) ([]records.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	formula := fmt.Sprintf("AND(YEAR({%s})=%d, MONTH({%s})=%d)",
		records.FieldWorkDay, year, records.FieldWorkDay, month)

	base := c.tableURL(personID, "")
	params := url.Values{}
	params.Set("filterByFormula", formula)

	var out []records.Raw
	offset := ""
	for {
		if offset != "" {
			params.Set("offset", offset)
		}
		var page struct {
			recordList
			Offset string `json:"offset"`
		}
		if err := c.do(ctx, http.MethodGet, base+"?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, r := range page.Records {
			out = append(out, records.Raw{ID: r.ID, Fields: r.Fields})
		}
		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}
	slog.InfoContext(ctx, "Records fetched", "person_id", personID, "year", year, "month", month, "count", len(out))
	return out, nil
}

func (c *Client) Get(ctx context.Context, personID int, recordID string) (records.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var rec airtableRecord
	if err := c.do(ctx, http.MethodGet, c.tableURL(personID, recordID), nil, &rec); err != nil {
		return records.Raw{}, err
	}
	return records.Raw{ID: rec.ID, Fields: rec.Fields}, nil
}

func (c *Client) Update(ctx context.Context, personID int, recordID string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return fmt.Errorf("marshal record patch: %w", err)
	}
	if err := c.do(ctx, http.MethodPatch, c.tableURL(personID, recordID), body, nil); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Record updated", "person_id", personID, "record_id", recordID)
	return nil
}

func (c *Client) Delete(ctx context.Context, personID int, recordID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := c.do(ctx, http.MethodDelete, c.tableURL(personID, recordID), nil, nil); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Record deleted", "person_id", personID, "record_id", recordID)
	return nil
}

// do performs one API call, decoding the response into out when non-nil.
// Non-2xx responses come back as an error carrying the API's message.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, rawURL, records.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: HTTP %d: %s", method, rawURL, resp.StatusCode, decodeErrorMessage(resp.Body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "詳細不明"
	}
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return string(raw)
}
