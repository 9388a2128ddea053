package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"scooter-backend/internal/config"
)

const airtableBaseURL = "https://api.airtable.com/v0"

// AirtableRecord is one row in the mirror table.
type AirtableRecord struct {
	ID     string         `json:"id,omitempty"`
	Fields ScooterFields  `json:"fields"`
}

// ScooterFields maps scooter attributes onto the mirror table's columns.
type ScooterFields struct {
	ScooterID string `json:"ID,omitempty"`
	Model     string `json:"Model,omitempty"`
	Battery   int    `json:"Battery"`
	Status    string `json:"Status,omitempty"`
	Location  string `json:"Location,omitempty"`
}

type recordList struct {
	Records []AirtableRecord `json:"records"`
	Offset  string           `json:"offset,omitempty"`
}

type recordEnvelope struct {
	Records []AirtableRecord `json:"records"`
	// PerformUpsert makes the API match on fieldsToMergeOn instead of
	// requiring Airtable record ids.
	PerformUpsert *upsertSpec `json:"performUpsert,omitempty"`
}

type upsertSpec struct {
	FieldsToMergeOn []string `json:"fieldsToMergeOn"`
}

// AirtableClient is a minimal REST client for a single mirror table.
type AirtableClient struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.AirtableConfig
}

// NewAirtableClient creates a client for the configured base and table.
func NewAirtableClient(cfg config.AirtableConfig) *AirtableClient {
	return &AirtableClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    airtableBaseURL,
		cfg:        cfg,
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *AirtableClient) SetBaseURL(u string) {
	c.baseURL = u
}

func (c *AirtableClient) tableURL() string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.cfg.BaseID, c.cfg.TableID)
}

// FetchAll retrieves every record from the mirror table, following
// pagination offsets until exhausted.
func (c *AirtableClient) FetchAll(ctx context.Context) ([]AirtableRecord, error) {
	var records []AirtableRecord
	offset := ""

	for {
		u := c.tableURL()
		if offset != "" {
			u += "?offset=" + url.QueryEscape(offset)
		}

		var page recordList
		if err := c.do(ctx, http.MethodGet, u, nil, &page); err != nil {
			return nil, err
		}

		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// Upsert writes records to the mirror table, matching existing rows on the
// ID column. Airtable caps each write at 10 records, so the batch is chunked.
func (c *AirtableClient) Upsert(ctx context.Context, records []AirtableRecord) error {
	const batchSize = 10

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		body := recordEnvelope{
			Records:       records[start:end],
			PerformUpsert: &upsertSpec{FieldsToMergeOn: []string{"ID"}},
		}

		if err := c.do(ctx, http.MethodPatch, c.tableURL(), body, nil); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes records from the mirror table by Airtable record id.
func (c *AirtableClient) Delete(ctx context.Context, recordIDs []string) error {
	const batchSize = 10

	for start := 0; start < len(recordIDs); start += batchSize {
		end := start + batchSize
		if end > len(recordIDs) {
			end = len(recordIDs)
		}

		q := url.Values{}
		for _, id := range recordIDs[start:end] {
			q.Add("records[]", id)
		}

		u := c.tableURL() + "?" + q.Encode()
		if err := c.do(ctx, http.MethodDelete, u, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *AirtableClient) do(ctx context.Context, method, u string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("airtable returned %d: %s", resp.StatusCode, string(data))
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("failed to decode airtable response: %w", err)
		}
	}
	return nil
}
