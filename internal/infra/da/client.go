// Package da is the JSON-over-HTTP client for the remote data-availability
// layer's browser API. Transport failures are converted to per-endpoint
// sentinel values where the sync loop can continue or cleanly stop at "not
// yet available"; the one exception is the latest-index query, whose failure
// must not masquerade as "no new work".
package da

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vietddude/dasync/internal/core/domain"
	"github.com/vietddude/dasync/internal/core/errs"
	"github.com/vietddude/dasync/internal/indexing/metrics"
)

// Config holds DA client configuration.
type Config struct {
	// Endpoint is the base URL of the DA layer's browser API.
	Endpoint string
	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration
	// RetryAttempts is the number of tries per call for transient failures.
	RetryAttempts int
	// LatestIndexFallback, when set, is returned instead of an error when the
	// latest-index query fails. Disabled (nil) by default: a fallback makes
	// range planning trust a guess, so opt in only if downstream tolerates
	// that.
	LatestIndexFallback *uint64
}

// Client talks to the DA layer.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new DA client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// LatestTransactionBatchIndex queries the highest batch index the DA layer
// has produced. Failures propagate unless a fallback value is configured.
func (c *Client) LatestTransactionBatchIndex(ctx context.Context) (uint64, error) {
	var latest uint64
	err := c.get(ctx, "getLatestTransactionBatchIndex", &latest)
	if err != nil {
		if c.cfg.LatestIndexFallback != nil {
			slog.Warn("Latest batch index query failed, using configured fallback",
				"fallback", *c.cfg.LatestIndexFallback, "error", err)
			return *c.cfg.LatestIndexFallback, nil
		}
		return 0, errs.Transport("query latest batch index", err)
	}
	return latest, nil
}

// RollupStoreByBatchIndex fetches the batch-index -> data-store mapping.
// A transport failure degrades to the zero-store sentinel (DataStoreID 0),
// which halts the pass at this index without error. An explicit not-found
// from the remote is a missing element: the latest-index query said this
// index exists.
func (c *Client) RollupStoreByBatchIndex(ctx context.Context, batchIndex uint64) (*domain.RollupStoreEntry, error) {
	var entry *domain.RollupStoreEntry
	err := c.post(ctx, "getRollupStoreByRollupBatchIndex", map[string]any{"batch_index": batchIndex}, &entry)
	if err != nil {
		if errs.IsMissingElement(err) {
			return nil, fmt.Errorf("batch index %d: %w", batchIndex, err)
		}
		slog.Warn("Rollup store query failed, treating batch as not yet available",
			"batch_index", batchIndex, "error", err)
		return &domain.RollupStoreEntry{BatchIndex: batchIndex}, nil
	}
	if entry == nil {
		return nil, errs.MissingElement(fmt.Sprintf("rollup store entry for batch index %d", batchIndex))
	}
	entry.BatchIndex = batchIndex
	return entry, nil
}

// DataStoreByID fetches the full metadata record of one data store. Returns
// nil when the store is absent or the call fails; the processor stops the
// pass and retries the window later.
func (c *Client) DataStoreByID(ctx context.Context, storeID uint32) (*domain.DataStoreEntry, error) {
	var entry *domain.DataStoreEntry
	err := c.post(ctx, "getDataStoreById", map[string]any{"store_id": storeID}, &entry)
	if err != nil {
		if errs.IsMissingElement(err) {
			return nil, nil
		}
		slog.Warn("Data store query failed", "store_id", storeID, "error", err)
		return nil, nil
	}
	return entry, nil
}

// BatchTransactionsByDataStoreID fetches all raw transactions of a data
// store. Failures surface as transport errors; the processor logs and
// continues, since a store with no transactions is valid.
func (c *Client) BatchTransactionsByDataStoreID(ctx context.Context, storeNumber uint32) ([]BatchTransaction, error) {
	var txs []BatchTransaction
	err := c.post(ctx, "getBatchTransactionByDataStoreId", map[string]any{"store_number": storeNumber}, &txs)
	if err != nil {
		return nil, errs.Transport(fmt.Sprintf("fetch batch transactions for store %d", storeNumber), err)
	}
	return txs, nil
}

// TransactionListByStoreNumber fetches the explorer-style transaction list
// of a data store.
func (c *Client) TransactionListByStoreNumber(ctx context.Context, storeNumber uint32) ([]domain.TransactionListEntry, error) {
	var list []domain.TransactionListEntry
	err := c.post(ctx, "getTransactionListByStoreNumber", map[string]any{"store_number": storeNumber}, &list)
	if err != nil {
		return nil, errs.Transport(fmt.Sprintf("fetch tx list for store %d", storeNumber), err)
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body map[string]any, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

// do performs one API call with retry on transient failures. Not-found
// responses are returned as missing-element errors and never retried.
func (c *Client) do(ctx context.Context, method, endpoint string, body map[string]any, out any) error {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	url := fmt.Sprintf("%s/browser/%s", c.cfg.Endpoint, endpoint)

	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewFibonacci(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		start := time.Now()
		err := c.doOnce(ctx, method, url, reqBody, out)
		metrics.ObserveDARequest(endpoint, err, time.Since(start))
		if err == nil || errs.IsMissingElement(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (c *Client) doOnce(ctx context.Context, method, url string, reqBody []byte, out any) error {
	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("da call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errs.MissingElement(url)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
