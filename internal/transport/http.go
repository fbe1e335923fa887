package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ilog "github.com/InvokeLens/invokelens-sdk/internal/log"
)

const httpFlushTimeout = 10 * time.Second

// httpTransport batches events and POSTs them as JSON to the ingestion
// endpoint's /v1/ingest route, retrying 5xx and network errors with
// exponential backoff. 4xx responses are never retried: the batch is
// rejected outright and dropped.
type httpTransport struct {
	*batched
	endpointURL string
	apiKey      string
	client      *http.Client
}

// NewHTTP constructs a Transport that delivers events over HTTP.
func NewHTTP(endpointURL, apiKey string, batchSize int, flushInterval time.Duration, maxQueueSize int, client *http.Client) Transport {
	if client == nil {
		client = &http.Client{}
	}
	h := &httpTransport{
		endpointURL: strings.TrimRight(endpointURL, "/"),
		apiKey:      apiKey,
		client:      client,
	}
	h.batched = newBatched(h, batchSize, flushInterval, maxQueueSize)
	return h
}

type ingestPayload struct {
	Events []string `json:"events"`
}

func (h *httpTransport) Flush(batch []string) {
	body, err := json.Marshal(ingestPayload{Events: batch})
	if err != nil {
		ilog.Warn("InvokeLens failed to encode batch, dropping %d events: %s", len(batch), err)
		return
	}

	backoff := initialBackoff
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), httpFlushTimeout)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpointURL+"/v1/ingest", bytes.NewReader(body))
		if err != nil {
			cancel()
			ilog.Warn("InvokeLens failed to build ingest request: %s", err)
			return
		}
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := h.client.Do(req)
		cancel()
		if err != nil {
			ilog.Warn("InvokeLens ingest %s, attempt %d/%d", fmt.Sprintf("%T", err), attempt+1, MaxRetries+1)
		} else {
			status := resp.StatusCode
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if status < 400 {
				return
			}
			if status < 500 {
				ilog.Warn("InvokeLens ingest rejected (HTTP %d): %s. Not retrying.", status, truncateForLog(string(respBody)))
				return
			}
			ilog.Warn("InvokeLens ingest server error (HTTP %d), attempt %d/%d", status, attempt+1, MaxRetries+1)
		}

		if attempt < MaxRetries {
			time.Sleep(backoff)
			backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		}
	}

	ilog.Error("InvokeLens ingest failed after %d attempts. Dropping %d events.", MaxRetries+1, len(batch))
}

func truncateForLog(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
