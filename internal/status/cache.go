// Package status checks whether an agent is kill-switched and caches the
// guardrail policies attached to it, with a fail-open TTL cache so that a
// slow or unreachable control plane never blocks an invocation it cannot
// evaluate.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	ilog "github.com/InvokeLens/invokelens-sdk/internal/log"
)

// DefaultTTL is the default cache lifetime for a status entry.
const DefaultTTL = 10 * time.Second

const fetchTimeout = 2 * time.Second

// Policy is a single guardrail policy returned by the status endpoint.
type Policy struct {
	PolicyID    string         `json:"policy_id"`
	PolicyType  string         `json:"policy_type"`
	Enforcement string         `json:"enforcement"`
	Conditions  map[string]any `json:"conditions"`
}

type cacheEntry struct {
	status       string
	blockedReason string
	policies     []Policy
	expiresAt    time.Time
}

type statusResponse struct {
	Status        string   `json:"status"`
	BlockedReason string   `json:"blocked_reason"`
	Policies      []Policy `json:"policies"`
}

// Cache checks agent kill-switch state and guardrail policies, backed by a
// single HTTP GET per TTL window. Any network or decode error is treated
// as fail-open: the agent is reported ACTIVE with no policies, rather than
// blocking invocations the control plane could not be reached to evaluate.
type Cache struct {
	endpointURL string
	apiKey      string
	ttl         time.Duration
	client      *http.Client

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewCache constructs a Cache that queries endpointURL for agent status.
func NewCache(endpointURL, apiKey string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		endpointURL: strings.TrimRight(endpointURL, "/"),
		apiKey:      apiKey,
		ttl:         ttl,
		client:      &http.Client{},
		entries:     map[string]*cacheEntry{},
	}
}

// IsBlocked reports whether agentID is currently kill-switched, along with
// the reason if so. On any error it returns (false, ""): fail open.
func (c *Cache) IsBlocked(ctx context.Context, agentID string) (bool, string) {
	if e := c.fresh(agentID); e != nil {
		return e.status == "BLOCKED", e.blockedReason
	}

	if err := c.fetchAndCache(ctx, agentID); err != nil {
		ilog.Debug("status check failed for %s, allowing invocation: %s", agentID, err)
		return false, ""
	}

	if e := c.fresh(agentID); e != nil {
		return e.status == "BLOCKED", e.blockedReason
	}
	return false, ""
}

// Policies returns the cached guardrail policies for agentID, triggering a
// fetch on a cache miss. Returns an empty slice on error: fail open.
func (c *Cache) Policies(ctx context.Context, agentID string) []Policy {
	if e := c.fresh(agentID); e != nil {
		return e.policies
	}
	if err := c.fetchAndCache(ctx, agentID); err != nil {
		return nil
	}
	if e := c.fresh(agentID); e != nil {
		return e.policies
	}
	return nil
}

// Invalidate removes the cached entry for agentID, forcing the next check
// to refetch.
func (c *Cache) Invalidate(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, agentID)
}

// Clear removes every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*cacheEntry{}
}

func (c *Cache) fresh(agentID string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[agentID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil
	}
	return e
}

func (c *Cache) fetchAndCache(ctx context.Context, agentID string) error {
	status, reason, policies, err := c.fetchStatus(ctx, agentID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[agentID] = &cacheEntry{
		status:        status,
		blockedReason: reason,
		policies:      policies,
		expiresAt:     time.Now().Add(c.ttl),
	}
	return nil
}

func (c *Cache) fetchStatus(ctx context.Context, agentID string) (status, reason string, policies []Policy, err error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/agents/%s/status", c.endpointURL, agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// A non-2xx response caches ACTIVE for the TTL window, unlike a
		// network error which fails open without caching so the next call
		// retries.
		return "ACTIVE", "", nil, nil
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", nil, err
	}
	if body.Status == "" {
		body.Status = "ACTIVE"
	}
	return body.Status, body.BlockedReason, body.Policies, nil
}
