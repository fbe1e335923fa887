// Package invokelens is a client-side SDK for applications that invoke
// managed LLM-agent services. It wraps invocation functions to emit
// structured telemetry and enforce pre-invocation guardrail policies
// (kill-switch, cost caps, token limits, rate limits, time restrictions)
// before any expensive call is made.
package invokelens

import (
	"context"
	"errors"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"

	ilog "github.com/InvokeLens/invokelens-sdk/internal/log"
	"github.com/InvokeLens/invokelens-sdk/internal/ratelimit"
	"github.com/InvokeLens/invokelens-sdk/internal/status"
	"github.com/InvokeLens/invokelens-sdk/internal/transport"
)

// Client sends agent telemetry to the InvokeLens platform and enforces
// guardrail policies ahead of every wrapped invocation.
//
// Usage:
//
//	client, err := invokelens.New("il_live_abc123")
//	wrapped := invokelens.Observe(client, "my-agent", "ask_agent", askAgent)
//	resp, err := wrapped(invokelens.Args{{Name: "prompt", Value: "hello"}})
//
//	// On app shutdown:
//	client.Shutdown()
type Client struct {
	apiKey string
	cfg    *config

	transport   transport.Transport
	statusCache *status.Cache
	rateTracker *ratelimit.Tracker
}

// processRateTracker is the rate tracker shared by every Client in the
// process, so RATE_LIMIT policies count invocations process-wide.
var processRateTracker = ratelimit.NewTracker()

// New constructs a Client for apiKey, applying the given Options over the
// defaults (HTTP transport to the InvokeLens-hosted endpoint, kill-switch
// enabled with a 10 second cache TTL).
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("invokelens: api key is required")
	}

	cfg := defaults()
	for _, opt := range opts {
		opt(cfg)
	}

	tr, err := buildTransport(cfg, apiKey)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiKey:      apiKey,
		cfg:         cfg,
		transport:   tr,
		rateTracker: processRateTracker,
	}
	if cfg.enableKillSwitch {
		c.statusCache = status.NewCache(cfg.endpointURL, apiKey, cfg.statusCheckTTL)
	}
	return c, nil
}

func buildTransport(cfg *config, apiKey string) (transport.Transport, error) {
	switch cfg.transportMode {
	case TransportEventBridge:
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, err
		}
		client := eventbridge.NewFromConfig(awsCfg)
		return transport.NewEventBridge(client, cfg.eventBusName, cfg.batchSize, cfg.flushInterval, cfg.maxQueueSize), nil
	case TransportHTTP, "":
		return transport.NewHTTP(cfg.endpointURL, apiKey, cfg.batchSize, cfg.flushInterval, cfg.maxQueueSize, nil), nil
	default:
		ilog.Warn("unknown transport mode %q, telemetry disabled", cfg.transportMode)
		return transport.Nop{}, nil
	}
}

// Shutdown flushes any events still queued and stops the background
// delivery worker. Call this once, on application exit.
func (c *Client) Shutdown() {
	c.transport.Shutdown()
}

// killSwitchBlocked reports whether agentID is currently blocked. With the
// kill-switch disabled, every agent is reported unblocked.
func (c *Client) killSwitchBlocked(agentID string) (bool, string) {
	if c.statusCache == nil {
		return false, ""
	}
	return c.statusCache.IsBlocked(context.Background(), agentID)
}

// policies returns the cached guardrail policies for agentID, or nil with
// the kill-switch disabled.
func (c *Client) policies(agentID string) []status.Policy {
	if c.statusCache == nil {
		return nil
	}
	return c.statusCache.Policies(context.Background(), agentID)
}

func (c *Client) recordInvocation(agentID string) {
	c.rateTracker.Record(agentID)
}

func (c *Client) countInWindow(agentID string, window time.Duration) int {
	return c.rateTracker.CountInWindow(agentID, window)
}
