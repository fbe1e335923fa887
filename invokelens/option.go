package invokelens

import "time"

// Option configures a Client at construction time.
type Option func(*config)

// WithEndpointURL overrides the ingestion endpoint. Defaults to the
// InvokeLens-hosted endpoint.
func WithEndpointURL(url string) Option {
	return func(c *config) { c.endpointURL = url }
}

// WithTransportMode selects HTTP or EventBridge delivery. Defaults to HTTP.
func WithTransportMode(mode TransportMode) Option {
	return func(c *config) { c.transportMode = mode }
}

// WithEventBusName sets the EventBridge bus name used when the transport
// mode is TransportEventBridge.
func WithEventBusName(name string) Option {
	return func(c *config) { c.eventBusName = name }
}

// WithBatchSize sets how many events are batched per delivery attempt.
func WithBatchSize(n int) Option {
	return func(c *config) { c.batchSize = n }
}

// WithFlushInterval sets the maximum time a partial batch waits before
// being flushed anyway.
func WithFlushInterval(d time.Duration) Option {
	return func(c *config) { c.flushInterval = d }
}

// WithMaxQueueSize bounds the number of events buffered awaiting delivery.
// Once full, further Send calls drop events rather than block.
func WithMaxQueueSize(n int) Option {
	return func(c *config) { c.maxQueueSize = n }
}

// WithKillSwitch enables or disables the pre-invocation kill-switch and
// policy checks. Enabled by default.
func WithKillSwitch(enabled bool) Option {
	return func(c *config) { c.enableKillSwitch = enabled }
}

// WithStatusCheckTTL sets how long a cached kill-switch/policy lookup is
// trusted before the next invocation triggers a refetch.
func WithStatusCheckTTL(d time.Duration) Option {
	return func(c *config) { c.statusCheckTTL = d }
}

// ObserveOption configures a single wrapped invocation.
type ObserveOption func(*observeConfig)

type observeConfig struct {
	agentName string
	modelID   string
	tags      map[string]string
}

func observeDefaults() *observeConfig {
	return &observeConfig{modelID: "unknown"}
}

// WithAgentName sets the human-readable agent name stamped onto events.
func WithAgentName(name string) ObserveOption {
	return func(c *observeConfig) { c.agentName = name }
}

// WithModelID sets the default model ID stamped onto events when the
// invocation's own response doesn't reveal one.
func WithModelID(modelID string) ObserveOption {
	return func(c *observeConfig) { c.modelID = modelID }
}

// WithTags attaches custom key/value tags to every event emitted by this
// wrapped invocation.
func WithTags(tags map[string]string) ObserveOption {
	return func(c *observeConfig) { c.tags = tags }
}
