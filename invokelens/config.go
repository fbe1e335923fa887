package invokelens

import "time"

// TransportMode selects how telemetry events are delivered.
type TransportMode string

const (
	TransportHTTP        TransportMode = "http"
	TransportEventBridge TransportMode = "eventbridge"
)

const (
	defaultEndpointURL  = "https://api.invokelens.com"
	defaultBatchSize    = 10
	defaultFlushSeconds = 5 * time.Second
	defaultMaxQueueSize = 1000
)

// config is the resolved, immutable configuration for a Client, built by
// applying Options over the defaults.
type config struct {
	endpointURL      string
	transportMode    TransportMode
	eventBusName     string
	batchSize        int
	flushInterval    time.Duration
	maxQueueSize     int
	enableKillSwitch bool
	statusCheckTTL   time.Duration
	sdkVersion       string
}

func defaults() *config {
	return &config{
		endpointURL:      defaultEndpointURL,
		transportMode:    TransportHTTP,
		batchSize:        defaultBatchSize,
		flushInterval:    defaultFlushSeconds,
		maxQueueSize:     defaultMaxQueueSize,
		enableKillSwitch: true,
		statusCheckTTL:   10 * time.Second,
		sdkVersion:       Version,
	}
}
