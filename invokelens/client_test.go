package invokelens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InvokeLens/invokelens-sdk/internal/transport"
)

func TestNewRejectsEmptyAPIKey(t *testing.T) {
	c, err := New("")
	assert.Nil(t, c)
	assert.Error(t, err)
}

func TestNewAppliesOptions(t *testing.T) {
	c, err := New("il_live_test",
		WithEndpointURL("http://example.invalid"),
		WithBatchSize(25),
		WithKillSwitch(false),
	)
	require.NoError(t, err)
	defer c.Shutdown()

	assert.Equal(t, "http://example.invalid", c.cfg.endpointURL)
	assert.Equal(t, 25, c.cfg.batchSize)
	assert.False(t, c.cfg.enableKillSwitch)
	assert.Nil(t, c.statusCache)
}

func TestNewDefaultsEnableKillSwitch(t *testing.T) {
	c, err := New("il_live_test")
	require.NoError(t, err)
	defer c.Shutdown()

	assert.NotNil(t, c.statusCache)
}

func TestKillSwitchBlockedFalseWhenDisabled(t *testing.T) {
	c, err := New("il_live_test", WithKillSwitch(false))
	require.NoError(t, err)
	defer c.Shutdown()

	blocked, reason := c.killSwitchBlocked("my-agent")
	assert.False(t, blocked)
	assert.Empty(t, reason)
	assert.Nil(t, c.policies("my-agent"))
}

func TestNewUnknownTransportModeDisablesTelemetry(t *testing.T) {
	c, err := New("il_live_test",
		WithTransportMode("carrier-pigeon"),
		WithKillSwitch(false),
	)
	require.NoError(t, err)
	defer c.Shutdown()

	_, ok := c.transport.(transport.Nop)
	assert.True(t, ok)
}

func TestShutdownIsIdempotentSafe(t *testing.T) {
	c, err := New("il_live_test", WithKillSwitch(false))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		c.Shutdown()
		c.Shutdown()
	})
}
