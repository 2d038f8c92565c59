package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/booking-engine/internal/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	cfg := &config.Config{}
	shutdown, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestRatioIsClamped(t *testing.T) {
	assert.Equal(t, 0.0, ratio(-1))
	assert.Equal(t, 0.25, ratio(0.25))
	assert.Equal(t, 1.0, ratio(3))
}
