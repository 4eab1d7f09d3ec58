package telemetry

import (
	"context"
	"testing"

	"github.com/jhoicas/fishstock-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer_SinEndpointEsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), config.OTELConfig{ServiceName: "test"}, "dev")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
