package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stateful/pkg/config"
	"github.com/dmitrymomot/stateful/pkg/document"
	"github.com/dmitrymomot/stateful/pkg/fsm"
	"github.com/dmitrymomot/stateful/pkg/logger"
	"github.com/dmitrymomot/stateful/pkg/redis"
)

func TestLoad_ComponentConfigs(t *testing.T) {
	t.Setenv("FSM_NAME", "orders")
	t.Setenv("FSM_RETRIES", "7")
	t.Setenv("FSM_BLOCKING_WAIT", "50ms")
	t.Setenv("DOCUMENT_MANAGED_COLLECTION", "orders")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("REDIS_STATE_TTL", "1h")
	t.Setenv("LOG_LEVEL", "debug")

	var machine fsm.Config
	require.NoError(t, config.Load(&machine, config.WithoutCache()))
	assert.Equal(t, fsm.Config{Name: "orders", Retries: 7, BlockingWait: 50 * time.Millisecond}, machine)

	var doc document.Config
	require.NoError(t, config.Load(&doc, config.WithoutCache()))
	assert.Equal(t, "orders", doc.ManagedCollection)
	assert.Equal(t, "state", doc.ManagedField)

	var rc redis.Config
	require.NoError(t, config.Load(&rc, config.WithoutCache()))
	assert.Equal(t, "redis://cache:6379/1", rc.ConnectionURL)
	assert.Equal(t, "fsm:state:", rc.StatePrefix)
	assert.Equal(t, time.Hour, rc.StateTTL)

	var lc logger.Config
	require.NoError(t, config.Load(&lc, config.WithoutCache()))
	assert.Equal(t, "debug", lc.Level)
}
