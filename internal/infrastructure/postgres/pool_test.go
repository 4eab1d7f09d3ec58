package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fishstock-api/pkg/config"
)

func TestNewPoolConfig_AplicaConfiguracion(t *testing.T) {
	cfg := config.DBConfig{
		DatabaseURL:     "postgres://u:p@db:5432/fishstock?sslmode=disable",
		MaxConns:        8,
		MinConns:        1,
		MaxConnLifetime: 10 * time.Minute,
		MaxConnIdleTime: time.Minute,
		LockTimeout:     1500 * time.Millisecond,
		ApplicationName: "fishstock-api",
	}
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.Equal(t, 10*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, "1500", pc.ConnConfig.RuntimeParams["lock_timeout"])
	assert.Equal(t, "fishstock-api", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.NotNil(t, pc.AfterConnect)
}

func TestNewPoolConfig_SinLockTimeoutNiIPv4(t *testing.T) {
	cfg := config.DBConfig{Host: "localhost", Port: 5432, User: "u", DBName: "d", SSLMode: "disable", MaxConns: 4}
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)

	_, ok := pc.ConnConfig.RuntimeParams["lock_timeout"]
	assert.False(t, ok)
	assert.Equal(t, int32(4), pc.MaxConns)
}

func TestNewPoolConfig_DSNInvalido(t *testing.T) {
	_, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@db:notaport/x", MaxConns: 1})
	assert.Error(t, err)
}
