package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_TaxiiSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("POLL_ASYNC_THRESHOLD", "25")
	t.Setenv("POLL_ESTIMATED_WAIT", "30")
	t.Setenv("RESULT_SET_TTL", "2h")
	t.Setenv("RESULT_SET_SWEEP_INTERVAL", "90s")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("APP_BASE_URL", "https://taxii.example.com/")

	cfg := Load()

	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Taxii.PollAsyncThreshold)
	assert.Equal(t, 30*time.Second, cfg.Taxii.PollEstimatedWait)
	assert.Equal(t, 2*time.Hour, cfg.Taxii.ResultSetTTL)
	assert.Equal(t, 90*time.Second, cfg.Taxii.SweepInterval)
	assert.Equal(t, time.Hour, cfg.Taxii.VolumeCounterTTL)
	assert.True(t, cfg.Auth.Required)
	assert.Equal(t, "https://taxii.example.com", cfg.App.BaseURL)
}

func TestLoad_ResultSetTTLMustBePositive(t *testing.T) {
	for _, value := range []string{"0", "0s", "-5m"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("RESULT_SET_TTL", value)
			assert.Equal(t, 24*time.Hour, Load().Taxii.ResultSetTTL)
		})
	}
}

func TestGetEnvAsDuration_Fallback(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("SOME_DURATION", time.Minute))
}
