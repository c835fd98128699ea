package opensearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yskale/dug/internal/types"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	_, err = NewClient(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")

	_, err = NewClient(&Config{
		Endpoint:     "https://opensearch.example.org:9200",
		UseAWSSigner: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestNewClientAppliesDefaults(t *testing.T) {
	cfg := &Config{
		Endpoint: "https://opensearch.example.org:9200",
		Username: "admin",
		Password: "admin",
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, 30*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.RetryDelay)
	assert.Equal(t, 100, cfg.MaxConnections)
}

func TestNewClientRejectsMissingCACert(t *testing.T) {
	_, err := NewClient(&Config{
		Endpoint:   "https://opensearch.example.org:9200",
		CACertPath: "/nonexistent/ca.pem",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CA certificate")
}

func TestExecuteWithRetryStopsOnNonRetryableError(t *testing.T) {
	client := &Client{config: &Config{MaxRetries: 3, RetryDelay: time.Millisecond}}

	attempts := 0
	err := client.ExecuteWithRetry(context.Background(), func() error {
		attempts++
		return NewSearchError(types.ErrorTypeValidation, "bad request body")
	}, "Search")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestExecuteWithRetryRetriesAndSucceeds(t *testing.T) {
	client := &Client{config: &Config{MaxRetries: 3, RetryDelay: time.Millisecond}}

	attempts := 0
	err := client.ExecuteWithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return NewRetryableSearchError(types.ErrorTypeNetworkTimeout, "timed out", time.Millisecond)
		}
		return nil
	}, "Count")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetryExhaustsAttempts(t *testing.T) {
	client := &Client{config: &Config{MaxRetries: 2, RetryDelay: time.Millisecond}}

	attempts := 0
	err := client.ExecuteWithRetry(context.Background(), func() error {
		attempts++
		return errors.New("transient failure")
	}, "Search")

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestExecuteWithRetryHonorsContextCancellation(t *testing.T) {
	client := &Client{config: &Config{MaxRetries: 5, RetryDelay: time.Minute}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.ExecuteWithRetry(ctx, func() error {
		return errors.New("transient failure")
	}, "Search")

	require.ErrorIs(t, err, context.Canceled)
}
