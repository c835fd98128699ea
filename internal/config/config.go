package config

import (
	"fmt"
	"net/url"
	"strings"

	env "github.com/netflix/go-env"

	"github.com/yskale/dug/internal/types"
)

// Type alias for Config
type Config = types.Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if err := validateOpenSearchConfig(config); err != nil {
		return fmt.Errorf("OpenSearch configuration validation failed: %w", err)
	}

	if config.ConceptsIndex == "" || config.VariablesIndex == "" || config.KGIndex == "" {
		return fmt.Errorf("index names cannot be empty")
	}

	if config.SearchFuzziness < 0 {
		config.SearchFuzziness = 0
	}
	if config.SearchFuzziness > 2 {
		config.SearchFuzziness = 2
	}

	if config.SearchPrefixLength < 0 {
		config.SearchPrefixLength = 0
	}

	if config.OTelEnabled && strings.TrimSpace(config.OTelExporterOTLPEndpoint) == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OpenTelemetry is enabled")
	}

	return nil
}

// validateOpenSearchConfig validates OpenSearch-specific configuration
func validateOpenSearchConfig(config *Config) error {
	if config.OpenSearchEndpoint == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT is required")
	}

	parsedURL, err := url.Parse(config.OpenSearchEndpoint)
	if err != nil {
		return fmt.Errorf("invalid OPENSEARCH_ENDPOINT URL format: %w", err)
	}

	if parsedURL.Scheme == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT must include scheme (http:// or https://)")
	}

	if !strings.HasPrefix(parsedURL.Scheme, "http") {
		return fmt.Errorf("OPENSEARCH_ENDPOINT scheme must be http or https")
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT must include a valid host")
	}

	if config.OpenSearchUseAWSSigner && config.OpenSearchRegion == "" {
		return fmt.Errorf("OPENSEARCH_REGION is required when the AWS request signer is enabled")
	}

	// Clamp rate limiting and connection settings to safe ranges
	if config.OpenSearchRateLimit <= 0 {
		config.OpenSearchRateLimit = 10.0
	}
	if config.OpenSearchRateLimit > 1000 {
		config.OpenSearchRateLimit = 1000.0
	}

	if config.OpenSearchRateBurst <= 0 {
		config.OpenSearchRateBurst = 20
	}
	if config.OpenSearchRateBurst > 10000 {
		config.OpenSearchRateBurst = 10000
	}

	if config.OpenSearchMaxRetries < 0 {
		config.OpenSearchMaxRetries = 0
	}
	if config.OpenSearchMaxRetries > 10 {
		config.OpenSearchMaxRetries = 10
	}

	return nil
}
