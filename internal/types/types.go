package types

import "time"

// ErrorType classifies failures surfaced by the search engine layer.
type ErrorType string

const (
	ErrorTypeNetworkTimeout ErrorType = "network_timeout"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeResponse       ErrorType = "response"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Config represents the dug service configuration
type Config struct {
	// OpenSearch connection configuration
	OpenSearchEndpoint          string        `json:"opensearch_endpoint" env:"OPENSEARCH_ENDPOINT,required=true"`
	OpenSearchUsername          string        `json:"opensearch_username" env:"OPENSEARCH_USERNAME"`
	OpenSearchPassword          string        `json:"-" env:"OPENSEARCH_PASSWORD"`
	OpenSearchCACertPath        string        `json:"opensearch_ca_cert_path" env:"OPENSEARCH_CA_CERT_PATH"`
	OpenSearchUseAWSSigner      bool          `json:"opensearch_use_aws_signer" env:"OPENSEARCH_USE_AWS_SIGNER,default=false"`
	OpenSearchRegion            string        `json:"opensearch_region" env:"OPENSEARCH_REGION,default=us-east-1"`
	OpenSearchInsecureSkipTLS   bool          `json:"opensearch_insecure_skip_tls" env:"OPENSEARCH_INSECURE_SKIP_TLS,default=false"`
	OpenSearchRateLimit         float64       `json:"opensearch_rate_limit" env:"OPENSEARCH_RATE_LIMIT,default=10.0"`
	OpenSearchRateBurst         int           `json:"opensearch_rate_burst" env:"OPENSEARCH_RATE_BURST,default=20"`
	OpenSearchConnectionTimeout time.Duration `json:"opensearch_connection_timeout" env:"OPENSEARCH_CONNECTION_TIMEOUT,default=30s"`
	OpenSearchRequestTimeout    time.Duration `json:"opensearch_request_timeout" env:"OPENSEARCH_REQUEST_TIMEOUT,default=60s"`
	OpenSearchMaxRetries        int           `json:"opensearch_max_retries" env:"OPENSEARCH_MAX_RETRIES,default=3"`
	OpenSearchRetryDelay        time.Duration `json:"opensearch_retry_delay" env:"OPENSEARCH_RETRY_DELAY,default=1s"`
	OpenSearchMaxConnections    int           `json:"opensearch_max_connections" env:"OPENSEARCH_MAX_CONNECTIONS,default=100"`
	OpenSearchMaxIdleConns      int           `json:"opensearch_max_idle_conns" env:"OPENSEARCH_MAX_IDLE_CONNS,default=10"`
	OpenSearchIdleConnTimeout   time.Duration `json:"opensearch_idle_conn_timeout" env:"OPENSEARCH_IDLE_CONN_TIMEOUT,default=90s"`

	// Index configuration
	ConceptsIndex  string `json:"concepts_index" env:"CONCEPTS_INDEX,default=concepts_index"`
	VariablesIndex string `json:"variables_index" env:"VARIABLES_INDEX,default=variables_index"`
	KGIndex        string `json:"kg_index" env:"KG_INDEX,default=kg_index"`

	// Search behavior configuration
	SearchFuzziness    int `json:"search_fuzziness" env:"SEARCH_FUZZINESS,default=1"`
	SearchPrefixLength int `json:"search_prefix_length" env:"SEARCH_PREFIX_LENGTH,default=3"`

	// HTTP API configuration
	APIListenAddr    string        `json:"api_listen_addr" env:"API_LISTEN_ADDR,default=:8181"`
	APIReadTimeout   time.Duration `json:"api_read_timeout" env:"API_READ_TIMEOUT,default=15s"`
	APIWriteTimeout  time.Duration `json:"api_write_timeout" env:"API_WRITE_TIMEOUT,default=60s"`
	APIShutdownGrace time.Duration `json:"api_shutdown_grace" env:"API_SHUTDOWN_GRACE,default=10s"`

	// OpenTelemetry configuration
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=dug"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}
