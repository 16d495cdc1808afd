package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"fern-api"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Tracing
	OtelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	OtelProtocol string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc"`
	OtelInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	// Share of new traces recorded, 0 to 1
	OtelSampleRatio float64 `env:"OTEL_TRACES_SAMPLE_RATIO" env-default:"1"`

	// PostgreSQL (Card Catalog). Without DB_HOST the catalog is read from CATALOG_FIXTURE_PATH.
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"fern"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`
	CatalogFixturePath            string        `env:"CATALOG_FIXTURE_PATH" env-default:""`

	// Redis (Job Progress)
	RedisHost     string `env:"REDIS_HOST" env-default:""`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Kafka Consumer (crowdsourced submissions)
	KafkaBrokers          []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaSubmissionsTopic string   `env:"KAFKA_SUBMISSIONS_TOPIC" env-default:"card-submissions"`
	KafkaConsumerGroup    string   `env:"KAFKA_CONSUMER_GROUP" env-default:"fern-consumer"`
	KafkaConsumerEnabled  bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"false"`
	// Fibonacci backoff between retries of a message that failed with a retryable error
	KafkaRetryBackoff    time.Duration `env:"KAFKA_RETRY_BACKOFF" env-default:"500ms"`
	KafkaMaxRetryBackoff time.Duration `env:"KAFKA_MAX_RETRY_BACKOFF" env-default:"30s"`

	// Kafka Producer settings
	KafkaResolutionsTopic string `env:"KAFKA_RESOLUTIONS_TOPIC" env-default:"card-resolutions"`
	KafkaBatchSize        int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout     int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks     int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression      string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Resolution
	OrganizationID       int           `env:"ORG_ID" env-default:"0"`
	CrossRefOrgIDs       []int         `env:"CROSS_REF_ORG_IDS" env-default:""`
	MatchPolicyPath      string        `env:"MATCH_POLICY_PATH" env-default:""`
	JobProgressInterval  int           `env:"JOB_PROGRESS_INTERVAL" env-default:"25"`
	JobResultTTL         time.Duration `env:"JOB_RESULT_TTL" env-default:"1h"`
	JobProgressTTL       time.Duration `env:"JOB_PROGRESS_TTL" env-default:"24h"`
	JobStore             string        `env:"JOB_STORE" env-default:"memory"`
	ImportMaxRows        int           `env:"IMPORT_MAX_ROWS" env-default:"5000"`
	ImportMaxUploadBytes int           `env:"IMPORT_MAX_UPLOAD_BYTES" env-default:"10485760"` // 10MB
}

// Orgs returns the organizations team and player lookups are scoped to: the
// configured organization plus any cross-referenced ones. Nil means unscoped.
func (c Config) Orgs() []int64 {
	if c.OrganizationID == 0 {
		return nil
	}
	orgs := []int64{int64(c.OrganizationID)}
	for _, id := range c.CrossRefOrgIDs {
		if id != c.OrganizationID {
			orgs = append(orgs, int64(id))
		}
	}
	return orgs
}
