package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	MaxBodyBytes                  string   `env:"HTTP_SERVER_MAX_BODY" env-default:"8M"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (configurations and the patient record store)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"openmrs"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Kafka Producer settings
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"configuration-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Redis (total-records cache)
	RedisEnabled         bool          `env:"REDIS_ENABLED" env-default:"false"`
	RedisHost            string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort            int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword        string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB              int           `env:"REDIS_DB" env-default:"0"`
	TotalRecordsCacheTTL time.Duration `env:"TOTAL_RECORDS_CACHE_TTL" env-default:"1m"`

	// Estimation
	EstimationStaleFraction      float64 `env:"ESTIMATION_STALE_FRACTION" env-default:"0.1"`
	EstimationRefreshConcurrency int     `env:"ESTIMATION_REFRESH_CONCURRENCY" env-default:"2"`
	EstimationEMIterations       int     `env:"ESTIMATION_EM_ITERATIONS" env-default:"3"`

	// Tracing
	OTLPEnabled     bool          `env:"OTLP_ENABLED" env-default:"false"`
	OTLPEndpoint    string        `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol    string        `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure    bool          `env:"OTLP_INSECURE" env-default:"true"`
	OTLPTimeout     time.Duration `env:"OTLP_TIMEOUT" env-default:"10s"`
	OTLPSampleRatio float64       `env:"OTLP_SAMPLE_RATIO" env-default:"1"`
}
