package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MetricSourceCloudWatch = "cloudwatch"
	MetricSourcePostgres   = "postgres"

	ReportStorageS3         = "s3"
	ReportStorageFilesystem = "filesystem"
)

type Config struct {
	Environment string
	LogLevel    string
	AWS         AWSConfig
	Metrics     MetricsConfig
	Report      ReportConfig
	S3          S3Config
	Dynamo      DynamoConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Postgres    PostgresConfig
	CloudWatch  CloudWatchConfig
	Server      ServerConfig
	Security    SecurityConfig
}

type AWSConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type MetricsConfig struct {
	Source            string
	Namespace         string
	Resolution        int32
	RequestsPerSecond float64
}

type ReportConfig struct {
	Ranges          []string
	ServicesListTTL time.Duration
	Storage         string
	Dir             string
	TestService     string
}

type S3Config struct {
	Bucket       string
	KeyPrefix    string
	UsePathStyle bool
}

type DynamoConfig struct {
	Enabled     bool
	TableName   string
	StrongReads bool
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
}

type PostgresConfig struct {
	DSN      string
	PageSize int
}

type CloudWatchConfig struct {
	LogsEnabled            bool
	LogGroup               string
	LogStream              string
	ReportMetricsEnabled   bool
	ReportMetricsNamespace string
}

type ServerConfig struct {
	Port                    string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	ShutdownTimeout         time.Duration
	ServicesRefreshInterval time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	resolution, err := strconv.Atoi(getEnv("METRIC_RESOLUTION", "60"))
	if err != nil || resolution <= 0 {
		return nil, fmt.Errorf("invalid METRIC_RESOLUTION: %w", errOrPositive(err))
	}

	requestsPerSecond, err := strconv.ParseFloat(getEnv("METRIC_REQUESTS_PER_SECOND", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid METRIC_REQUESTS_PER_SECOND: %w", err)
	}

	servicesListTTL, err := parseDuration(getEnv("SERVICES_LIST_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICES_LIST_TTL: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisTTL, err := parseDuration(getEnv("REDIS_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	postgresPageSize, err := strconv.Atoi(getEnv("POSTGRES_PAGE_SIZE", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PAGE_SIZE: %w", err)
	}

	refreshInterval, err := parseDuration(getEnv("SERVICES_REFRESH_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICES_REFRESH_INTERVAL: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	environment := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		Environment: environment,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        getEnv("AWS_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Metrics: MetricsConfig{
			Source:            strings.ToLower(getEnv("METRIC_SOURCE", MetricSourceCloudWatch)),
			Namespace:         getEnv("METRIC_NAMESPACE", ""),
			Resolution:        int32(resolution),
			RequestsPerSecond: requestsPerSecond,
		},
		Report: ReportConfig{
			Ranges:          splitCSV(getEnv("REPORT_RANGES", "1d,7d,30d")),
			ServicesListTTL: servicesListTTL,
			Storage:         strings.ToLower(getEnv("REPORT_STORAGE", ReportStorageS3)),
			Dir:             getEnv("REPORTS_DIR", "./reports"),
			TestService:     getEnv("TEST_SERVICE", "myservice"),
		},
		S3: S3Config{
			Bucket:       getEnv("REPORTS_S3_BUCKET_NAME", ""),
			KeyPrefix:    getEnv("REPORTS_S3_KEY_PREFIX", ""),
			UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
		},
		Dynamo: DynamoConfig{
			Enabled:     getEnvBool("DYNAMO_ENABLED", false),
			TableName:   getEnv("DYNAMO_TABLE_REPORT_INDEX", "sla_report_index"),
			StrongReads: getEnvBool("DYNAMO_STRONG_READS", false),
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			TTL:          redisTTL,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Postgres: PostgresConfig{
			DSN:      getEnv("POSTGRES_DSN", ""),
			PageSize: postgresPageSize,
		},
		CloudWatch: CloudWatchConfig{
			LogsEnabled:            getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroup:               getEnv("CLOUDWATCH_LOG_GROUP", "/sla-monitor/report"),
			LogStream:              getEnv("CLOUDWATCH_LOG_STREAM", environment),
			ReportMetricsEnabled:   getEnvBool("REPORT_METRICS_ENABLED", false),
			ReportMetricsNamespace: getEnv("REPORT_METRICS_NAMESPACE", "SlaMonitor/Reports"),
		},
		Server: ServerConfig{
			Port:                    getEnv("SERVER_PORT", "8080"),
			ReadTimeout:             10 * time.Second,
			WriteTimeout:            60 * time.Second,
			IdleTimeout:             60 * time.Second,
			ShutdownTimeout:         30 * time.Second,
			ServicesRefreshInterval: refreshInterval,
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Environment) == "" {
		return fmt.Errorf("ENVIRONMENT is required")
	}
	if len(c.Report.Ranges) == 0 {
		return fmt.Errorf("REPORT_RANGES must list at least one range")
	}

	switch c.Metrics.Source {
	case MetricSourceCloudWatch:
		if c.Metrics.Namespace == "" {
			return fmt.Errorf("METRIC_NAMESPACE is required when METRIC_SOURCE=cloudwatch")
		}
	case MetricSourcePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when METRIC_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("unsupported METRIC_SOURCE: %s", c.Metrics.Source)
	}

	switch c.Report.Storage {
	case ReportStorageS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("REPORTS_S3_BUCKET_NAME is required when REPORT_STORAGE=s3")
		}
	case ReportStorageFilesystem:
		if c.Report.Dir == "" {
			return fmt.Errorf("REPORTS_DIR is required when REPORT_STORAGE=filesystem")
		}
	default:
		return fmt.Errorf("unsupported REPORT_STORAGE: %s", c.Report.Storage)
	}

	if c.Dynamo.Enabled && c.Dynamo.TableName == "" {
		return fmt.Errorf("DYNAMO_TABLE_REPORT_INDEX is required when DYNAMO_ENABLED=true")
	}
	if c.CloudWatch.LogsEnabled && (c.CloudWatch.LogGroup == "" || c.CloudWatch.LogStream == "") {
		return fmt.Errorf("CLOUDWATCH_LOG_GROUP and CLOUDWATCH_LOG_STREAM are required when CLOUDWATCH_LOGS_ENABLED=true")
	}
	if c.Security.AuthEnabled && c.Security.AuthToken == "" {
		return fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func errOrPositive(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("must be positive")
}
