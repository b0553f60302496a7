package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendS3        = "s3"
	BackendMongo     = "mongo"
)

// ServiceConfig holds common service configuration
type ServiceConfig struct {
	Port            int           `mapstructure:"port"`
	HealthPort      int           `mapstructure:"health_port"`
	Host            string        `mapstructure:"host"`
	LogLevel        string        `mapstructure:"log_level"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the service listen address
func (c ServiceConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HealthAddr returns the health check listen address (plain HTTP)
func (c ServiceConfig) HealthAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HealthPort)
}

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

// FirestoreConfig selects the Firestore project and the service-account key file.
type FirestoreConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	DatabaseID      string `mapstructure:"database_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// S3Config holds S3-compatible object storage configuration
type S3Config struct {
	BucketHost  string `mapstructure:"bucket_host"`
	BucketPort  int    `mapstructure:"bucket_port"`
	BucketName  string `mapstructure:"bucket_name"`
	UseSSL      bool   `mapstructure:"use_ssl"`
	InsecureTLS bool   `mapstructure:"insecure_tls"`
	Region      string `mapstructure:"region"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// StoreConfig selects and configures the document store backend
type StoreConfig struct {
	Backend   string          `mapstructure:"backend"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
	S3        S3Config        `mapstructure:"s3"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
}

// CommonConfig holds configuration common to all commands
type CommonConfig struct {
	Service ServiceConfig `mapstructure:"service"`
	Store   StoreConfig   `mapstructure:"store"`
	OTel    OTelConfig    `mapstructure:"otel"`
}

// Validate rejects settings no command can run with.
func (c CommonConfig) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFirestore, BackendS3, BackendMongo:
	default:
		return fmt.Errorf("unknown store backend %q (want memory, firestore, s3 or mongo)", c.Store.Backend)
	}
	if c.Service.RequestTimeout <= 0 {
		return fmt.Errorf("service.request_timeout must be positive, got %s", c.Service.RequestTimeout)
	}
	if c.Store.Backend == BackendS3 && c.Store.S3.BucketName == "" {
		return errors.New("store.s3.bucket_name is required for the s3 backend")
	}
	if c.Store.Backend == BackendMongo && c.Store.Mongo.URI == "" {
		return errors.New("store.mongo.uri is required for the mongo backend")
	}
	return nil
}

// InitViper initializes Viper with common settings
func InitViper(serviceName string) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(fmt.Sprintf("./%s", serviceName))
	v.AddConfigPath("/etc/investoriq/")

	v.SetEnvPrefix("INVESTORIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	return v
}

func setDefaults(v *viper.Viper) {
	// The original frontend talks to localhost:5000.
	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.port", 5000)
	v.SetDefault("service.health_port", 5100)
	v.SetDefault("service.log_level", "info")
	v.SetDefault("service.request_timeout", 10*time.Second)
	v.SetDefault("service.shutdown_timeout", 5*time.Second)

	v.SetDefault("store.backend", BackendMemory)

	v.SetDefault("store.firestore.project_id", "")
	v.SetDefault("store.firestore.database_id", "(default)")
	v.SetDefault("store.firestore.credentials_file", "")

	v.SetDefault("store.s3.bucket_host", "localhost")
	v.SetDefault("store.s3.bucket_port", 9000)
	v.SetDefault("store.s3.bucket_name", "investoriq")
	v.SetDefault("store.s3.use_ssl", false)
	v.SetDefault("store.s3.insecure_tls", false)
	v.SetDefault("store.s3.region", "us-east-1")

	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.database", "investoriq")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.collector_endpoint", "")
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ./.env) into the
// process environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from file and environment
func Load(v *viper.Viper, cfg any) error {
	// Support standard PORT/HOST env vars used by container platforms
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			v.Set("service.port", port)
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		v.Set("service.host", host)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// BindFlags binds common CLI flags to Viper
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.IntP("port", "p", 0, "Port to listen on")
	flags.String("host", "", "Host to bind to")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Duration("request-timeout", 0, "Upper bound for a single request, including the store call")
	flags.String("store", "", "Document store backend (memory, firestore, s3, mongo)")
	flags.String("firestore-project", "", "Firestore project ID (detected from credentials when empty)")
	flags.String("firestore-credentials", "", "Path to the Firestore service-account JSON key")
	flags.String("mongo-uri", "", "MongoDB connection URI")
	flags.Bool("otel-enabled", false, "Enable OpenTelemetry tracing")
	flags.String("otel-collector-endpoint", "", "OpenTelemetry collector gRPC endpoint (e.g. localhost:4317)")

	v.BindPFlag("service.port", flags.Lookup("port"))
	v.BindPFlag("service.host", flags.Lookup("host"))
	v.BindPFlag("service.log_level", flags.Lookup("log-level"))
	v.BindPFlag("service.request_timeout", flags.Lookup("request-timeout"))
	v.BindPFlag("store.backend", flags.Lookup("store"))
	v.BindPFlag("store.firestore.project_id", flags.Lookup("firestore-project"))
	v.BindPFlag("store.firestore.credentials_file", flags.Lookup("firestore-credentials"))
	v.BindPFlag("store.mongo.uri", flags.Lookup("mongo-uri"))
	v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	v.BindPFlag("otel.collector_endpoint", flags.Lookup("otel-collector-endpoint"))
}

// LoadStoreConfigFromEnv supplements the viper config with the environment
// variables that hosting platforms set for each backend.
func LoadStoreConfigFromEnv(cfg *StoreConfig) {
	if cfg.Firestore.CredentialsFile == "" {
		cfg.Firestore.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		cfg.Mongo.URI = uri
	}

	s3 := &cfg.S3
	if host := os.Getenv("BUCKET_HOST"); host != "" {
		s3.BucketHost = host
	}
	if portStr := os.Getenv("BUCKET_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			s3.BucketPort = port
		}
	}
	if name := os.Getenv("BUCKET_NAME"); name != "" {
		s3.BucketName = name
	}
	if region := os.Getenv("BUCKET_REGION"); region != "" {
		s3.Region = region
	}

	// Port 443 implies HTTPS unless BUCKET_SSL says otherwise
	if sslStr := os.Getenv("BUCKET_SSL"); sslStr != "" {
		s3.UseSSL = sslStr == "true" || sslStr == "1"
	} else if s3.BucketPort == 443 {
		s3.UseSSL = true
	}

	// Internal Kubernetes services typically use self-signed certs
	if insecureStr := os.Getenv("BUCKET_INSECURE_TLS"); insecureStr != "" {
		s3.InsecureTLS = insecureStr == "true" || insecureStr == "1"
	} else if strings.HasSuffix(s3.BucketHost, ".svc") {
		s3.InsecureTLS = true
	}
}
