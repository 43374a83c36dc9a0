package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cruce-web/internal/models"
)

// Supported database drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverMySQL     = "mysql"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite3"
)

// Instance is one named connection target.
type Instance struct {
	Alias      string `json:"alias"`
	ServerName string `json:"server_name"`
	Login      string `json:"login"`
	Password   string `json:"password"`
	Database   string `json:"database"`
}

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppPort string
	AppURL  string

	// Database
	DBDriver          string
	Instances         []Instance
	DBPoolSize        int
	DBMaxOverflow     int
	DBConnMaxLifetime time.Duration

	// Query
	QueryTimeout      time.Duration
	QueryChunkSize    int
	TemplatePath      string
	MinQuantity       int
	MinQuantityPinned bool

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// JWT
	AuthEnabled bool
	JWTSecret   string
	JWTExpire   time.Duration

	// Export
	ExportPath        string
	WorkerConcurrency int

	// Asynq
	AsynqRedisAddr     string
	AsynqRedisPassword string
	AsynqRedisDB       int

	DiscoveryTimeout time.Duration
	LogLevel         string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env") // For when running from cmd/web or cmd/worker

	cfg := &Config{
		AppName: getEnv("APP_NAME", "Cruce Web"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),
		AppURL:  getEnv("APP_URL", "http://localhost:8080"),

		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", DriverSQLServer)),
		DBPoolSize:        getEnvAsInt("DB_POOL_SIZE", 10),
		DBMaxOverflow:     getEnvAsInt("DB_MAX_OVERFLOW", 20),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		QueryTimeout:   getEnvAsDuration("QUERY_TIMEOUT", 2*time.Minute),
		QueryChunkSize: getEnvAsInt("QUERY_CHUNK_SIZE", 50000),
		TemplatePath:   getEnv("CRUCE_TEMPLATE_PATH", ""),
		MinQuantity:    getEnvAsInt("CRUCE_MIN_QUANTITY", 0),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 30*time.Minute),

		AuthEnabled: getEnvAsBool("AUTH_ENABLED", false),
		JWTSecret:   getEnv("JWT_SECRET", "change-this-secret-key"),
		JWTExpire:   getEnvAsDuration("JWT_EXPIRE", 12*time.Hour),

		ExportPath:        getEnv("EXPORT_PATH", "./storage/exports"),
		WorkerConcurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),

		AsynqRedisAddr:     getEnv("ASYNQ_REDIS_ADDR", "127.0.0.1:6379"),
		AsynqRedisPassword: getEnv("ASYNQ_REDIS_PASSWORD", ""),
		AsynqRedisDB:       getEnvAsInt("ASYNQ_REDIS_DB", 0),

		DiscoveryTimeout: getEnvAsDuration("DISCOVERY_TIMEOUT", 3*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	_, cfg.MinQuantityPinned = os.LookupEnv("CRUCE_MIN_QUANTITY")

	switch cfg.DBDriver {
	case DriverSQLServer, DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, &models.ConfigError{Msg: fmt.Sprintf("unsupported DB_DRIVER %q", cfg.DBDriver)}
	}

	if server := getEnv("DB_SERVER", ""); server != "" {
		cfg.Instances = append(cfg.Instances, Instance{
			Alias:      getEnv("DB_ALIAS", "default"),
			ServerName: server,
			Login:      getEnv("DB_LOGIN", ""),
			Password:   getEnv("DB_PASSWORD", ""),
			Database:   getEnv("DB_DATABASE", "BODEGA_DATOS"),
		})
	}

	if path := getEnv("INSTANCES_FILE", ""); path != "" {
		extra, err := LoadInstances(path)
		if err != nil {
			return nil, err
		}
		cfg.Instances = append(cfg.Instances, extra...)
	}

	return cfg, nil
}

// LoadInstances reads additional connection targets from a JSON file.
func LoadInstances(path string) ([]Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigError{Msg: "cannot read instances file " + path, Err: err}
	}
	var instances []Instance
	if err := json.Unmarshal(data, &instances); err != nil {
		return nil, &models.ConfigError{Msg: "invalid instances file " + path, Err: err}
	}
	for i := range instances {
		if instances[i].Alias == "" {
			instances[i].Alias = instances[i].ServerName
		}
		if instances[i].Database == "" {
			instances[i].Database = "BODEGA_DATOS"
		}
		if instances[i].ServerName == "" {
			return nil, &models.ConfigError{Msg: fmt.Sprintf("instance %q has no server_name", instances[i].Alias)}
		}
	}
	return instances, nil
}

// Instance resolves a connection target by alias. An empty alias selects the first configured one.
func (c *Config) Instance(alias string) (Instance, error) {
	if len(c.Instances) == 0 {
		return Instance{}, &models.ConfigError{Msg: "no database instance configured"}
	}
	if alias == "" {
		return c.Instances[0], nil
	}
	for _, inst := range c.Instances {
		if strings.EqualFold(inst.Alias, alias) {
			return inst, nil
		}
	}
	return Instance{}, &models.ConfigError{Msg: fmt.Sprintf("unknown instance %q", alias)}
}

// MaxOpenConns is the pool size plus its overflow capacity.
func (c *Config) MaxOpenConns() int {
	return c.DBPoolSize + c.DBMaxOverflow
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// DSN builds the data source name for the given driver.
func (i Instance) DSN(driver string) (string, error) {
	switch driver {
	case DriverSQLServer:
		host, instance := splitServer(i.ServerName, `\`)
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(i.Login, i.Password),
			Host:     host,
			RawQuery: url.Values{"database": {i.Database}}.Encode(),
		}
		if instance != "" {
			u.Path = instance
		}
		return u.String(), nil
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=Local",
			i.Login, i.Password, withPort(i.ServerName, "3306"), i.Database), nil
	case DriverPostgres:
		host, port := splitServer(withPort(i.ServerName, "5432"), ":")
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, i.Login, i.Password, i.Database), nil
	case DriverSQLite:
		return i.ServerName, nil
	default:
		return "", &models.ConfigError{Msg: fmt.Sprintf("unsupported driver %q", driver)}
	}
}

func splitServer(server, sep string) (string, string) {
	if idx := strings.Index(server, sep); idx >= 0 {
		return server[:idx], server[idx+len(sep):]
	}
	return server, ""
}

func withPort(server, port string) string {
	if strings.Contains(server, ":") {
		return server
	}
	return server + ":" + port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
