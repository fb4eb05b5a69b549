package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

type Config struct {
	Server Server `yaml:"server"`
	Checks Checks `yaml:"checks"`
}

type Server struct {
	Addr          string `yaml:"addr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
}

type Checks struct {
	CacheBackend         string        `yaml:"cacheBackend"` // memcached, redis, memory, none
	CacheTTL             time.Duration `yaml:"cacheTTL"`
	MaxDependencies      int           `yaml:"maxDependencies"`
	FormatVersion        string        `yaml:"formatVersion"`
	KeyPrefix            string        `yaml:"keyPrefix"`
	TypeCheckMaxEntities int           `yaml:"typeCheckMaxEntities"`
	SparqlEndpoint       string        `yaml:"sparqlEndpoint"`
	SparqlTimeout        time.Duration `yaml:"sparqlTimeout"`
	SparqlCacheTTL       time.Duration `yaml:"sparqlCacheTTL"`
	ConstraintCacheTTL   time.Duration `yaml:"constraintCacheTTL"`
	CheckConcurrency     int           `yaml:"checkConcurrency"`
}

const (
	CacheBackendMemcached = "memcached"
	CacheBackendRedis     = "redis"
	CacheBackendMemory    = "memory"
	CacheBackendNone      = "none"
)

// Default returns the configuration used for every value the file leaves out.
func Default() Config {
	return Config{
		Server: Server{
			Addr:      ":8000",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Checks: Checks{
			CacheBackend:         CacheBackendMemory,
			CacheTTL:             24 * time.Hour,
			MaxDependencies:      10000,
			FormatVersion:        "v2.2",
			KeyPrefix:            "WikibaseQualityConstraints",
			TypeCheckMaxEntities: 1000,
			SparqlTimeout:        5 * time.Second,
			SparqlCacheTTL:       10 * time.Minute,
			ConstraintCacheTTL:   time.Minute,
			CheckConcurrency:     4,
		},
	}
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Default()
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// applyDefaults restores defaults for values explicitly set to their zero value.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Checks.CacheBackend == "" {
		c.Checks.CacheBackend = d.Checks.CacheBackend
	}
	if c.Checks.CacheTTL <= 0 {
		c.Checks.CacheTTL = d.Checks.CacheTTL
	}
	if c.Checks.MaxDependencies <= 0 {
		c.Checks.MaxDependencies = d.Checks.MaxDependencies
	}
	if c.Checks.FormatVersion == "" {
		c.Checks.FormatVersion = d.Checks.FormatVersion
	}
	if c.Checks.KeyPrefix == "" {
		c.Checks.KeyPrefix = d.Checks.KeyPrefix
	}
	if c.Checks.TypeCheckMaxEntities <= 0 {
		c.Checks.TypeCheckMaxEntities = d.Checks.TypeCheckMaxEntities
	}
	if c.Checks.SparqlTimeout <= 0 {
		c.Checks.SparqlTimeout = d.Checks.SparqlTimeout
	}
	if c.Checks.SparqlCacheTTL <= 0 {
		c.Checks.SparqlCacheTTL = d.Checks.SparqlCacheTTL
	}
	if c.Checks.ConstraintCacheTTL <= 0 {
		c.Checks.ConstraintCacheTTL = d.Checks.ConstraintCacheTTL
	}
	if c.Checks.CheckConcurrency <= 0 {
		c.Checks.CheckConcurrency = d.Checks.CheckConcurrency
	}
}

func (c Config) Validate() error {
	switch c.Checks.CacheBackend {
	case CacheBackendMemory, CacheBackendNone:
	case CacheBackendMemcached:
		if c.Server.MemcachedAddr == "" {
			return errors.New("cacheBackend memcached requires server.memcachedAddr")
		}
	case CacheBackendRedis:
		if c.Server.RedisAddr == "" {
			return errors.New("cacheBackend redis requires server.redisAddr")
		}
	default:
		return errors.Errorf("unknown cacheBackend %q", c.Checks.CacheBackend)
	}
	return nil
}
