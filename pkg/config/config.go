package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	// Mapping table and validation rules files
	MappingPath string `mapstructure:"mappingPath" validate:"required"`
	RulesPath   string `mapstructure:"rulesPath"`

	// Where extracted source files are read from and reports are written to
	InputDir  string `mapstructure:"inputDir" validate:"required"`
	OutputDir string `mapstructure:"outputDir" validate:"required"`

	// What to migrate
	Entities  []string `mapstructure:"entities" validate:"min=1,dive,oneof=product category customer order page"`
	Targets   []string `mapstructure:"targets" validate:"min=1,dive,oneof=commerce content"`
	Regions   []string `mapstructure:"regions"`
	Languages []string `mapstructure:"languages"`

	// Transformation parameters
	DefaultCurrency      string   `mapstructure:"defaultCurrency" validate:"len=3"`
	MediaBaseURL         string   `mapstructure:"mediaBaseUrl" validate:"omitempty,url"`
	RelationshipPrefixes []string `mapstructure:"relationshipPrefixes"`

	// Destination REST APIs
	Commerce DestinationConfig `mapstructure:"commerce"`
	Content  DestinationConfig `mapstructure:"content"`

	Source     SourceConfig     `mapstructure:"source"`
	Export     ExportConfig     `mapstructure:"export"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Logging    LoggingConfig    `mapstructure:"logging"`

	// HTTP timeout for destination and enrichment calls
	RequestTimeoutSeconds int `mapstructure:"requestTimeoutSeconds" validate:"gte=0"`
}

// DestinationConfig represents one destination REST API
type DestinationConfig struct {
	BaseURL   string            `mapstructure:"baseUrl" validate:"omitempty,url"`
	TokenEnv  string            `mapstructure:"tokenEnv"`
	Endpoints map[string]string `mapstructure:"endpoints"`
}

// SourceConfig represents where source records come from
type SourceConfig struct {
	Type        string   `mapstructure:"type" validate:"oneof=file elasticsearch"`
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	APIKey      string   `mapstructure:"apiKey"`
	IndexPrefix string   `mapstructure:"indexPrefix"`
	BatchSize   int      `mapstructure:"batchSize" validate:"gte=0"`
}

// ExportConfig represents where transformed records are written besides the APIs
type ExportConfig struct {
	JSON  bool        `mapstructure:"json"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

// MongoConfig represents the optional MongoDB staging sink
type MongoConfig struct {
	ConnectionString string `mapstructure:"connectionString"`
	Database         string `mapstructure:"database"`
}

// EnrichmentConfig represents the content-enrichment service
type EnrichmentConfig struct {
	BaseURL         string      `mapstructure:"baseUrl" validate:"omitempty,url"`
	Cache           string      `mapstructure:"cache" validate:"oneof=memory redis"`
	CacheTTLSeconds int         `mapstructure:"cacheTtlSeconds" validate:"gte=0"`
	Redis           RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents the Redis connection used by the enrichment cache
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// LoadConfig loads the configuration from a JSON or YAML file. An empty path
// yields the defaults, still subject to MIGRATE_* environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MIGRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	config.DefaultCurrency = strings.ToLower(config.DefaultCurrency)
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mappingPath", "field-mapping.json")
	v.SetDefault("rulesPath", "validation-rules.json")
	v.SetDefault("inputDir", "data/source")
	v.SetDefault("outputDir", "data/output")
	v.SetDefault("entities", []string{"category", "product", "customer", "order", "page"})
	v.SetDefault("targets", []string{"commerce", "content"})
	v.SetDefault("regions", []string{})
	v.SetDefault("languages", []string{})
	v.SetDefault("defaultCurrency", "eur")
	v.SetDefault("relationshipPrefixes", []string{"entry:", "ref:"})
	v.SetDefault("commerce.tokenEnv", "MEDUSA_API_TOKEN")
	v.SetDefault("content.tokenEnv", "STRAPI_API_TOKEN")
	v.SetDefault("source.type", "file")
	v.SetDefault("source.batchSize", 500)
	v.SetDefault("export.json", true)
	v.SetDefault("enrichment.cache", "memory")
	v.SetDefault("enrichment.cacheTtlSeconds", 300)
	v.SetDefault("enrichment.redis.addr", "localhost:6379")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("requestTimeoutSeconds", 30)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Source.Type == "elasticsearch" && len(config.Source.Addresses) == 0 {
		return fmt.Errorf("at least one Elasticsearch address is required when source type is elasticsearch")
	}

	if config.Export.Mongo.ConnectionString != "" && config.Export.Mongo.Database == "" {
		return fmt.Errorf("MongoDB database name is required when a MongoDB connection string is set")
	}

	if config.Enrichment.Cache == "redis" && config.Enrichment.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when enrichment cache is redis")
	}

	return nil
}

// Destination returns the destination config for a target system name
func (c *Config) Destination(target string) DestinationConfig {
	if target == "content" {
		return c.Content
	}
	return c.Commerce
}

// SplitList splits a comma separated flag value, dropping blanks
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
