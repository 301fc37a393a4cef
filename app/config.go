package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/mailservice"
	"github.com/sushihentaime/postline/internal/storage"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	SiteURL        string   `mapstructure:"SITE_URL"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`

	DBHost         string        `mapstructure:"POSTGRES_HOST"`
	DBPort         string        `mapstructure:"POSTGRES_PORT"`
	DBUser         string        `mapstructure:"POSTGRES_USER"`
	DBPassword     string        `mapstructure:"POSTGRES_PASSWORD"`
	DBName         string        `mapstructure:"POSTGRES_DB"`
	DBMaxOpenConns int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxIdleTime  time.Duration `mapstructure:"DB_MAX_IDLE_TIME"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3PublicURL string `mapstructure:"S3_PUBLIC_URL"`

	CacheTTL           time.Duration `mapstructure:"CACHE_TTL"`
	AggregationMode    string        `mapstructure:"AGGREGATION_MODE"`
	CommentFanoutLimit int           `mapstructure:"COMMENT_FANOUT_LIMIT"`

	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
}

var configKeys = []string{
	"PORT", "ENVIRONMENT", "VERSION", "SITE_URL", "TRUSTED_ORIGINS",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_MAX_IDLE_TIME",
	"RABBITMQ_HOST", "RABBITMQ_PORT", "RABBITMQ_USER", "RABBITMQ_PASSWORD",
	"MAIL_HOST", "MAIL_PORT", "MAIL_USER", "MAIL_PASSWORD", "MAIL_SENDER",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_PUBLIC_URL",
	"CACHE_TTL", "AGGREGATION_MODE", "COMMENT_FANOUT_LIMIT",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_ENABLED",
}

// loadConfig reads the env file at path. Environment variables override values from the file.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "4000")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_TIME", "15m")
	v.SetDefault("RABBITMQ_PORT", "5672")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("AGGREGATION_MODE", string(common.AggregationLenient))
	v.SetDefault("COMMENT_FANOUT_LIMIT", 8)
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 4)
	v.SetDefault("RATE_LIMIT_ENABLED", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.TrustedOrigins = splitOrigins(v.GetString("TRUSTED_ORIGINS"))

	if _, err := common.ParseAggregationMode(config.AggregationMode); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(config.Port, ":") {
		config.Port = ":" + config.Port
	}

	return &config, nil
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}

func (c *Config) dbConfig() common.DBConfig {
	return common.DBConfig{
		Host:         c.DBHost,
		Port:         c.DBPort,
		User:         c.DBUser,
		Password:     c.DBPassword,
		Name:         c.DBName,
		MaxOpenConns: c.DBMaxOpenConns,
		MaxIdleConns: c.DBMaxIdleConns,
		MaxIdleTime:  c.DBMaxIdleTime,
	}
}

func (c *Config) amqpURI() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.MQUser, c.MQPassword, c.MQHost, c.MQPort)
}

func (c *Config) mailConfig() mailservice.MailConfig {
	return mailservice.MailConfig{
		Host:     c.MailHost,
		Port:     c.MailPort,
		Username: c.MailUser,
		Password: c.MailPassword,
		Sender:   c.MailSender,
	}
}

func (c *Config) storageConfig() storage.Config {
	return storage.Config{
		Endpoint:  c.S3Endpoint,
		Region:    c.S3Region,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Bucket:    c.S3Bucket,
		PublicURL: c.S3PublicURL,
	}
}

func (c *Config) aggregationMode() common.AggregationMode {
	mode, _ := common.ParseAggregationMode(c.AggregationMode)
	return mode
}
