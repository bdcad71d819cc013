package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`

	// SchemaFile 非空时启动执行（如 db/schema.sql），语句需幂等
	SchemaFile string `yaml:"schema_file"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig 监护仪 MQTT 接入配置
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"` // 如 "icu/monitors/+/vitals"
	QoS      byte   `yaml:"qos"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// Bypass 开发模式：无 token 的请求按 bypass 医生处理
	Bypass bool `yaml:"bypass"`
}

// FeedConfig 实时 vitals 推送配置
type FeedConfig struct {
	Interval        time.Duration `yaml:"interval"`
	UseRealMonitor  bool          `yaml:"use_real_monitor"`
	PlaybackCSV     string        `yaml:"playback_csv"`
	RiskThreshold   float64       `yaml:"risk_threshold"`
	MonitorCapacity int           `yaml:"monitor_capacity"`
}

// IngestConfig Redis Stream 接入配置
type IngestConfig struct {
	Stream   string `yaml:"stream"`
	Group    string `yaml:"group"`
	Consumer string `yaml:"consumer"`
}

// PredictConfig 图像预测模型文件；文件不存在时对应接口返回模型未加载
type PredictConfig struct {
	DiseaseModel string `yaml:"disease_model"`
	WoundModel   string `yaml:"wound_model"`
}

// Config icu-monitor 服务配置
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DBEnabled bool           `yaml:"db_enabled"`
	Database  DatabaseConfig `yaml:"database"`
	Redis     RedisConfig    `yaml:"redis"`
	MQTT      MQTTConfig     `yaml:"mqtt"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Feed    FeedConfig    `yaml:"feed"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Predict PredictConfig `yaml:"predict"`
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8000"
	cfg.DBEnabled = true
	cfg.Database = DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "icu",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Redis = RedisConfig{Enabled: true, Addr: "localhost:6379"}
	cfg.MQTT = MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "icu-monitor",
		Topic:    "icu/monitors/+/vitals",
		QoS:      1,
	}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Auth = AuthConfig{
		JWTSecret: "change-me",
		TokenTTL:  30 * time.Minute,
	}
	cfg.Feed = FeedConfig{
		Interval:        2 * time.Second,
		PlaybackCSV:     "data/summary_features_added_data.csv",
		RiskThreshold:   70.0,
		MonitorCapacity: 25,
	}
	cfg.Ingest = IngestConfig{
		Stream:   "icu:monitor:raw",
		Group:    "icu-monitor",
		Consumer: "icu-monitor-1",
	}
	cfg.Predict = PredictConfig{
		DiseaseModel: "models/disease_prediction_model.yaml",
		WoundModel:   "models/seg_model.yaml",
	}
	return cfg
}

// Load 加载配置：默认值 -> CONFIG_FILE (yaml) -> 环境变量
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTP.Addr = ":" + port
	}

	cfg.DBEnabled = getEnvBool("DB_ENABLED", cfg.DBEnabled)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.SchemaFile = getEnv("DB_SCHEMA_FILE", cfg.Database.SchemaFile)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", cfg.MQTT.Enabled)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.Bypass = getEnvBool("AUTH_BYPASS", cfg.Auth.Bypass)

	cfg.Feed.Interval = getEnvDuration("FEED_INTERVAL", cfg.Feed.Interval)
	cfg.Feed.UseRealMonitor = getEnvBool("USE_REAL_MONITOR_DATA", cfg.Feed.UseRealMonitor)
	cfg.Feed.PlaybackCSV = getEnv("PLAYBACK_CSV", cfg.Feed.PlaybackCSV)

	cfg.Ingest.Stream = getEnv("INGEST_STREAM", cfg.Ingest.Stream)
	cfg.Ingest.Group = getEnv("INGEST_GROUP", cfg.Ingest.Group)
	cfg.Ingest.Consumer = getEnv("INGEST_CONSUMER", cfg.Ingest.Consumer)

	cfg.Predict.DiseaseModel = getEnv("PREDICT_DISEASE_MODEL", cfg.Predict.DiseaseModel)
	cfg.Predict.WoundModel = getEnv("PREDICT_WOUND_MODEL", cfg.Predict.WoundModel)

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
