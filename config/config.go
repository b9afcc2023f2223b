package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		Port            string        `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		RequestTimeout  time.Duration `mapstructure:"request_timeout"`
		MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
		HSTS            bool          `mapstructure:"hsts"`
		CSP             string        `mapstructure:"csp"`
	} `mapstructure:"server"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	Store struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"store"`
	DB     DBConfig `mapstructure:"db"`
	SQLite struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
	Log struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenTTL      time.Duration `mapstructure:"token_ttl"`
		Issuer        string        `mapstructure:"issuer"`
		AdminUsername string        `mapstructure:"admin_username"`
		AdminPassword string        `mapstructure:"admin_password"`
	} `mapstructure:"auth"`
	Spin struct {
		DrawMode string `mapstructure:"draw_mode"`
	} `mapstructure:"spin"`
	Code struct {
		MaxAttempts int `mapstructure:"max_attempts"`
	} `mapstructure:"code"`
	Register struct {
		OnePerIP bool `mapstructure:"one_per_ip"`
	} `mapstructure:"register"`
	Rate struct {
		RegisterPerWindow int           `mapstructure:"register_per_window"`
		SpinPerWindow     int           `mapstructure:"spin_per_window"`
		Window            time.Duration `mapstructure:"window"`
		TrustedProxies    []string      `mapstructure:"trusted_proxies"`
	} `mapstructure:"rate"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
}

// DBConfig carries the MySQL connection settings.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Pass            string        `mapstructure:"pass"`
	Name            string        `mapstructure:"name"`
	Params          string        `mapstructure:"params"`
	TLS             string        `mapstructure:"tls"`
	TLSVerify       bool          `mapstructure:"tls_verify"`
	TLSCAPath       string        `mapstructure:"tls_ca_path"`
	ConnectRetries  int           `mapstructure:"connect_retries"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Env, "development")
}

// Load reads .env (without overwriting variables that are already set),
// an optional config.yaml and the environment, in that order of precedence.
func Load() (Config, error) {
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				_ = os.Setenv(k, v)
			}
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("app.env", "APP_ENV", "ENV")
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.max_body_bytes", "SERVER_MAX_BODY_BYTES", "MAX_BODY_BYTES")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("rate.trusted_proxies", "RATE_TRUSTED_PROXIES", "TRUSTED_PROXIES")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD", "REDIS_PASS")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return Config{}, fmt.Errorf("read config file failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config failed: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.hsts", false)
	v.SetDefault("server.csp", "default-src 'none'; frame-ancestors 'none'; base-uri 'self';")
	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000", "http://localhost:8080", "http://127.0.0.1:3000", "http://127.0.0.1:8080",
	})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", "3306")
	v.SetDefault("db.user", "root")
	v.SetDefault("db.pass", "")
	v.SetDefault("db.name", "lucky_wheel")
	v.SetDefault("db.params", "charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("db.tls", "false")
	v.SetDefault("db.tls_verify", false)
	v.SetDefault("db.tls_ca_path", "")
	v.SetDefault("db.connect_retries", 5)
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 25)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.ping_timeout", "5s")
	v.SetDefault("sqlite.path", "lucky_wheel.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "6h")
	v.SetDefault("auth.issuer", "new-spinner")
	v.SetDefault("auth.admin_username", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("spin.draw_mode", "server")
	v.SetDefault("code.max_attempts", 20)
	v.SetDefault("register.one_per_ip", false)
	v.SetDefault("rate.register_per_window", 20)
	v.SetDefault("rate.spin_per_window", 60)
	v.SetDefault("rate.window", "1m")
	v.SetDefault("rate.trusted_proxies", []string{})
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

func (c *Config) normalize() {
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Spin.DrawMode = strings.ToLower(strings.TrimSpace(c.Spin.DrawMode))
	c.Redis.Addr = strings.ReplaceAll(strings.TrimSpace(c.Redis.Addr), " ", "")
	c.CORS.AllowedOrigins = trimList(c.CORS.AllowedOrigins)
	c.Rate.TrustedProxies = trimList(c.Rate.TrustedProxies)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "mysql", "sqlite", "memory":
	default:
		return fmt.Errorf("store.driver must be one of mysql, sqlite, memory (got %q)", c.Store.Driver)
	}
	switch c.Spin.DrawMode {
	case "server", "client":
	default:
		return fmt.Errorf("spin.draw_mode must be server or client (got %q)", c.Spin.DrawMode)
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server.port is required")
	}
	if c.Code.MaxAttempts <= 0 {
		return errors.New("code.max_attempts must be positive")
	}
	if c.Rate.Window <= 0 {
		return errors.New("rate.window must be positive")
	}
	if c.Auth.AdminUsername != "" && c.Auth.AdminPassword == "" {
		return errors.New("auth.admin_password is required when auth.admin_username is set")
	}
	if c.Auth.AdminUsername != "" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when an admin account is configured")
	}
	if !c.IsDevelopment() && c.Store.Driver == "memory" {
		return errors.New("store.driver memory is only allowed in development")
	}
	return nil
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		// env values arrive as a single comma separated entry
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
