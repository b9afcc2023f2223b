package database

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rickyzatnika/new-spinner/config"
)

// Open connects to the database selected by store.driver ("mysql" or "sqlite").
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gcfg := &gorm.Config{Logger: gormLogger(cfg.IsDevelopment()), TranslateError: true}

	switch cfg.Store.Driver {
	case "mysql":
		return connectMySQL(cfg.DB, gcfg, log)
	case "sqlite":
		log.Info("using sqlite database", zap.String("path", cfg.SQLite.Path))
		db, err := gorm.Open(sqlite.Open(cfg.SQLite.Path), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer; serialise through one connection.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Store.Driver)
	}
}

// OpenSQLiteMemory opens a private in-memory database, used by tests.
func OpenSQLiteMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func gormLogger(development bool) logger.Interface {
	if development {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Silent)
}

// BuildDSN assembles a MySQL DSN from the discrete settings, adding TLS and
// timeout parameters when they are missing. An explicit DSN wins.
func BuildDSN(c config.DBConfig) string {
	if c.DSN != "" {
		return c.DSN
	}
	params := c.Params
	add := func(p string) {
		if params == "" {
			params = p
		} else {
			params = params + "&" + p
		}
	}
	if !strings.Contains(params, "tls=") {
		switch strings.ToLower(c.TLS) {
		case "true", "preferred":
			if c.TLSVerify {
				add("tls=custom")
			} else {
				add("tls=" + strings.ToLower(c.TLS))
			}
		}
	}
	if !strings.Contains(params, "timeout=") {
		add("timeout=10s")
	}
	if !strings.Contains(params, "readTimeout=") {
		add("readTimeout=10s")
	}
	if !strings.Contains(params, "writeTimeout=") {
		add("writeTimeout=10s")
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", c.User, c.Pass, c.Host, c.Port, c.Name, params)
}

func connectMySQL(c config.DBConfig, gcfg *gorm.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := BuildDSN(c)

	safeDSN := dsn
	if c.Pass != "" {
		safeDSN = strings.Replace(safeDSN, c.Pass, "******", 1)
	}
	log.Info("using mysql database", zap.String("dsn", safeDSN))

	if strings.Contains(dsn, "tls=custom") {
		tlsCfg := &tls.Config{}
		if c.TLSCAPath != "" {
			caCert, err := os.ReadFile(c.TLSCAPath)
			if err != nil {
				return nil, fmt.Errorf("failed reading DB TLS CA file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, errors.New("failed to append CA certs")
			}
			tlsCfg.RootCAs = pool
		}
		if err := mysqldriver.RegisterTLSConfig("custom", tlsCfg); err != nil {
			return nil, fmt.Errorf("register tls config: %w", err)
		}
	}

	retries := c.ConnectRetries
	if retries <= 0 {
		retries = 1
	}
	var db *gorm.DB
	var err error
	backoff := time.Second
	for attempt := 1; attempt <= retries; attempt++ {
		db, err = gorm.Open(gormmysql.Open(dsn), gcfg)
		if err == nil {
			break
		}
		log.Warn("database connect failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < retries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)

	timeout := c.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if err := pingWithTimeout(sqlDB, timeout); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

func pingWithTimeout(db *sql.DB, timeout time.Duration) error {
	ch := make(chan error, 1)
	go func() {
		ch <- db.Ping()
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("ping timeout after %s", timeout)
	}
}
