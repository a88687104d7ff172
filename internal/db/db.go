package db

import (
	"database/sql"
	"fmt"
	"regexp"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flightmatrix/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

func Open(cfg config.DBConfig) (*DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
	if err != nil {
		return nil, err
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{Gorm: gdb, SQL: sqldb}, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func Ping(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Ping()
}

// tzNamePattern covers IANA zone names ("America/Sao_Paulo"), abbreviations
// ("UTC") and fixed offsets ("+03:00").
var tzNamePattern = regexp.MustCompile(`^[A-Za-z0-9+\-/_:]+$`)

func SetTimezone(db *DB, tz string) error {
	if tz == "" {
		return nil
	}
	if !ValidTimezone(tz) {
		return fmt.Errorf("invalid timezone %q", tz)
	}
	_, err := db.SQL.Exec("SELECT set_config('TimeZone', $1, false)", tz)
	return err
}

func ValidTimezone(tz string) bool {
	return tzNamePattern.MatchString(tz)
}
